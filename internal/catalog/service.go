package catalog

import (
	"context"
	"fmt"

	"github.com/khata-erp/khata-erp/internal/shared"
)

// RepositoryPort abstracts catalog persistence for the service.
type RepositoryPort interface {
	CreateItem(ctx context.Context, it Item) (int64, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	UpdateItem(ctx context.Context, id int64, updates map[string]interface{}) error
	DeleteItem(ctx context.Context, id int64) error
	ListItems(ctx context.Context, req ListItemsRequest) ([]Item, int, error)
	CostMap(ctx context.Context) (map[int64]float64, error)
}

// Service provides catalog business logic.
type Service struct {
	repo  RepositoryPort
	clock shared.Clock
}

// NewService constructs a catalog service.
func NewService(repo RepositoryPort, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreateItem adds a catalog entry.
func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if req.SellingPrice < 0 || req.ProductionPrice < 0 || req.Stock < 0 {
		return nil, fmt.Errorf("%w: prices and stock must be non-negative", shared.ErrInvalidArgument)
	}
	now := s.clock.Now()
	item := Item{
		Title:           req.Title,
		Author:          req.Author,
		Category:        req.Category,
		ProductionPrice: req.ProductionPrice,
		SellingPrice:    req.SellingPrice,
		Stock:           req.Stock,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	id, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	item.ID = id
	return &item, nil
}

// UpdateItem patches catalog fields. Stock is deliberately not updatable
// here; only sales, purchases and returns move it.
func (s *Service) UpdateItem(ctx context.Context, id int64, req UpdateItemRequest) (*Item, error) {
	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Author != nil {
		updates["author"] = *req.Author
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.ProductionPrice != nil {
		if *req.ProductionPrice < 0 {
			return nil, fmt.Errorf("%w: production price must be non-negative", shared.ErrInvalidArgument)
		}
		updates["production_price"] = *req.ProductionPrice
	}
	if req.SellingPrice != nil {
		if *req.SellingPrice < 0 {
			return nil, fmt.Errorf("%w: selling price must be non-negative", shared.ErrInvalidArgument)
		}
		updates["selling_price"] = *req.SellingPrice
	}
	if err := s.repo.UpdateItem(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.repo.GetItem(ctx, id)
}

// GetItem retrieves an item by id.
func (s *Service) GetItem(ctx context.Context, id int64) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems returns a paginated catalog page.
func (s *Service) ListItems(ctx context.Context, req ListItemsRequest) ([]Item, shared.Pagination, error) {
	items, total, err := s.repo.ListItems(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// DeleteItem removes an item from the catalog. Historical sales referencing
// it stay intact but lose their profit lookup.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.repo.DeleteItem(ctx, id)
}

// CostLookup builds the item-cost lookup consumed by profit calculations.
func (s *Service) CostLookup(ctx context.Context) (func(int64) (float64, bool), error) {
	costs, err := s.repo.CostMap(ctx)
	if err != nil {
		return nil, err
	}
	return func(itemID int64) (float64, bool) {
		cost, ok := costs[itemID]
		return cost, ok
	}, nil
}
