package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/shared"
)

const defaultDueTerm = 30 * 24 * time.Hour

// RepositoryPort is the persistence surface the purchase service needs.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetPurchase(ctx context.Context, id int64) (*Purchase, error)
	ListPurchases(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error)
}

// TxRepository is the write surface available inside the purchase transaction.
type TxRepository interface {
	// FindItemByTitle locks and returns the matching catalog item, or
	// shared.ErrNotFound when the title is unknown.
	FindItemByTitle(ctx context.Context, title string) (int64, error)
	CreateItem(ctx context.Context, title, category string, author *string, cost float64, stock int) (int64, error)
	AdjustStock(ctx context.Context, itemID int64, delta int) error
	UpdateItemCost(ctx context.Context, itemID int64, cost float64) error
	NextSequence(ctx context.Context, name string) (int64, error)
	InsertPurchase(ctx context.Context, p Purchase) (int64, error)
	InsertExpense(ctx context.Context, description string, amount float64, method ledger.PaymentMethod, date time.Time) error
	InsertTransaction(ctx context.Context, t dues.Transaction) (int64, error)
}

type Service struct {
	repo  RepositoryPort
	clock shared.Clock
	idem  *shared.IdempotencyStore
}

func NewService(repo RepositoryPort, clock shared.Clock, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, clock: clock, idem: idem}
}

// claimKey reserves an idempotency key before the mutator runs. The returned
// release func frees the key when the mutation fails, so the caller may retry
// with the same key.
func (s *Service) claimKey(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return func() {}, nil
	}
	if err := s.idem.CheckAndInsert(ctx, key, shared.IdempotencyModulePurchases); err != nil {
		return nil, err
	}
	return func() { _ = s.idem.Delete(context.WithoutCancel(ctx), key) }, nil
}

// AddPurchase books a supplier purchase in one transaction: stock goes up
// (creating catalog items on first sight), the paid portion becomes an
// expense and the due portion a pending payable.
func (s *Service) AddPurchase(ctx context.Context, req AddPurchaseRequest) (*Purchase, error) {
	if err := validateAddPurchase(req); err != nil {
		return nil, err
	}
	release, err := s.claimKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var purchase Purchase
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines := make([]PurchaseLine, 0, len(req.Items))
		var total float64
		for _, line := range req.Items {
			itemID, err := tx.FindItemByTitle(ctx, line.ItemName)
			switch {
			case err == nil:
				if err := tx.AdjustStock(ctx, itemID, line.Quantity); err != nil {
					return fmt.Errorf("restock %q: %w", line.ItemName, err)
				}
				// Latest purchase cost becomes the item's production price.
				if err := tx.UpdateItemCost(ctx, itemID, line.Cost); err != nil {
					return fmt.Errorf("update cost %q: %w", line.ItemName, err)
				}
			case errors.Is(err, shared.ErrNotFound):
				itemID, err = tx.CreateItem(ctx, line.ItemName, line.Category, line.Author, line.Cost, line.Quantity)
				if err != nil {
					return fmt.Errorf("create item %q: %w", line.ItemName, err)
				}
			default:
				return fmt.Errorf("item %q: %w", line.ItemName, err)
			}
			lines = append(lines, PurchaseLine{
				ItemID:   itemID,
				ItemName: line.ItemName,
				Category: line.Category,
				Author:   line.Author,
				Quantity: line.Quantity,
				Cost:     line.Cost,
			})
			total += float64(line.Quantity) * line.Cost
		}

		unpaid := unpaidRemainder(req.PaymentMethod, total, req.AmountPaid)
		if unpaid < 0 {
			return fmt.Errorf("%w: amount paid exceeds purchase total", shared.ErrInvalidArgument)
		}
		paid := total - unpaid

		seq, err := tx.NextSequence(ctx, "purchase")
		if err != nil {
			return fmt.Errorf("purchase sequence: %w", err)
		}

		dueDate := now.Add(defaultDueTerm)
		if req.DueDate != nil {
			dueDate = *req.DueDate
		}
		purchase = Purchase{
			PurchaseID:    fmt.Sprintf("PUR-%04d", seq),
			Date:          now,
			DueDate:       dueDate,
			Supplier:      req.Supplier,
			Items:         lines,
			TotalAmount:   total,
			PaymentMethod: req.PaymentMethod,
			AmountPaid:    req.AmountPaid,
			CreatedAt:     now,
		}
		id, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		purchase.ID = id

		if paid > 0 {
			method := req.PaymentMethod
			if !method.Immediate() {
				method = ledger.MethodCash
			}
			desc := fmt.Sprintf("Purchase %s from %s", purchase.PurchaseID, req.Supplier)
			if err := tx.InsertExpense(ctx, desc, paid, method, now); err != nil {
				return fmt.Errorf("book purchase expense: %w", err)
			}
		}
		if unpaid > 0 {
			_, err := tx.InsertTransaction(ctx, dues.Transaction{
				Description: fmt.Sprintf("Due to %s for %s", req.Supplier, purchase.PurchaseID),
				Amount:      unpaid,
				DueDate:     dueDate,
				Status:      dues.StatusPending,
				Type:        dues.TypePayable,
				Purpose:     dues.PurposePurchaseDue,
				CreatedAt:   now,
			})
			if err != nil {
				return fmt.Errorf("insert payable: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		release()
		return nil, err
	}
	return &purchase, nil
}

func validateAddPurchase(req AddPurchaseRequest) error {
	switch req.PaymentMethod {
	case ledger.MethodCash, ledger.MethodBank, ledger.MethodDue, ledger.MethodSplit:
	default:
		return fmt.Errorf("%w: unknown payment method %q", shared.ErrInvalidArgument, req.PaymentMethod)
	}
	if req.Supplier == "" {
		return fmt.Errorf("%w: supplier is required", shared.ErrInvalidArgument)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: purchase needs at least one item", shared.ErrInvalidArgument)
	}
	for _, line := range req.Items {
		if line.ItemName == "" {
			return fmt.Errorf("%w: item name is required", shared.ErrInvalidArgument)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", shared.ErrInvalidArgument)
		}
		if line.Cost < 0 {
			return fmt.Errorf("%w: cost must be non-negative", shared.ErrInvalidArgument)
		}
	}
	if req.PaymentMethod == ledger.MethodSplit && (req.AmountPaid == nil || *req.AmountPaid <= 0) {
		return fmt.Errorf("%w: split purchase requires a positive amount paid", shared.ErrInvalidArgument)
	}
	return nil
}

func unpaidRemainder(method ledger.PaymentMethod, total float64, amountPaid *float64) float64 {
	switch method {
	case ledger.MethodDue:
		return total
	case ledger.MethodSplit:
		paid := 0.0
		if amountPaid != nil {
			paid = *amountPaid
		}
		return total - paid
	default:
		return 0
	}
}

func (s *Service) GetPurchase(ctx context.Context, id int64) (*Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

func (s *Service) ListPurchases(ctx context.Context, req ListPurchasesRequest) ([]Purchase, shared.Pagination, error) {
	purchases, total, err := s.repo.ListPurchases(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return purchases, shared.NewPagination(req.Page, req.PerPage, total), nil
}
