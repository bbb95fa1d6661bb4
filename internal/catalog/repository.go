package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khata-erp/khata-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the item catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, title, author, category, production_price, selling_price, stock, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.Title, &it.Author, &it.Category, &it.ProductionPrice, &it.SellingPrice, &it.Stock, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("catalog: item: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return &it, nil
}

// CreateItem inserts a catalog entry and returns its id.
func (r *Repository) CreateItem(ctx context.Context, it Item) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO items (title, author, category, production_price, selling_price, stock, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		it.Title, it.Author, it.Category, it.ProductionPrice, it.SellingPrice, it.Stock, it.CreatedAt).Scan(&id)
	return id, err
}

// GetItem fetches a single item.
func (r *Repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	return scanItem(row)
}

// UpdateItem applies column updates.
func (r *Repository) UpdateItem(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	query := `UPDATE items SET updated_at = now()`
	args := []interface{}{}
	i := 1
	for col, val := range updates {
		query += fmt.Sprintf(", %s = $%d", col, i)
		args = append(args, val)
		i++
	}
	query += fmt.Sprintf(" WHERE id = $%d", i)
	args = append(args, id)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: item %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// DeleteItem removes an item. Historical sale lines keep referencing the id;
// profit lookups then degrade to zero for those lines.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: item %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// ListItems returns a filtered page of items plus the total count.
func (r *Repository) ListItems(ctx context.Context, req ListItemsRequest) ([]Item, int, error) {
	page := shared.NewPagination(req.Page, req.PerPage, 0)
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if req.Search != nil && *req.Search != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR author ILIKE $%d)", i, i)
		args = append(args, "%"+*req.Search+"%")
		i++
	}
	if req.Category != nil && *req.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", i)
		args = append(args, *req.Category)
		i++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM items`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + itemColumns + ` FROM items` + where +
		fmt.Sprintf(" ORDER BY title LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CostMap returns production price per item id for profit lookups.
func (r *Repository) CostMap(ctx context.Context) (map[int64]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, production_price FROM items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	costs := make(map[int64]float64)
	for rows.Next() {
		var id int64
		var cost float64
		if err := rows.Scan(&id, &cost); err != nil {
			return nil, err
		}
		costs[id] = cost
	}
	return costs, rows.Err()
}
