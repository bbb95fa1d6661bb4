package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/platform/db"
	"github.com/khata-erp/khata-erp/internal/shared"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTxRetry(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const purchaseColumns = `id, purchase_id, date, due_date, supplier, total_amount, payment_method, amount_paid, created_at`

func scanPurchase(row pgx.Row) (*Purchase, error) {
	var p Purchase
	err := row.Scan(&p.ID, &p.PurchaseID, &p.Date, &p.DueDate, &p.Supplier,
		&p.TotalAmount, &p.PaymentMethod, &p.AmountPaid, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan purchase: %w", err)
	}
	return &p, nil
}

func (r *Repository) GetPurchase(ctx context.Context, id int64) (*Purchase, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
	p, err := scanPurchase(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) loadLines(ctx context.Context, p *Purchase) error {
	rows, err := r.pool.Query(ctx, `
		SELECT item_id, item_name, category, author, quantity, cost
		FROM purchase_lines WHERE purchase_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("load purchase lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line PurchaseLine
		if err := rows.Scan(&line.ItemID, &line.ItemName, &line.Category, &line.Author, &line.Quantity, &line.Cost); err != nil {
			return fmt.Errorf("scan purchase line: %w", err)
		}
		p.Items = append(p.Items, line)
	}
	return rows.Err()
}

func (r *Repository) ListPurchases(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if req.Supplier != "" {
		where += fmt.Sprintf(` AND supplier ILIKE $%d`, idx)
		args = append(args, "%"+req.Supplier+"%")
		idx++
	}
	if req.From != nil {
		where += fmt.Sprintf(` AND date >= $%d`, idx)
		args = append(args, *req.From)
		idx++
	}
	if req.To != nil {
		where += fmt.Sprintf(` AND date <= $%d`, idx)
		args = append(args, *req.To)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM purchases %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		purchaseColumns, where, idx, idx+1)
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var out []Purchase
	for rows.Next() {
		pur, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *pur)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		if err := r.loadLines(ctx, &out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// ============================================================================
// TRANSACTION REPOSITORY
// ============================================================================

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) FindItemByTitle(ctx context.Context, title string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM items WHERE title = $1 FOR UPDATE`, title).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find item by title: %w", err)
	}
	return id, nil
}

func (t *txRepo) CreateItem(ctx context.Context, title, category string, author *string, cost float64, stock int) (int64, error) {
	var id int64
	// Selling price starts at cost; catalog updates set the real price later.
	err := t.tx.QueryRow(ctx, `
		INSERT INTO items (title, author, category, production_price, selling_price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4, $5, now(), now())
		RETURNING id`,
		title, author, category, cost, stock).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create item: %w", err)
	}
	return id, nil
}

func (t *txRepo) AdjustStock(ctx context.Context, itemID int64, delta int) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE items SET stock = stock + $1, updated_at = now()
		WHERE id = $2 AND stock + $1 >= 0`, delta, itemID)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) UpdateItemCost(ctx context.Context, itemID int64, cost float64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE items SET production_price = $1, updated_at = now() WHERE id = $2`, cost, itemID)
	if err != nil {
		return fmt.Errorf("update item cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) NextSequence(ctx context.Context, name string) (int64, error) {
	var value int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next sequence %q: %w", name, err)
	}
	return value, nil
}

func (t *txRepo) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchases (purchase_id, date, due_date, supplier, total_amount, payment_method, amount_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		p.PurchaseID, p.Date, p.DueDate, p.Supplier, p.TotalAmount, p.PaymentMethod, p.AmountPaid, p.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert purchase: %w", err)
	}
	for _, line := range p.Items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO purchase_lines (purchase_id, item_id, item_name, category, author, quantity, cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, line.ItemID, line.ItemName, line.Category, line.Author, line.Quantity, line.Cost)
		if err != nil {
			return 0, fmt.Errorf("insert purchase line: %w", err)
		}
	}
	return id, nil
}

func (t *txRepo) InsertExpense(ctx context.Context, description string, amount float64, method ledger.PaymentMethod, date time.Time) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO expenses (description, amount, payment_method, date, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		description, amount, method, date)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (t *txRepo) InsertTransaction(ctx context.Context, tr dues.Transaction) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO transactions (description, amount, due_date, status, type, purpose, customer_id, payment_method, sale_id, created_at, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		tr.Description, tr.Amount, tr.DueDate, tr.Status, tr.Type, tr.Purpose,
		tr.CustomerID, tr.PaymentMethod, tr.SaleID, tr.CreatedAt, tr.PaidAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}
