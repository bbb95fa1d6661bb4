package sales

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

// Repository provides PostgreSQL backed persistence for sales.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx runs the mutator callback inside a repeatable-read transaction,
// re-running it on serialization conflicts.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxRetry(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ============================================================================
// CUSTOMERS
// ============================================================================

const customerColumns = `id, name, phone, address, opening_balance, due_balance, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.OpeningBalance, &c.DueBalance, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sales: customer: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

// GetCustomer fetches a customer by id.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

// CreateCustomer inserts a customer and returns its id.
func (r *Repository) CreateCustomer(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO customers (name, phone, address, opening_balance, due_balance, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		c.Name, c.Phone, c.Address, c.OpeningBalance, c.DueBalance, c.CreatedAt).Scan(&id)
	return id, err
}

// UpdateCustomer applies column updates to master data.
func (r *Repository) UpdateCustomer(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := `UPDATE customers SET updated_at = now()`
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
		return fmt.Errorf("sales: customer %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// ListCustomers returns a filtered customer page plus the total count.
func (r *Repository) ListCustomers(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	page := shared.NewPagination(req.Page, req.PerPage, 0)
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if req.Search != nil && *req.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d)", i, i)
		args = append(args, "%"+*req.Search+"%")
		i++
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers`+where+
		fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", i, i+1),
		append(args, page.PerPage, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}
	return customers, total, rows.Err()
}

// ============================================================================
// SALES READS
// ============================================================================

const saleColumns = `id, sale_id, date, customer_id, subtotal, discount_type, discount_value, total, payment_method, amount_paid, split_payment_method, credit_applied, created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.SaleID, &s.Date, &s.CustomerID, &s.Subtotal, &s.DiscountType, &s.DiscountValue, &s.Total, &s.PaymentMethod, &s.AmountPaid, &s.SplitPaymentMethod, &s.CreditApplied, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sales: sale: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) loadSaleItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, saleID int64) ([]SaleItem, error) {
	rows, err := q.Query(ctx, `SELECT item_id, quantity, price FROM sale_lines WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SaleItem
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ItemID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetSale fetches a sale with its lines.
func (r *Repository) GetSale(ctx context.Context, id int64) (*Sale, error) {
	sale, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	sale.Items, err = r.loadSaleItems(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// ListSales returns a filtered sales page with lines attached.
func (r *Repository) ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	page := shared.NewPagination(req.Page, req.PerPage, 0)
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if req.CustomerID != nil {
		where += fmt.Sprintf(" AND customer_id = $%d", i)
		args = append(args, *req.CustomerID)
		i++
	}
	if req.DateFrom != nil {
		where += fmt.Sprintf(" AND date >= $%d", i)
		args = append(args, *req.DateFrom)
		i++
	}
	if req.DateTo != nil {
		where += fmt.Sprintf(" AND date <= $%d", i)
		args = append(args, *req.DateTo)
		i++
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM sales`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales`+where+
		fmt.Sprintf(" ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d", i, i+1),
		append(args, page.PerPage, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var sales []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for idx := range sales {
		sales[idx].Items, err = r.loadSaleItems(ctx, r.pool, sales[idx].ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return sales, total, nil
}

// ============================================================================
// TRANSACTIONAL OPERATIONS
// ============================================================================

func (t *txRepo) GetCustomerForUpdate(ctx context.Context, id int64) (*Customer, error) {
	return scanCustomer(t.tx.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepo) ItemForUpdate(ctx context.Context, id int64) (int64, string, int, error) {
	var itemID int64
	var title string
	var stock int
	err := t.tx.QueryRow(ctx, `SELECT id, title, stock FROM items WHERE id = $1 FOR UPDATE`, id).Scan(&itemID, &title, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", 0, shared.ErrNotFound
		}
		return 0, "", 0, err
	}
	return itemID, title, stock, nil
}

// NextSequence atomically increments the named counter inside the enclosing
// transaction so concurrent writers never skip or duplicate a number.
func (t *txRepo) NextSequence(ctx context.Context, name string) (int64, error) {
	var value int64
	err := t.tx.QueryRow(ctx, `INSERT INTO counters (name, value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET value = counters.value + 1 RETURNING value`, name).Scan(&value)
	return value, err
}

func (t *txRepo) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO sales (sale_id, date, customer_id, subtotal, discount_type, discount_value, total, payment_method, amount_paid, split_payment_method, credit_applied, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		sale.SaleID, sale.Date, sale.CustomerID, sale.Subtotal, sale.DiscountType, sale.DiscountValue, sale.Total,
		sale.PaymentMethod, sale.AmountPaid, sale.SplitPaymentMethod, sale.CreditApplied, sale.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, line := range sale.Items {
		if _, err := t.tx.Exec(ctx, `INSERT INTO sale_lines (sale_id, item_id, quantity, price) VALUES ($1, $2, $3, $4)`,
			id, line.ItemID, line.Quantity, line.Price); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// AdjustStock moves stock by delta. The stock >= 0 check is part of the
// statement, so an oversell by a concurrent writer aborts here.
func (t *txRepo) AdjustStock(ctx context.Context, itemID int64, delta int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE items SET stock = stock + $1, updated_at = now()
WHERE id = $2 AND stock + $1 >= 0`, delta, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var title string
		var stock int
		if err := t.tx.QueryRow(ctx, `SELECT title, stock FROM items WHERE id = $1`, itemID).Scan(&title, &stock); err != nil {
			return fmt.Errorf("sales: item %d: %w", itemID, shared.ErrNotFound)
		}
		return &shared.InsufficientStockError{ItemID: itemID, Title: title, Requested: -delta, Available: stock}
	}
	return nil
}

func (t *txRepo) AdjustDueBalance(ctx context.Context, customerID int64, delta float64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE customers SET due_balance = due_balance + $1, updated_at = now() WHERE id = $2`, delta, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: customer %d: %w", customerID, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) InsertTransaction(ctx context.Context, tr dues.Transaction) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO transactions (description, amount, due_date, status, type, purpose, customer_id, payment_method, sale_id, created_at, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		tr.Description, tr.Amount, tr.DueDate, tr.Status, tr.Type, tr.Purpose, tr.CustomerID, tr.PaymentMethod, tr.SaleID, tr.CreatedAt, tr.PaidAt).Scan(&id)
	return id, err
}

// MarkTransactionPaid transitions Pending -> Paid; a Paid record is final.
func (t *txRepo) MarkTransactionPaid(ctx context.Context, id int64, paidAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE transactions SET status = $1, paid_at = $2 WHERE id = $3 AND status = $4`,
		dues.StatusPaid, paidAt, id, dues.StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: transaction %d not pending: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) PendingReceivablesForUpdate(ctx context.Context, customerID int64) ([]dues.Transaction, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+dues.Columns+` FROM transactions
WHERE type = $1 AND status = $2 AND customer_id = $3 ORDER BY due_date, id FOR UPDATE`,
		dues.TypeReceivable, dues.StatusPending, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dues.Transaction
	for rows.Next() {
		tr, err := dues.ScanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tr)
	}
	return out, rows.Err()
}

func (t *txRepo) GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error) {
	sale, err := scanSale(t.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(ctx, `SELECT item_id, quantity, price FROM sale_lines WHERE sale_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ItemID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, it)
	}
	return sale, rows.Err()
}

func (t *txRepo) DeleteSaleTransactions(ctx context.Context, saleID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM transactions WHERE sale_id = $1`, saleID)
	return err
}

func (t *txRepo) DeleteSale(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM sale_lines WHERE sale_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: sale %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) InsertSalesReturn(ctx context.Context, ret SalesReturn) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO sales_returns (return_id, date, customer_id, total_return_value, refund_method)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		ret.ReturnID, ret.Date, ret.CustomerID, ret.TotalReturnValue, ret.RefundMethod).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, line := range ret.Items {
		if _, err := t.tx.Exec(ctx, `INSERT INTO sales_return_lines (return_id, item_id, quantity, price) VALUES ($1, $2, $3, $4)`,
			id, line.ItemID, line.Quantity, line.Price); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (t *txRepo) InsertRefundExpense(ctx context.Context, description string, amount float64, method ledger.PaymentMethod, date time.Time) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO expenses (description, amount, payment_method, date, created_at) VALUES ($1, $2, $3, $4, $4)`,
		description, amount, method, date)
	return err
}
