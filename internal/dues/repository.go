package dues

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khata-erp/khata-erp/internal/shared"
)

// Repository provides PostgreSQL backed reads over the dues ledger. Writes
// happen inside the sales and purchases transactions, which own the mutator
// semantics.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Columns selects the canonical transaction column list.
const Columns = `id, description, amount, due_date, status, type, purpose, customer_id, payment_method, sale_id, created_at, paid_at`

// ScanTransaction reads one transaction row.
func ScanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Description, &t.Amount, &t.DueDate, &t.Status, &t.Type, &t.Purpose, &t.CustomerID, &t.PaymentMethod, &t.SaleID, &t.CreatedAt, &t.PaidAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("dues: transaction: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return &t, nil
}

func collect(rows pgx.Rows) ([]Transaction, error) {
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := ScanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListTransactions returns a filtered page plus the total count.
func (r *Repository) ListTransactions(ctx context.Context, req ListTransactionsRequest) ([]Transaction, int, error) {
	page := shared.NewPagination(req.Page, req.PerPage, 0)
	where := ` WHERE 1=1`
	args := []interface{}{}
	i := 1
	if req.Type != nil {
		where += fmt.Sprintf(" AND type = $%d", i)
		args = append(args, *req.Type)
		i++
	}
	if req.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, *req.Status)
		i++
	}
	if req.CustomerID != nil {
		where += fmt.Sprintf(" AND customer_id = $%d", i)
		args = append(args, *req.CustomerID)
		i++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + Columns + ` FROM transactions` + where +
		fmt.Sprintf(" ORDER BY due_date, id LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListPendingReceivables returns a customer's pending receivables ordered
// oldest due date first, the settlement order used by payments.
func (r *Repository) ListPendingReceivables(ctx context.Context, customerID int64) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM transactions
WHERE type = $1 AND status = $2 AND customer_id = $3 ORDER BY due_date, id`,
		TypeReceivable, StatusPending, customerID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListPendingPayables returns pending payables due on or before the cutoff.
func (r *Repository) ListPendingPayables(ctx context.Context, asOf time.Time) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM transactions
WHERE type = $1 AND status = $2 AND due_date <= $3 ORDER BY due_date, id`,
		TypePayable, StatusPending, asOf)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListAll returns the full ledger, used by the overview replay.
func (r *Repository) ListAll(ctx context.Context) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM transactions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}
