package finance

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khata-erp/khata-erp/internal/shared"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateExpense(ctx context.Context, e Expense) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (description, amount, payment_method, date, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		e.Description, e.Amount, e.PaymentMethod, e.Date, e.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	return id, nil
}

func (r *Repository) ListExpenses(ctx context.Context, req ListRequest) ([]Expense, int, error) {
	where, args := dateRange(req)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}
	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`
		SELECT id, description, amount, payment_method, date, created_at
		FROM expenses %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, p.PerPage, p.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.PaymentMethod, &e.Date, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.pool, "expenses", id)
}

func (r *Repository) CreateDonation(ctx context.Context, d Donation) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO donations (donor_name, description, amount, payment_method, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		d.DonorName, d.Description, d.Amount, d.PaymentMethod, d.Date, d.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create donation: %w", err)
	}
	return id, nil
}

func (r *Repository) ListDonations(ctx context.Context, req ListRequest) ([]Donation, int, error) {
	where, args := dateRange(req)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM donations `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}
	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`
		SELECT id, donor_name, description, amount, payment_method, date, created_at
		FROM donations %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, p.PerPage, p.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()
	var out []Donation
	for rows.Next() {
		var d Donation
		if err := rows.Scan(&d.ID, &d.DonorName, &d.Description, &d.Amount, &d.PaymentMethod, &d.Date, &d.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *Repository) DeleteDonation(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.pool, "donations", id)
}

func (r *Repository) CreateTransfer(ctx context.Context, t Transfer) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO transfers (from_account, to_account, amount, date, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		t.From, t.To, t.Amount, t.Date, t.Note, t.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create transfer: %w", err)
	}
	return id, nil
}

func (r *Repository) ListTransfers(ctx context.Context, req ListRequest) ([]Transfer, int, error) {
	where, args := dateRange(req)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transfers `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}
	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`
		SELECT id, from_account, to_account, amount, date, note, created_at
		FROM transfers %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, p.PerPage, p.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var out []Transfer
	for rows.Next() {
		var t Transfer
		if err := rows.Scan(&t.ID, &t.From, &t.To, &t.Amount, &t.Date, &t.Note, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *Repository) CreateCapital(ctx context.Context, c CapitalContribution) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO capital_contributions (contributor, amount, payment_method, date, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.Contributor, c.Amount, c.PaymentMethod, c.Date, c.Note, c.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create capital contribution: %w", err)
	}
	return id, nil
}

func (r *Repository) ListCapital(ctx context.Context, req ListRequest) ([]CapitalContribution, int, error) {
	where, args := dateRange(req)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM capital_contributions `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count capital contributions: %w", err)
	}
	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`
		SELECT id, contributor, amount, payment_method, date, note, created_at
		FROM capital_contributions %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, p.PerPage, p.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list capital contributions: %w", err)
	}
	defer rows.Close()
	var out []CapitalContribution
	for rows.Next() {
		var c CapitalContribution
		if err := rows.Scan(&c.ID, &c.Contributor, &c.Amount, &c.PaymentMethod, &c.Date, &c.Note, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan capital contribution: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func dateRange(req ListRequest) (string, []interface{}) {
	where := `WHERE 1=1`
	args := []interface{}{}
	if req.From != nil {
		args = append(args, *req.From)
		where += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if req.To != nil {
		args = append(args, *req.To)
		where += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	return where, args
}

func deleteByID(ctx context.Context, pool *pgxpool.Pool, table string, id int64) error {
	tag, err := pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
