package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FetchMonth loads the month's slices: sales dated in the month, receivables
// settled in the month (plus the sales they reference, which may be older),
// expenses, donations and the item cost lookup.
func (r *Repository) FetchMonth(ctx context.Context, year int, month time.Month) (*Input, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	in := Input{Year: year, Month: month, PriorSales: make(map[int64]SaleDetail)}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sales, err := r.fetchSales(ctx, `WHERE date >= $1 AND date < $2`, start, end)
		if err != nil {
			return err
		}
		in.Sales = sales
		return nil
	})

	g.Go(func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+dues.Columns+` FROM transactions
			WHERE status = 'Paid' AND paid_at >= $1 AND paid_at < $2`, start, end)
		if err != nil {
			return fmt.Errorf("fetch settled transactions: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			t, err := dues.ScanTransaction(rows)
			if err != nil {
				return err
			}
			in.Transactions = append(in.Transactions, *t)
		}
		return rows.Err()
	})

	g.Go(func() error {
		records, err := r.fetchMoney(ctx, "expenses", start, end)
		if err != nil {
			return err
		}
		in.Expenses = records
		return nil
	})

	g.Go(func() error {
		records, err := r.fetchMoney(ctx, "donations", start, end)
		if err != nil {
			return err
		}
		in.Donations = records
		return nil
	})

	g.Go(func() error {
		costs, err := r.fetchCosts(ctx)
		if err != nil {
			return err
		}
		in.Costs = costs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Resolve the sales behind settled dues after the fan-out; they may
	// predate the month and overlap with in.Sales.
	ids := make([]int64, 0, len(in.Transactions))
	seen := make(map[int64]bool)
	for _, t := range in.Transactions {
		if t.SaleID != nil && !seen[*t.SaleID] {
			seen[*t.SaleID] = true
			ids = append(ids, *t.SaleID)
		}
	}
	if len(ids) > 0 {
		prior, err := r.fetchSales(ctx, `WHERE id = ANY($1)`, ids)
		if err != nil {
			return nil, err
		}
		for _, sale := range prior {
			in.PriorSales[sale.ID] = sale
		}
	}
	return &in, nil
}

func (r *Repository) fetchSales(ctx context.Context, where string, args ...interface{}) ([]SaleDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, subtotal, discount_type, discount_value, total,
		       payment_method, amount_paid, split_payment_method, credit_applied
		FROM sales `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}
	defer rows.Close()

	var out []SaleDetail
	index := make(map[int64]int)
	for rows.Next() {
		var s SaleDetail
		var discountType ledger.DiscountType
		var discountValue float64
		if err := rows.Scan(&s.ID, &s.Date, &s.Subtotal, &discountType, &discountValue, &s.Total,
			&s.PaymentMethod, &s.AmountPaid, &s.SplitPaymentMethod, &s.CreditApplied); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		s.Discount = ledger.ComputeDiscount(s.Subtotal, discountType, discountValue)
		index[s.ID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(out))
	for id := range index {
		ids = append(ids, id)
	}
	lineRows, err := r.pool.Query(ctx, `
		SELECT sale_id, item_id, quantity, price FROM sale_lines WHERE sale_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch sale lines: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var saleID int64
		var line ledger.SaleLine
		if err := lineRows.Scan(&saleID, &line.ItemID, &line.Quantity, &line.Price); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		if i, ok := index[saleID]; ok {
			out[i].Lines = append(out[i].Lines, line)
		}
	}
	return out, lineRows.Err()
}

func (r *Repository) fetchMoney(ctx context.Context, table string, start, end time.Time) ([]MoneyRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, amount, payment_method FROM `+table+` WHERE date >= $1 AND date < $2`, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	defer rows.Close()
	var out []MoneyRecord
	for rows.Next() {
		var m MoneyRecord
		if err := rows.Scan(&m.Date, &m.Amount, &m.Method); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) fetchCosts(ctx context.Context) (ledger.CostLookup, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, production_price FROM items`)
	if err != nil {
		return nil, fmt.Errorf("fetch item costs: %w", err)
	}
	defer rows.Close()
	costs := make(map[int64]float64)
	for rows.Next() {
		var id int64
		var cost float64
		if err := rows.Scan(&id, &cost); err != nil {
			return nil, fmt.Errorf("scan item cost: %w", err)
		}
		costs[id] = cost
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return func(itemID int64) (float64, bool) {
		cost, ok := costs[itemID]
		return cost, ok
	}, nil
}
