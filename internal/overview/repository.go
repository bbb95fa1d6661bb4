package overview

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/khata-erp/khata-erp/internal/dues"
)

// Repository fetches the full history in one parallel fan-out. The fold is
// O(history); at the scale of a single shop that is fine, and the versioned
// cache in front absorbs repeat reads.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := r.pool.Query(ctx, `SELECT id, production_price, stock FROM items`)
		if err != nil {
			return fmt.Errorf("fetch items: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var it ItemState
			if err := rows.Scan(&it.ID, &it.ProductionPrice, &it.Stock); err != nil {
				return fmt.Errorf("scan item: %w", err)
			}
			snap.Items = append(snap.Items, it)
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := r.pool.Query(ctx, `SELECT id, opening_balance FROM customers`)
		if err != nil {
			return fmt.Errorf("fetch customers: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var c CustomerState
			if err := rows.Scan(&c.ID, &c.OpeningBalance); err != nil {
				return fmt.Errorf("scan customer: %w", err)
			}
			snap.Customers = append(snap.Customers, c)
		}
		return rows.Err()
	})

	g.Go(func() error {
		sales, err := r.fetchSales(ctx)
		if err != nil {
			return err
		}
		snap.Sales = sales
		return nil
	})

	g.Go(func() error {
		purchases, err := r.fetchPurchases(ctx)
		if err != nil {
			return err
		}
		snap.Purchases = purchases
		return nil
	})

	g.Go(func() error {
		returns, err := r.fetchReturns(ctx)
		if err != nil {
			return err
		}
		snap.Returns = returns
		return nil
	})

	g.Go(func() error {
		records, err := r.fetchMoney(ctx, `SELECT date, amount, payment_method FROM expenses`)
		if err != nil {
			return fmt.Errorf("fetch expenses: %w", err)
		}
		snap.Expenses = records
		return nil
	})

	g.Go(func() error {
		records, err := r.fetchMoney(ctx, `SELECT date, amount, payment_method FROM donations`)
		if err != nil {
			return fmt.Errorf("fetch donations: %w", err)
		}
		snap.Donations = records
		return nil
	})

	g.Go(func() error {
		records, err := r.fetchMoney(ctx, `SELECT date, amount, payment_method FROM capital_contributions`)
		if err != nil {
			return fmt.Errorf("fetch capital contributions: %w", err)
		}
		snap.Capital = records
		return nil
	})

	g.Go(func() error {
		rows, err := r.pool.Query(ctx, `SELECT date, amount, from_account, to_account FROM transfers`)
		if err != nil {
			return fmt.Errorf("fetch transfers: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var t TransferRecord
			if err := rows.Scan(&t.Date, &t.Amount, &t.From, &t.To); err != nil {
				return fmt.Errorf("scan transfer: %w", err)
			}
			snap.Transfers = append(snap.Transfers, t)
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+dues.Columns+` FROM transactions`)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			t, err := dues.ScanTransaction(rows)
			if err != nil {
				return err
			}
			snap.Transactions = append(snap.Transactions, *t)
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *Repository) fetchSales(ctx context.Context) ([]SaleRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, total, payment_method, amount_paid, split_payment_method, credit_applied
		FROM sales ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}
	defer rows.Close()

	var out []SaleRecord
	index := make(map[int64]int)
	for rows.Next() {
		var id int64
		var s SaleRecord
		if err := rows.Scan(&id, &s.Date, &s.Total, &s.PaymentMethod, &s.AmountPaid, &s.SplitPaymentMethod, &s.CreditApplied); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		index[id] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := r.pool.Query(ctx, `SELECT sale_id, item_id, quantity FROM sale_lines`)
	if err != nil {
		return nil, fmt.Errorf("fetch sale lines: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var saleID int64
		var line QuantityLine
		if err := lineRows.Scan(&saleID, &line.ItemID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		if i, ok := index[saleID]; ok {
			out[i].Lines = append(out[i].Lines, line)
		}
	}
	return out, lineRows.Err()
}

func (r *Repository) fetchPurchases(ctx context.Context) ([]PurchaseRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, date FROM purchases ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("fetch purchases: %w", err)
	}
	defer rows.Close()

	var out []PurchaseRecord
	index := make(map[int64]int)
	for rows.Next() {
		var id int64
		var p PurchaseRecord
		if err := rows.Scan(&id, &p.Date); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		index[id] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := r.pool.Query(ctx, `SELECT purchase_id, item_id, quantity FROM purchase_lines`)
	if err != nil {
		return nil, fmt.Errorf("fetch purchase lines: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var purchaseID int64
		var line QuantityLine
		if err := lineRows.Scan(&purchaseID, &line.ItemID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan purchase line: %w", err)
		}
		if i, ok := index[purchaseID]; ok {
			out[i].Lines = append(out[i].Lines, line)
		}
	}
	return out, lineRows.Err()
}

func (r *Repository) fetchReturns(ctx context.Context) ([]ReturnRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, total_return_value, refund_method FROM sales_returns ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("fetch sales returns: %w", err)
	}
	defer rows.Close()

	var out []ReturnRecord
	index := make(map[int64]int)
	for rows.Next() {
		var id int64
		var ret ReturnRecord
		if err := rows.Scan(&id, &ret.Date, &ret.Value, &ret.RefundMethod); err != nil {
			return nil, fmt.Errorf("scan sales return: %w", err)
		}
		index[id] = len(out)
		out = append(out, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := r.pool.Query(ctx, `SELECT return_id, item_id, quantity FROM sales_return_lines`)
	if err != nil {
		return nil, fmt.Errorf("fetch return lines: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var returnID int64
		var line QuantityLine
		if err := lineRows.Scan(&returnID, &line.ItemID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan return line: %w", err)
		}
		if i, ok := index[returnID]; ok {
			out[i].Lines = append(out[i].Lines, line)
		}
	}
	return out, lineRows.Err()
}

func (r *Repository) fetchMoney(ctx context.Context, query string) ([]MoneyRecord, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MoneyRecord
	for rows.Next() {
		var m MoneyRecord
		if err := rows.Scan(&m.Date, &m.Amount, &m.Method); err != nil {
			return nil, fmt.Errorf("scan money record: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
