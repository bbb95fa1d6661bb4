package sales

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/shared"
)

type memItem struct {
	title string
	cost  float64
	stock int
}

type memExpense struct {
	description string
	amount      float64
	method      ledger.PaymentMethod
}

type memoryRepo struct {
	customers    map[int64]*Customer
	items        map[int64]*memItem
	sales        map[int64]*Sale
	returns      map[int64]*SalesReturn
	transactions map[int64]*dues.Transaction
	expenses     []memExpense
	counters     map[string]int64
	nextID       int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		customers:    make(map[int64]*Customer),
		items:        make(map[int64]*memItem),
		sales:        make(map[int64]*Sale),
		returns:      make(map[int64]*SalesReturn),
		transactions: make(map[int64]*dues.Transaction),
		counters:     make(map[string]int64),
	}
}

type memoryTx struct {
	repo     *memoryRepo
	snapshot *memoryRepo
}

func (r *memoryRepo) clone() *memoryRepo {
	c := newMemoryRepo()
	for id, cust := range r.customers {
		copied := *cust
		c.customers[id] = &copied
	}
	for id, it := range r.items {
		copied := *it
		c.items[id] = &copied
	}
	for id, s := range r.sales {
		copied := *s
		c.sales[id] = &copied
	}
	for id, ret := range r.returns {
		copied := *ret
		c.returns[id] = &copied
	}
	for id, t := range r.transactions {
		copied := *t
		c.transactions[id] = &copied
	}
	c.expenses = append(c.expenses, r.expenses...)
	for name, v := range r.counters {
		c.counters[name] = v
	}
	c.nextID = r.nextID
	return c
}

func (r *memoryRepo) restore(from *memoryRepo) {
	r.customers = from.customers
	r.items = from.items
	r.sales = from.sales
	r.returns = from.returns
	r.transactions = from.transactions
	r.expenses = from.expenses
	r.counters = from.counters
	r.nextID = from.nextID
}

// WithTx snapshots state up front and rolls back on error, matching the
// all-or-nothing contract of the real store.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := r.clone()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.restore(snapshot)
		return err
	}
	return nil
}

func (r *memoryRepo) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memoryRepo) GetSale(ctx context.Context, id int64) (*Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memoryRepo) ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	var out []Sale
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *memoryRepo) ListCustomers(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) CreateCustomer(ctx context.Context, c Customer) (int64, error) {
	r.nextID++
	c.ID = r.nextID
	r.customers[c.ID] = &c
	return c.ID, nil
}

func (r *memoryRepo) UpdateCustomer(ctx context.Context, id int64, updates map[string]interface{}) error {
	c, ok := r.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	if name, ok := updates["name"].(string); ok {
		c.Name = name
	}
	return nil
}

func (tx *memoryTx) GetCustomerForUpdate(ctx context.Context, id int64) (*Customer, error) {
	return tx.repo.GetCustomer(ctx, id)
}

func (tx *memoryTx) ItemForUpdate(ctx context.Context, id int64) (int64, string, int, error) {
	it, ok := tx.repo.items[id]
	if !ok {
		return 0, "", 0, shared.ErrNotFound
	}
	return id, it.title, it.stock, nil
}

func (tx *memoryTx) NextSequence(ctx context.Context, name string) (int64, error) {
	tx.repo.counters[name]++
	return tx.repo.counters[name], nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	tx.repo.nextID++
	sale.ID = tx.repo.nextID
	tx.repo.sales[sale.ID] = &sale
	return sale.ID, nil
}

func (tx *memoryTx) AdjustStock(ctx context.Context, itemID int64, delta int) error {
	it, ok := tx.repo.items[itemID]
	if !ok {
		return shared.ErrNotFound
	}
	if it.stock+delta < 0 {
		return &shared.InsufficientStockError{ItemID: itemID, Title: it.title, Requested: -delta, Available: it.stock}
	}
	it.stock += delta
	return nil
}

func (tx *memoryTx) AdjustDueBalance(ctx context.Context, customerID int64, delta float64) error {
	c, ok := tx.repo.customers[customerID]
	if !ok {
		return shared.ErrNotFound
	}
	c.DueBalance += delta
	return nil
}

func (tx *memoryTx) InsertTransaction(ctx context.Context, t dues.Transaction) (int64, error) {
	tx.repo.nextID++
	t.ID = tx.repo.nextID
	tx.repo.transactions[t.ID] = &t
	return t.ID, nil
}

func (tx *memoryTx) MarkTransactionPaid(ctx context.Context, id int64, paidAt time.Time) error {
	t, ok := tx.repo.transactions[id]
	if !ok || t.Status != dues.StatusPending {
		return shared.ErrNotFound
	}
	t.Status = dues.StatusPaid
	t.PaidAt = &paidAt
	return nil
}

func (tx *memoryTx) PendingReceivablesForUpdate(ctx context.Context, customerID int64) ([]dues.Transaction, error) {
	var out []dues.Transaction
	for _, t := range tx.repo.transactions {
		if t.Type == dues.TypeReceivable && t.Status == dues.StatusPending && t.CustomerID != nil && *t.CustomerID == customerID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}

func (tx *memoryTx) GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error) {
	return tx.repo.GetSale(ctx, id)
}

func (tx *memoryTx) DeleteSaleTransactions(ctx context.Context, saleID int64) error {
	for id, t := range tx.repo.transactions {
		if t.SaleID != nil && *t.SaleID == saleID {
			delete(tx.repo.transactions, id)
		}
	}
	return nil
}

func (tx *memoryTx) DeleteSale(ctx context.Context, id int64) error {
	if _, ok := tx.repo.sales[id]; !ok {
		return shared.ErrNotFound
	}
	delete(tx.repo.sales, id)
	return nil
}

func (tx *memoryTx) InsertSalesReturn(ctx context.Context, ret SalesReturn) (int64, error) {
	tx.repo.nextID++
	ret.ID = tx.repo.nextID
	tx.repo.returns[ret.ID] = &ret
	return ret.ID, nil
}

func (tx *memoryTx) InsertRefundExpense(ctx context.Context, description string, amount float64, method ledger.PaymentMethod, date time.Time) error {
	tx.repo.expenses = append(tx.repo.expenses, memExpense{description: description, amount: amount, method: method})
	return nil
}

// ============================================================================
// FIXTURES
// ============================================================================

func seedRepo() (*memoryRepo, *Service) {
	repo := newMemoryRepo()
	repo.nextID = 100
	repo.customers[1] = &Customer{ID: 1, Name: "Rahim", OpeningBalance: 0, DueBalance: 0}
	repo.items[1] = &memItem{title: "Ledger Basics", cost: 5, stock: 3}
	clock := shared.FixedClock{At: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	return repo, NewService(repo, clock, nil)
}

func pendingFor(repo *memoryRepo, customerID int64) []dues.Transaction {
	var out []dues.Transaction
	for _, t := range repo.transactions {
		if t.CustomerID != nil && *t.CustomerID == customerID && t.Status == dues.StatusPending {
			out = append(out, *t)
		}
	}
	return out
}

// ============================================================================
// TESTS
// ============================================================================

func TestAddSaleCash(t *testing.T) {
	repo, svc := seedRepo()
	sale, err := svc.AddSale(context.Background(), AddSaleRequest{
		CustomerID:    1,
		Items:         []AddSaleItemRequest{{ItemID: 1, Quantity: 2, Price: 10}},
		PaymentMethod: ledger.MethodCash,
	})
	require.NoError(t, err)
	require.Equal(t, "SALE-0001", sale.SaleID)
	require.InDelta(t, 20.0, sale.Total, 0.0001)
	require.Equal(t, 1, repo.items[1].stock)
	require.InDelta(t, 0.0, repo.customers[1].DueBalance, 0.0001)
	require.Empty(t, repo.transactions)
}

func TestAddSaleInsufficientStock(t *testing.T) {
	repo, svc := seedRepo()
	_, err := svc.AddSale(context.Background(), AddSaleRequest{
		CustomerID:    1,
		Items:         []AddSaleItemRequest{{ItemID: 1, Quantity: 5, Price: 10}},
		PaymentMethod: ledger.MethodCash,
	})
	require.Error(t, err)
	require.True(t, shared.IsInsufficientStock(err))
	// Nothing changed.
	require.Equal(t, 3, repo.items[1].stock)
	require.InDelta(t, 0.0, repo.customers[1].DueBalance, 0.0001)
	require.Empty(t, repo.sales)
}

func TestAddSaleSplit(t *testing.T) {
	repo, svc := seedRepo()
	paid := 12.0
	sale, err := svc.AddSale(context.Background(), AddSaleRequest{
		CustomerID:    1,
		Items:         []AddSaleItemRequest{{ItemID: 1, Quantity: 2, Price: 10}},
		PaymentMethod: ledger.MethodSplit,
		AmountPaid:    &paid,
	})
	require.NoError(t, err)
	require.InDelta(t, 20.0, sale.Total, 0.0001)
	require.InDelta(t, 8.0, repo.customers[1].DueBalance, 0.0001)

	var pendingAmt, paidAmt float64
	for _, tr := range repo.transactions {
		switch tr.Status {
		case dues.StatusPending:
			require.Equal(t, dues.PurposeSaleDue, tr.Purpose)
			pendingAmt += tr.Amount
		case dues.StatusPaid:
			require.Equal(t, dues.PurposeSalePartialPayment, tr.Purpose)
			paidAmt += tr.Amount
		}
	}
	require.InDelta(t, 8.0, pendingAmt, 0.0001)
	require.InDelta(t, 12.0, paidAmt, 0.0001)
}

func TestAddSaleDueWithDiscount(t *testing.T) {
	repo, svc := seedRepo()
	sale, err := svc.AddSale(context.Background(), AddSaleRequest{
		CustomerID:    1,
		Items:         []AddSaleItemRequest{{ItemID: 1, Quantity: 2, Price: 10}},
		DiscountType:  ledger.DiscountPercentage,
		DiscountValue: 10,
		PaymentMethod: ledger.MethodDue,
	})
	require.NoError(t, err)
	require.InDelta(t, 18.0, sale.Total, 0.0001)
	require.InDelta(t, 18.0, repo.customers[1].DueBalance, 0.0001)
	require.Len(t, pendingFor(repo, 1), 1)
}

func TestAddSaleUnknownCustomer(t *testing.T) {
	repo, svc := seedRepo()
	_, err := svc.AddSale(context.Background(), AddSaleRequest{
		CustomerID:    99,
		Items:         []AddSaleItemRequest{{ItemID: 1, Quantity: 1, Price: 10}},
		PaymentMethod: ledger.MethodCash,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, 3, repo.items[1].stock)
}

func TestDeleteSaleRestoresState(t *testing.T) {
	repo, svc := seedRepo()
	paid := 12.0
	sale, err := svc.AddSale(context.Background(), AddSaleRequest{
		CustomerID:    1,
		Items:         []AddSaleItemRequest{{ItemID: 1, Quantity: 2, Price: 10}},
		PaymentMethod: ledger.MethodSplit,
		AmountPaid:    &paid,
	})
	require.NoError(t, err)
	require.Equal(t, 1, repo.items[1].stock)
	require.InDelta(t, 8.0, repo.customers[1].DueBalance, 0.0001)

	require.NoError(t, svc.DeleteSale(context.Background(), sale.ID))
	require.Equal(t, 3, repo.items[1].stock)
	require.InDelta(t, 0.0, repo.customers[1].DueBalance, 0.0001)
	require.Empty(t, repo.transactions)
	require.Empty(t, repo.sales)
}

func TestAddPaymentSettlesFIFO(t *testing.T) {
	repo, svc := seedRepo()
	repo.items[1].stock = 10

	// Two due sales: 20 then 30, same due term so FIFO falls to insert order.
	for _, qty := range []int{2, 3} {
		_, err := svc.AddSale(context.Background(), AddSaleRequest{
			CustomerID:    1,
			Items:         []AddSaleItemRequest{{ItemID: 1, Quantity: qty, Price: 10}},
			PaymentMethod: ledger.MethodDue,
		})
		require.NoError(t, err)
	}
	require.InDelta(t, 50.0, repo.customers[1].DueBalance, 0.0001)

	res, err := svc.AddPayment(context.Background(), AddPaymentRequest{CustomerID: 1, Amount: 25, Method: ledger.MethodCash})
	require.NoError(t, err)
	// Only the oldest receivable (20) is fully covered; 30 stays pending.
	require.Len(t, res.SettledIDs, 1)
	require.InDelta(t, 5.0, res.RemainingUnposted, 0.0001)
	// Balance still drops by the full payment amount.
	require.InDelta(t, 25.0, repo.customers[1].DueBalance, 0.0001)
	require.Len(t, pendingFor(repo, 1), 1)
}

func TestAddPaymentRecordsCustomerPayment(t *testing.T) {
	repo, svc := seedRepo()
	_, err := svc.AddPayment(context.Background(), AddPaymentRequest{CustomerID: 1, Amount: 10, Method: ledger.MethodBank})
	require.NoError(t, err)
	var found bool
	for _, tr := range repo.transactions {
		if tr.Purpose == dues.PurposeCustomerPayment {
			found = true
			require.Equal(t, dues.StatusPaid, tr.Status)
			require.NotNil(t, tr.PaymentMethod)
			require.Equal(t, ledger.MethodBank, *tr.PaymentMethod)
		}
	}
	require.True(t, found)
}

func TestAddSalesReturnAdjustsDue(t *testing.T) {
	repo, svc := seedRepo()
	repo.customers[1].DueBalance = 50
	ret, err := svc.AddSalesReturn(context.Background(), AddSalesReturnRequest{
		CustomerID:   1,
		Items:        []AddSaleItemRequest{{ItemID: 1, Quantity: 1, Price: 10}},
		RefundMethod: RefundAdjustDue,
	})
	require.NoError(t, err)
	require.Equal(t, "RET-0001", ret.ReturnID)
	require.InDelta(t, 10.0, ret.TotalReturnValue, 0.0001)
	require.Equal(t, 4, repo.items[1].stock)
	require.InDelta(t, 40.0, repo.customers[1].DueBalance, 0.0001)
	require.Empty(t, repo.expenses)
}

func TestAddSalesReturnCashRefund(t *testing.T) {
	repo, svc := seedRepo()
	_, err := svc.AddSalesReturn(context.Background(), AddSalesReturnRequest{
		CustomerID:   1,
		Items:        []AddSaleItemRequest{{ItemID: 1, Quantity: 2, Price: 10}},
		RefundMethod: RefundCash,
	})
	require.NoError(t, err)
	require.Equal(t, 5, repo.items[1].stock)
	require.InDelta(t, 0.0, repo.customers[1].DueBalance, 0.0001)
	require.Len(t, repo.expenses, 1)
	require.InDelta(t, 20.0, repo.expenses[0].amount, 0.0001)
	require.Equal(t, ledger.MethodCash, repo.expenses[0].method)
}

func TestSaleSequenceMonotonic(t *testing.T) {
	repo, svc := seedRepo()
	repo.items[1].stock = 10
	for i := 1; i <= 3; i++ {
		sale, err := svc.AddSale(context.Background(), AddSaleRequest{
			CustomerID:    1,
			Items:         []AddSaleItemRequest{{ItemID: 1, Quantity: 1, Price: 10}},
			PaymentMethod: ledger.MethodCash,
		})
		require.NoError(t, err)
		require.Contains(t, sale.SaleID, "SALE-000")
	}
	require.Equal(t, int64(3), repo.counters["sale"])
}

func TestCreditAppliedIncreasesDue(t *testing.T) {
	repo, svc := seedRepo()
	sale, err := svc.AddSale(context.Background(), AddSaleRequest{
		CustomerID:    1,
		Items:         []AddSaleItemRequest{{ItemID: 1, Quantity: 2, Price: 10}},
		PaymentMethod: ledger.MethodCredit,
		CreditApplied: 20,
	})
	require.NoError(t, err)
	require.InDelta(t, 20.0, sale.Total, 0.0001)
	require.InDelta(t, 20.0, repo.customers[1].DueBalance, 0.0001)
	// Fully credit-covered: no receivable is opened.
	require.Empty(t, pendingFor(repo, 1))
}
