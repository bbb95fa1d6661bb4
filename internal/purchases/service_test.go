package purchases

import (
	"context"
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
	items        map[int64]*memItem
	purchases    map[int64]*Purchase
	transactions []dues.Transaction
	expenses     []memExpense
	counters     map[string]int64
	nextID       int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		items:     make(map[int64]*memItem),
		purchases: make(map[int64]*Purchase),
		counters:  make(map[string]int64),
	}
}

type memoryTx struct {
	repo *memoryRepo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetPurchase(ctx context.Context, id int64) (*Purchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryRepo) ListPurchases(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error) {
	var out []Purchase
	for _, p := range r.purchases {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (tx *memoryTx) FindItemByTitle(ctx context.Context, title string) (int64, error) {
	for id, it := range tx.repo.items {
		if it.title == title {
			return id, nil
		}
	}
	return 0, shared.ErrNotFound
}

func (tx *memoryTx) CreateItem(ctx context.Context, title, category string, author *string, cost float64, stock int) (int64, error) {
	tx.repo.nextID++
	tx.repo.items[tx.repo.nextID] = &memItem{title: title, cost: cost, stock: stock}
	return tx.repo.nextID, nil
}

func (tx *memoryTx) AdjustStock(ctx context.Context, itemID int64, delta int) error {
	it, ok := tx.repo.items[itemID]
	if !ok {
		return shared.ErrNotFound
	}
	it.stock += delta
	return nil
}

func (tx *memoryTx) UpdateItemCost(ctx context.Context, itemID int64, cost float64) error {
	it, ok := tx.repo.items[itemID]
	if !ok {
		return shared.ErrNotFound
	}
	it.cost = cost
	return nil
}

func (tx *memoryTx) NextSequence(ctx context.Context, name string) (int64, error) {
	tx.repo.counters[name]++
	return tx.repo.counters[name], nil
}

func (tx *memoryTx) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	tx.repo.nextID++
	p.ID = tx.repo.nextID
	tx.repo.purchases[p.ID] = &p
	return p.ID, nil
}

func (tx *memoryTx) InsertExpense(ctx context.Context, description string, amount float64, method ledger.PaymentMethod, date time.Time) error {
	tx.repo.expenses = append(tx.repo.expenses, memExpense{description: description, amount: amount, method: method})
	return nil
}

func (tx *memoryTx) InsertTransaction(ctx context.Context, t dues.Transaction) (int64, error) {
	tx.repo.nextID++
	t.ID = tx.repo.nextID
	tx.repo.transactions = append(tx.repo.transactions, t)
	return t.ID, nil
}

func newTestService() (*memoryRepo, *Service) {
	repo := newMemoryRepo()
	clock := shared.FixedClock{At: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	return repo, NewService(repo, clock, nil)
}

func TestAddPurchaseCreatesNewItem(t *testing.T) {
	repo, svc := newTestService()
	p, err := svc.AddPurchase(context.Background(), AddPurchaseRequest{
		Supplier:      "Karim Traders",
		Items:         []AddPurchaseItemRequest{{ItemName: "Ledger Basics", Category: "Books", Quantity: 10, Cost: 5}},
		PaymentMethod: ledger.MethodCash,
	})
	require.NoError(t, err)
	require.Equal(t, "PUR-0001", p.PurchaseID)
	require.InDelta(t, 50.0, p.TotalAmount, 0.0001)

	require.Len(t, repo.items, 1)
	for _, it := range repo.items {
		require.Equal(t, "Ledger Basics", it.title)
		require.Equal(t, 10, it.stock)
		require.InDelta(t, 5.0, it.cost, 0.0001)
	}
	// Cash purchase: full amount booked as an expense, no payable.
	require.Len(t, repo.expenses, 1)
	require.InDelta(t, 50.0, repo.expenses[0].amount, 0.0001)
	require.Equal(t, ledger.MethodCash, repo.expenses[0].method)
	require.Empty(t, repo.transactions)
}

func TestAddPurchaseRestocksExistingItem(t *testing.T) {
	repo, svc := newTestService()
	repo.nextID = 1
	repo.items[1] = &memItem{title: "Ledger Basics", cost: 4, stock: 3}

	_, err := svc.AddPurchase(context.Background(), AddPurchaseRequest{
		Supplier:      "Karim Traders",
		Items:         []AddPurchaseItemRequest{{ItemName: "Ledger Basics", Category: "Books", Quantity: 7, Cost: 5}},
		PaymentMethod: ledger.MethodBank,
	})
	require.NoError(t, err)
	require.Len(t, repo.items, 1)
	require.Equal(t, 10, repo.items[1].stock)
	require.InDelta(t, 5.0, repo.items[1].cost, 0.0001)
}

func TestAddPurchaseDueCreatesPayable(t *testing.T) {
	repo, svc := newTestService()
	_, err := svc.AddPurchase(context.Background(), AddPurchaseRequest{
		Supplier:      "Karim Traders",
		Items:         []AddPurchaseItemRequest{{ItemName: "Ledger Basics", Category: "Books", Quantity: 10, Cost: 5}},
		PaymentMethod: ledger.MethodDue,
	})
	require.NoError(t, err)
	require.Empty(t, repo.expenses)
	require.Len(t, repo.transactions, 1)
	tr := repo.transactions[0]
	require.Equal(t, dues.TypePayable, tr.Type)
	require.Equal(t, dues.StatusPending, tr.Status)
	require.Equal(t, dues.PurposePurchaseDue, tr.Purpose)
	require.InDelta(t, 50.0, tr.Amount, 0.0001)
}

func TestAddPurchaseSplit(t *testing.T) {
	repo, svc := newTestService()
	paid := 30.0
	_, err := svc.AddPurchase(context.Background(), AddPurchaseRequest{
		Supplier:      "Karim Traders",
		Items:         []AddPurchaseItemRequest{{ItemName: "Ledger Basics", Category: "Books", Quantity: 10, Cost: 5}},
		PaymentMethod: ledger.MethodSplit,
		AmountPaid:    &paid,
	})
	require.NoError(t, err)
	require.Len(t, repo.expenses, 1)
	require.InDelta(t, 30.0, repo.expenses[0].amount, 0.0001)
	require.Len(t, repo.transactions, 1)
	require.InDelta(t, 20.0, repo.transactions[0].Amount, 0.0001)
}

func TestAddPurchaseOverpaidSplitFails(t *testing.T) {
	repo, svc := newTestService()
	paid := 60.0
	_, err := svc.AddPurchase(context.Background(), AddPurchaseRequest{
		Supplier:      "Karim Traders",
		Items:         []AddPurchaseItemRequest{{ItemName: "Ledger Basics", Category: "Books", Quantity: 10, Cost: 5}},
		PaymentMethod: ledger.MethodSplit,
		AmountPaid:    &paid,
	})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
	require.Empty(t, repo.purchases)
}

func TestAddPurchaseValidation(t *testing.T) {
	_, svc := newTestService()
	_, err := svc.AddPurchase(context.Background(), AddPurchaseRequest{
		Supplier:      "",
		Items:         []AddPurchaseItemRequest{{ItemName: "X", Category: "Books", Quantity: 1, Cost: 1}},
		PaymentMethod: ledger.MethodCash,
	})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.AddPurchase(context.Background(), AddPurchaseRequest{
		Supplier:      "Karim Traders",
		Items:         []AddPurchaseItemRequest{{ItemName: "X", Category: "Books", Quantity: 0, Cost: 1}},
		PaymentMethod: ledger.MethodCash,
	})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}
