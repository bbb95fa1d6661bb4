package dues

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khata-erp/khata-erp/internal/shared"
)

type memoryRepo struct {
	transactions []Transaction
}

func (m *memoryRepo) ListTransactions(_ context.Context, req ListTransactionsRequest) ([]Transaction, int, error) {
	var out []Transaction
	for _, t := range m.transactions {
		if req.Type != nil && t.Type != *req.Type {
			continue
		}
		if req.Status != nil && t.Status != *req.Status {
			continue
		}
		if req.CustomerID != nil && (t.CustomerID == nil || *t.CustomerID != *req.CustomerID) {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

func (m *memoryRepo) ListPendingReceivables(_ context.Context, customerID int64) ([]Transaction, error) {
	var out []Transaction
	for _, t := range m.transactions {
		if t.Type == TypeReceivable && t.Status == StatusPending && t.CustomerID != nil && *t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListPendingPayables(_ context.Context, asOf time.Time) ([]Transaction, error) {
	var out []Transaction
	for _, t := range m.transactions {
		if t.Type == TypePayable && t.Status == StatusPending && !t.DueDate.After(asOf) {
			out = append(out, t)
		}
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func seededService() *Service {
	repo := &memoryRepo{transactions: []Transaction{
		{ID: 1, Amount: 100, DueDate: day(25), Status: StatusPending, Type: TypeReceivable, Purpose: PurposeSaleDue, CustomerID: ptr(int64(1))},
		{ID: 2, Amount: 50, DueDate: day(5), Status: StatusPending, Type: TypeReceivable, Purpose: PurposeSaleDue, CustomerID: ptr(int64(2))},
		{ID: 3, Amount: 80, DueDate: day(10), Status: StatusPending, Type: TypePayable, Purpose: PurposePurchaseDue},
		{ID: 4, Amount: 30, DueDate: day(1), Status: StatusPaid, Type: TypeReceivable, Purpose: PurposeCustomerPayment, CustomerID: ptr(int64(1))},
		{ID: 5, Amount: 200, DueDate: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), Status: StatusPending, Type: TypeReceivable, Purpose: PurposeSaleDue, CustomerID: ptr(int64(3))},
	}}
	return NewService(repo, shared.FixedClock{At: day(20)})
}

func TestListTransactionsFiltersByTypeAndStatus(t *testing.T) {
	svc := seededService()

	typ := TypeReceivable
	status := StatusPending
	txs, page, err := svc.ListTransactions(context.Background(), ListTransactionsRequest{Type: &typ, Status: &status, Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.Equal(t, 3, page.Total)
}

func TestPendingReceivablesScopedToCustomer(t *testing.T) {
	svc := seededService()

	pending, err := svc.PendingReceivables(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, int64(1), pending[0].ID)
}

func TestPendingPayablesDefaultsToClock(t *testing.T) {
	svc := seededService()

	payables, err := svc.PendingPayables(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, payables, 1)
	require.Equal(t, 80.0, payables[0].Amount)

	// Before the payable falls due nothing is owed yet.
	payables, err = svc.PendingPayables(context.Background(), day(5))
	require.NoError(t, err)
	require.Empty(t, payables)
}

func TestReceivableAgingBuckets(t *testing.T) {
	svc := seededService()

	bucket, err := svc.ReceivableAging(context.Background(), day(20))
	require.NoError(t, err)
	// Due on the 25th: not overdue yet. Due on the 5th: 15 days late.
	// Due last November: older than 120 days.
	require.Equal(t, 100.0, bucket.Current)
	require.Equal(t, 50.0, bucket.Bucket30)
	require.Equal(t, 0.0, bucket.Bucket60)
	require.Equal(t, 200.0, bucket.Bucket120)
}
