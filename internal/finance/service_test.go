package finance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/shared"
)

type memoryRepo struct {
	expenses  []Expense
	donations []Donation
	transfers []Transfer
	capital   []CapitalContribution
	nextID    int64
}

func (r *memoryRepo) CreateExpense(ctx context.Context, e Expense) (int64, error) {
	r.nextID++
	e.ID = r.nextID
	r.expenses = append(r.expenses, e)
	return e.ID, nil
}

func (r *memoryRepo) ListExpenses(ctx context.Context, req ListRequest) ([]Expense, int, error) {
	return r.expenses, len(r.expenses), nil
}

func (r *memoryRepo) DeleteExpense(ctx context.Context, id int64) error {
	for i, e := range r.expenses {
		if e.ID == id {
			r.expenses = append(r.expenses[:i], r.expenses[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *memoryRepo) CreateDonation(ctx context.Context, d Donation) (int64, error) {
	r.nextID++
	d.ID = r.nextID
	r.donations = append(r.donations, d)
	return d.ID, nil
}

func (r *memoryRepo) ListDonations(ctx context.Context, req ListRequest) ([]Donation, int, error) {
	return r.donations, len(r.donations), nil
}

func (r *memoryRepo) DeleteDonation(ctx context.Context, id int64) error {
	for i, d := range r.donations {
		if d.ID == id {
			r.donations = append(r.donations[:i], r.donations[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *memoryRepo) CreateTransfer(ctx context.Context, t Transfer) (int64, error) {
	r.nextID++
	t.ID = r.nextID
	r.transfers = append(r.transfers, t)
	return t.ID, nil
}

func (r *memoryRepo) ListTransfers(ctx context.Context, req ListRequest) ([]Transfer, int, error) {
	return r.transfers, len(r.transfers), nil
}

func (r *memoryRepo) CreateCapital(ctx context.Context, c CapitalContribution) (int64, error) {
	r.nextID++
	c.ID = r.nextID
	r.capital = append(r.capital, c)
	return c.ID, nil
}

func (r *memoryRepo) ListCapital(ctx context.Context, req ListRequest) ([]CapitalContribution, int, error) {
	return r.capital, len(r.capital), nil
}

func newTestService() (*memoryRepo, *Service) {
	repo := &memoryRepo{}
	clock := shared.FixedClock{At: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	return repo, NewService(repo, clock)
}

func TestAddExpenseDefaultsDate(t *testing.T) {
	repo, svc := newTestService()
	e, err := svc.AddExpense(context.Background(), AddExpenseRequest{
		Description:   "Rent",
		Amount:        500,
		PaymentMethod: ledger.MethodBank,
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), e.Date)
	require.Len(t, repo.expenses, 1)
}

func TestAddExpenseRejectsDueMethod(t *testing.T) {
	_, svc := newTestService()
	_, err := svc.AddExpense(context.Background(), AddExpenseRequest{
		Description:   "Rent",
		Amount:        500,
		PaymentMethod: ledger.MethodDue,
	})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestAddTransferRejectsSameAccount(t *testing.T) {
	_, svc := newTestService()
	_, err := svc.AddTransfer(context.Background(), AddTransferRequest{
		From:   ledger.MethodCash,
		To:     ledger.MethodCash,
		Amount: 100,
	})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestAddTransfer(t *testing.T) {
	repo, svc := newTestService()
	tr, err := svc.AddTransfer(context.Background(), AddTransferRequest{
		From:   ledger.MethodCash,
		To:     ledger.MethodBank,
		Amount: 100,
	})
	require.NoError(t, err)
	require.Equal(t, ledger.MethodCash, tr.From)
	require.Equal(t, ledger.MethodBank, tr.To)
	require.Len(t, repo.transfers, 1)
}

func TestAddCapital(t *testing.T) {
	repo, svc := newTestService()
	c, err := svc.AddCapital(context.Background(), AddCapitalRequest{
		Contributor:   "Owner",
		Amount:        1000,
		PaymentMethod: ledger.MethodBank,
	})
	require.NoError(t, err)
	require.InDelta(t, 1000.0, c.Amount, 0.0001)
	require.Len(t, repo.capital, 1)
}

func TestAddDonationNegativeAmount(t *testing.T) {
	_, svc := newTestService()
	_, err := svc.AddDonation(context.Background(), AddDonationRequest{
		DonorName:     "Well-wisher",
		Amount:        -5,
		PaymentMethod: ledger.MethodCash,
	})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}
