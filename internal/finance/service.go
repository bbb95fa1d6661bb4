package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/shared"
)

type RepositoryPort interface {
	CreateExpense(ctx context.Context, e Expense) (int64, error)
	ListExpenses(ctx context.Context, req ListRequest) ([]Expense, int, error)
	DeleteExpense(ctx context.Context, id int64) error

	CreateDonation(ctx context.Context, d Donation) (int64, error)
	ListDonations(ctx context.Context, req ListRequest) ([]Donation, int, error)
	DeleteDonation(ctx context.Context, id int64) error

	CreateTransfer(ctx context.Context, t Transfer) (int64, error)
	ListTransfers(ctx context.Context, req ListRequest) ([]Transfer, int, error)

	CreateCapital(ctx context.Context, c CapitalContribution) (int64, error)
	ListCapital(ctx context.Context, req ListRequest) ([]CapitalContribution, int, error)
}

type Service struct {
	repo  RepositoryPort
	clock shared.Clock
}

func NewService(repo RepositoryPort, clock shared.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

func (s *Service) AddExpense(ctx context.Context, req AddExpenseRequest) (*Expense, error) {
	if err := requireImmediate(req.PaymentMethod); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrInvalidArgument)
	}
	now := s.clock.Now()
	e := Expense{
		Description:   req.Description,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Date:          dateOr(req.Date, now),
		CreatedAt:     now,
	}
	id, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return &e, nil
}

func (s *Service) ListExpenses(ctx context.Context, req ListRequest) ([]Expense, shared.Pagination, error) {
	items, total, err := s.repo.ListExpenses(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	return s.repo.DeleteExpense(ctx, id)
}

func (s *Service) AddDonation(ctx context.Context, req AddDonationRequest) (*Donation, error) {
	if err := requireImmediate(req.PaymentMethod); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrInvalidArgument)
	}
	now := s.clock.Now()
	d := Donation{
		DonorName:     req.DonorName,
		Description:   req.Description,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Date:          dateOr(req.Date, now),
		CreatedAt:     now,
	}
	id, err := s.repo.CreateDonation(ctx, d)
	if err != nil {
		return nil, err
	}
	d.ID = id
	return &d, nil
}

func (s *Service) ListDonations(ctx context.Context, req ListRequest) ([]Donation, shared.Pagination, error) {
	items, total, err := s.repo.ListDonations(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) DeleteDonation(ctx context.Context, id int64) error {
	return s.repo.DeleteDonation(ctx, id)
}

// AddTransfer moves money between cash and bank. Both ends must be immediate
// accounts and must differ.
func (s *Service) AddTransfer(ctx context.Context, req AddTransferRequest) (*Transfer, error) {
	if err := requireImmediate(req.From); err != nil {
		return nil, err
	}
	if err := requireImmediate(req.To); err != nil {
		return nil, err
	}
	if req.From == req.To {
		return nil, fmt.Errorf("%w: transfer endpoints must differ", shared.ErrInvalidArgument)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrInvalidArgument)
	}
	now := s.clock.Now()
	t := Transfer{
		From:      req.From,
		To:        req.To,
		Amount:    req.Amount,
		Date:      dateOr(req.Date, now),
		Note:      req.Note,
		CreatedAt: now,
	}
	id, err := s.repo.CreateTransfer(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return &t, nil
}

func (s *Service) ListTransfers(ctx context.Context, req ListRequest) ([]Transfer, shared.Pagination, error) {
	items, total, err := s.repo.ListTransfers(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func (s *Service) AddCapital(ctx context.Context, req AddCapitalRequest) (*CapitalContribution, error) {
	if err := requireImmediate(req.PaymentMethod); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrInvalidArgument)
	}
	now := s.clock.Now()
	c := CapitalContribution{
		Contributor:   req.Contributor,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Date:          dateOr(req.Date, now),
		Note:          req.Note,
		CreatedAt:     now,
	}
	id, err := s.repo.CreateCapital(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

func (s *Service) ListCapital(ctx context.Context, req ListRequest) ([]CapitalContribution, shared.Pagination, error) {
	items, total, err := s.repo.ListCapital(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

func requireImmediate(m ledger.PaymentMethod) error {
	if !m.Immediate() {
		return fmt.Errorf("%w: payment method must be Cash or Bank, got %q", shared.ErrInvalidArgument, m)
	}
	return nil
}

func dateOr(d *time.Time, fallback time.Time) time.Time {
	if d != nil {
		return *d
	}
	return fallback
}
