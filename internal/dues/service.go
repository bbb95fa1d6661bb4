package dues

import (
	"context"
	"time"

	"github.com/khata-erp/khata-erp/internal/shared"
)

// RepositoryPort defines read access over the dues ledger.
type RepositoryPort interface {
	ListTransactions(ctx context.Context, req ListTransactionsRequest) ([]Transaction, int, error)
	ListPendingReceivables(ctx context.Context, customerID int64) ([]Transaction, error)
	ListPendingPayables(ctx context.Context, asOf time.Time) ([]Transaction, error)
}

// Service handles dues ledger queries.
type Service struct {
	repo  RepositoryPort
	clock shared.Clock
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// ListTransactions returns a page of ledger entries.
func (s *Service) ListTransactions(ctx context.Context, req ListTransactionsRequest) ([]Transaction, shared.Pagination, error) {
	txs, total, err := s.repo.ListTransactions(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return txs, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// PendingReceivables lists a customer's open receivables oldest first.
func (s *Service) PendingReceivables(ctx context.Context, customerID int64) ([]Transaction, error) {
	return s.repo.ListPendingReceivables(ctx, customerID)
}

// PendingPayables lists payables due by the given date.
func (s *Service) PendingPayables(ctx context.Context, asOf time.Time) ([]Transaction, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	return s.repo.ListPendingPayables(ctx, asOf)
}

// ReceivableAging groups pending receivables by overdue buckets.
func (s *Service) ReceivableAging(ctx context.Context, asOf time.Time) (AgingBucket, error) {
	typ := TypeReceivable
	status := StatusPending
	pending, _, err := s.repo.ListTransactions(ctx, ListTransactionsRequest{Type: &typ, Status: &status, PerPage: 10000})
	if err != nil {
		return AgingBucket{}, err
	}
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	var bucket AgingBucket
	for _, t := range pending {
		days := int(asOf.Sub(t.DueDate).Hours() / 24)
		switch {
		case days <= 0:
			bucket.Current += t.Amount
		case days <= 30:
			bucket.Bucket30 += t.Amount
		case days <= 60:
			bucket.Bucket60 += t.Amount
		case days <= 90:
			bucket.Bucket90 += t.Amount
		default:
			bucket.Bucket120 += t.Amount
		}
	}
	return bucket, nil
}
