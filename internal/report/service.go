package report

import (
	"context"
	"fmt"
	"time"

	"github.com/khata-erp/khata-erp/internal/platform/cache"
	"github.com/khata-erp/khata-erp/internal/shared"
)

type InputPort interface {
	FetchMonth(ctx context.Context, year int, month time.Month) (*Input, error)
}

type Service struct {
	repo  InputPort
	cache *cache.Cache
}

func NewService(repo InputPort, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// GetMonthlyReport returns the report for the given month, served from the
// versioned cache when available.
func (s *Service) GetMonthlyReport(ctx context.Context, year int, month time.Month) (*MonthlyReport, error) {
	if year < 2000 || year > 2200 || month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: invalid report month %d-%d", shared.ErrInvalidArgument, year, month)
	}
	key, err := s.cache.BuildKey(ctx, "report", fmt.Sprintf("%04d-%02d", year, int(month)))
	if err != nil {
		return nil, err
	}
	var result MonthlyReport
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (interface{}, error) {
		in, err := s.repo.FetchMonth(ctx, year, month)
		if err != nil {
			return nil, err
		}
		return GenerateMonthlyReport(*in), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
