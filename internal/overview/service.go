package overview

import (
	"context"
	"time"

	"github.com/khata-erp/khata-erp/internal/platform/cache"
	"github.com/khata-erp/khata-erp/internal/shared"
)

// SnapshotPort fetches the full history the fold runs over.
type SnapshotPort interface {
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}

type Service struct {
	repo         SnapshotPort
	cache        *cache.Cache
	clock        shared.Clock
	officeAssets float64
}

func NewService(repo SnapshotPort, c *cache.Cache, clock shared.Clock, officeAssets float64) *Service {
	return &Service{repo: repo, cache: c, clock: clock, officeAssets: officeAssets}
}

// GetAccountOverview computes the position as of the given date, end of day
// inclusive. A nil asOf means "right now". Results are served from the
// versioned cache; any mutator write bumps the version.
func (s *Service) GetAccountOverview(ctx context.Context, asOf *time.Time) (*Overview, error) {
	cutoff := s.clock.Now()
	keyPart := "latest"
	if asOf != nil {
		d := asOf.UTC()
		cutoff = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999999999, time.UTC)
		keyPart = d.Format("2006-01-02")
	}

	key, err := s.cache.BuildKey(ctx, "overview", keyPart)
	if err != nil {
		return nil, err
	}
	var result Overview
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (interface{}, error) {
		snap, err := s.repo.FetchSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		snap.OfficeAssetsValue = s.officeAssets
		return Build(*snap, cutoff), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
