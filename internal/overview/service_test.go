package overview

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/platform/cache"
	"github.com/khata-erp/khata-erp/internal/shared"
)

type mockSnapshotRepo struct {
	snap  Snapshot
	calls int
}

func (m *mockSnapshotRepo) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	m.calls++
	copied := m.snap
	return &copied, nil
}

func newCachedService(t *testing.T, repo SnapshotPort) (*Service, *cache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, time.Minute)
	clock := shared.FixedClock{At: time.Date(2025, 3, 31, 18, 0, 0, 0, time.UTC)}
	return NewService(repo, c, clock, 200), c
}

func TestGetAccountOverviewCaches(t *testing.T) {
	repo := &mockSnapshotRepo{snap: Snapshot{
		Capital: []MoneyRecord{{Date: day(1), Amount: 1000, Method: ledger.MethodCash}},
	}}
	svc, _ := newCachedService(t, repo)

	first, err := svc.GetAccountOverview(context.Background(), nil)
	require.NoError(t, err)
	require.InDelta(t, 1000.0, first.Cash, 0.0001)
	require.InDelta(t, 200.0, first.OfficeAssetsValue, 0.0001)

	second, err := svc.GetAccountOverview(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, first.Cash, second.Cash)
	require.Equal(t, 1, repo.calls)
}

func TestGetAccountOverviewCacheBumpRefetches(t *testing.T) {
	repo := &mockSnapshotRepo{snap: Snapshot{
		Capital: []MoneyRecord{{Date: day(1), Amount: 1000, Method: ledger.MethodCash}},
	}}
	svc, c := newCachedService(t, repo)

	_, err := svc.GetAccountOverview(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, c.Bump(context.Background()))

	repo.snap.Capital[0].Amount = 2000
	refreshed, err := svc.GetAccountOverview(context.Background(), nil)
	require.NoError(t, err)
	require.InDelta(t, 2000.0, refreshed.Cash, 0.0001)
	require.Equal(t, 2, repo.calls)
}

func TestGetAccountOverviewAsOfEndOfDay(t *testing.T) {
	repo := &mockSnapshotRepo{snap: Snapshot{
		Sales: []SaleRecord{
			{Date: time.Date(2025, 3, 10, 21, 30, 0, 0, time.UTC), Total: 50, PaymentMethod: ledger.MethodCash},
			{Date: time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC), Total: 70, PaymentMethod: ledger.MethodCash},
		},
	}}
	svc, _ := newCachedService(t, repo)

	asOf := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	o, err := svc.GetAccountOverview(context.Background(), &asOf)
	require.NoError(t, err)
	// Same-day evening sale is included; next-day sale is not.
	require.InDelta(t, 50.0, o.Cash, 0.0001)
}
