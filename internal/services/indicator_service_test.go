package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luoarch/quantum-x-sub001/internal/cache"
	"github.com/luoarch/quantum-x-sub001/internal/config"
	"github.com/luoarch/quantum-x-sub001/internal/database"
	"github.com/luoarch/quantum-x-sub001/internal/indicator"
	"github.com/luoarch/quantum-x-sub001/internal/models"
)

func newTestIndicatorService(t *testing.T) (*IndicatorService, pgxmock.PgxPoolIface, *cache.IndicatorCache) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	snapshots := cache.NewIndicatorCache(client, time.Hour, testServiceLogger())

	cfg := &config.Config{Indicator: config.DefaultIndicator()}
	svc := NewIndicatorService(
		cfg,
		testServiceLogger(),
		database.NewSeriesRepository(mockPool),
		database.NewSignalRepository(mockPool),
		snapshots,
		nil,
	)
	return svc, mockPool, snapshots
}

// anyArgs builds n wildcard matchers; pgxmock requires the argument count
// to match even when the values themselves don't matter.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

// expectFlatSeries mocks every whitelisted series as a constant monthly
// sequence.
func expectFlatSeries(mockPool pgxmock.PgxPoolIface, months int) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, name := range models.SeriesWhitelist() {
		mockPool.ExpectQuery("SELECT name, source, updated_at FROM economic_series").
			WithArgs(name).
			WillReturnRows(pgxmock.NewRows([]string{"name", "source", "updated_at"}).
				AddRow(name, "provider", start))
		obs := pgxmock.NewRows([]string{"observed_at", "value"})
		for i := 0; i < months; i++ {
			obs.AddRow(start.AddDate(0, i, 0), decimal.NewFromInt(100))
		}
		mockPool.ExpectQuery("SELECT observed_at, value").
			WithArgs(name).
			WillReturnRows(obs)
	}
}

func TestRecalculateFlatSeries(t *testing.T) {
	svc, mockPool, snapshots := newTestIndicatorService(t)
	ctx := context.Background()

	expectFlatSeries(mockPool, 60)
	mockPool.ExpectExec("DELETE FROM cli_points").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	for i := 0; i < 60; i++ {
		mockPool.ExpectExec("INSERT INTO cli_points").
			WithArgs(anyArgs(6)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mockPool.ExpectExec("DELETE FROM indicator_signals").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	for i := 0; i < 60; i++ {
		mockPool.ExpectExec("INSERT INTO indicator_signals").
			WithArgs(anyArgs(17)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	snap, err := svc.Recalculate(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Path, 60)
	require.Len(t, snap.Signals, 60)

	// Constant inputs have no common cycle: the index pins to 100 and every
	// period holds.
	for _, p := range snap.Path {
		assert.InDelta(t, 100, p.Index, 1e-9)
	}
	for _, s := range snap.Signals {
		assert.Equal(t, models.ActionHold, s.Action)
	}
	assert.Equal(t, 60, snap.Summary.HoldCount)
	assert.Zero(t, snap.Summary.BuyCount)
	assert.NotEmpty(t, snap.Degradations)

	// The run refreshed the cache.
	cached, ok := snapshots.GetSnapshot(ctx)
	require.True(t, ok)
	assert.Len(t, cached.Path, 60)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSnapshotPrefersCache(t *testing.T) {
	svc, mockPool, snapshots := newTestIndicatorService(t)
	ctx := context.Background()

	seeded := &cache.Snapshot{
		Path: []models.CLIPoint{{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Index: 104}},
	}
	require.NoError(t, snapshots.SetSnapshot(ctx, seeded))

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Path, 1)
	assert.InDelta(t, 104, snap.Path[0].Index, 1e-9)

	// No database traffic on a warm cache.
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRecalculateInsufficientData(t *testing.T) {
	svc, mockPool, _ := newTestIndicatorService(t)

	for _, name := range models.SeriesWhitelist() {
		mockPool.ExpectQuery("SELECT name, source, updated_at FROM economic_series").
			WithArgs(name).
			WillReturnError(pgx.ErrNoRows)
	}

	_, err := svc.Recalculate(context.Background())
	require.ErrorIs(t, err, indicator.ErrInsufficientData)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
