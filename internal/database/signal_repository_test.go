package database

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luoarch/quantum-x-sub001/internal/models"
)

func TestSaveCLIPath(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewSignalRepository(mockPool)
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	path := []models.CLIPoint{
		{Timestamp: ts, RawFactor: 0.5, Smoothed: 0.4, Index: 103, Trend: 102.5, Momentum: 0.8},
	}

	mockPool.ExpectExec("DELETE FROM cli_points").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec("INSERT INTO cli_points").
		WithArgs(ts, 0.5, 0.4, 103.0, 102.5, 0.8).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SaveCLIPath(context.Background(), path))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSaveSignals(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewSignalRepository(mockPool)
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	created := ts.Add(time.Hour)
	sig := models.IndicatorSignal{
		ID:             "sig-1",
		Timestamp:      ts,
		LevelSignal:    1,
		MomentumSignal: 1,
		TrendSignal:    0,
		EconomicSignal: 0.5,
		Combined:       0.75,
		Final:          0.75,
		Strength:       4,
		Consistency:    0.75,
		Confidence:     0.7,
		Action:         models.ActionBuy,
		Regime:         "GROWTH",
		Confirmed:      true,
		RiskLevel:      0.3,
		RiskBucket:     models.RiskMedium,
		CreatedAt:      created,
	}

	mockPool.ExpectExec("DELETE FROM indicator_signals").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec("INSERT INTO indicator_signals").
		WithArgs("sig-1", ts, 1, 1, 0, 0.5, 0.75, 0.75, 4, 0.75, 0.7,
			"BUY", "GROWTH", true, 0.3, models.RiskMedium, created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SaveSignals(context.Background(), []models.IndicatorSignal{sig}))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetLatestSignal(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewSignalRepository(mockPool)
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery("SELECT id, observed_at").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "observed_at", "level_signal", "momentum_signal", "trend_signal", "economic_signal",
			"combined", "final", "strength", "consistency", "confidence",
			"action", "regime", "confirmed", "risk_level", "risk_bucket", "created_at",
		}).AddRow("sig-1", ts, 1, 0, 0, 0.0, 0.4, 0.4, 2, 0.25, 0.62,
			"BUY", "GROWTH", true, 0.38, models.RiskMedium, ts))

	sig, err := repo.GetLatestSignal(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
	assert.Equal(t, 2, sig.Strength)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetLatestSignalEmpty(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewSignalRepository(mockPool)

	mockPool.ExpectQuery("SELECT id, observed_at").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "observed_at", "level_signal", "momentum_signal", "trend_signal", "economic_signal",
			"combined", "final", "strength", "consistency", "confidence",
			"action", "regime", "confirmed", "risk_level", "risk_bucket", "created_at",
		}))

	sig, err := repo.GetLatestSignal(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
