package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luoarch/quantum-x-sub001/internal/models"
)

func TestUpsertSeries(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewSeriesRepository(mockPool)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := &models.EconomicSeries{
		Name:   models.SeriesGDP,
		Source: "provider",
		Points: []models.EconomicPoint{
			{Timestamp: ts, Value: decimal.NewFromFloat(2.1)},
			{Timestamp: ts.AddDate(0, 1, 0), Value: decimal.NewFromFloat(2.3)},
		},
	}

	mockPool.ExpectExec("INSERT INTO economic_series").
		WithArgs(models.SeriesGDP, "provider").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO economic_observations").
		WithArgs(models.SeriesGDP, ts, decimal.NewFromFloat(2.1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("INSERT INTO economic_observations").
		WithArgs(models.SeriesGDP, ts.AddDate(0, 1, 0), decimal.NewFromFloat(2.3)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.UpsertSeries(context.Background(), series))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetSeries(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewSeriesRepository(mockPool)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery("SELECT name, source, updated_at FROM economic_series").
		WithArgs(models.SeriesInflation).
		WillReturnRows(pgxmock.NewRows([]string{"name", "source", "updated_at"}).
			AddRow(models.SeriesInflation, "provider", ts))
	mockPool.ExpectQuery("SELECT observed_at, value").
		WithArgs(models.SeriesInflation).
		WillReturnRows(pgxmock.NewRows([]string{"observed_at", "value"}).
			AddRow(ts, decimal.NewFromFloat(4.5)).
			AddRow(ts.AddDate(0, 1, 0), decimal.NewFromFloat(4.2)))

	series, err := repo.GetSeries(context.Background(), models.SeriesInflation)
	require.NoError(t, err)
	require.NotNil(t, series)
	assert.Equal(t, models.SeriesInflation, series.Name)
	require.Len(t, series.Points, 2)
	assert.True(t, series.Points[0].Value.Equal(decimal.NewFromFloat(4.5)))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetSeriesMissingIsNil(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewSeriesRepository(mockPool)

	mockPool.ExpectQuery("SELECT name, source, updated_at FROM economic_series").
		WithArgs(models.SeriesGDP).
		WillReturnError(pgx.ErrNoRows)

	series, err := repo.GetSeries(context.Background(), models.SeriesGDP)
	require.NoError(t, err)
	assert.Nil(t, series)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetAllSeriesSkipsMissing(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewSeriesRepository(mockPool)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, name := range models.SeriesWhitelist() {
		if name == models.SeriesGDP {
			mockPool.ExpectQuery("SELECT name, source, updated_at FROM economic_series").
				WithArgs(name).
				WillReturnRows(pgxmock.NewRows([]string{"name", "source", "updated_at"}).
					AddRow(name, "provider", ts))
			mockPool.ExpectQuery("SELECT observed_at, value").
				WithArgs(name).
				WillReturnRows(pgxmock.NewRows([]string{"observed_at", "value"}).
					AddRow(ts, decimal.NewFromFloat(2.0)))
			continue
		}
		mockPool.ExpectQuery("SELECT name, source, updated_at FROM economic_series").
			WithArgs(name).
			WillReturnError(pgx.ErrNoRows)
	}

	all, err := repo.GetAllSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Contains(t, all, models.SeriesGDP)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
