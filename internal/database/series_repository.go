package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/luoarch/quantum-x-sub001/internal/models"
)

// DatabasePool defines the pool operations repositories need, so tests can
// substitute a mock pool.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// SeriesRepository handles persistence of economic series and their
// observations.
type SeriesRepository struct {
	pool DatabasePool
}

func NewSeriesRepository(pool DatabasePool) *SeriesRepository {
	return &SeriesRepository{pool: pool}
}

// UpsertSeries stores series metadata and replaces its observations.
func (r *SeriesRepository) UpsertSeries(ctx context.Context, s *models.EconomicSeries) error {
	query := `
		INSERT INTO economic_series (name, source, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name)
		DO UPDATE SET source = EXCLUDED.source, updated_at = NOW()`
	if _, err := r.pool.Exec(ctx, query, s.Name, s.Source); err != nil {
		return fmt.Errorf("failed to upsert series %s: %w", s.Name, err)
	}

	for _, p := range s.Points {
		obsQuery := `
			INSERT INTO economic_observations (series_name, observed_at, value)
			VALUES ($1, $2, $3)
			ON CONFLICT (series_name, observed_at)
			DO UPDATE SET value = EXCLUDED.value`
		if _, err := r.pool.Exec(ctx, obsQuery, s.Name, p.Timestamp, p.Value); err != nil {
			return fmt.Errorf("failed to upsert observation for %s at %s: %w", s.Name, p.Timestamp, err)
		}
	}
	return nil
}

// GetSeries loads one series with all observations ordered by timestamp.
func (r *SeriesRepository) GetSeries(ctx context.Context, name string) (*models.EconomicSeries, error) {
	var s models.EconomicSeries
	query := `SELECT name, source, updated_at FROM economic_series WHERE name = $1`
	if err := r.pool.QueryRow(ctx, query, name).Scan(&s.Name, &s.Source, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get series %s: %w", name, err)
	}

	obsQuery := `
		SELECT observed_at, value
		FROM economic_observations
		WHERE series_name = $1
		ORDER BY observed_at ASC`
	rows, err := r.pool.Query(ctx, obsQuery, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations for %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts time.Time
		var value decimal.Decimal
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		s.Points = append(s.Points, models.EconomicPoint{Timestamp: ts, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	return &s, nil
}

// GetAllSeries loads every whitelisted series that exists, keyed by name.
func (r *SeriesRepository) GetAllSeries(ctx context.Context) (map[string]*models.EconomicSeries, error) {
	out := make(map[string]*models.EconomicSeries)
	for _, name := range models.SeriesWhitelist() {
		s, err := r.GetSeries(ctx, name)
		if err != nil {
			return nil, err
		}
		if s != nil {
			out[name] = s
		}
	}
	return out, nil
}
