package database

import (
	"context"
	"fmt"

	"github.com/luoarch/quantum-x-sub001/internal/models"
)

// SignalRepository persists CLI paths and indicator signals per pipeline
// run.
type SignalRepository struct {
	pool DatabasePool
}

func NewSignalRepository(pool DatabasePool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

// SaveCLIPath replaces the stored CLI path with the latest run's output.
func (r *SignalRepository) SaveCLIPath(ctx context.Context, path []models.CLIPoint) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cli_points`); err != nil {
		return fmt.Errorf("failed to clear cli_points: %w", err)
	}
	query := `
		INSERT INTO cli_points (observed_at, raw_factor, smoothed_factor, index_value, trend, momentum)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, p := range path {
		if _, err := r.pool.Exec(ctx, query,
			p.Timestamp, p.RawFactor, p.Smoothed, p.Index, p.Trend, p.Momentum); err != nil {
			return fmt.Errorf("failed to insert cli point at %s: %w", p.Timestamp, err)
		}
	}
	return nil
}

// SaveSignals stores the run's signal vectors.
func (r *SignalRepository) SaveSignals(ctx context.Context, sigs []models.IndicatorSignal) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM indicator_signals`); err != nil {
		return fmt.Errorf("failed to clear indicator_signals: %w", err)
	}
	query := `
		INSERT INTO indicator_signals (
			id, observed_at, level_signal, momentum_signal, trend_signal, economic_signal,
			combined, final, strength, consistency, confidence,
			action, regime, confirmed, risk_level, risk_bucket, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	for _, s := range sigs {
		if _, err := r.pool.Exec(ctx, query,
			s.ID, s.Timestamp, s.LevelSignal, s.MomentumSignal, s.TrendSignal, s.EconomicSignal,
			s.Combined, s.Final, s.Strength, s.Consistency, s.Confidence,
			string(s.Action), s.Regime, s.Confirmed, s.RiskLevel, s.RiskBucket, s.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert signal %s: %w", s.ID, err)
		}
	}
	return nil
}

// GetLatestSignal returns the most recent signal vector, or nil when no run
// has been stored.
func (r *SignalRepository) GetLatestSignal(ctx context.Context) (*models.IndicatorSignal, error) {
	query := `
		SELECT id, observed_at, level_signal, momentum_signal, trend_signal, economic_signal,
			combined, final, strength, consistency, confidence,
			action, regime, confirmed, risk_level, risk_bucket, created_at
		FROM indicator_signals
		ORDER BY observed_at DESC
		LIMIT 1`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest signal: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var s models.IndicatorSignal
	var action string
	if err := rows.Scan(
		&s.ID, &s.Timestamp, &s.LevelSignal, &s.MomentumSignal, &s.TrendSignal, &s.EconomicSignal,
		&s.Combined, &s.Final, &s.Strength, &s.Consistency, &s.Confidence,
		&action, &s.Regime, &s.Confirmed, &s.RiskLevel, &s.RiskBucket, &s.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan latest signal: %w", err)
	}
	s.Action = models.SignalAction(action)
	return &s, nil
}
