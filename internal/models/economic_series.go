package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Whitelisted economic series names. The pipeline ignores anything a
// provider returns outside this set.
const (
	SeriesInflation            = "inflation"
	SeriesPolicyRate           = "policy_rate"
	SeriesExchangeRate         = "exchange_rate"
	SeriesIndustrialProduction = "industrial_production"
	SeriesGDP                  = "gdp"
	SeriesUnemployment         = "unemployment"
)

// SeriesWhitelist returns the ordered set of series names the indicator
// pipeline consumes.
func SeriesWhitelist() []string {
	return []string{
		SeriesInflation,
		SeriesPolicyRate,
		SeriesExchangeRate,
		SeriesIndustrialProduction,
		SeriesGDP,
		SeriesUnemployment,
	}
}

// InvertedPolaritySeries reports whether a lower reading of the series is
// economically expansionary (inflation and unemployment).
func InvertedPolaritySeries(name string) bool {
	return name == SeriesInflation || name == SeriesUnemployment
}

// EconomicPoint is a single dated observation of an economic series.
type EconomicPoint struct {
	Timestamp time.Time       `json:"timestamp" db:"observed_at"`
	Value     decimal.Decimal `json:"value" db:"value"`
}

// EconomicSeries represents a named, dated, scalar-valued sequence collected
// from an external statistics provider. Timestamps are strictly increasing
// with no duplicates; the collector enforces this before persisting.
type EconomicSeries struct {
	Name      string          `json:"name" db:"name"`
	Source    string          `json:"source" db:"source"`
	Points    []EconomicPoint `json:"points"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Values converts the series to float64 observations, preserving order.
func (s *EconomicSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value.InexactFloat64()
	}
	return out
}

// Timestamps returns the observation timestamps, preserving order.
func (s *EconomicSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Timestamp
	}
	return out
}
