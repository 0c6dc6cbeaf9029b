package signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luoarch/quantum-x-sub001/internal/config"
	"github.com/luoarch/quantum-x-sub001/internal/models"
)

func TestLevelSignal(t *testing.T) {
	b := NewBuilder(config.DefaultIndicator())

	assert.Equal(t, 1, b.LevelSignal(102.5))
	assert.Equal(t, -1, b.LevelSignal(97.5))
	assert.Equal(t, 0, b.LevelSignal(100))
	// Thresholds are exclusive.
	assert.Equal(t, 0, b.LevelSignal(102))
	assert.Equal(t, 0, b.LevelSignal(98))
}

func TestMomentumSignal(t *testing.T) {
	b := NewBuilder(config.DefaultIndicator())

	assert.Equal(t, 1, b.MomentumSignal(0.5))
	assert.Equal(t, -1, b.MomentumSignal(-0.5))
	assert.Equal(t, 0, b.MomentumSignal(0.3))
	assert.Equal(t, 0, b.MomentumSignal(-0.3))
	assert.Equal(t, 0, b.MomentumSignal(0))
}

func TestTrendSignal(t *testing.T) {
	b := NewBuilder(config.DefaultIndicator())

	// Deviation is relative to the index level.
	assert.Equal(t, 1, b.TrendSignal(125, 100))
	assert.Equal(t, -1, b.TrendSignal(75, 100))
	assert.Equal(t, 0, b.TrendSignal(110, 100))
	assert.Equal(t, 0, b.TrendSignal(100, 100))
	assert.Equal(t, 0, b.TrendSignal(110, 0))
}

func TestEconomicConfirmationVotes(t *testing.T) {
	b := NewBuilder(config.DefaultIndicator())

	aux := map[string][]float64{
		models.SeriesGDP:       {100, 100, 100, 102},
		models.SeriesInflation: {10, 10, 10, 9.5},
	}
	// GDP up 2% votes +1; inflation down 5% votes -1, inverted to +1.
	assert.InDelta(t, 1, b.EconomicConfirmation(3, aux), 1e-12)

	aux[models.SeriesInflation] = []float64{10, 10, 10, 11}
	// Rising inflation now cancels the GDP vote.
	assert.InDelta(t, 0, b.EconomicConfirmation(3, aux), 1e-12)
}

func TestEconomicConfirmationInsideBand(t *testing.T) {
	b := NewBuilder(config.DefaultIndicator())

	aux := map[string][]float64{
		models.SeriesGDP: {100, 100, 100, 100.5},
	}
	// A 0.5% move is inside the dead band and votes 0, but still counts.
	assert.InDelta(t, 0, b.EconomicConfirmation(3, aux), 1e-12)
}

func TestEconomicConfirmationSkipsUnusable(t *testing.T) {
	b := NewBuilder(config.DefaultIndicator())

	aux := map[string][]float64{
		models.SeriesGDP:          {100, 100, 100, 102},
		models.SeriesPolicyRate:   {0, 0, 0, 1},             // zero base
		models.SeriesExchangeRate: {math.NaN(), 1, 1, 1.05}, // NaN base
		models.SeriesUnemployment: {8, 8, 8},                // too short for t=3
	}
	assert.InDelta(t, 1, b.EconomicConfirmation(3, aux), 1e-12)

	// Before the comparison lag there is nothing to vote on.
	assert.Zero(t, b.EconomicConfirmation(2, aux))
	assert.Zero(t, b.EconomicConfirmation(0, nil))
}
