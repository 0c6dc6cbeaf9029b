package signals

import (
	"math"

	"github.com/luoarch/quantum-x-sub001/internal/config"
	"github.com/luoarch/quantum-x-sub001/internal/models"
)

const (
	confirmationLag  = 3
	confirmationBand = 0.01
)

// Builder converts index level, momentum, trend and optional auxiliary
// series into four independent directional sub-signals in {-1, 0, +1}.
type Builder struct {
	cfg config.IndicatorConfig
}

func NewBuilder(cfg config.IndicatorConfig) *Builder {
	return &Builder{cfg: cfg}
}

// LevelSignal is +1 above the buy threshold, -1 below the sell threshold.
func (b *Builder) LevelSignal(index float64) int {
	switch {
	case index > b.cfg.BuyThreshold:
		return 1
	case index < b.cfg.SellThreshold:
		return -1
	default:
		return 0
	}
}

// MomentumSignal thresholds the fixed-lag index difference symmetrically.
func (b *Builder) MomentumSignal(momentum float64) int {
	switch {
	case momentum > b.cfg.MomentumThreshold:
		return 1
	case momentum < -b.cfg.MomentumThreshold:
		return -1
	default:
		return 0
	}
}

// TrendSignal thresholds the relative trend deviation (trend-index)/index.
func (b *Builder) TrendSignal(trend, index float64) int {
	if index == 0 {
		return 0
	}
	deviation := (trend - index) / index
	switch {
	case deviation > b.cfg.TrendThreshold:
		return 1
	case deviation < -b.cfg.TrendThreshold:
		return -1
	default:
		return 0
	}
}

// EconomicConfirmation averages per-series directional votes from the
// auxiliary series values observed at the panel timestamps. Each vote is the
// sign of a short-horizon percent change, with polarity inverted for series
// where lower readings are expansionary. No usable series contributes 0.
func (b *Builder) EconomicConfirmation(t int, aux map[string][]float64) float64 {
	var sum float64
	var count int
	for name, values := range aux {
		if t >= len(values) || t < confirmationLag {
			continue
		}
		prev := values[t-confirmationLag]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(values[t]) {
			continue
		}
		change := (values[t] - prev) / math.Abs(prev)

		var vote float64
		switch {
		case change > confirmationBand:
			vote = 1
		case change < -confirmationBand:
			vote = -1
		}
		if models.InvertedPolaritySeries(name) {
			vote = -vote
		}
		sum += vote
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
