package signals

import (
	"math"

	"github.com/luoarch/quantum-x-sub001/internal/config"
)

// The combined signal maps to a categorical action outside this band.
const actionBand = 0.1

// Combiner forms the weighted combination of the four sub-signals and the
// derived quality scores, then nulls out signals that fail the quality
// filter.
type Combiner struct {
	cfg config.IndicatorConfig
}

func NewCombiner(cfg config.IndicatorConfig) *Combiner {
	return &Combiner{cfg: cfg}
}

// Combine returns the weighted sum of the sub-signals normalized by the sum
// of weights, landing in [-1, 1].
func (c *Combiner) Combine(level, momentum, trend int, economic float64) float64 {
	w := c.cfg.Weights
	total := w.Level + w.Momentum + w.Trend + w.Confirmation
	combined := (w.Level*float64(level) +
		w.Momentum*float64(momentum) +
		w.Trend*float64(trend) +
		w.Confirmation*economic) / total
	return clampFloat(combined, -1, 1)
}

// Consistency is the dominant direction's share of the four sub-signals.
func (c *Combiner) Consistency(level, momentum, trend int, economic float64) float64 {
	var pos, neg int
	for _, s := range []float64{float64(level), float64(momentum), float64(trend), economic} {
		switch {
		case s > 0:
			pos++
		case s < 0:
			neg++
		}
	}
	if neg > pos {
		pos = neg
	}
	return float64(pos) / 4
}

// Strength maps combined magnitude and consistency onto the 1..5 scale.
func (c *Combiner) Strength(combined, consistency float64) int {
	raw := (0.7*math.Abs(combined) + 0.3*consistency) * 5
	return int(math.Round(clampFloat(raw, 1, 5)))
}

// Confidence blends consistency, strength and the index's distance from its
// center level into [0, 1].
func (c *Combiner) Confidence(consistency float64, strength int, index float64) float64 {
	proximity := 1 - math.Abs(index-100)/100
	conf := 0.4*consistency + 0.4*float64(strength)/5 + 0.2*proximity
	return clampFloat(conf, 0, 1)
}

// ApplyQualityFilter zeroes the combined signal unless it clears both the
// minimum strength and the confidence floor. NaN confidence fails the
// filter.
func (c *Combiner) ApplyQualityFilter(combined float64, strength int, confidence float64) float64 {
	if math.IsNaN(confidence) {
		confidence = 0
	}
	if strength < c.cfg.MinSignalStrength || confidence < c.cfg.MinConfidence {
		return 0
	}
	return combined
}

func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
