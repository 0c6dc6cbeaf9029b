package signals

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/luoarch/quantum-x-sub001/internal/config"
	"github.com/luoarch/quantum-x-sub001/internal/models"
)

// Generator turns a CLI path into per-timestamp signal vectors: sub-signals,
// weighted combination, quality filtering and the regime confirmation gate.
// Sub-signals stay populated even when a gate forces the final signal to
// HOLD, preserving auditability.
type Generator struct {
	cfg      config.IndicatorConfig
	logger   *logrus.Logger
	builder  *Builder
	combiner *Combiner
}

func NewGenerator(cfg config.IndicatorConfig, logger *logrus.Logger) *Generator {
	return &Generator{
		cfg:      cfg,
		logger:   logger,
		builder:  NewBuilder(cfg),
		combiner: NewCombiner(cfg),
	}
}

// Generate computes one IndicatorSignal per CLI point. aux carries auxiliary
// series values aligned to the panel timestamps for the economic
// confirmation sub-signal; it may be nil.
func (g *Generator) Generate(path []models.CLIPoint, aux map[string][]float64) []models.IndicatorSignal {
	out := make([]models.IndicatorSignal, len(path))
	regimes := make([]Regime, len(path))
	for i, p := range path {
		regimes[i] = ClassifyRegime(p.Index, p.Momentum, p.Trend)
	}

	now := time.Now().UTC()
	for i, p := range path {
		level := g.builder.LevelSignal(p.Index)
		momentum := g.builder.MomentumSignal(p.Momentum)
		trend := g.builder.TrendSignal(p.Trend, p.Index)
		economic := g.builder.EconomicConfirmation(i, aux)

		combined := g.combiner.Combine(level, momentum, trend, economic)
		consistency := g.combiner.Consistency(level, momentum, trend, economic)
		strength := g.combiner.Strength(combined, consistency)
		confidence := g.combiner.Confidence(consistency, strength, p.Index)

		final := g.combiner.ApplyQualityFilter(combined, strength, confidence)

		confirmed := RegimeConfirmed(regimes, i, g.cfg.RegimeConfirmationMonths)
		if !confirmed {
			final = 0
		}

		risk := clampFloat(1-confidence, 0, 1)
		out[i] = models.IndicatorSignal{
			ID:             uuid.New().String(),
			Timestamp:      p.Timestamp,
			LevelSignal:    level,
			MomentumSignal: momentum,
			TrendSignal:    trend,
			EconomicSignal: economic,
			Combined:       combined,
			Final:          final,
			Strength:       strength,
			Consistency:    consistency,
			Confidence:     confidence,
			Action:         actionFor(final),
			Regime:         regimes[i].String(),
			Confirmed:      confirmed,
			RiskLevel:      risk,
			RiskBucket:     riskBucket(risk),
			CreatedAt:      now,
		}
	}

	g.logger.WithFields(logrus.Fields{
		"signals": len(out),
	}).Debug("Generated indicator signals")

	return out
}

func actionFor(final float64) models.SignalAction {
	switch {
	case final > actionBand:
		return models.ActionBuy
	case final < -actionBand:
		return models.ActionSell
	default:
		return models.ActionHold
	}
}

func riskBucket(risk float64) string {
	switch {
	case risk < 0.25:
		return models.RiskLow
	case risk < 0.55:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}
