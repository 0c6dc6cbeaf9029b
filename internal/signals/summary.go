package signals

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/luoarch/quantum-x-sub001/internal/models"
)

// Summarize aggregates a run's signals into counts per action and average
// confidence/strength, for the monitoring and health surfaces.
func Summarize(sigs []models.IndicatorSignal) models.SignalSummary {
	summary := models.SignalSummary{
		Total:       len(sigs),
		GeneratedAt: time.Now().UTC(),
	}
	if len(sigs) == 0 {
		return summary
	}

	var confSum, strengthSum float64
	for _, s := range sigs {
		switch s.Action {
		case models.ActionBuy:
			summary.BuyCount++
		case models.ActionSell:
			summary.SellCount++
		default:
			summary.HoldCount++
		}
		confSum += s.Confidence
		strengthSum += float64(s.Strength)
	}

	n := decimal.NewFromInt(int64(len(sigs)))
	summary.AvgConfidence = decimal.NewFromFloat(confSum).Div(n).Round(4)
	summary.AvgStrength = decimal.NewFromFloat(strengthSum).Div(n).Round(4)
	return summary
}
