package signals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/luoarch/quantum-x-sub001/internal/models"
)

func TestSummarize(t *testing.T) {
	sigs := []models.IndicatorSignal{
		{Action: models.ActionBuy, Confidence: 0.8, Strength: 4},
		{Action: models.ActionHold, Confidence: 0.6, Strength: 2},
		{Action: models.ActionSell, Confidence: 0.7, Strength: 3},
		{Action: models.ActionHold, Confidence: 0.5, Strength: 1},
	}

	summary := Summarize(sigs)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.BuyCount)
	assert.Equal(t, 1, summary.SellCount)
	assert.Equal(t, 2, summary.HoldCount)
	assert.True(t, summary.AvgConfidence.Equal(decimal.NewFromFloat(0.65)),
		"avg confidence %s", summary.AvgConfidence)
	assert.True(t, summary.AvgStrength.Equal(decimal.NewFromFloat(2.5)),
		"avg strength %s", summary.AvgStrength)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Zero(t, summary.Total)
	assert.True(t, summary.AvgConfidence.IsZero())
	assert.True(t, summary.AvgStrength.IsZero())
}
