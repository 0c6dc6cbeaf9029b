package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalAction is the final categorical trading signal.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// Risk buckets derived from signal confidence.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// CLIPoint is one entry of the composite-leading-indicator path: the raw and
// smoothed common factor plus the normalized index and its derived trend and
// momentum, all for a single panel timestamp.
type CLIPoint struct {
	Timestamp time.Time `json:"timestamp" db:"observed_at"`
	RawFactor float64   `json:"raw_factor" db:"raw_factor"`
	Smoothed  float64   `json:"smoothed_factor" db:"smoothed_factor"`
	Index     float64   `json:"index" db:"index_value"`
	Trend     float64   `json:"trend" db:"trend"`
	Momentum  float64   `json:"momentum" db:"momentum"`
}

// IndicatorSignal is the per-timestamp signal vector. The four sub-signals
// stay populated even when the quality filter or regime gate forces the final
// signal to HOLD, so downstream consumers can audit what was suppressed.
type IndicatorSignal struct {
	ID        string    `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"observed_at"`

	LevelSignal    int     `json:"level_signal" db:"level_signal"`
	MomentumSignal int     `json:"momentum_signal" db:"momentum_signal"`
	TrendSignal    int     `json:"trend_signal" db:"trend_signal"`
	EconomicSignal float64 `json:"economic_signal" db:"economic_signal"`

	Combined    float64 `json:"combined" db:"combined"`
	Final       float64 `json:"final" db:"final"`
	Strength    int     `json:"strength" db:"strength"`
	Consistency float64 `json:"consistency" db:"consistency"`
	Confidence  float64 `json:"confidence" db:"confidence"`

	Action     SignalAction `json:"action" db:"action"`
	Regime     string       `json:"regime" db:"regime"`
	Confirmed  bool         `json:"confirmed" db:"confirmed"`
	RiskLevel  float64      `json:"risk_level" db:"risk_level"`
	RiskBucket string       `json:"risk_bucket" db:"risk_bucket"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SignalSummary aggregates a pipeline run for monitoring and health
// endpoints.
type SignalSummary struct {
	Total         int             `json:"total"`
	BuyCount      int             `json:"buy_count"`
	SellCount     int             `json:"sell_count"`
	HoldCount     int             `json:"hold_count"`
	AvgConfidence decimal.Decimal `json:"avg_confidence"`
	AvgStrength   decimal.Decimal `json:"avg_strength"`
	GeneratedAt   time.Time       `json:"generated_at"`
}
