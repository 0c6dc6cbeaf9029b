package signals

// Regime is a coarse qualitative label for the economy's current phase,
// derived deterministically from the (index, momentum, trend) triple of a
// single period. The classification itself carries no memory.
type Regime int

const (
	Neutral Regime = iota
	Expansion
	Growth
	Recession
	Slowdown
)

func (r Regime) String() string {
	switch r {
	case Expansion:
		return "EXPANSION"
	case Growth:
		return "GROWTH"
	case Recession:
		return "RECESSION"
	case Slowdown:
		return "SLOWDOWN"
	default:
		return "NEUTRAL"
	}
}

// ClassifyRegime labels one period. Thresholds follow the conventional
// index-centered-at-100 scale.
func ClassifyRegime(index, momentum, trend float64) Regime {
	switch {
	case index > 110 && momentum > 0 && trend > 0:
		return Expansion
	case index > 105 && momentum > 0:
		return Growth
	case index < 90 && momentum < 0 && trend < 0:
		return Recession
	case index < 95 && momentum < 0:
		return Slowdown
	default:
		return Neutral
	}
}

// RegimeConfirmed reports whether the trailing window of labels ending at
// position i (window previous periods plus the current one) is unanimous.
// Periods without enough history to fill the window are unconfirmed, keeping
// the bias toward HOLD under uncertainty.
func RegimeConfirmed(labels []Regime, i, window int) bool {
	lo := i - window
	if lo < 0 {
		return false
	}
	for j := lo; j <= i; j++ {
		if labels[j] != labels[i] {
			return false
		}
	}
	return true
}
