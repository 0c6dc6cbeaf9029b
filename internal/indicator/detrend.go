package indicator

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	hamiltonLags = 4
	hpLambda     = 1600.0
)

// DetrendResult carries the cyclical component plus how it was obtained.
// Degraded means the filter could not run and the input was passed through
// unchanged; the pipeline continues regardless.
type DetrendResult struct {
	Cycle    []float64
	Method   string
	Degraded bool
	Reason   string
}

// Detrender separates a trend from a cyclical component per series. The
// primary method is a Hamilton-style lag regression; a second-difference
// penalized trend filter is the fallback when the regression is singular.
type Detrender struct {
	horizon int
	logger  *logrus.Logger
}

func NewDetrender(horizon int, logger *logrus.Logger) *Detrender {
	return &Detrender{horizon: horizon, logger: logger}
}

// Detrend extracts the mean-reverting cycle of one numeric sequence. It
// never fails: any numerical problem degrades to returning the input
// unchanged. Strictly positive inputs get a sign-preserving log compression
// applied to the cycle to tame large-magnitude observations.
func (d *Detrender) Detrend(name string, values []float64) DetrendResult {
	if len(values) < d.horizon+hamiltonLags {
		return DetrendResult{
			Cycle:    append([]float64(nil), values...),
			Method:   "identity",
			Degraded: true,
			Reason:   fmt.Sprintf("series too short for filter (%d < %d)", len(values), d.horizon+hamiltonLags),
		}
	}

	cycle, err := d.hamiltonCycle(values)
	method := "hamilton"
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"series": name,
			"error":  err.Error(),
		}).Warn("Hamilton filter failed, falling back to smoothness-penalty filter")
		cycle, err = hpCycle(values, hpLambda)
		method = "hp"
	}
	if err != nil || !allFinite(cycle) {
		reason := "non-finite cycle"
		if err != nil {
			reason = err.Error()
		}
		d.logger.WithFields(logrus.Fields{
			"series": name,
			"reason": reason,
		}).Warn("Detrending degraded to identity")
		return DetrendResult{
			Cycle:    append([]float64(nil), values...),
			Method:   "identity",
			Degraded: true,
			Reason:   reason,
		}
	}

	if strictlyPositive(values) {
		for i, c := range cycle {
			cycle[i] = signedLog(c)
		}
	}

	return DetrendResult{Cycle: cycle, Method: method}
}

// hamiltonCycle regresses x_t on a constant and hamiltonLags lagged values
// at horizon h, then subtracts the implied trend. For the first h+lags-1
// observations the fitted coefficients are applied with lag indices clamped
// to the first observation, extrapolating the trend backward.
func (d *Detrender) hamiltonCycle(values []float64) ([]float64, error) {
	h := d.horizon
	t0 := h + hamiltonLags - 1
	n := len(values) - t0
	k := hamiltonLags + 1

	// Normal equations X'X b = X'y over the estimable range.
	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)
	row := make([]float64, k)
	for t := t0; t < len(values); t++ {
		row[0] = 1
		for j := 0; j < hamiltonLags; j++ {
			row[j+1] = values[t-h-j]
		}
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xty[i] += row[i] * values[t]
		}
	}
	if n < k {
		return nil, errSingularMatrix
	}

	coef, err := solveLinearSystem(xtx, xty)
	if err != nil {
		return nil, err
	}

	cycle := make([]float64, len(values))
	for t := range values {
		trend := coef[0]
		for j := 0; j < hamiltonLags; j++ {
			idx := t - h - j
			if idx < 0 {
				idx = 0
			}
			trend += coef[j+1] * values[idx]
		}
		cycle[t] = values[t] - trend
	}
	return cycle, nil
}

// hpCycle solves the penalized least-squares trend problem
// (I + lambda*D'D) tau = y with D the second-difference operator, and
// returns y - tau.
func hpCycle(values []float64, lambda float64) ([]float64, error) {
	n := len(values)
	if n < 3 {
		return append([]float64(nil), values...), nil
	}

	// A = I + lambda*D'D, built dense; the panel is monthly so n stays small.
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		a[i][i] = 1
	}
	for r := 0; r < n-2; r++ {
		// Row r of D has pattern [1, -2, 1] at columns r, r+1, r+2.
		d := [3]float64{1, -2, 1}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				a[r+i][r+j] += lambda * d[i] * d[j]
			}
		}
	}

	b := append([]float64(nil), values...)
	trend, err := solveLinearSystem(a, b)
	if err != nil {
		return nil, err
	}

	cycle := make([]float64, n)
	for i := range values {
		cycle[i] = values[i] - trend[i]
	}
	return cycle, nil
}

func strictlyPositive(values []float64) bool {
	for _, v := range values {
		if v <= 0 {
			return false
		}
	}
	return true
}
