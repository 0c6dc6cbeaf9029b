package indicator

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

const (
	trendWindow = 3
	momentumLag = 3
)

// DerivedSignals computes the trend (centered 3-period moving average, edge
// periods falling back to the unsmoothed value) and momentum (3-period
// difference, first periods defaulting to 0) of the normalized index.
func DerivedSignals(index []float64) (trendPath, momentum []float64) {
	t := len(index)
	trendPath = append([]float64(nil), index...)
	momentum = make([]float64, t)

	if t >= trendWindow {
		sma := trend.NewSmaWithPeriod[float64](trendWindow)
		smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(index)))
		// The trailing SMA at position i covers index[i..i+2]; shifting by
		// one centers it.
		for i := 1; i < t-1; i++ {
			trendPath[i] = smoothed[i-1]
		}
	}

	for i := momentumLag; i < t; i++ {
		momentum[i] = index[i] - index[i-momentumLag]
	}
	return trendPath, momentum
}
