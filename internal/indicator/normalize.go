package indicator

import (
	"math"

	"github.com/sirupsen/logrus"
)

const (
	indexCenter      = 100.0
	indexFloor       = 50.0
	indexCeiling     = 150.0
	normalizerWindow = 12
)

// NormalizeResult is the index path centered near 100 and hard-clipped to
// [50, 150]. A degenerate reference level yields a constant 100 path.
type NormalizeResult struct {
	Index    []float64
	Degraded bool
	Reason   string
}

// Normalizer rescales the smoothed factor path to a conventional index
// level using a centered rolling mean as the reference and a sign-preserving
// log transform to bound the ratio.
type Normalizer struct {
	logger *logrus.Logger
}

func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

func (n *Normalizer) Normalize(smoothed []float64) NormalizeResult {
	t := len(smoothed)
	if t == 0 {
		return NormalizeResult{Index: nil}
	}

	ref := n.referenceLevel(smoothed)
	denom := signedLog(ref)
	if ref == 0 || math.IsNaN(ref) || denom == 0 {
		n.logger.Warn("Degenerate reference level, normalizing to constant 100")
		index := make([]float64, t)
		for i := range index {
			index[i] = indexCenter
		}
		return NormalizeResult{Index: index, Degraded: true, Reason: "degenerate reference level"}
	}

	index := make([]float64, t)
	for i, v := range smoothed {
		x := indexCenter * signedLog(v) / denom
		if math.IsNaN(x) || math.IsInf(x, 0) {
			x = indexCenter
		}
		index[i] = clip(x, indexFloor, indexCeiling)
	}
	return NormalizeResult{Index: index}
}

// referenceLevel is the mean of the centered rolling mean of the path
// (window min(12, T)); when no window fits centered it falls back to the
// plain mean.
func (n *Normalizer) referenceLevel(values []float64) float64 {
	t := len(values)
	w := normalizerWindow
	if t < w {
		w = t
	}

	half := w / 2
	var sum float64
	var count int
	for i := 0; i < t; i++ {
		lo := i - half
		hi := lo + w
		if lo < 0 || hi > t {
			continue
		}
		sum += mean(values[lo:hi])
		count++
	}
	if count == 0 {
		return mean(values)
	}
	return sum / float64(count)
}
