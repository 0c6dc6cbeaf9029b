package indicator

import (
	"errors"
	"math"

	"github.com/sirupsen/logrus"
)

// FactorResult is the common latent factor extracted from the cyclical
// panel. On any numerical failure Factor is all zeros and Degraded is set;
// the pipeline then produces a neutral index rather than aborting.
type FactorResult struct {
	Factor   []float64
	Degraded bool
	Reason   string
}

// FactorExtractor reduces the panel's cyclical components to their first
// principal component, sign-aligned so that higher factor values read as
// expansionary.
type FactorExtractor struct {
	logger *logrus.Logger
}

func NewFactorExtractor(logger *logrus.Logger) *FactorExtractor {
	return &FactorExtractor{logger: logger}
}

// Extract standardizes each cycle column, computes the first principal
// component and projects the rows onto it. If the correlation between the
// projection and the row-wise mean of the standardized panel is negative the
// factor's sign is flipped.
func (f *FactorExtractor) Extract(timestamps int, cycles [][]float64) FactorResult {
	factor, err := f.extract(cycles)
	if err != nil {
		f.logger.WithField("reason", err.Error()).Warn("Factor extraction degraded to zero factor")
		return FactorResult{
			Factor:   make([]float64, timestamps),
			Degraded: true,
			Reason:   err.Error(),
		}
	}
	return FactorResult{Factor: factor}
}

func (f *FactorExtractor) extract(cycles [][]float64) ([]float64, error) {
	k := len(cycles)
	if k == 0 {
		return nil, errors.New("no cycle columns")
	}
	n := len(cycles[0])
	if n == 0 {
		return nil, errors.New("empty cycle columns")
	}

	// Standardize columns over the full panel.
	z := make([][]float64, n)
	for t := range z {
		z[t] = make([]float64, k)
	}
	for j, col := range cycles {
		if len(col) != n {
			return nil, errors.New("ragged cycle columns")
		}
		mu := mean(col)
		sd := stdDev(col, mu)
		// The trend solve leaves rounding residue on constant series; a
		// column this flat is constant, not a cycle.
		if sd < 1e-8 || math.IsNaN(sd) {
			return nil, errors.New("zero-variance cycle column")
		}
		for t := range col {
			z[t][j] = (col[t] - mu) / sd
		}
	}

	// Sample covariance of the standardized panel.
	cov := make([][]float64, k)
	for i := range cov {
		cov[i] = make([]float64, k)
	}
	for t := 0; t < n; t++ {
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				cov[i][j] += z[t][i] * z[t][j]
			}
		}
	}
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			cov[i][j] /= float64(n - 1)
		}
	}

	v, err := dominantEigenvector(cov)
	if err != nil {
		return nil, err
	}

	factor := make([]float64, n)
	rowMeans := make([]float64, n)
	for t := 0; t < n; t++ {
		var proj, rm float64
		for j := 0; j < k; j++ {
			proj += z[t][j] * v[j]
			rm += z[t][j]
		}
		factor[t] = proj
		rowMeans[t] = rm / float64(k)
	}
	if !allFinite(factor) {
		return nil, errors.New("non-finite factor path")
	}

	// Principal components carry an arbitrary sign; anchor the factor to the
	// average standardized movement so higher always means more expansionary.
	if c := correlation(factor, rowMeans); !math.IsNaN(c) && c < 0 {
		for t := range factor {
			factor[t] = -factor[t]
		}
	}

	return factor, nil
}

// dominantEigenvector runs power iteration on a small symmetric matrix.
func dominantEigenvector(m [][]float64) ([]float64, error) {
	k := len(m)
	v := make([]float64, k)
	for i := range v {
		v[i] = 1 / math.Sqrt(float64(k))
	}

	next := make([]float64, k)
	for iter := 0; iter < 200; iter++ {
		for i := 0; i < k; i++ {
			var sum float64
			for j := 0; j < k; j++ {
				sum += m[i][j] * v[j]
			}
			next[i] = sum
		}
		var norm float64
		for _, x := range next {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm < 1e-15 || math.IsNaN(norm) {
			return nil, errors.New("power iteration collapsed")
		}

		var delta float64
		for i := range next {
			next[i] /= norm
			delta += math.Abs(next[i] - v[i])
		}
		copy(v, next)
		if delta < 1e-12 {
			break
		}
	}
	return v, nil
}
