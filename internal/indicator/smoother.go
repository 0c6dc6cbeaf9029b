package indicator

// Smoother denoises the raw factor path with a scalar linear-Gaussian
// recursion: the state is the previous smoothed value, process variance is
// the configurable smoothing factor and observation variance is fixed at 1.
// The pass is strictly online with no look-ahead.
type Smoother struct {
	processVar float64
}

const observationVar = 1.0

func NewSmoother(processVar float64) *Smoother {
	return &Smoother{processVar: processVar}
}

// Smooth returns the filtered path, same length as the input. The state is
// initialized at the first observation with unit covariance.
func (s *Smoother) Smooth(observations []float64) []float64 {
	out := make([]float64, len(observations))
	if len(observations) == 0 {
		return out
	}

	state := observations[0]
	cov := 1.0
	out[0] = state

	for i := 1; i < len(observations); i++ {
		predCov := cov + s.processVar
		gain := predCov / (predCov + observationVar)
		state += gain * (observations[i] - state)
		cov = (1 - gain) * predCov
		out[i] = state
	}
	return out
}
