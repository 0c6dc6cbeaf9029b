package indicator

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/luoarch/quantum-x-sub001/internal/config"
	"github.com/luoarch/quantum-x-sub001/internal/models"
)

// Result is the output of one engine run: the aligned panel and the CLI
// path, plus the degradations encountered along the way. Degradations never
// abort the run; they are reported so callers can distinguish "genuinely
// neutral" from "degraded computation".
type Result struct {
	Panel        *Panel
	Path         []models.CLIPoint
	Degradations []string
}

// Engine is the CLI computation core: align, detrend per series, extract
// the common factor, smooth, normalize and derive trend/momentum. A run is
// a pure function of the input series and the configuration.
type Engine struct {
	cfg    config.IndicatorConfig
	logger *logrus.Logger

	aligner    *Aligner
	detrender  *Detrender
	extractor  *FactorExtractor
	smoother   *Smoother
	normalizer *Normalizer
}

func NewEngine(cfg config.IndicatorConfig, logger *logrus.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		logger:     logger,
		aligner:    NewAligner(cfg.MinDataPoints, logger),
		detrender:  NewDetrender(cfg.HamiltonHorizon, logger),
		extractor:  NewFactorExtractor(logger),
		smoother:   NewSmoother(cfg.SmoothingFactor),
		normalizer: NewNormalizer(logger),
	}
}

// Compute runs the full CLI pipeline. The only error it returns is
// ErrInsufficientData from the alignment gate; everything after that point
// degrades to safe neutral values instead of failing.
func (e *Engine) Compute(series map[string]*models.EconomicSeries) (*Result, error) {
	panel, err := e.aligner.Align(series)
	if err != nil {
		return nil, err
	}

	result := &Result{Panel: panel}

	// Detrending is independent per series.
	cycles := make([][]float64, len(panel.Columns))
	detrended := make([]DetrendResult, len(panel.Columns))
	var wg sync.WaitGroup
	for i := range panel.Columns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			detrended[i] = e.detrender.Detrend(panel.Columns[i], panel.Column(i))
		}(i)
	}
	wg.Wait()
	for i, dr := range detrended {
		cycles[i] = dr.Cycle
		if dr.Degraded {
			result.Degradations = append(result.Degradations,
				fmt.Sprintf("detrend %s: %s", panel.Columns[i], dr.Reason))
		}
	}

	fr := e.extractor.Extract(panel.Len(), cycles)
	if fr.Degraded {
		result.Degradations = append(result.Degradations, "factor: "+fr.Reason)
	}

	smoothed := e.smoother.Smooth(fr.Factor)

	nr := e.normalizer.Normalize(smoothed)
	if nr.Degraded {
		result.Degradations = append(result.Degradations, "normalize: "+nr.Reason)
	}

	trendPath, momentum := DerivedSignals(nr.Index)

	result.Path = make([]models.CLIPoint, panel.Len())
	for i := range result.Path {
		result.Path[i] = models.CLIPoint{
			Timestamp: panel.Timestamps[i],
			RawFactor: fr.Factor[i],
			Smoothed:  smoothed[i],
			Index:     nr.Index[i],
			Trend:     trendPath[i],
			Momentum:  momentum[i],
		}
	}

	if len(result.Degradations) > 0 {
		e.logger.WithFields(logrus.Fields{
			"rows":         panel.Len(),
			"degradations": result.Degradations,
		}).Warn("CLI pipeline completed with degradations")
	} else {
		e.logger.WithField("rows", panel.Len()).Info("CLI pipeline completed")
	}

	return result, nil
}
