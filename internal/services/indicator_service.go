package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/luoarch/quantum-x-sub001/internal/cache"
	"github.com/luoarch/quantum-x-sub001/internal/config"
	"github.com/luoarch/quantum-x-sub001/internal/database"
	"github.com/luoarch/quantum-x-sub001/internal/indicator"
	"github.com/luoarch/quantum-x-sub001/internal/models"
	"github.com/luoarch/quantum-x-sub001/internal/signals"
	"github.com/luoarch/quantum-x-sub001/internal/telemetry"
)

// IndicatorService orchestrates the CLI pipeline: load series, run the
// engine and signal generator, persist the outputs, refresh the cache and
// notify on actionable transitions.
type IndicatorService struct {
	cfg        *config.Config
	logger     *logrus.Logger
	seriesRepo *database.SeriesRepository
	signalRepo *database.SignalRepository
	snapshots  *cache.IndicatorCache
	engine     *indicator.Engine
	generator  *signals.Generator
	notifier   *NotificationService
	monitor    *ResourceMonitor

	mu            sync.Mutex
	lastRunAction models.SignalAction
}

func NewIndicatorService(
	cfg *config.Config,
	logger *logrus.Logger,
	seriesRepo *database.SeriesRepository,
	signalRepo *database.SignalRepository,
	snapshots *cache.IndicatorCache,
	notifier *NotificationService,
) *IndicatorService {
	return &IndicatorService{
		cfg:           cfg,
		logger:        logger,
		seriesRepo:    seriesRepo,
		signalRepo:    signalRepo,
		snapshots:     snapshots,
		engine:        indicator.NewEngine(cfg.Indicator, logger),
		generator:     signals.NewGenerator(cfg.Indicator, logger),
		notifier:      notifier,
		monitor:       NewResourceMonitor(logger),
		lastRunAction: models.ActionHold,
	}
}

// Recalculate runs the pipeline end to end. The only hard failure is the
// insufficient-data gate (indicator.ErrInsufficientData); degraded stages
// are reported in the snapshot, not as errors.
func (s *IndicatorService) Recalculate(ctx context.Context) (*cache.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := telemetry.Tracer().Start(ctx, "indicator.recalculate")
	defer span.End()

	started := time.Now()

	series, err := s.seriesRepo.GetAllSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load economic series: %w", err)
	}

	result, err := s.engine.Compute(series)
	if err != nil {
		s.logger.WithError(err).Error("CLI pipeline did not run")
		return nil, err
	}

	aux := auxiliaryValues(result.Panel, series)
	sigs := s.generator.Generate(result.Path, aux)
	summary := signals.Summarize(sigs)

	if err := s.signalRepo.SaveCLIPath(ctx, result.Path); err != nil {
		s.logger.WithError(err).Error("Failed to persist CLI path")
	}
	if err := s.signalRepo.SaveSignals(ctx, sigs); err != nil {
		s.logger.WithError(err).Error("Failed to persist indicator signals")
	}

	snap := &cache.Snapshot{
		Path:         result.Path,
		Signals:      sigs,
		Summary:      summary,
		Degradations: result.Degradations,
	}
	if err := s.snapshots.SetSnapshot(ctx, snap); err != nil {
		s.logger.WithError(err).Warn("Failed to cache indicator snapshot")
	}

	s.notifyTransition(ctx, sigs)
	s.monitor.LogRunStats(ctx, time.Since(started), len(result.Path))

	return snap, nil
}

// Snapshot serves the latest run, preferring the cache and falling back to
// recalculation when cold.
func (s *IndicatorService) Snapshot(ctx context.Context) (*cache.Snapshot, error) {
	if snap, ok := s.snapshots.GetSnapshot(ctx); ok {
		return snap, nil
	}
	return s.Recalculate(ctx)
}

// notifyTransition pushes a telegram message when the latest period's action
// changed to BUY or SELL since the previous run. HOLD transitions stay
// quiet.
func (s *IndicatorService) notifyTransition(ctx context.Context, sigs []models.IndicatorSignal) {
	if len(sigs) == 0 || s.notifier == nil {
		return
	}
	latest := sigs[len(sigs)-1]
	if latest.Action == s.lastRunAction || latest.Action == models.ActionHold {
		s.lastRunAction = latest.Action
		return
	}
	s.lastRunAction = latest.Action
	if err := s.notifier.NotifySignal(ctx, latest); err != nil {
		s.logger.WithError(err).Warn("Failed to send signal notification")
	}
}

// auxiliaryValues aligns each whitelisted series to the panel timestamps for
// the economic-confirmation sub-signal. Timestamps missing from a series are
// carried as NaN so the builder skips them.
func auxiliaryValues(panel *indicator.Panel, series map[string]*models.EconomicSeries) map[string][]float64 {
	aux := make(map[string][]float64)
	for name, s := range series {
		if s == nil || len(s.Points) == 0 {
			continue
		}
		byTime := make(map[time.Time]float64, len(s.Points))
		for _, p := range s.Points {
			byTime[p.Timestamp.UTC()] = p.Value.InexactFloat64()
		}
		values := make([]float64, len(panel.Timestamps))
		usable := 0
		for i, ts := range panel.Timestamps {
			if v, ok := byTime[ts]; ok {
				values[i] = v
				usable++
			} else {
				values[i] = math.NaN()
			}
		}
		if usable > 0 {
			aux[name] = values
		}
	}
	return aux
}
