package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/luoarch/quantum-x-sub001/internal/config"
	"github.com/luoarch/quantum-x-sub001/internal/database"
	"github.com/luoarch/quantum-x-sub001/internal/models"
)

// providerObservation is the wire format of one observation from the
// economic statistics provider.
type providerObservation struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

type providerSeries struct {
	Name         string                `json:"name"`
	Source       string                `json:"source"`
	Observations []providerObservation `json:"observations"`
}

// CollectorService pulls the whitelisted economic series from the external
// provider on a fixed interval and persists them. Provider calls go through
// a circuit breaker so a flapping upstream cannot melt the refresh loop.
type CollectorService struct {
	cfg        *config.Config
	logger     *logrus.Logger
	seriesRepo *database.SeriesRepository
	queue      *RetrainQueue
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	errorCount int
}

func NewCollectorService(cfg *config.Config, logger *logrus.Logger, seriesRepo *database.SeriesRepository, queue *RetrainQueue) *CollectorService {
	ctx, cancel := context.WithCancel(context.Background())

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "economic-provider",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Provider circuit breaker state change")
		},
	})

	return &CollectorService{
		cfg:        cfg,
		logger:     logger,
		seriesRepo: seriesRepo,
		queue:      queue,
		client:     &http.Client{Timeout: time.Duration(cfg.Provider.Timeout) * time.Second},
		breaker:    breaker,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the refresh loop. The first collection happens immediately.
func (c *CollectorService) Start() error {
	interval, err := time.ParseDuration(c.cfg.Collector.RefreshInterval)
	if err != nil {
		return fmt.Errorf("invalid refresh interval: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.collectOnce()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				c.collectOnce()
			}
		}
	}()

	c.logger.WithField("interval", interval.String()).Info("Economic data collector started")
	return nil
}

// Stop cancels the refresh loop and waits for it to drain.
func (c *CollectorService) Stop() {
	c.cancel()
	c.wg.Wait()
	c.logger.Info("Economic data collector stopped")
}

func (c *CollectorService) collectOnce() {
	updated := 0
	for _, name := range models.SeriesWhitelist() {
		series, err := c.FetchSeries(c.ctx, name)
		if err != nil {
			c.errorCount++
			c.logger.WithFields(logrus.Fields{
				"series": name,
				"error":  err.Error(),
			}).Warn("Failed to fetch series from provider")
			if c.cfg.Collector.MaxErrors > 0 && c.errorCount >= c.cfg.Collector.MaxErrors {
				c.logger.Error("Collector error budget exhausted, skipping rest of cycle")
				break
			}
			continue
		}
		if err := c.seriesRepo.UpsertSeries(c.ctx, series); err != nil {
			c.logger.WithError(err).WithField("series", name).Error("Failed to persist series")
			continue
		}
		updated++
	}
	c.errorCount = 0

	if updated > 0 && c.queue != nil {
		if err := c.queue.Enqueue(c.ctx, RetrainJob{Reason: "data_refresh", Requested: time.Now().UTC()}); err != nil {
			c.logger.WithError(err).Warn("Failed to enqueue retrain job after refresh")
		}
	}
	c.logger.WithField("series_updated", updated).Info("Collection cycle finished")
}

// FetchSeries retrieves one series from the provider through the circuit
// breaker, normalized to strictly increasing, de-duplicated timestamps.
func (c *CollectorService) FetchSeries(ctx context.Context, name string) (*models.EconomicSeries, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/api/v1/series/%s", c.cfg.Provider.BaseURL, name)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if c.cfg.Provider.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Provider.APIKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("provider returned status %d for %s", resp.StatusCode, name)
		}

		var ps providerSeries
		if err := json.NewDecoder(resp.Body).Decode(&ps); err != nil {
			return nil, fmt.Errorf("failed to decode provider response: %w", err)
		}
		return &ps, nil
	})
	if err != nil {
		return nil, err
	}

	ps := result.(*providerSeries)
	series := &models.EconomicSeries{
		Name:      name,
		Source:    ps.Source,
		UpdatedAt: time.Now().UTC(),
	}

	sort.Slice(ps.Observations, func(i, j int) bool {
		return ps.Observations[i].Date.Before(ps.Observations[j].Date)
	})
	var last time.Time
	for _, obs := range ps.Observations {
		ts := obs.Date.UTC()
		if !last.IsZero() && !ts.After(last) {
			// Duplicate or out-of-order timestamp from the provider.
			continue
		}
		series.Points = append(series.Points, models.EconomicPoint{Timestamp: ts, Value: obs.Value})
		last = ts
	}
	return series, nil
}
