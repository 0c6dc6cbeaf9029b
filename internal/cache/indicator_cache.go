package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/luoarch/quantum-x-sub001/internal/models"
)

const (
	cliPathKey = "indicator:cli_path"
	signalKey  = "indicator:latest_signal"
	summaryKey = "indicator:summary"
)

// Snapshot is the cached output of the latest pipeline run.
type Snapshot struct {
	Path         []models.CLIPoint        `json:"path"`
	Signals      []models.IndicatorSignal `json:"signals"`
	Summary      models.SignalSummary     `json:"summary"`
	Degradations []string                 `json:"degradations,omitempty"`
	CachedAt     time.Time                `json:"cached_at"`
}

// CacheStats tracks hit/miss counters for the stats endpoint.
type CacheStats struct {
	mu     sync.RWMutex
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// IndicatorCache keeps the latest CLI snapshot in Redis so the API read path
// avoids recomputing or hitting Postgres.
type IndicatorCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
	stats  *CacheStats
}

func NewIndicatorCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *IndicatorCache {
	return &IndicatorCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
		stats:  &CacheStats{},
	}
}

// SetSnapshot stores the run output under a single key with the configured
// TTL.
func (c *IndicatorCache) SetSnapshot(ctx context.Context, snap *Snapshot) error {
	snap.CachedAt = time.Now().UTC()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize indicator snapshot: %w", err)
	}
	if err := c.redis.Set(ctx, cliPathKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache indicator snapshot: %w", err)
	}
	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
	return nil
}

// GetSnapshot returns the cached snapshot, or (nil, false) on a miss or any
// redis error. Errors are logged, not propagated; a cache miss just sends
// the caller to Postgres.
func (c *IndicatorCache) GetSnapshot(ctx context.Context) (*Snapshot, bool) {
	data, err := c.redis.Get(ctx, cliPathKey).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Redis error reading indicator snapshot")
		c.miss()
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		c.logger.WithError(err).Warn("Corrupt cached indicator snapshot, discarding")
		c.miss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return &snap, true
}

// Invalidate drops the cached snapshot, forcing the next read to Postgres.
func (c *IndicatorCache) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, cliPathKey, signalKey, summaryKey).Err()
}

// Stats returns a copy of the hit/miss counters.
func (c *IndicatorCache) Stats() (hits, misses, sets int64) {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return c.stats.Hits, c.stats.Misses, c.stats.Sets
}

func (c *IndicatorCache) miss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
