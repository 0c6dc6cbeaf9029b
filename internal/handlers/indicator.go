package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/luoarch/quantum-x-sub001/internal/cache"
	"github.com/luoarch/quantum-x-sub001/internal/indicator"
	"github.com/luoarch/quantum-x-sub001/internal/services"
)

// IndicatorHandler serves the CLI path, the signal vectors and the run
// summary, and accepts recalculation requests.
type IndicatorHandler struct {
	service *services.IndicatorService
	queue   *services.RetrainQueue
	cache   *cache.IndicatorCache
	logger  *logrus.Logger
}

func NewIndicatorHandler(service *services.IndicatorService, queue *services.RetrainQueue, snapshots *cache.IndicatorCache, logger *logrus.Logger) *IndicatorHandler {
	return &IndicatorHandler{service: service, queue: queue, cache: snapshots, logger: logger}
}

// GetCLIPath returns the latest composite-leading-indicator path.
func (h *IndicatorHandler) GetCLIPath(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":         snap.Path,
		"degradations": snap.Degradations,
		"cached_at":    snap.CachedAt,
	})
}

// GetSignals returns the latest signal vectors with final actions.
func (h *IndicatorHandler) GetSignals(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"signals":   snap.Signals,
		"cached_at": snap.CachedAt,
	})
}

// GetSummary returns per-action counts and average confidence/strength.
func (h *IndicatorHandler) GetSummary(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.Summary)
}

// Recalculate enqueues an asynchronous pipeline re-run.
func (h *IndicatorHandler) Recalculate(c *gin.Context) {
	job := services.RetrainJob{Reason: "api_request", Requested: time.Now().UTC()}
	if err := h.queue.Enqueue(c.Request.Context(), job); err != nil {
		h.logger.WithError(err).Error("Failed to enqueue recalculation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue recalculation"})
		return
	}
	depth, _ := h.queue.Depth(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{
		"status":      "queued",
		"queue_depth": depth,
	})
}

// GetCacheStats exposes snapshot-cache hit/miss counters.
func (h *IndicatorHandler) GetCacheStats(c *gin.Context) {
	hits, misses, sets := h.cache.Stats()
	c.JSON(http.StatusOK, gin.H{
		"hits":   hits,
		"misses": misses,
		"sets":   sets,
	})
}

// respondPipelineError maps the insufficient-data gate to 422 so clients
// can tell "not enough data yet" from a server fault.
func (h *IndicatorHandler) respondPipelineError(c *gin.Context, err error) {
	if errors.Is(err, indicator.ErrInsufficientData) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "insufficient aligned data",
			"detail": err.Error(),
		})
		return
	}
	h.logger.WithError(err).Error("Indicator request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
