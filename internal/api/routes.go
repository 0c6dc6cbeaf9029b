package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/luoarch/quantum-x-sub001/internal/database"
	"github.com/luoarch/quantum-x-sub001/internal/handlers"
	"github.com/luoarch/quantum-x-sub001/internal/middleware"
	"github.com/luoarch/quantum-x-sub001/internal/telemetry"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// SetupRoutes wires the indicator API. Mutating endpoints sit behind JWT
// auth.
func SetupRoutes(
	router *gin.Engine,
	db *database.PostgresDB,
	redis *database.RedisClient,
	indicatorHandler *handlers.IndicatorHandler,
	auth *middleware.AuthMiddleware,
) {
	router.Use(otelgin.Middleware(telemetry.ServiceName))

	router.GET("/health", healthCheck(db, redis))

	v1 := router.Group("/api/v1")
	{
		ind := v1.Group("/indicator")
		{
			ind.GET("/cli", indicatorHandler.GetCLIPath)
			ind.GET("/signals", indicatorHandler.GetSignals)
			ind.GET("/summary", indicatorHandler.GetSummary)
			ind.GET("/cache/stats", indicatorHandler.GetCacheStats)
			ind.POST("/recalculate", auth.RequireAuth(), indicatorHandler.Recalculate)
		}
	}
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   telemetry.ServiceVersion,
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
		}

		if err := db.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}
		if err := redis.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Redis = "error"
			response.Status = "degraded"
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, response)
	}
}
