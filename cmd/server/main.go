package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/luoarch/quantum-x-sub001/internal/api"
	"github.com/luoarch/quantum-x-sub001/internal/cache"
	"github.com/luoarch/quantum-x-sub001/internal/config"
	"github.com/luoarch/quantum-x-sub001/internal/database"
	"github.com/luoarch/quantum-x-sub001/internal/handlers"
	"github.com/luoarch/quantum-x-sub001/internal/logging"
	"github.com/luoarch/quantum-x-sub001/internal/middleware"
	"github.com/luoarch/quantum-x-sub001/internal/services"
	"github.com/luoarch/quantum-x-sub001/internal/telemetry"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	tp, err := telemetry.Init(cfg.Environment)
	if err != nil {
		logger.WithError(err).Warn("Telemetry initialization failed, continuing without tracing")
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	ttl, _ := time.ParseDuration(cfg.Indicator.CacheTTL)
	if ttl == 0 {
		ttl = time.Hour
	}

	seriesRepo := database.NewSeriesRepository(db.Pool)
	signalRepo := database.NewSignalRepository(db.Pool)
	snapshots := cache.NewIndicatorCache(redis.Client, ttl, logger)
	notifier := services.NewNotificationService(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	indicatorService := services.NewIndicatorService(cfg, logger, seriesRepo, signalRepo, snapshots, notifier)

	queue := services.NewRetrainQueue(redis.Client, logger)
	queue.StartWorker(func(ctx context.Context) error {
		_, err := indicatorService.Recalculate(ctx)
		return err
	})
	defer queue.StopWorker()

	collector := services.NewCollectorService(cfg, logger, seriesRepo, queue)
	if err := collector.Start(); err != nil {
		logger.Fatalf("Failed to start collector: %v", err)
	}
	defer collector.Stop()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	indicatorHandler := handlers.NewIndicatorHandler(indicatorService, queue, snapshots, logger)
	auth := middleware.NewAuthMiddleware(cfg.Security.JWTSecret)
	api.SetupRoutes(router, db, redis, indicatorHandler, auth)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Telemetry shutdown failed")
		}
	}

	logger.Info("Server exited")
}
