package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cryptoedge/tradecore/internal/api"
	"github.com/cryptoedge/tradecore/internal/cache"
	"github.com/cryptoedge/tradecore/internal/config"
	"github.com/cryptoedge/tradecore/internal/database"
	"github.com/cryptoedge/tradecore/internal/indicators"
	"github.com/cryptoedge/tradecore/internal/performance"
	"github.com/cryptoedge/tradecore/internal/risk"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx := context.Background()

	// Postgres and Redis are optional: without them the engines run purely
	// in memory.
	var db *database.PostgresDB
	var repo performance.Repository
	if cfg.Database.Host != "" {
		db, err = database.NewPostgresConnection(cfg.Database, logger)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		r := database.NewRepository(db.Pool)
		if err := r.EnsureSchema(ctx); err != nil {
			logger.Fatalf("Failed to ensure database schema: %v", err)
		}
		repo = r
	}

	var redis *database.RedisClient
	var market *cache.MarketCache
	if cfg.Redis.Host != "" {
		redis, err = database.NewRedisConnection(cfg.Redis, logger)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()

		market = cache.NewMarketCache(redis.Client, logger)
	}

	indicatorEngine := indicators.NewEngine(logger)
	riskEngine := risk.NewEngine(cfg, nil, logger)

	tracker := performance.NewTracker(cfg, repo, logger)
	if err := tracker.Restore(ctx); err != nil {
		logger.Warnf("Could not restore performance history: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	api.SetupRoutes(router, api.Dependencies{
		Config:      cfg,
		Logger:      logger,
		Indicators:  indicatorEngine,
		Risk:        riskEngine,
		Performance: tracker,
		Market:      market,
		DB:          db,
		Redis:       redis,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
