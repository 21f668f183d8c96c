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
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"audiopress/internal/config"
	handler "audiopress/internal/delivery/http"
	"audiopress/internal/extractor"
	"audiopress/internal/pipeline"
	"audiopress/internal/pool"
	"audiopress/internal/repository"
	mockrepo "audiopress/internal/repository/mock"
	redisrepo "audiopress/internal/repository/redis"
	sqliterepo "audiopress/internal/repository/sqlite"
	"audiopress/internal/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting audiopress conversion server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := os.MkdirAll(cfg.Worker.OutputDir, 0o755); err != nil {
		logger.Fatal("Failed to create output directory", zap.Error(err))
	}

	jobRepo, cleanup, err := buildRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize job store", zap.Error(err))
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Extraction adapter
	ext := extractor.NewYtdlpExtractor(
		cfg.Extractor.YtdlpPath,
		cfg.Extractor.ProbeTimeout,
		cfg.Extractor.DownloadTimeout,
		logger,
	)

	// Pipeline runner and bounded worker pool
	runner := pipeline.NewRunner(jobRepo, ext, cfg.Worker.OutputDir, cfg.Extractor.MaxDurationSeconds, logger)
	workerPool := pool.NewWorkerPool(cfg.Worker.PoolSize, cfg.Worker.QueueCapacity, runner, logger)
	workerPool.Start(ctx)

	// Use cases
	submitUC := usecase.NewSubmitJobUsecase(jobRepo, workerPool, logger)
	getJobUC := usecase.NewGetJobUsecase(jobRepo, logger)

	// Router
	router := handler.NewRouter(&handler.RouterDeps{
		SubmitUC:        submitUC,
		GetJobUC:        getJobUC,
		Logger:          logger,
		RateLimitPerMin: cfg.Server.RateLimit,
		DownloadsDir:    cfg.Worker.OutputDir,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop workers after the server no longer accepts submissions
	cancel()
	workerPool.Stop()

	logger.Info("Server stopped")
}

// buildRepository constructs the configured store backend.
func buildRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.JobRepository, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		opts, err := goredis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := goredis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("Connected to Redis")
		return redisrepo.NewRedisJobRepository(client, cfg.Store.JobTTL), func() { client.Close() }, nil

	case "sqlite":
		repo, err := sqliterepo.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Opened SQLite store", zap.String("path", cfg.Store.SQLitePath))
		return repo, nil, nil

	case "memory":
		logger.Warn("Using in-memory job store; state is lost on restart")
		return mockrepo.NewJobRepository(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
