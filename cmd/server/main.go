package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/joseteiadirector/teia-geo/internal/api"
	"github.com/joseteiadirector/teia-geo/internal/api/handlers"
	"github.com/joseteiadirector/teia-geo/internal/cache"
	"github.com/joseteiadirector/teia-geo/internal/config"
	"github.com/joseteiadirector/teia-geo/internal/database"
	"github.com/joseteiadirector/teia-geo/internal/logging"
	"github.com/joseteiadirector/teia-geo/internal/metrics"
	"github.com/joseteiadirector/teia-geo/internal/services"
	"github.com/joseteiadirector/teia-geo/internal/telemetry"
	"github.com/joseteiadirector/teia-geo/pkg/textgen"
)

const serviceName = "teia-geo-analytics"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to shutdown telemetry")
		}
	}()

	db, err := database.NewPostgresConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Redis only backs the series cache, so the service starts without it.
	redisClient, err := database.NewRedisConnection(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, series cache disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	m := metrics.NewMetrics()
	service, seriesCache := buildPredictiveService(cfg, db, redisClient, m, logger)

	deps := api.Dependencies{
		Service:     service,
		DB:          db,
		Metrics:     m,
		Logger:      logger,
		ServiceName: serviceName,
		JWTSecret:   cfg.Security.JWTSecret,
		AdminAPIKey: cfg.Security.AdminAPIKey,
	}
	deps.Redis, deps.Cache = redisDependencies(redisClient, seriesCache)

	srv := newHTTPServer(cfg.Server, api.NewRouter(deps))

	serverErr := make(chan error, 1)
	go func() {
		logging.LogStartup(logger, serviceName, telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		logging.LogShutdown(logger, serviceName, "signal received")
	}

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}

// buildPredictiveService wires loader, cache, engine, text generator and composer.
func buildPredictiveService(cfg *config.Config, db *database.PostgresDB, redisClient *database.RedisClient, m *metrics.Metrics, logger *logrus.Logger) (*services.PredictiveService, *cache.SeriesCache) {
	var rdb *redis.Client
	if redisClient != nil {
		rdb = redisClient.Client
	}

	loader := services.NewPostgresSeriesLoader(db)
	seriesCache := cache.NewSeriesCache(rdb, loader, cfg.Analytics.SeriesCacheTTLDuration(), logger, m)

	var generator textgen.Generator
	if cfg.TextGenerator.APIKey != "" {
		generator = textgen.NewClient(&cfg.TextGenerator, logger)
	} else {
		logger.Warn("TEXT_GENERATOR_API_KEY not set, insights will use the placeholder diagnosis")
	}

	engine := services.NewPredictiveEngine(cfg.Analytics)
	composer := services.NewInsightComposer(generator, cfg.TextGenerator, cfg.Analytics, logger)
	return services.NewPredictiveService(engine, seriesCache, composer, m, logger), seriesCache
}

// redisDependencies keeps nil pointers out of the router's interfaces.
func redisDependencies(redisClient *database.RedisClient, seriesCache *cache.SeriesCache) (handlers.HealthChecker, handlers.SeriesCacheAdmin) {
	if redisClient == nil {
		return nil, nil
	}
	return redisClient, seriesCache
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       durationOr(cfg.ReadTimeout, 10*time.Second),
		WriteTimeout:      durationOr(cfg.WriteTimeout, 45*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func durationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
