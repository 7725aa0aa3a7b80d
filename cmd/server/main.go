package main

import (
	"context"
	"errors"
	"fleet-dispatch-service/internal/adapters/cache"
	"fleet-dispatch-service/internal/adapters/solver"
	"fleet-dispatch-service/internal/adapters/traveltime"
	"fleet-dispatch-service/internal/api"
	"fleet-dispatch-service/internal/config"
	"fleet-dispatch-service/internal/platform/db"
	"fleet-dispatch-service/internal/platform/obs"
	"fleet-dispatch-service/internal/ports"
	"fleet-dispatch-service/internal/services"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (OSRM, the solver engine, an optional matrix
// cache) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := obs.NewRegistry()
	metrics := obs.NewMetrics(reg)

	matrixCache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	provider, err := newProvider(cfg, logger)
	if err != nil {
		return err
	}

	orchestrator := services.NewOrchestrator(solver.NewEngine(logger), logger, metrics)
	builder := services.NewTravelTimeMatrixBuilder(provider, services.TravelTimeBuilderOptions{
		Cache:   matrixCache,
		Timeout: cfg.OSRMTimeout,
		Logger:  logger,
		Metrics: metrics,
	})

	// The sweep has to finish inside the write timeout, after the matrix fetch.
	analyzer := services.NewAnalyzer(orchestrator, builder, cfg.MaxConcurrentSolves, logger)
	sweepBudget := cfg.HTTPWriteTimeout - cfg.OSRMTimeout
	if sweepBudget <= 0 {
		sweepBudget = cfg.HTTPWriteTimeout
	}
	analyzer.SetMaxSweepDuration(sweepBudget)

	router := api.NewRouter(api.RouterDeps{
		Planner:  services.NewPlanner(orchestrator, builder, logger),
		Analyzer: analyzer,
		Logger:   logger,
		Metrics:  metrics,
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTPReadHeaderTimeout,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", srv.Addr,
			"provider", provider.Name(),
			"cache", cfg.CacheBackend,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openCache returns the configured travel-time cache, or nil when caching
// is disabled. The returned func releases its connection.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.TravelTimeCache, func(), error) {
	switch cfg.CacheBackend {
	case config.CachePostgres:
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSQLTravelTimeCache(conn, cfg.CacheTTL, logger), func() { conn.Close() }, nil

	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisTravelTimeCache(client, cfg.CacheTTL, logger), func() { client.Close() }, nil

	default:
		return nil, func() {}, nil
	}
}

func newProvider(cfg *config.Config, logger *slog.Logger) (ports.TravelTimeProvider, error) {
	if cfg.Provider == config.ProviderORS {
		return traveltime.NewORSProvider(traveltime.ORSOptions{
			APIKey:    cfg.ORSAPIKey,
			BaseURL:   cfg.ORSBaseURL,
			Profile:   cfg.ORSProfile,
			Timeout:   cfg.OSRMTimeout,
			RateLimit: cfg.OSRMRateLimit,
			Logger:    logger,
		})
	}
	return traveltime.NewOSRMProvider(traveltime.OSRMOptions{
		BaseURL:   cfg.OSRMBaseURL,
		Profile:   cfg.OSRMProfile,
		Timeout:   cfg.OSRMTimeout,
		RateLimit: cfg.OSRMRateLimit,
		Logger:    logger,
	})
}
