// Package main is the entry point for the quote API.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsamuelsen/quote-api/internal/adapters/http"
	"github.com/jsamuelsen/quote-api/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-api/internal/adapters/store"
	"github.com/jsamuelsen/quote-api/internal/adapters/store/memory"
	"github.com/jsamuelsen/quote-api/internal/adapters/store/resilience"
	"github.com/jsamuelsen/quote-api/internal/adapters/store/sqldb"
	"github.com/jsamuelsen/quote-api/internal/app"
	"github.com/jsamuelsen/quote-api/internal/platform/config"
	"github.com/jsamuelsen/quote-api/internal/platform/logging"
	"github.com/jsamuelsen/quote-api/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-api/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("profile", profile),
		slog.String("environment", cfg.App.Environment),
		slog.String("store_driver", cfg.Store.Driver),
	)

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		// ctx is already canceled by the signal; flush on a fresh one.
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	quoteStore, closeStore, checks, err := openStore(ctx, &cfg.Store, logger)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closeStore.Close(); closeErr != nil {
			logger.Error("store close error", slog.Any("error", closeErr))
		}
	}()

	if cfg.Store.SeedFile != "" {
		if err := store.SeedFromFile(ctx, quoteStore, cfg.Store.SeedFile, logger); err != nil {
			return fmt.Errorf("seeding store: %w", err)
		}
	}

	healthRegistry := ports.NewHealthRegistry()
	for _, check := range checks {
		if err := healthRegistry.Register(check); err != nil {
			return fmt.Errorf("registering %s health check: %w", check.Name(), err)
		}
	}

	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Store:            quoteStore,
		Logger:           logger,
		ValidateOnUpdate: cfg.Quotes.ValidateOnUpdate,
	})

	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:        logger,
		AppName:       cfg.App.Name,
		HealthHandler: handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime)),
		QuoteHandler:  handlers.NewQuoteHandler(quoteService),
		Timeout:       cfg.Server.RequestTimeout,
	})

	serverErr, err := server.Start()
	if err != nil {
		return err
	}

	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore builds the configured record store wrapped in the resilience
// decorator. The closer releases the underlying connection pool; checks are
// the readiness probes for the store and, for SQL drivers, the database.
func openStore(
	ctx context.Context,
	cfg *config.StoreConfig,
	logger *slog.Logger,
) (*resilience.Store, io.Closer, []ports.HealthChecker, error) {
	var (
		inner  ports.QuoteStore
		closer io.Closer = nopCloser{}
		checks []ports.HealthChecker
	)

	switch cfg.Driver {
	case config.StoreDriverSQLite, config.StoreDriverPostgres:
		db, err := sqldb.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
		}

		logger.Info("store opened",
			slog.String("driver", cfg.Driver),
			slog.String("dsn", cfg.DSN),
		)

		inner, closer = db, db
		checks = append(checks, db)
	default:
		inner = memory.New()
	}

	guarded, err := resilience.New(inner, resilience.BreakerConfig{
		MaxFailures:   cfg.CircuitBreaker.MaxFailures,
		Timeout:       cfg.CircuitBreaker.Timeout,
		HalfOpenLimit: cfg.CircuitBreaker.HalfOpenLimit,
	}, resilience.WithLogger(logger))
	if err != nil {
		_ = closer.Close()
		return nil, nil, nil, fmt.Errorf("creating resilient store: %w", err)
	}

	return guarded, closer, append([]ports.HealthChecker{guarded}, checks...), nil
}

// waitForShutdown blocks until ctx is canceled by a signal or the server
// fails, then drains in-flight requests for at most shutdownTimeout.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal", slog.Any("cause", context.Cause(ctx)))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
