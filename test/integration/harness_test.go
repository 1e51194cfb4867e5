//go:build integration

package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	httpadapter "github.com/jsamuelsen/quote-api/internal/adapters/http"
	"github.com/jsamuelsen/quote-api/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-api/internal/adapters/store/memory"
	"github.com/jsamuelsen/quote-api/internal/adapters/store/resilience"
	"github.com/jsamuelsen/quote-api/internal/adapters/store/sqldb"
	"github.com/jsamuelsen/quote-api/internal/app"
	"github.com/jsamuelsen/quote-api/internal/platform/config"
	"github.com/jsamuelsen/quote-api/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// harness runs the full service stack in-process on an httptest server.
type harness struct {
	server *httptest.Server
	store  *resilience.Store
	closer io.Closer
}

type harnessOptions struct {
	driver           string
	validateOnUpdate bool
	breaker          resilience.BreakerConfig
}

func defaultHarnessOptions(driver string) harnessOptions {
	return harnessOptions{
		driver: driver,
		breaker: resilience.BreakerConfig{
			MaxFailures:   config.DefaultStoreCircuitMaxFailures,
			Timeout:       time.Second,
			HalfOpenLimit: config.DefaultStoreCircuitHalfOpenLimit,
		},
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openInner returns the raw store for driver. SQLite runs in memory.
func openInner(ctx context.Context, driver string) (ports.QuoteStore, io.Closer, error) {
	switch driver {
	case config.StoreDriverMemory:
		return memory.New(), nopCloser{}, nil
	case config.StoreDriverSQLite:
		s, err := sqldb.Open(ctx, driver, ":memory:")
		if err != nil {
			return nil, nil, err
		}

		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unsupported integration driver %q", driver)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(ctx context.Context, opts harnessOptions) (*harness, error) {
	logger := discardLogger()

	inner, closer, err := openInner(ctx, opts.driver)
	if err != nil {
		return nil, err
	}

	guarded, err := resilience.New(inner, opts.breaker,
		resilience.WithLogger(logger),
		resilience.WithRegisterer(prometheus.NewRegistry()),
	)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	registry := ports.NewHealthRegistry()
	if err := registry.Register(guarded); err != nil {
		_ = closer.Close()
		return nil, err
	}

	svc := app.NewQuoteService(app.QuoteServiceConfig{
		Store:            guarded,
		Logger:           logger,
		ValidateOnUpdate: opts.validateOnUpdate,
	})

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		Logger:  logger,
		AppName: "quote-api",
		HealthHandler: handlers.NewHealthHandler(
			registry,
			handlers.NewBuildInfo("integration", "none", "unknown"),
			handlers.WithGatherer(prometheus.NewRegistry()),
		),
		QuoteHandler: handlers.NewQuoteHandler(svc),
		Timeout:      5 * time.Second,
	})

	return &harness{
		server: httptest.NewServer(engine),
		store:  guarded,
		closer: closer,
	}, nil
}

func (h *harness) URL(path string) string {
	return h.server.URL + path
}

func (h *harness) Client() *http.Client {
	return h.server.Client()
}

func (h *harness) Close() error {
	h.server.Close()
	return h.closer.Close()
}
