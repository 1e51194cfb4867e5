package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-api/internal/mocks"
	"github.com/jsamuelsen/quote-api/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// serveHealth mounts h under /-/ and performs a GET on path.
func serveHealth(t *testing.T, h *HealthHandler, path string) *httptest.ResponseRecorder {
	t.Helper()

	router := gin.New()
	h.RegisterHealthRoutesOnEngine(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestNewBuildInfo(t *testing.T) {
	bi := NewBuildInfo("1.4.0", "9f2c1ab", "2026-03-02T08:15:00Z")

	assert.Equal(t, BuildInfo{
		Version:   "1.4.0",
		Commit:    "9f2c1ab",
		BuildTime: "2026-03-02T08:15:00Z",
		GoVersion: runtime.Version(),
	}, bi)
}

func TestHealthHandler_Liveness(t *testing.T) {
	// Liveness never consults the registry; the mock fails the test if it does.
	h := NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{})

	w := serveHealth(t, h, "/-/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	checkedAt := time.Date(2026, 3, 2, 8, 15, 0, 0, time.UTC)

	tests := []struct {
		name       string
		result     *ports.HealthResult
		wantStatus int
		wantState  string
		wantChecks map[string]string
	}{
		{
			name: "store healthy",
			result: &ports.HealthResult{
				Status: ports.HealthStatusHealthy,
				Checks: map[string]*ports.CheckResult{
					"quote-store": {Status: ports.HealthStatusHealthy},
					"database":    {Status: ports.HealthStatusHealthy},
				},
				Timestamp: checkedAt,
			},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
			wantChecks: map[string]string{"quote-store": "healthy", "database": "healthy"},
		},
		{
			name: "breaker open",
			result: &ports.HealthResult{
				Status: ports.HealthStatusUnhealthy,
				Checks: map[string]*ports.CheckResult{
					"quote-store": {Status: ports.HealthStatusUnhealthy, Message: "circuit breaker open"},
				},
				Timestamp: checkedAt,
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
			wantChecks: map[string]string{"quote-store": "unhealthy"},
		},
		{
			name:       "no checks registered",
			result:     &ports.HealthResult{Status: ports.HealthStatusHealthy, Timestamp: checkedAt},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockHealthRegistry(t)
			registry.EXPECT().CheckAll(mock.Anything).Return(tt.result)

			w := serveHealth(t, NewHealthHandler(registry, BuildInfo{}), "/-/ready")

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp struct {
				Status    string `json:"status"`
				Checks    map[string]struct {
					Status  string `json:"status"`
					Message string `json:"message"`
				} `json:"checks"`
				Timestamp time.Time `json:"timestamp"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			assert.Equal(t, tt.wantState, resp.Status)
			assert.True(t, checkedAt.Equal(resp.Timestamp))
			require.Len(t, resp.Checks, len(tt.wantChecks))

			for name, want := range tt.wantChecks {
				assert.Equal(t, want, resp.Checks[name].Status, "check %s", name)
			}
		})
	}
}

func TestHealthHandler_ReadinessReportsCheckMessage(t *testing.T) {
	registry := mocks.NewMockHealthRegistry(t)
	registry.EXPECT().CheckAll(mock.Anything).Return(&ports.HealthResult{
		Status: ports.HealthStatusUnhealthy,
		Checks: map[string]*ports.CheckResult{
			"database": {Status: ports.HealthStatusUnhealthy, Message: "dial tcp 127.0.0.1:5432: connection refused"},
		},
	})

	w := serveHealth(t, NewHealthHandler(registry, BuildInfo{}), "/-/ready")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestHealthHandler_BuildInfo(t *testing.T) {
	bi := BuildInfo{Version: "1.4.0", Commit: "9f2c1ab", BuildTime: "2026-03-02T08:15:00Z", GoVersion: "go1.25.7"}

	w := serveHealth(t, NewHealthHandler(mocks.NewMockHealthRegistry(t), bi), "/-/build")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"version": "1.4.0",
		"commit": "9f2c1ab",
		"buildTime": "2026-03-02T08:15:00Z",
		"goVersion": "go1.25.7"
	}`, w.Body.String())
}

func TestHealthHandler_MetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotes_created_total",
		Help: "Quotes created.",
	})
	reg.MustRegister(counter)
	counter.Add(3)

	w := serveHealth(t, NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{}, WithGatherer(reg)), "/-/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quotes_created_total 3")
	assert.NotContains(t, w.Body.String(), "go_goroutines", "custom gatherer replaces the default")
}

func TestHealthHandler_MetricsDefaultGatherer(t *testing.T) {
	w := serveHealth(t, NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{}), "/-/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestHealthHandler_RegisterHealthRoutes(t *testing.T) {
	router := gin.New()
	NewHealthHandler(mocks.NewMockHealthRegistry(t), BuildInfo{}).RegisterHealthRoutes(router.Group("/ops"))

	var got []string
	for _, r := range router.Routes() {
		got = append(got, r.Method+" "+r.Path)
	}

	assert.ElementsMatch(t, []string{
		"GET /ops/live",
		"GET /ops/ready",
		"GET /ops/build",
		"GET /ops/metrics",
	}, got)
}
