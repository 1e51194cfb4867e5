//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-api/internal/adapters/store/resilience"
	"github.com/jsamuelsen/quote-api/internal/platform/config"
)

var drivers = []string{config.StoreDriverMemory, config.StoreDriverSQLite}

func startHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	h, err := newHarness(context.Background(), opts)
	require.NoError(t, err)

	t.Cleanup(func() { _ = h.Close() })

	return h
}

func postQuote(h *harness, text, author string) (*http.Response, error) {
	body := fmt.Sprintf(`{"quote":%q,"author":%q}`, text, author)
	return h.Client().Post(h.URL("/api/quotes"), "application/json", strings.NewReader(body))
}

// TestConcurrent_Creates verifies that concurrent creates each get a
// distinct id and all land in the store.
func TestConcurrent_Creates(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			h := startHarness(t, defaultHarnessOptions(driver))

			const numGoroutines = 50

			var (
				wg  sync.WaitGroup
				mu  sync.Mutex
				ids = make(map[string]struct{}, numGoroutines)

				errorCount int32
			)

			for i := range numGoroutines {
				wg.Add(1)

				go func(n int) {
					defer wg.Done()

					resp, err := postQuote(h, fmt.Sprintf("quote %d", n), "load")
					if err != nil {
						atomic.AddInt32(&errorCount, 1)
						return
					}
					defer resp.Body.Close()

					var q struct {
						ID string `json:"id"`
					}

					if resp.StatusCode != http.StatusCreated || json.NewDecoder(resp.Body).Decode(&q) != nil {
						atomic.AddInt32(&errorCount, 1)
						return
					}

					mu.Lock()
					ids[q.ID] = struct{}{}
					mu.Unlock()
				}(i)
			}

			wg.Wait()

			assert.Equal(t, int32(0), atomic.LoadInt32(&errorCount), "no errors expected")
			assert.Len(t, ids, numGoroutines, "ids must be unique")

			stored, err := h.store.List(context.Background())
			require.NoError(t, err)
			assert.Len(t, stored, numGoroutines)
		})
	}
}

// TestConcurrent_MixedMethods exercises reads and writes against the same
// quote from many goroutines.
func TestConcurrent_MixedMethods(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			h := startHarness(t, defaultHarnessOptions(driver))

			resp, err := postQuote(h, "shared", "everyone")
			require.NoError(t, err)

			var q struct {
				ID string `json:"id"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
			resp.Body.Close()

			var (
				wg          sync.WaitGroup
				unexpected  int32
				requestPath = h.URL("/api/quotes/" + q.ID)
			)

			for i := range 40 {
				wg.Add(1)

				go func(n int) {
					defer wg.Done()

					var req *http.Request

					switch n % 4 {
					case 0:
						body := fmt.Sprintf(`{"quote":"rev %d","author":"everyone"}`, n)
						req, _ = http.NewRequest(http.MethodPut, requestPath, strings.NewReader(body))
						req.Header.Set("Content-Type", "application/json")
					case 1:
						req, _ = http.NewRequest(http.MethodGet, h.URL("/api/quotes"), nil)
					case 2:
						req, _ = http.NewRequest(http.MethodGet, h.URL("/api/quotes/quote/random"), nil)
					default:
						req, _ = http.NewRequest(http.MethodGet, requestPath, nil)
					}

					resp, err := h.Client().Do(req)
					if err != nil {
						atomic.AddInt32(&unexpected, 1)
						return
					}

					_, _ = io.Copy(io.Discard, resp.Body)
					resp.Body.Close()

					if resp.StatusCode >= http.StatusInternalServerError {
						atomic.AddInt32(&unexpected, 1)
					}
				}(i)
			}

			wg.Wait()

			assert.Equal(t, int32(0), atomic.LoadInt32(&unexpected))
		})
	}
}

// TestConcurrent_ContextCancellation verifies that requests abandoned by
// the client do not leave the store in a failed state.
func TestConcurrent_ContextCancellation(t *testing.T) {
	h := startHarness(t, defaultHarnessOptions(config.StoreDriverSQLite))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, h.URL("/api/quotes"), nil)
			if resp, err := h.Client().Do(req); err == nil {
				resp.Body.Close()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, resilience.StateClosed, h.store.Breaker().State())

	resp, err := h.Client().Get(h.URL("/api/quotes"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestConcurrent_CircuitBreakerUnderLoad verifies that a failing database
// trips the breaker and requests are then rejected with 503.
func TestConcurrent_CircuitBreakerUnderLoad(t *testing.T) {
	opts := defaultHarnessOptions(config.StoreDriverSQLite)
	opts.breaker = resilience.BreakerConfig{
		MaxFailures:   3,
		Timeout:       time.Minute,
		HalfOpenLimit: 1,
	}

	h := startHarness(t, opts)

	// Pull the database out from under the service.
	require.NoError(t, h.closer.Close())

	statuses := make([]int, 0, 6)

	for range 6 {
		resp, err := h.Client().Get(h.URL("/api/quotes"))
		require.NoError(t, err)

		statuses = append(statuses, resp.StatusCode)
		resp.Body.Close()
	}

	assert.Equal(t, []int{
		http.StatusInternalServerError,
		http.StatusInternalServerError,
		http.StatusInternalServerError,
		http.StatusServiceUnavailable,
		http.StatusServiceUnavailable,
		http.StatusServiceUnavailable,
	}, statuses)
	assert.Equal(t, resilience.StateOpen, h.store.Breaker().State())

	// Rejections happen without touching the database, so a burst stays 503.
	var (
		wg       sync.WaitGroup
		rejected int32
	)

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			resp, err := h.Client().Get(h.URL("/api/quotes/quote/random"))
			if err != nil {
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusServiceUnavailable {
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(20), atomic.LoadInt32(&rejected))

	resp, err := h.Client().Get(h.URL("/-/ready"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
