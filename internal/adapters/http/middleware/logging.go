package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-api/internal/platform/logging"
)

// ContextLogger seeds the request context with logger so the ID middleware
// and handlers enrich the injected logger rather than the process default.
// A logger already on the context is kept.
func ContextLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if logger != nil {
			ctx := c.Request.Context()
			c.Request = c.Request.WithContext(logging.WithContext(ctx, logging.FromContextOr(ctx, logger)))
		}

		c.Next()
	}
}

// Logging returns middleware that logs one line per completed request with
// method, path, status, latency and size. The level follows the status:
// 5xx at ERROR, 4xx at WARN, everything else at INFO.
//
// Operational paths (starting with /-/) and any skipPaths are not logged.
func Logging(logger *slog.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok || strings.HasPrefix(path, "/-/") {
			c.Next()
			return
		}

		start := time.Now()

		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		// Enriched with request_id, correlation_id and trace_id by earlier middleware.
		ctxLogger := logging.FromContextOr(c.Request.Context(), logger)

		ctxLogger.Log(c.Request.Context(), logging.LevelTrace, "request started",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.Int64("latency_ms", latency.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.Last().Error()))
		}

		ctxLogger.LogAttrs(c.Request.Context(), level, "request completed", attrs...)
	}
}
