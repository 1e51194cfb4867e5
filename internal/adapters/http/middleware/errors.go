package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-api/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-api/internal/platform/logging"
)

// HandlerFunc is a gin handler that reports failure by returning an error
// instead of writing an error response itself.
type HandlerFunc func(c *gin.Context) error

// Handle adapts a HandlerFunc to gin. A returned error is recorded on the
// context and the chain is aborted; ErrorHandler writes the response.
func Handle(fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c); err != nil {
			_ = c.Error(err)
			c.Abort()
		}
	}
}

// ErrorHandler returns middleware that turns errors recorded on the context
// into the JSON error envelope. It must run before any handler that can fail.
// Responses already written by a handler are left untouched.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		ctxLogger := logging.FromContextOr(c.Request.Context(), logger)

		if c.Writer.Written() {
			ctxLogger.DebugContext(c.Request.Context(), "error recorded after response was written",
				slog.Any("error", err),
			)
			return
		}

		status, _ := dto.StatusFromError(err)
		if status < http.StatusInternalServerError {
			ctxLogger.DebugContext(c.Request.Context(), "request rejected",
				slog.Int("status", status),
				slog.Any("error", err),
			)
		}

		dto.HandleError(c, err)
	}
}

// NoRoute returns the handler for requests that match no route. It records a
// 404 so ErrorHandler renders it like any other failure.
func NoRoute() gin.HandlerFunc {
	return Handle(func(*gin.Context) error {
		return dto.NewHTTPError(http.StatusNotFound, dto.MessageRouteNotFound)
	})
}
