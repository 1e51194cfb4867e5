// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-api/internal/domain"
	"github.com/jsamuelsen/quote-api/internal/platform/logging"
)

// Messages returned in the plain {"message": ...} body by quote handlers.
const (
	MessageNotFound      = "Not found."
	MessageQuoteRequired = domain.QuoteRequiredMessage
)

// Messages used in the error envelope.
const (
	MessageRouteNotFound  = "Not Found"
	MessageMalformedBody  = "malformed JSON body"
	MessageInternalError  = "an internal error occurred"
	MessageUnavailable    = "service temporarily unavailable"
	MessageInvalidRequest = "validation failed"
	MessageTimeout        = "request timeout exceeded"
	MessageBodyTooLarge   = "request body too large"
)

// ErrorResponse is the error envelope written by the error handler.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response with the given message.
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{Message: message},
	}
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// MessageResponse is the plain body used for expected failures such as a
// missing quote or an incomplete payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HTTPError is an error that carries the status it should be reported with.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

// NewHTTPError creates an error reported with the given status and message.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// WrapHTTPError attaches a status and public message to an underlying error.
func WrapHTTPError(status int, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Message: message, Err: err}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// StatusCode returns the HTTP status attached to the error.
func (e *HTTPError) StatusCode() int {
	return e.Status
}

// Unwrap returns the underlying error, if any.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// statusCoder is implemented by errors that know their HTTP status.
type statusCoder interface {
	StatusCode() int
}

// StatusFromError maps an error to an HTTP status and the message safe to
// show a client. Unknown errors map to 500 with a generic message.
func StatusFromError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, httpErr.Message
	}

	var coder statusCoder
	if errors.As(err, &coder) && coder.StatusCode() >= http.StatusBadRequest {
		return coder.StatusCode(), http.StatusText(coder.StatusCode())
	}

	switch {
	case domain.IsUnavailable(err):
		var unavailable *domain.UnavailableError
		if errors.As(err, &unavailable) {
			return http.StatusServiceUnavailable, unavailable.Error()
		}

		return http.StatusServiceUnavailable, MessageUnavailable

	case domain.IsNotFound(err):
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return http.StatusNotFound, notFound.Error()
		}

		return http.StatusNotFound, MessageRouteNotFound

	case domain.IsValidation(err):
		var invalid *domain.ValidationError
		if errors.As(err, &invalid) {
			return http.StatusBadRequest, invalid.Message
		}

		return http.StatusBadRequest, MessageInvalidRequest

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, MessageTimeout

	default:
		return http.StatusInternalServerError, MessageInternalError
	}
}

// GetTraceID returns the trace identifier for the request: an explicit
// "trace_id" context value, then the active span, then the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}

		return ""
	}

	if c.Request == nil {
		return ""
	}

	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return c.GetHeader("X-Request-ID")
}

// HandleError writes the error envelope for err. Server errors are logged
// with the request-scoped logger since their detail is hidden from the client.
func HandleError(c *gin.Context, err error) {
	status, message := StatusFromError(err)
	resp := NewErrorResponse(message).WithTraceID(GetTraceID(c))

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "request failed",
			"error", err.Error(),
			"status", status,
			"trace_id", resp.TraceID,
		)
	}

	c.AbortWithStatusJSON(status, resp)
}
