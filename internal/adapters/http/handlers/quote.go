package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-api/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-api/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-api/internal/app"
	"github.com/jsamuelsen/quote-api/internal/domain"
	"github.com/jsamuelsen/quote-api/internal/platform/logging"
)

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// notFound writes the plain 404 body used by every quote lookup.
func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.MessageResponse{Message: dto.MessageNotFound})
}

// quoteRequired writes the plain 400 body for an incomplete payload.
func quoteRequired(c *gin.Context, missing []string) {
	logging.FromContext(c.Request.Context()).DebugContext(c.Request.Context(), "quote payload rejected",
		slog.Any("missing", missing),
	)

	c.JSON(http.StatusBadRequest, dto.MessageResponse{Message: dto.MessageQuoteRequired})
}

// missingFields returns the fields named by a domain validation error.
func missingFields(err error) []string {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}

	return nil
}

// bindQuote decodes the request body. Malformed JSON is reported through the
// error envelope with status 400, an oversized body with 413.
func bindQuote(c *gin.Context) (dto.QuoteRequest, error) {
	var req dto.QuoteRequest
	if err := dto.BindJSON(c, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, dto.WrapHTTPError(http.StatusRequestEntityTooLarge, dto.MessageBodyTooLarge, err)
		}

		return req, dto.WrapHTTPError(http.StatusBadRequest, dto.MessageMalformedBody, err)
	}

	return req, nil
}

// ListQuotes handles GET /api/quotes
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Success 200 {array} dto.QuoteResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) error {
	quotes, err := h.service.ListQuotes(c.Request.Context())
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, dto.NewQuoteListResponse(quotes))

	return nil
}

// GetQuote handles GET /api/quotes/:id
//
// @Summary Get a quote by ID
// @Tags quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.MessageResponse
// @Router /api/quotes/{id} [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) error {
	quote, err := h.service.GetQuote(c.Request.Context(), c.Param("id"))
	if domain.IsNotFound(err) {
		notFound(c)
		return nil
	}

	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))

	return nil
}

// GetRandomQuote handles GET /api/quotes/quote/random
//
// @Summary Get a random quote
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.MessageResponse
// @Router /api/quotes/quote/random [get]
func (h *QuoteHandler) GetRandomQuote(c *gin.Context) error {
	quote, err := h.service.GetRandomQuote(c.Request.Context())
	if domain.IsNotFound(err) {
		notFound(c)
		return nil
	}

	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))

	return nil
}

// CreateQuote handles POST /api/quotes
//
// @Summary Create a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body dto.QuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.MessageResponse
// @Router /api/quotes [post]
func (h *QuoteHandler) CreateQuote(c *gin.Context) error {
	req, err := bindQuote(c)
	if err != nil {
		return err
	}

	if err := dto.Validate(&req); err != nil {
		quoteRequired(c, dto.MissingFields(err))
		return nil
	}

	quote, err := h.service.CreateQuote(c.Request.Context(), req.ToInput())
	if domain.IsValidation(err) {
		quoteRequired(c, missingFields(err))
		return nil
	}

	if err != nil {
		return err
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(quote))

	return nil
}

// UpdateQuote handles PUT /api/quotes/:id
//
// @Summary Replace a quote's text and author
// @Tags quotes
// @Accept json
// @Param id path string true "Quote ID"
// @Param quote body dto.QuoteRequest true "Quote"
// @Success 204
// @Failure 404 {object} dto.MessageResponse
// @Router /api/quotes/{id} [put]
func (h *QuoteHandler) UpdateQuote(c *gin.Context) error {
	req, err := bindQuote(c)
	if err != nil {
		return err
	}

	_, err = h.service.UpdateQuote(c.Request.Context(), c.Param("id"), req.ToInput())

	switch {
	case domain.IsNotFound(err):
		notFound(c)
	case domain.IsValidation(err):
		quoteRequired(c, missingFields(err))
	case err != nil:
		return err
	default:
		c.Status(http.StatusNoContent)
	}

	return nil
}

// DeleteQuote handles DELETE /api/quotes/:id
//
// @Summary Delete a quote
// @Tags quotes
// @Param id path string true "Quote ID"
// @Success 204
// @Router /api/quotes/{id} [delete]
func (h *QuoteHandler) DeleteQuote(c *gin.Context) error {
	if err := h.service.DeleteQuote(c.Request.Context(), c.Param("id")); err != nil {
		return err
	}

	c.Status(http.StatusNoContent)

	return nil
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", middleware.Handle(h.ListQuotes))
	quotes.POST("", middleware.Handle(h.CreateQuote))
	quotes.GET("/quote/random", middleware.Handle(h.GetRandomQuote))
	quotes.GET("/:id", middleware.Handle(h.GetQuote))
	quotes.PUT("/:id", middleware.Handle(h.UpdateQuote))
	quotes.DELETE("/:id", middleware.Handle(h.DeleteQuote))
}
