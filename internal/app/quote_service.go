// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and persistence through ports.
//
// Application Layer Responsibilities:
//   - Orchestrate use cases (quote workflows)
//   - Enforce input rules before anything reaches a store
//   - Handle cross-cutting concerns (logging)
//
// What does NOT belong here:
//   - HTTP specifics (that's adapters/http)
//   - SQL or map bookkeeping (that's adapters/store)
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-api/internal/domain"
	"github.com/jsamuelsen/quote-api/internal/platform/logging"
	"github.com/jsamuelsen/quote-api/internal/ports"
)

// QuoteService orchestrates quote-related use cases.
// It depends on port interfaces, not concrete implementations.
//
// Example usage:
//
//	store := memory.New()
//	svc := app.NewQuoteService(app.QuoteServiceConfig{Store: store, Logger: logger})
//
//	// In HTTP handler
//	quote, err := svc.GetQuote(ctx, id)
type QuoteService struct {
	store            ports.QuoteStore
	logger           *slog.Logger
	validateOnUpdate bool
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Store  ports.QuoteStore
	Logger *slog.Logger

	// ValidateOnUpdate rejects updates that leave the text or author empty.
	// Off by default: updates apply whatever fields were supplied.
	ValidateOnUpdate bool
}

// NewQuoteService creates a new quote service with the provided dependencies.
// It panics if no store is configured.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil {
		panic("app: QuoteServiceConfig.Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteService{
		store:            cfg.Store,
		logger:           logger.With(slog.String("component", "app.QuoteService")),
		validateOnUpdate: cfg.ValidateOnUpdate,
	}
}

func (s *QuoteService) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

// ListQuotes returns every stored quote.
func (s *QuoteService) ListQuotes(ctx context.Context) ([]*domain.Quote, error) {
	quotes, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	s.log(ctx).DebugContext(ctx, "listed quotes", slog.Int("count", len(quotes)))

	return quotes, nil
}

// GetQuote retrieves a quote by its identifier.
func (s *QuoteService) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	quote, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting quote: %w", err)
	}

	return quote, nil
}

// GetRandomQuote returns a quote chosen uniformly from the store.
// Returns domain.ErrNotFound when the store is empty.
func (s *QuoteService) GetRandomQuote(ctx context.Context) (*domain.Quote, error) {
	quote, err := s.store.Random(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting random quote: %w", err)
	}

	s.log(ctx).DebugContext(ctx, "picked random quote", slog.String("quote_id", quote.ID))

	return quote, nil
}

// CreateQuote validates the input and stores a new quote.
func (s *QuoteService) CreateQuote(ctx context.Context, in domain.QuoteInput) (*domain.Quote, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	quote, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	s.log(ctx).InfoContext(ctx, "created quote",
		slog.String("quote_id", quote.ID),
		slog.String("author", quote.Author),
	)

	return quote, nil
}

// UpdateQuote replaces the text and author of an existing quote and
// returns the stored result.
func (s *QuoteService) UpdateQuote(ctx context.Context, id string, in domain.QuoteInput) (*domain.Quote, error) {
	quote, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking quote exists: %w", err)
	}

	if s.validateOnUpdate {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}

	quote.Apply(in)

	if err := s.store.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("updating quote: %w", err)
	}

	s.log(ctx).InfoContext(ctx, "updated quote", slog.String("quote_id", id))

	return quote, nil
}

// DeleteQuote removes a quote. Missing quotes are not an error.
func (s *QuoteService) DeleteQuote(ctx context.Context, id string) error {
	logger := s.log(ctx).With(slog.String("quote_id", id))

	if _, err := s.store.Get(ctx, id); err != nil {
		if !domain.IsNotFound(err) {
			return fmt.Errorf("checking quote exists: %w", err)
		}

		logger.DebugContext(ctx, "quote already absent")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting quote: %w", err)
	}

	logger.InfoContext(ctx, "deleted quote")

	return nil
}
