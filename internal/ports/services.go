// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-api/internal/domain"
)

// QuoteStore persists quotes. Implementations must be safe for concurrent use.
//
// Example usage in application layer:
//
//	type QuoteService struct {
//	    store ports.QuoteStore
//	}
type QuoteStore interface {
	// List returns every stored quote in creation order.
	// An empty store yields an empty slice, not an error.
	List(ctx context.Context) ([]*domain.Quote, error)

	// Get retrieves a quote by its identifier.
	// Returns domain.ErrNotFound if the quote does not exist.
	Get(ctx context.Context, id string) (*domain.Quote, error)

	// Random returns one stored quote chosen uniformly at random.
	// Returns domain.ErrNotFound if the store is empty.
	Random(ctx context.Context) (*domain.Quote, error)

	// Create stores a new quote and returns it with its assigned identifier.
	// Identifiers are never reused, even after deletion.
	Create(ctx context.Context, in domain.QuoteInput) (*domain.Quote, error)

	// Update replaces the text and author of an existing quote.
	// Returns domain.ErrNotFound if the quote does not exist.
	Update(ctx context.Context, q *domain.Quote) error

	// Delete removes a quote. Deleting an absent identifier is a no-op.
	Delete(ctx context.Context, id string) error
}
