// Package memory provides an in-process implementation of ports.QuoteStore.
package memory

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-api/internal/domain"
)

// Store keeps quotes in a map guarded by a RWMutex. Creation order is
// tracked separately so List is stable.
type Store struct {
	mu     sync.RWMutex
	quotes map[string]*domain.Quote
	order  []string

	newID  func() string
	random func(n int) int
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides how identifiers are assigned.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithRandom overrides the index picker used by Random. fn must return a value in [0, n).
func WithRandom(fn func(n int) int) Option {
	return func(s *Store) {
		s.random = fn
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		quotes: make(map[string]*domain.Quote),
		newID:  uuid.NewString,
		random: rand.IntN,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// List returns copies of all quotes in creation order.
func (s *Store) List(ctx context.Context) ([]*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Quote, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.quotes[id].Clone())
	}

	return out, nil
}

// Get returns a copy of the quote with the given id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[id]
	if !ok {
		return nil, domain.QuoteNotFound(id)
	}

	return q.Clone(), nil
}

// Random returns a copy of a uniformly chosen quote.
func (s *Store) Random(ctx context.Context) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, domain.QuoteNotFound("")
	}

	id := s.order[s.random(len(s.order))]

	return s.quotes[id].Clone(), nil
}

// Create stores a new quote under a freshly generated id.
func (s *Store) Create(ctx context.Context, in domain.QuoteInput) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q := &domain.Quote{ID: s.newID(), Text: in.Text, Author: in.Author}
	s.quotes[q.ID] = q
	s.order = append(s.order, q.ID)

	return q.Clone(), nil
}

// Update overwrites the text and author of an existing quote.
func (s *Store) Update(ctx context.Context, q *domain.Quote) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.quotes[q.ID]
	if !ok {
		return domain.QuoteNotFound(q.ID)
	}

	existing.Apply(domain.QuoteInput{Text: q.Text, Author: q.Author})

	return nil
}

// Delete removes the quote with the given id. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[id]; !ok {
		return nil
	}

	delete(s.quotes, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })

	return nil
}

// Len returns the number of stored quotes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}
