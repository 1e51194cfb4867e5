package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-api/internal/domain"
	"github.com/jsamuelsen/quote-api/internal/mocks"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, validateOnUpdate bool) (*QuoteService, *mocks.MockQuoteStore) {
	t.Helper()

	store := mocks.NewMockQuoteStore(t)
	svc := NewQuoteService(QuoteServiceConfig{
		Store:            store,
		Logger:           discardLogger(),
		ValidateOnUpdate: validateOnUpdate,
	})

	return svc, store
}

func TestNewQuoteService_PanicsWithoutStore(t *testing.T) {
	assert.Panics(t, func() {
		NewQuoteService(QuoteServiceConfig{Store: nil, Logger: slog.Default()})
	})
}

func TestNewQuoteService_DefaultsLogger(t *testing.T) {
	svc := NewQuoteService(QuoteServiceConfig{
		Store:  mocks.NewMockQuoteStore(t),
		Logger: nil, // Should default to slog.Default()
	})

	require.NotNil(t, svc)
	assert.NotNil(t, svc.logger)
}

func TestQuoteService_ListQuotes(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*mocks.MockQuoteStore)
		expected  []*domain.Quote
		wantErr   error
	}{
		{
			name: "success",
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().List(mock.Anything).Return([]*domain.Quote{
					{ID: "q-1", Text: "one", Author: "a"},
					{ID: "q-2", Text: "two", Author: "b"},
				}, nil)
			},
			expected: []*domain.Quote{
				{ID: "q-1", Text: "one", Author: "a"},
				{ID: "q-2", Text: "two", Author: "b"},
			},
		},
		{
			name: "empty store",
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().List(mock.Anything).Return([]*domain.Quote{}, nil)
			},
			expected: []*domain.Quote{},
		},
		{
			name: "store unavailable",
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().List(mock.Anything).
					Return(nil, domain.NewUnavailableError("quote-store", "circuit breaker open"))
			},
			wantErr: domain.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, false)
			tt.setupMock(store)

			quotes, err := svc.ListQuotes(context.Background())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, quotes)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, quotes)
		})
	}
}

func TestQuoteService_GetQuote(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		setupMock func(*mocks.MockQuoteStore)
		expected  *domain.Quote
		errCheck  func(error) bool
	}{
		{
			name: "found",
			id:   "q-1",
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").
					Return(&domain.Quote{ID: "q-1", Text: "one", Author: "a"}, nil)
			},
			expected: &domain.Quote{ID: "q-1", Text: "one", Author: "a"},
		},
		{
			name: "not found",
			id:   "missing",
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "missing").
					Return(nil, domain.NewNotFoundError("quote", "missing"))
			},
			errCheck: domain.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, false)
			tt.setupMock(store)

			quote, err := svc.GetQuote(context.Background(), tt.id)

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err), "unexpected error: %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, quote)
		})
	}
}

func TestQuoteService_GetRandomQuote(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, store := newTestService(t, false)
		store.EXPECT().Random(mock.Anything).
			Return(&domain.Quote{ID: "q-7", Text: "seven", Author: "g"}, nil)

		quote, err := svc.GetRandomQuote(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "q-7", quote.ID)
	})

	t.Run("empty store", func(t *testing.T) {
		svc, store := newTestService(t, false)
		store.EXPECT().Random(mock.Anything).Return(nil, domain.NewNotFoundError("quote", ""))

		quote, err := svc.GetRandomQuote(context.Background())

		assert.Nil(t, quote)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestQuoteService_CreateQuote(t *testing.T) {
	tests := []struct {
		name      string
		input     domain.QuoteInput
		setupMock func(*mocks.MockQuoteStore)
		errCheck  func(error) bool
	}{
		{
			name:  "success",
			input: domain.QuoteInput{Text: "Less is more.", Author: "Mies"},
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Create(mock.Anything, domain.QuoteInput{Text: "Less is more.", Author: "Mies"}).
					Return(&domain.Quote{ID: "q-1", Text: "Less is more.", Author: "Mies"}, nil)
			},
		},
		{
			name:      "missing author never reaches store",
			input:     domain.QuoteInput{Text: "Less is more."},
			setupMock: func(*mocks.MockQuoteStore) {},
			errCheck:  domain.IsValidation,
		},
		{
			name:      "missing text never reaches store",
			input:     domain.QuoteInput{Author: "Mies"},
			setupMock: func(*mocks.MockQuoteStore) {},
			errCheck:  domain.IsValidation,
		},
		{
			name:  "store failure",
			input: domain.QuoteInput{Text: "t", Author: "a"},
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Create(mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))
			},
			errCheck: func(err error) bool { return err != nil && !domain.IsValidation(err) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, false)
			tt.setupMock(store)

			quote, err := svc.CreateQuote(context.Background(), tt.input)

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err), "unexpected error: %v", err)
				assert.Nil(t, quote)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "q-1", quote.ID)
		})
	}
}

func TestQuoteService_CreateQuote_ValidationMessage(t *testing.T) {
	svc, _ := newTestService(t, false)

	_, err := svc.CreateQuote(context.Background(), domain.QuoteInput{})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.QuoteRequiredMessage, verr.Message)
}

func TestQuoteService_UpdateQuote(t *testing.T) {
	tests := []struct {
		name             string
		validateOnUpdate bool
		input            domain.QuoteInput
		setupMock        func(*mocks.MockQuoteStore)
		expected         *domain.Quote
		errCheck         func(error) bool
	}{
		{
			name:  "replaces both fields",
			input: domain.QuoteInput{Text: "new", Author: "b"},
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").
					Return(&domain.Quote{ID: "q-1", Text: "old", Author: "a"}, nil)
				m.EXPECT().Update(mock.Anything, &domain.Quote{ID: "q-1", Text: "new", Author: "b"}).
					Return(nil)
			},
			expected: &domain.Quote{ID: "q-1", Text: "new", Author: "b"},
		},
		{
			name:  "empty fields accepted without validation",
			input: domain.QuoteInput{Text: "", Author: ""},
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").
					Return(&domain.Quote{ID: "q-1", Text: "old", Author: "a"}, nil)
				m.EXPECT().Update(mock.Anything, &domain.Quote{ID: "q-1"}).Return(nil)
			},
			expected: &domain.Quote{ID: "q-1"},
		},
		{
			name:             "empty fields rejected with validation",
			validateOnUpdate: true,
			input:            domain.QuoteInput{Text: "new"},
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").
					Return(&domain.Quote{ID: "q-1", Text: "old", Author: "a"}, nil)
			},
			errCheck: domain.IsValidation,
		},
		{
			name:             "missing quote reported before validation",
			validateOnUpdate: true,
			input:            domain.QuoteInput{},
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").Return(nil, domain.NewNotFoundError("quote", "q-1"))
			},
			errCheck: domain.IsNotFound,
		},
		{
			name:  "store update fails",
			input: domain.QuoteInput{Text: "new", Author: "b"},
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").
					Return(&domain.Quote{ID: "q-1", Text: "old", Author: "a"}, nil)
				m.EXPECT().Update(mock.Anything, mock.Anything).
					Return(domain.NewNotFoundError("quote", "q-1"))
			},
			errCheck: domain.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, tt.validateOnUpdate)
			tt.setupMock(store)

			quote, err := svc.UpdateQuote(context.Background(), "q-1", tt.input)

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err), "unexpected error: %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, quote)
		})
	}
}

func TestQuoteService_DeleteQuote(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*mocks.MockQuoteStore)
		wantErr   bool
	}{
		{
			name: "existing quote",
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").Return(&domain.Quote{ID: "q-1"}, nil)
				m.EXPECT().Delete(mock.Anything, "q-1").Return(nil)
			},
		},
		{
			name: "missing quote still deletes",
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").Return(nil, domain.NewNotFoundError("quote", "q-1"))
				m.EXPECT().Delete(mock.Anything, "q-1").Return(nil)
			},
		},
		{
			name: "lookup failure aborts",
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").Return(nil, errors.New("connection reset"))
			},
			wantErr: true,
		},
		{
			name: "delete failure",
			setupMock: func(m *mocks.MockQuoteStore) {
				m.EXPECT().Get(mock.Anything, "q-1").Return(&domain.Quote{ID: "q-1"}, nil)
				m.EXPECT().Delete(mock.Anything, "q-1").Return(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, false)
			tt.setupMock(store)

			err := svc.DeleteQuote(context.Background(), "q-1")

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
		})
	}
}
