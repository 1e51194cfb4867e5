// Package store holds helpers shared by the quote store adapters.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jsamuelsen/quote-api/internal/domain"
	"github.com/jsamuelsen/quote-api/internal/ports"
)

// SeedQuote is one entry of a seed file.
type SeedQuote struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// ReadSeedFile decodes a JSON array of quotes. Every entry must carry both
// a quote and an author.
func ReadSeedFile(path string) ([]domain.QuoteInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var entries []SeedQuote
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding seed file %s: %w", path, err)
	}

	inputs := make([]domain.QuoteInput, 0, len(entries))

	for i, e := range entries {
		in := domain.QuoteInput{Text: e.Quote, Author: e.Author}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}

		inputs = append(inputs, in)
	}

	return inputs, nil
}

// Seed creates the given quotes when the store is empty and returns how many
// were created. A store that already holds quotes is left untouched.
func Seed(ctx context.Context, s ports.QuoteStore, quotes []domain.QuoteInput) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking store before seeding: %w", err)
	}

	if len(existing) > 0 {
		return 0, nil
	}

	for i, in := range quotes {
		if _, err := s.Create(ctx, in); err != nil {
			return i, fmt.Errorf("seeding quote %d: %w", i, err)
		}
	}

	return len(quotes), nil
}

// SeedFromFile reads path and seeds s with its contents.
func SeedFromFile(ctx context.Context, s ports.QuoteStore, path string, logger *slog.Logger) error {
	quotes, err := ReadSeedFile(path)
	if err != nil {
		return err
	}

	n, err := Seed(ctx, s, quotes)
	if err != nil {
		return err
	}

	if n == 0 {
		logger.InfoContext(ctx, "store already populated, seed skipped", slog.String("seed_file", path))
		return nil
	}

	logger.InfoContext(ctx, "store seeded", slog.String("seed_file", path), slog.Int("quotes", n))

	return nil
}
