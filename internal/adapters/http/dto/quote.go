package dto

import "github.com/jsamuelsen/quote-api/internal/domain"

// QuoteRequest is the JSON body accepted by create and update.
type QuoteRequest struct {
	Quote  string `json:"quote" validate:"required"`
	Author string `json:"author" validate:"required"`
}

// ToInput converts the request into the domain input type.
func (r QuoteRequest) ToInput() domain.QuoteInput {
	return domain.QuoteInput{Text: r.Quote, Author: r.Author}
}

// QuoteResponse is the JSON representation of a stored quote.
type QuoteResponse struct {
	ID     string `json:"id"`
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// NewQuoteResponse converts a domain quote to its JSON representation.
func NewQuoteResponse(q *domain.Quote) QuoteResponse {
	return QuoteResponse{ID: q.ID, Quote: q.Text, Author: q.Author}
}

// NewQuoteListResponse converts a list of quotes. The result is never nil so
// an empty store serializes as [].
func NewQuoteListResponse(quotes []*domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}
