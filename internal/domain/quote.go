// Package domain contains core business entities and rules.
package domain

// QuoteRequiredMessage is the message reported when a quote payload lacks its text or author.
const QuoteRequiredMessage = "Quote and Author required!"

// Quote represents a quotation with its author.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is the unique identifier for this quote. Assigned by the store on creation.
	ID string

	// Text is the quotation itself.
	Text string

	// Author is who said or wrote the quote.
	Author string
}

// QuoteInput carries the caller-supplied fields of a quote.
type QuoteInput struct {
	Text   string
	Author string
}

// Validate reports whether both text and author are present. Values are
// not trimmed, so whitespace counts as present.
func (in QuoteInput) Validate() error {
	var missing []string

	if in.Text == "" {
		missing = append(missing, "quote")
	}

	if in.Author == "" {
		missing = append(missing, "author")
	}

	if len(missing) > 0 {
		return NewValidationError(QuoteRequiredMessage, missing...)
	}

	return nil
}

// Apply overwrites the mutable fields of q with the input. The ID is left untouched.
func (q *Quote) Apply(in QuoteInput) {
	q.Text = in.Text
	q.Author = in.Author
}

// Clone returns a copy of q, or nil if q is nil.
func (q *Quote) Clone() *Quote {
	if q == nil {
		return nil
	}

	c := *q

	return &c
}
