package domain

import (
	"errors"
	"fmt"
	"strings"
)

// EntityQuote names the quote entity in errors.
const EntityQuote = "quote"

// Sentinel errors matched with errors.Is. Stores and the service wrap these;
// only the HTTP adapter turns them into status codes.
var (
	// ErrNotFound indicates the requested quote does not exist, or that the
	// store holds no quotes at all.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a quote payload broke the required-fields rule.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates the record store cannot serve requests right now.
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError names the entity and id that could not be found.
// An empty ID means the lookup was not by id (random pick from an empty store).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error for entity and id.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// QuoteNotFound reports that no quote exists with id. Pass "" when the store is empty.
func QuoteNotFound(id string) error {
	return NewNotFoundError(EntityQuote, id)
}

// ValidationError carries the client-facing message and the payload fields
// that were missing.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("validation failed: %s (missing %s)", e.Message, strings.Join(e.Fields, ", "))
	}

	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error. fields lists the missing
// payload fields in the order they were checked.
func NewValidationError(message string, fields ...string) error {
	return &ValidationError{Message: message, Fields: fields}
}

// UnavailableError reports that a backing service refused work, for
// example because its circuit breaker is open.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s unavailable: %s", e.Service, e.Reason)
	}

	return e.Service + " unavailable"
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error for service.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err wraps ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable reports whether err wraps ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
