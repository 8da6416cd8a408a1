// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrClientNotFound      = errors.New("client not found")
	ErrMarginNotFound      = errors.New("margin record not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrQuoteUnavailable    = errors.New("quote unavailable")
	ErrUnpriceablePosition = errors.New("position has no usable price")
)

// ValidationError represents a validation error on a request payload.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap maps every validation failure onto ErrInvalidAmount's broader
// invalid-argument category so callers can classify with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidAmount
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// LookupError represents a failed price lookup for a single symbol.
type LookupError struct {
	Symbol string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("price lookup [%s]: %v", e.Symbol, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NewLookupError creates a new LookupError.
func NewLookupError(symbol string, err error) *LookupError {
	return &LookupError{
		Symbol: symbol,
		Err:    err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
