// Package scrape holds the pieces shared by every provider scraper: the error
// taxonomy, the per-row parsing fold and cell coercion helpers.
package scrape

import (
	"errors"
	"fmt"
)

// AuthenticationError is returned when the login handshake gets a non-2xx status.
type AuthenticationError struct {
	Status int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: login status %d", e.Status)
}

// HTTPStatusError is returned when a workflow stage gets a non-2xx status.
type HTTPStatusError struct {
	Stage  string
	URL    string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d from %s", e.Stage, e.Status, e.URL)
}

// MissingSessionKeyError is returned when a session key cannot be found in page markup.
type MissingSessionKeyError struct {
	Reason string
}

func (e *MissingSessionKeyError) Error() string {
	return fmt.Sprintf("missing session key: %s", e.Reason)
}

// PayloadExtractionError is returned when an embedded payload cannot be located or parsed.
type PayloadExtractionError struct {
	Marker string
	Reason string
	Err    error
}

func (e *PayloadExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract payload after %q: %s: %v", e.Marker, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract payload after %q: %s", e.Marker, e.Reason)
}

func (e *PayloadExtractionError) Unwrap() error {
	return e.Err
}

// UnknownFieldError describes a query field with no registered strategy.
type UnknownFieldError struct {
	ID string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown query field %q", e.ID)
}

// UnsupportedOperatorError is returned when a strategy has no code for an operator.
type UnsupportedOperatorError struct {
	Field    string
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("field %q does not support operator %q", e.Field, e.Operator)
}

// RowParseError describes a single row that was dropped.
type RowParseError struct {
	Tab   string
	Index int
	Raw   string
	Err   error
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("%s row %d: %v (raw: %s)", e.Tab, e.Index, e.Err, e.Raw)
}

func (e *RowParseError) Unwrap() error {
	return e.Err
}

// DateCoercionError describes a date/time field that was nulled.
type DateCoercionError struct {
	Field string
	Value string
	Err   error
}

func (e *DateCoercionError) Error() string {
	return fmt.Sprintf("coerce %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *DateCoercionError) Unwrap() error {
	return e.Err
}

// ErrIndexOutOfRange is wrapped when a positional cell or text node is missing.
var ErrIndexOutOfRange = errors.New("index out of range")
