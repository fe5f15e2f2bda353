package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the remote store rejects a write as conflicting
	ErrConflict = errors.New("conflict: entity was modified concurrently")

	// ErrForbidden is returned when the acting user may not perform the call
	ErrForbidden = errors.New("forbidden")

	// ErrNetwork is returned when the remote store could not be reached
	ErrNetwork = errors.New("network error")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError carries per-field validation messages returned by the
// remote store.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if msg := e.FirstMessage(); msg != "" {
		return "validation failed: " + msg
	}
	return "validation failed"
}

// Is lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// FirstMessage returns the most specific message available: the first field
// message in field-name order, else the top-level message.
func (e *ValidationError) FirstMessage() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		for _, msg := range e.Fields[field] {
			if strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	return e.Message
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  map[string][]string{field: {message}},
	}
}

// RemoteError is a failed call that carried a server-provided message.
type RemoteError struct {
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote error %d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("remote error %d: %s", e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
