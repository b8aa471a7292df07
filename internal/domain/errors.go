package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrIndexNotFound signals an unknown target index name.
	ErrIndexNotFound = errors.New("index not found")
	// ErrUpstream signals that the backing engine is unreachable or slow.
	ErrUpstream = errors.New("search engine unavailable")
	// ErrQueryRejected signals that the engine rejected a constructed query.
	// This indicates a builder/schema mismatch, not bad user input.
	ErrQueryRejected = errors.New("query rejected by engine")
	// ErrInvalidSchema signals an invalid schema definition.
	ErrInvalidSchema = errors.New("invalid schema")
)

// ValidationError reports every invalid request parameter, never just the first.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ". ")
}

// NewValidationError creates a validation error from one or more problems.
func NewValidationError(problems []string) error {
	return &ValidationError{Problems: problems}
}

// UpstreamError wraps ErrUpstream with the failing engine operation.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrUpstream.Error(), e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// NewUpstreamError creates an upstream error for the given engine operation.
func NewUpstreamError(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
