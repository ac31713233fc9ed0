package embedder

import (
	"errors"
	"fmt"
)

// Common embedding errors
var (
	// ErrNoInput indicates an empty text batch was submitted.
	ErrNoInput = errors.New("no texts provided to embed")

	// ErrRateLimit indicates the rate limit has been exceeded
	ErrRateLimit = errors.New("rate limit exceeded. Please try again later")
)

// RateLimitError represents a rate limit error with optional custom message
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded. Please try again later"
	}
	return e.Message
}

// Is implements errors.Is support for RateLimitError.
// This allows errors.Is(err, &RateLimitError{}) to work with wrapped errors.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}

// NewRateLimitError creates a new rate limit error with optional custom message
func NewRateLimitError(message ...string) *RateLimitError {
	err := &RateLimitError{}
	if len(message) > 0 {
		err.Message = message[0]
	}
	return err
}

// BackendUnavailableError indicates a backend cannot serve at all, for
// example a missing local model artifact. It is terminal, never retried.
type BackendUnavailableError struct {
	Backend Backend
	Message string
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("embedding backend %s unavailable: %s", e.Backend, e.Message)
}

// Is implements errors.Is support for BackendUnavailableError.
func (e *BackendUnavailableError) Is(target error) bool {
	_, ok := target.(*BackendUnavailableError)
	return ok
}

// NewBackendUnavailableError creates a new backend unavailable error.
func NewBackendUnavailableError(backend Backend, message string) *BackendUnavailableError {
	return &BackendUnavailableError{Backend: backend, Message: message}
}

// DimensionMismatchError indicates vectors of the wrong dimensionality were
// offered to a collection populated with a different backend's embeddings.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: collection holds %d-dimensional vectors, got %d", e.Want, e.Got)
}

// Is implements errors.Is support for DimensionMismatchError.
func (e *DimensionMismatchError) Is(target error) bool {
	_, ok := target.(*DimensionMismatchError)
	return ok
}

// NewDimensionMismatchError creates a new dimension mismatch error.
func NewDimensionMismatchError(want, got int) *DimensionMismatchError {
	return &DimensionMismatchError{Want: want, Got: got}
}
