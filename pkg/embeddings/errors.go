package embeddings

import (
	"errors"
	"fmt"
)

var (
	// ErrInvoke is returned when the inference endpoint cannot be reached or
	// answers with a failure.
	ErrInvoke = errors.New("inference request failed")

	// ErrMalformedResponse is returned when a response does not have the
	// expected shape.
	ErrMalformedResponse = errors.New("malformed inference response")

	// ErrAttemptsExhausted is matched by AttemptsExhaustedError.
	ErrAttemptsExhausted = errors.New("embedding attempts exhausted")

	// ErrInvalidItem is returned for an item with neither image nor text.
	ErrInvalidItem = errors.New("invalid item")

	// ErrNoInvoker is returned by NewClient when no transport is configured.
	ErrNoInvoker = errors.New("no inference invoker configured")
)

// AttemptsExhaustedError reports that every attempt for an item failed.
type AttemptsExhaustedError struct {
	Attempts int
	Err      error
}

func (e *AttemptsExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrAttemptsExhausted, e.Attempts, e.Err)
}

func (e *AttemptsExhaustedError) Unwrap() []error {
	return []error{ErrAttemptsExhausted, e.Err}
}
