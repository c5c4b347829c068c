package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingInput     = errors.New("missing input")
	ErrCompletionFailed = errors.New("itinerary generation failed")
)

// MissingInputError names the form fields that were blank.
type MissingInputError struct {
	Fields []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingInput, strings.Join(e.Fields, ", "))
}

func (e *MissingInputError) Unwrap() error {
	return ErrMissingInput
}

// CompletionError reports a failed call to the remote completion service.
// StatusCode is zero when the request never got an HTTP response.
type CompletionError struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", ErrCompletionFailed, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrCompletionFailed, e.Reason)
}

func (e *CompletionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCompletionFailed}
	}
	return []error{ErrCompletionFailed, e.Err}
}
