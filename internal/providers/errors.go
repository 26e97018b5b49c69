package providers

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable marks transient failures: network errors,
	// timeouts, 5xx responses or a missing source.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderProtocol marks malformed or unexpected provider responses.
	ErrProviderProtocol = errors.New("provider protocol error")

	// ErrContentNotFound marks a listed package whose content is missing.
	ErrContentNotFound = errors.New("package content not found")

	// ErrContentMismatch marks content that disagrees with its descriptor
	// (size, checksum, or size limit).
	ErrContentMismatch = errors.New("content does not match descriptor")
)

// Error is a classified provider failure.
type Error struct {
	Provider string
	Kind     error
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("provider %s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the classification sentinel and the cause
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unavailable wraps err as a transient failure of provider
func Unavailable(provider string, err error) error {
	return &Error{Provider: provider, Kind: ErrProviderUnavailable, Err: err}
}

// Protocol wraps err as a protocol failure of provider
func Protocol(provider string, err error) error {
	return &Error{Provider: provider, Kind: ErrProviderProtocol, Err: err}
}

// NotFound wraps err as missing content of provider
func NotFound(provider string, err error) error {
	return &Error{Provider: provider, Kind: ErrContentNotFound, Err: err}
}

// Outcome is the tagged result of a provider call.
type Outcome int

const (
	// OutcomeSuccess means the call succeeded
	OutcomeSuccess Outcome = iota
	// OutcomeRetryable means the call may succeed if repeated
	OutcomeRetryable
	// OutcomeFatal means repeating the call will not help
	OutcomeFatal
)

// String implements fmt.Stringer
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// Classify maps err to an Outcome. Unclassified errors, network errors
// included, are retryable.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}

	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, ErrContentNotFound),
		errors.Is(err, ErrProviderProtocol),
		errors.Is(err, ErrContentMismatch):
		return OutcomeFatal
	default:
		return OutcomeRetryable
	}
}

// KindOf returns the classification sentinel for a listing failure:
// ErrProviderProtocol for permanent failures and ErrProviderUnavailable
// for everything else.
func KindOf(err error) error {
	if errors.Is(err, ErrProviderProtocol) || errors.Is(err, ErrContentMismatch) {
		return ErrProviderProtocol
	}
	return ErrProviderUnavailable
}
