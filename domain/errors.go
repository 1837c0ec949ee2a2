package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("domain: tool not found")

	// ErrGeneration matches every GenerationError.
	ErrGeneration = errors.New("domain: generation failed")

	// ErrValidation indicates generated output did not match its schema.
	// It is always wrapped in a GenerationError of KindMalformed.
	ErrValidation = errors.New("domain: response failed validation")

	// ErrInvalidInput indicates an empty or unusable query or tool name.
	ErrInvalidInput = errors.New("domain: invalid input")
)

// NotFoundError reports that a named tool could not be identified as real.
// It is not transient and is safe to cache.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UserMessage is the text shown to end users.
func (e *NotFoundError) UserMessage() string {
	return fmt.Sprintf("We couldn't find a tool called %q. Check the spelling or try a different search.", e.Name)
}

// Kind classifies a generation failure for user messaging.
type Kind int

const (
	// KindUnavailable covers network failures, timeouts and an open circuit.
	KindUnavailable Kind = iota
	// KindQuota covers quota exhaustion and rate limiting.
	KindQuota
	// KindCredential covers invalid or missing API credentials.
	KindCredential
	// KindMalformed covers output that could not be parsed or validated.
	KindMalformed
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindCredential:
		return "credential"
	case KindMalformed:
		return "malformed"
	default:
		return "unavailable"
	}
}

// GenerationError reports a failed call to the generative collaborator.
// It is never cached.
type GenerationError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: generation failed (%s)", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: generation failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is matches ErrGeneration.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// Retryable reports whether asking again later may succeed.
func (e *GenerationError) Retryable() bool {
	return e.Kind != KindCredential
}

// UserMessage is the text shown to end users.
func (e *GenerationError) UserMessage() string {
	switch e.Kind {
	case KindQuota:
		return "API quota exceeded. Please try again later."
	case KindCredential:
		return "The AI service is misconfigured. Please contact the administrator."
	case KindMalformed:
		return "The AI returned a response we couldn't read. Please try again."
	default:
		return "The AI service is busy or unreachable. Please try again."
	}
}

// NewGenerationError builds a GenerationError.
func NewGenerationError(kind Kind, op string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Op: op, Err: err}
}
