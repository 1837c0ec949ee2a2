package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the guards. Each one means the guarded call
// never reached the model, except ErrTimeout.
var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when no token is available in time.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBackingOff is returned inside a backoff window set after the model
	// reported a quota error. It matches ErrRateLimitExceeded.
	ErrBackingOff = fmt.Errorf("%w: backing off after a quota error", ErrRateLimitExceeded)

	// ErrBulkheadFull is returned when every concurrency slot stays busy.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when the call outlives its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
