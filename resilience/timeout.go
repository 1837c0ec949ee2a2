package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a call when no duration is given.
const DefaultTimeout = 30 * time.Second

// Timeout bounds a single call. The call runs on its own goroutine, so one
// that ignores cancellation is abandoned at the deadline rather than waited
// on.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a Timeout. d<=0 means DefaultTimeout.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timeout{d: d}
}

// Duration returns the configured bound.
func (t *Timeout) Duration() time.Duration {
	return t.d
}

// Execute runs op with the deadline applied. Hitting the deadline yields an
// error matching ErrTimeout; the caller's own cancellation yields ctx.Err().
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeoutCause(ctx, t.d, ErrTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op(opCtx) }()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil && errors.Is(context.Cause(opCtx), ErrTimeout) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return err
	case <-opCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrTimeout
	}
}
