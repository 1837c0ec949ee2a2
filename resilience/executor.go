package resilience

import (
	"context"
	"time"
)

// Guard is one resilience pattern. Each guard either runs op or refuses
// with its own sentinel error.
type Guard interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Executor runs a call through its guards, outermost first: rate limiter,
// bulkhead, circuit breaker, timeout. It never retries; a failed attempt is
// returned to the caller.
type Executor struct {
	limiter *RateLimiter
	bulk    *Bulkhead
	breaker *CircuitBreaker
	timeout *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.breaker = cb }
}

// WithRateLimiter adds rate limiting.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.limiter = rl }
}

// WithBulkhead adds a concurrency cap.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulk = b }
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(d) }
}

// guards lists the configured guards from outermost to innermost.
func (e *Executor) guards() []Guard {
	var gs []Guard
	if e.limiter != nil {
		gs = append(gs, e.limiter)
	}
	if e.bulk != nil {
		gs = append(gs, e.bulk)
	}
	if e.breaker != nil {
		gs = append(gs, e.breaker)
	}
	if e.timeout != nil {
		gs = append(gs, e.timeout)
	}
	return gs
}

// Execute runs op through every configured guard.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	call := op
	gs := e.guards()
	for i := len(gs) - 1; i >= 0; i-- {
		g, inner := gs[i], call
		call = func(ctx context.Context) error { return g.Execute(ctx, inner) }
	}
	return call(ctx)
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.breaker
}

// RateLimiter returns the configured limiter, or nil.
func (e *Executor) RateLimiter() *RateLimiter {
	return e.limiter
}

var (
	_ Guard = (*RateLimiter)(nil)
	_ Guard = (*Bulkhead)(nil)
	_ Guard = (*CircuitBreaker)(nil)
	_ Guard = (*Timeout)(nil)
)
