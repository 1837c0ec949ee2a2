package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the reset timeout elapses.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is how many probes may run while half-open.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called after a transition, outside the breaker's lock.
	OnStateChange func(from, to State)

	// IsFailure decides whether an error counts toward opening the circuit.
	// Default: every non-nil error
	IsFailure func(err error) bool

	// Clock is the time source for the reset timeout.
	// Default: time.Now
	Clock func() time.Time
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxRequests <= 0 {
		c.HalfOpenMaxRequests = 1
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// CircuitBreaker stops calling a downstream that keeps failing.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
	counts   CircuitBreakerMetrics
}

// transition is a state change waiting to be reported.
type transition struct {
	from, to State
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{config: config.withDefaults()}
}

// Execute runs op unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := op(ctx)
	cb.record(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	st, tr := cb.refreshLocked()
	cb.mu.Unlock()
	cb.notify(tr)
	return st
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	tr := cb.moveLocked(StateClosed)
	cb.mu.Unlock()
	cb.notify(tr)
}

// Metrics returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	st, tr := cb.refreshLocked()
	m := cb.counts
	m.State = st
	m.Failures = cb.failures
	cb.mu.Unlock()
	cb.notify(tr)
	return m
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	st, tr := cb.refreshLocked()
	var err error
	switch {
	case st == StateOpen:
		err = ErrCircuitOpen
	case st == StateHalfOpen && cb.probes >= cb.config.HalfOpenMaxRequests:
		err = ErrCircuitOpen
	case st == StateHalfOpen:
		cb.probes++
	}
	if err != nil {
		cb.counts.Rejected++
	}
	cb.mu.Unlock()
	cb.notify(tr)
	return err
}

func (cb *CircuitBreaker) record(err error) {
	failed := cb.config.IsFailure(err)

	cb.mu.Lock()
	var tr *transition
	if failed {
		cb.counts.TotalFailures++
		cb.counts.LastFailure = cb.config.Clock()
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.config.MaxFailures {
			tr = cb.moveLocked(StateOpen)
		}
	} else {
		cb.counts.Successes++
		cb.failures = 0
		if cb.state == StateHalfOpen {
			tr = cb.moveLocked(StateClosed)
		}
	}
	cb.mu.Unlock()
	cb.notify(tr)
}

// refreshLocked moves an open circuit to half-open once the reset timeout
// has passed.
func (cb *CircuitBreaker) refreshLocked() (State, *transition) {
	if cb.state == StateOpen && cb.config.Clock().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		return StateHalfOpen, cb.moveLocked(StateHalfOpen)
	}
	return cb.state, nil
}

func (cb *CircuitBreaker) moveLocked(to State) *transition {
	from := cb.state
	cb.state = to
	cb.probes = 0
	switch to {
	case StateOpen:
		cb.openedAt = cb.config.Clock()
	case StateClosed:
		cb.failures = 0
	}
	if from == to {
		return nil
	}
	return &transition{from: from, to: to}
}

func (cb *CircuitBreaker) notify(tr *transition) {
	if tr != nil && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(tr.from, tr.to)
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State State

	// Failures is the current run of consecutive failures.
	Failures int

	TotalFailures int64
	Successes     int64

	// Rejected counts calls refused while open or out of probes.
	Rejected int64

	LastFailure time.Time
}
