package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/toolverse/resilience"
)

// Pinger is implemented by stores that can report reachability, such as
// cache.SQLiteCache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker reports the durable cache as unhealthy when it cannot be
// reached. Every operation degrades to a cache miss without it, so the
// service would regenerate on every request.
type StoreChecker struct {
	name  string
	store Pinger
}

// NewStoreChecker creates a checker for store.
func NewStoreChecker(name string, store Pinger) *StoreChecker {
	if name == "" {
		name = "store"
	}
	return &StoreChecker{name: name, store: store}
}

// Name returns the name of this checker.
func (s *StoreChecker) Name() string {
	return s.name
}

// Check pings the store.
func (s *StoreChecker) Check(ctx context.Context) Result {
	if err := s.store.Ping(ctx); err != nil {
		return Unhealthy("store unreachable", fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}
	return Healthy("store reachable")
}

// CircuitChecker reports the generation circuit breaker. An open circuit is
// degraded, not unhealthy: cached results are still served.
type CircuitChecker struct {
	name  string
	state func() resilience.State
}

// NewCircuitChecker creates a checker reading state, usually
// generate.Client.Circuit.
func NewCircuitChecker(name string, state func() resilience.State) *CircuitChecker {
	if name == "" {
		name = "generator"
	}
	return &CircuitChecker{name: name, state: state}
}

// Name returns the name of this checker.
func (c *CircuitChecker) Name() string {
	return c.name
}

// Check reads the circuit state.
func (c *CircuitChecker) Check(ctx context.Context) Result {
	st := c.state()
	details := map[string]any{"circuit": st.String()}
	switch st {
	case resilience.StateClosed:
		return Healthy("generator available").WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("generator recovering").WithDetails(details)
	default:
		return Degraded("generator circuit open; serving cached results only").WithDetails(details)
	}
}
