package health

import (
	"context"
	"maps"
	"time"
)

// Status is a component's health. Larger values are worse.
type Status int

const (
	StatusHealthy Status = iota
	// StatusDegraded means the component serves with reduced capability,
	// such as cached-only answers while the generator circuit is open.
	StatusDegraded
	StatusUnhealthy
)

var statusNames = [...]string{
	StatusHealthy:   "healthy",
	StatusDegraded:  "degraded",
	StatusUnhealthy: "unhealthy",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Worse returns the worse of s and o.
func (s Status) Worse(o Status) Status {
	return max(s, o)
}

// Result is the outcome of one check. The aggregator fills Duration, and
// Timestamp when the checker leaves it zero.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

func newResult(s Status, msg string, err error) Result {
	return Result{Status: s, Message: msg, Error: err, Timestamp: time.Now()}
}

// Healthy returns a healthy result.
func Healthy(msg string) Result { return newResult(StatusHealthy, msg, nil) }

// Degraded returns a degraded result.
func Degraded(msg string) Result { return newResult(StatusDegraded, msg, nil) }

// Unhealthy returns an unhealthy result caused by err.
func Unhealthy(msg string, err error) Result { return newResult(StatusUnhealthy, msg, err) }

// WithDetails returns r with details merged over its existing details.
// r's map is not modified.
func (r Result) WithDetails(details map[string]any) Result {
	merged := make(map[string]any, len(r.Details)+len(details))
	maps.Copy(merged, r.Details)
	maps.Copy(merged, details)
	r.Details = merged
	return r
}

// Checker reports the health of one component. Check may be called
// concurrently and should return once ctx is done.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

type checkerFunc struct {
	name string
	fn   func(context.Context) Result
}

func (f checkerFunc) Name() string                     { return f.name }
func (f checkerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

// NewCheckerFunc returns a Checker named name that runs fn.
func NewCheckerFunc(name string, fn func(context.Context) Result) Checker {
	return checkerFunc{name: name, fn: fn}
}
