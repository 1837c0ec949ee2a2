package observe

import (
	"context"
	"errors"
	"time"
)

// ExecuteFunc is the signature of a retrieval operation that Middleware wraps.
type ExecuteFunc func(ctx context.Context, op OpMeta) (any, error)

// Middleware wraps operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated unchanged.
//     Caller cancellation is logged at warn level.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NewNopMiddleware returns a Middleware that records nothing and logs
// through logger, or discards logs when logger is nil.
func NewNopMiddleware(logger Logger) *Middleware {
	if logger == nil {
		logger = NopLogger()
	}
	return NewMiddleware(newNoopTracer(), &noopMetrics{}, logger)
}

// Wrap wraps an ExecuteFunc with tracing, metrics and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, op OpMeta) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, op)
		start := time.Now()

		result, err := fn(ctx, op)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordOp(ctx, op, duration, err)

		opLogger := m.logger.WithOp(op)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		switch {
		case err == nil:
			opLogger.Info(ctx, "operation completed", fields...)
		case errors.Is(err, context.Canceled):
			opLogger.Warn(ctx, "operation cancelled", fields...)
		default:
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			opLogger.Error(ctx, "operation failed", fields...)
		}

		return result, err
	}
}

// RecordCache forwards a cache lookup outcome to the metrics backend.
func (m *Middleware) RecordCache(ctx context.Context, op string, hit bool) {
	m.metrics.RecordCache(ctx, op, hit)
}

// Logger returns the logger used for completion lines.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger()), nil
}
