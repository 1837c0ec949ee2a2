package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OpMeta describes one retrieval operation for telemetry purposes.
type OpMeta struct {
	Op            string // operation name: find_tools, tool_details, compare_tools, news (required)
	Subject       string // query or tool names the operation is about (optional)
	SchemaVersion string // version tag of the result schema (optional)
	Session       bool   // a session fast path is attached (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: directory.<op>
func (m OpMeta) SpanName() string {
	return "directory." + m.Op
}

// Validate checks that the metadata names an operation.
func (m OpMeta) Validate() error {
	if m.Op == "" {
		return ErrMissingOp
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with operation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must return a context carrying the new span.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an operation.
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("directory.op", meta.Op),
		attribute.Bool("directory.error", false),
		attribute.Bool("directory.session", meta.Session),
	}
	if meta.Subject != "" {
		attrs = append(attrs, attribute.String("directory.subject", meta.Subject))
	}
	if meta.SchemaVersion != "" {
		attrs = append(attrs, attribute.String("directory.schema_version", meta.SchemaVersion))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("directory.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func newNoopTracer() Tracer {
	return newTracer(tracenoop.NewTracerProvider().Tracer("noop"))
}
