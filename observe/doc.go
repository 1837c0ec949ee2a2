// Package observe provides tracing, metrics and structured logging for the
// retrieval operations of the directory service.
//
// Each operation is described by an OpMeta. Middleware wraps an operation
// with a span, the directory.op.* instruments and a completion log line.
// Cache hit and miss counters are recorded separately via Metrics.RecordCache.
package observe
