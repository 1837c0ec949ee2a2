package observe

import "errors"

// Config.Validate errors.
var (
	ErrMissingServiceName     = errors.New("observe: telemetry.service_name must be set")
	ErrInvalidSamplePct       = errors.New("observe: telemetry.sample_pct must be within [0, 1]")
	ErrInvalidTracingExporter = errors.New("observe: unsupported tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: unsupported metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: unsupported log level")
)

var (
	// ErrNilObserver is returned by MiddlewareFromObserver for a nil observer.
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrMissingOp reports OpMeta without an operation name.
	ErrMissingOp = errors.New("observe: operation name is required")
)

// ValidTracingExporters are the accepted telemetry.tracing_exporter values.
// Empty and "none" disable export. Jaeger accepts OTLP directly.
var ValidTracingExporters = []string{"otlp", "stdout", "none", ""}

// ValidMetricsExporters are the accepted telemetry.metrics_exporter values.
var ValidMetricsExporters = []string{"otlp", "prometheus", "stdout", "none", ""}

// ValidLogLevels are the accepted telemetry.log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error", ""}

// RedactedFields lists log field keys whose values are never written.
// Matching ignores case.
var RedactedFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apiKey",
	"jwt_secret",
	"key_secret",
	"credential",
	"authorization",
	"signature",
}
