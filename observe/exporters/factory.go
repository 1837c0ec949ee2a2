// Package exporters builds the OpenTelemetry exporters named in the
// telemetry configuration.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	// ErrUnknownExporter is returned for a name no factory handles.
	ErrUnknownExporter = errors.New("exporters: unknown exporter")

	// ErrNoEndpoint is returned for otlp when neither Options.Endpoint nor
	// the OTEL_EXPORTER_OTLP_* environment names a collector.
	ErrNoEndpoint = errors.New("exporters: OTLP endpoint not configured")
)

// Options tunes exporter construction. The zero value is usable.
type Options struct {
	// Endpoint is the OTLP collector URL, e.g. http://localhost:4317.
	// Empty defers to the OTEL_EXPORTER_OTLP_* environment.
	Endpoint string

	// Writer receives stdout exporter output. Default: os.Stdout
	Writer io.Writer

	// Registerer receives the Prometheus collector.
	// Default: prometheus.DefaultRegisterer, which promhttp.Handler serves.
	Registerer prom.Registerer

	// Lookup reads the environment. Default: os.LookupEnv
	Lookup func(string) (string, bool)
}

func (o Options) writer() io.Writer {
	if o.Writer == nil {
		return os.Stdout
	}
	return o.Writer
}

// endpoint resolves the collector for signal ("TRACES" or "METRICS").
// ok is false when nothing is configured.
func (o Options) endpoint(signal string) (url string, fromEnv bool, ok bool) {
	if o.Endpoint != "" {
		return o.Endpoint, false, true
	}
	lookup := o.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, name := range []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_" + signal + "_ENDPOINT"} {
		if v, set := lookup(name); set && v != "" {
			return v, true, true
		}
	}
	return "", false, false
}

// NewTracingExporter creates the span exporter called name: stdout, otlp or
// none. A nil exporter with a nil error means tracing export is off.
func NewTracingExporter(ctx context.Context, name string, opts Options) (sdktrace.SpanExporter, error) {
	switch name {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(opts.writer()))

	case "otlp":
		url, fromEnv, ok := opts.endpoint("TRACES")
		if !ok {
			return nil, fmt.Errorf("%w: set telemetry.otlp_endpoint or OTEL_EXPORTER_OTLP_ENDPOINT", ErrNoEndpoint)
		}
		if fromEnv {
			return otlptracegrpc.New(ctx)
		}
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(url))

	case "none", "":
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: tracing %q", ErrUnknownExporter, name)
	}
}

// NewMetricsReader creates the metrics reader called name: stdout, otlp,
// prometheus or none. A nil reader with a nil error means metrics export is
// off.
func NewMetricsReader(ctx context.Context, name string, opts Options) (sdkmetric.Reader, error) {
	switch name {
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(opts.writer()))
		if err != nil {
			return nil, fmt.Errorf("exporters: stdout metrics: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "otlp":
		url, fromEnv, ok := opts.endpoint("METRICS")
		if !ok {
			return nil, fmt.Errorf("%w: set telemetry.otlp_endpoint or OTEL_EXPORTER_OTLP_ENDPOINT", ErrNoEndpoint)
		}
		var mopts []otlpmetricgrpc.Option
		if !fromEnv {
			mopts = append(mopts, otlpmetricgrpc.WithEndpointURL(url))
		}
		exp, err := otlpmetricgrpc.New(ctx, mopts...)
		if err != nil {
			return nil, fmt.Errorf("exporters: otlp metrics: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "prometheus":
		var popts []prometheus.Option
		if opts.Registerer != nil {
			popts = append(popts, prometheus.WithRegisterer(opts.Registerer))
		}
		exp, err := prometheus.New(popts...)
		if err != nil {
			return nil, fmt.Errorf("exporters: prometheus: %w", err)
		}
		return exp, nil

	case "none", "":
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, name)
	}
}
