// Package tracing installs the global OpenTelemetry tracer provider.
//
// With an empty endpoint spans are recorded by an SDK provider without an
// exporter, so instrumented code runs unchanged and nothing leaves the
// process.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrInvalidEndpoint is returned for endpoints that are not http(s) URLs.
var ErrInvalidEndpoint = errors.New("tracing: invalid OTLP endpoint")

const tracesPath = "/v1/traces"

// Shutdown flushes pending spans and stops the provider.
type Shutdown func(context.Context) error

// Setup builds a tracer provider for serviceName, exporting over OTLP/HTTP
// to endpoint (e.g. http://localhost:4318) when one is given, and
// registers it globally together with the W3C propagators.
func Setup(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, Shutdown, error) {
	rsc := resource.NewSchemaless(attribute.String("service.name", serviceName))
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(rsc)}

	if endpoint != "" {
		exporterOpts, err := exporterOptions(endpoint)
		if err != nil {
			return nil, nil, err
		}
		exp, err := otlptracehttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
		slog.Info("Trace export enabled", "endpoint", endpoint)
	} else {
		slog.Warn("Trace export disabled, OTEL_EXPORTER_OTLP_ENDPOINT is not set")
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, tp.Shutdown, nil
}

func exporterOptions(endpoint string) ([]otlptracehttp.Option, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(u.Host)}
	switch u.Scheme {
	case "http":
		opts = append(opts, otlptracehttp.WithInsecure())
	case "https":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}

	path := strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(path, tracesPath) {
		path += tracesPath
	}
	opts = append(opts, otlptracehttp.WithURLPath(path))
	return opts, nil
}
