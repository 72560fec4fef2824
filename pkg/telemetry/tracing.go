package telemetry

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// SetupTracing configures an OpenTelemetry tracer provider with an optional
// OTLP exporter and installs global propagators. Callers own shutdown.
func SetupTracing(ctx context.Context, serviceName, serviceVersion, endpoint string, insecure bool, sampleRatio float64) (*sdktrace.TracerProvider, error) {
	if sampleRatio <= 0 || sampleRatio > 1 {
		sampleRatio = 1
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		)),
	}

	if endpoint != "" {
		exporter, err := newOTLPExporter(ctx, endpoint, insecure)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return provider, nil
}

func newOTLPExporter(ctx context.Context, endpoint string, insecure bool) (sdktrace.SpanExporter, error) {
	// The OTLP HTTP exporter expects an endpoint without scheme. Strip one if
	// present, and mark the exporter insecure for plain http.
	ep := endpoint
	if strings.HasPrefix(endpoint, "https://") {
		ep = strings.TrimPrefix(endpoint, "https://")
	} else if strings.HasPrefix(endpoint, "http://") {
		ep = strings.TrimPrefix(endpoint, "http://")
		insecure = true
	}
	if ep == "" {
		return nil, errors.New("invalid OTLP endpoint")
	}

	clientOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(ep)}
	if insecure {
		clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, clientOpts...)
}
