package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const shutdownTimeout = 5 * time.Second

// ObservabilityProviders holds the OpenTelemetry providers of the running process.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Resource       *resource.Resource
}

// NewObservabilityProviders builds tracer and meter providers for cfg and installs them globally.
// Spans are exported over OTLP/HTTP when cfg.OTLPEndpoint is set. Metric readers are supplied
// by the caller, so a process can collect on demand with a metric.ManualReader.
func NewObservabilityProviders(
	ctx context.Context,
	cfg ObservabilityConfig,
	readers ...metric.Reader,
) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracerOptions := []trace.TracerProviderOption{trace.WithResource(res)}

	if cfg.OTLPEndpoint != "" {
		traceExporter, err := otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		tracerOptions = append(tracerOptions, trace.WithBatcher(traceExporter))
	}

	tracerProvider := trace.NewTracerProvider(tracerOptions...)

	meterOptions := []metric.Option{metric.WithResource(res)}
	for _, reader := range readers {
		meterOptions = append(meterOptions, metric.WithReader(reader))
	}

	meterProvider := metric.NewMeterProvider(meterOptions...)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &ObservabilityProviders{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Resource:       res,
	}, nil
}

// Shutdown flushes and stops both providers.
func (p *ObservabilityProviders) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
	)
}
