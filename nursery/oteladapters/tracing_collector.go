package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

// TracingCollector implements nursery.TracingCollector with an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector using a tracer from your TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span carrying attrs and returns the derived context.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, nursery.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return spanCtx, &SpanContext{span: span}
}

// FinishSpan adds the final attributes, maps the status and ends the span.
// Spans not created by this collector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx nursery.SpanContext, status string, attrs map[string]string) {
	wrapped, ok := spanCtx.(*SpanContext)
	if !ok {
		return
	}

	wrapped.span.SetAttributes(toAttributes(attrs)...)
	wrapped.SetStatus(status)
	wrapped.span.End()
}

var _ nursery.TracingCollector = (*TracingCollector)(nil)

// SpanContext wraps an OpenTelemetry span.
type SpanContext struct {
	span trace.Span
}

// SetStatus maps nursery status strings onto OpenTelemetry status codes.
// Unknown statuses are recorded as a "status" attribute.
func (s *SpanContext) SetStatus(status string) {
	switch status {
	case "ok", "success", "completed":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed", "failure":
		s.span.SetStatus(codes.Error, "operation failed")
	case "rolled_back":
		s.span.SetStatus(codes.Error, "operation rolled back")
	case "cancelled", "canceled":
		s.span.SetStatus(codes.Error, "operation cancelled")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

func (s *SpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var _ nursery.SpanContext = (*SpanContext)(nil)
