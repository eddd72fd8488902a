package nursery

import (
	"context"
	"time"
)

// Logger interface for operational logging, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// Components prefer it over Logger when both are configured.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting performance and operational metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods for trace correlation.
// It is optional: components use the context-aware methods when available and fall back to
// the base MetricsCollector otherwise.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// Observability bundles the optional observability collaborators of a component.
// A zero Observability is valid and silently drops everything.
type Observability struct {
	Logger           Logger
	ContextualLogger ContextualLogger
	Metrics          MetricsCollector
	Tracing          TracingCollector
}

// Debug logs through the contextual logger when set, else through the plain logger.
func (o Observability) Debug(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.DebugContext(ctx, msg, args...)
	} else if o.Logger != nil {
		o.Logger.Debug(msg, args...)
	}
}

// Info logs through the contextual logger when set, else through the plain logger.
func (o Observability) Info(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.InfoContext(ctx, msg, args...)
	} else if o.Logger != nil {
		o.Logger.Info(msg, args...)
	}
}

// Warn logs through the contextual logger when set, else through the plain logger.
func (o Observability) Warn(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.WarnContext(ctx, msg, args...)
	} else if o.Logger != nil {
		o.Logger.Warn(msg, args...)
	}
}

// Error logs through the contextual logger when set, else through the plain logger.
func (o Observability) Error(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.ErrorContext(ctx, msg, args...)
	} else if o.Logger != nil {
		o.Logger.Error(msg, args...)
	}
}

// RecordDuration records a duration, using the context-aware collector when available.
func (o Observability) RecordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	o.Metrics.RecordDuration(metric, duration, labels)
}

// IncrementCounter increments a counter, using the context-aware collector when available.
func (o Observability) IncrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.Metrics.IncrementCounter(metric, labels)
}

// RecordValue records a value, using the context-aware collector when available.
func (o Observability) RecordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	o.Metrics.RecordValue(metric, value, labels)
}

// StartSpan starts a span, or returns the original context and nil when tracing is disabled.
func (o Observability) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext) {
	if o.Tracing == nil {
		return ctx, nil
	}

	return o.Tracing.StartSpan(ctx, name, attrs)
}

// FinishSpan finishes a span started by StartSpan; a nil span is ignored.
func (o Observability) FinishSpan(span SpanContext, status string, attrs map[string]string) {
	if o.Tracing == nil || span == nil {
		return
	}

	o.Tracing.FinishSpan(span, status, attrs)
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
