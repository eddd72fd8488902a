// Package nursery provides the shared abstractions of the plant nursery core.
//
// It defines the dependency-free observability interfaces that every component accepts
// through functional options, the Clock used for simulated plant ageing, and the
// sentinel errors shared between packages.
//
// Key types:
//   - Logger / ContextualLogger: structured logging with slog-style key/value args
//   - MetricsCollector / ContextualMetricsCollector: durations, counters and values
//   - TracingCollector / SpanContext: distributed tracing spans
//   - Clock: wall-clock source, replaceable in tests and simulations
//
// OpenTelemetry implementations of the observability interfaces live in the
// oteladapters subpackage.
package nursery
