// Package testdoubles provides spies for the nursery observability interfaces.
//
//   - ContextualLoggerSpy: captures Logger and ContextualLogger calls per level
//   - MetricsCollectorSpy: captures durations, counters and values with their labels
//   - TracingCollectorSpy: captures started and finished spans
//
// All spies are safe for concurrent use.
package testdoubles
