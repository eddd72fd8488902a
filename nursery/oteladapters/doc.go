// Package oteladapters implements the nursery observability interfaces on top of OpenTelemetry.
//
//   - SlogBridgeLogger: nursery.Logger and nursery.ContextualLogger over log/slog, optionally
//     routed through the otelslog bridge for trace correlation
//   - OTelLogger: nursery.ContextualLogger over the OpenTelemetry log API
//   - MetricsCollector: histograms, counters and gauges created on demand
//   - TracingCollector: spans with status mapping onto OpenTelemetry codes
package oteladapters
