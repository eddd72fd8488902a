// Package config loads the nursery simulation configuration from YAML and builds the
// infrastructure it describes: PostgreSQL connections for the journal and the OpenTelemetry
// tracer and meter providers.
package config
