package main

import (
	"flag"
)

// Flags override selected values of the YAML configuration.
type Flags struct {
	ConfigPath    string
	Ticks         int
	Seed          int64
	Observability bool
}

func parseFlags() Flags {
	var (
		configPath    = flag.String("config", "", "Path to the YAML configuration file (empty uses defaults)")
		ticks         = flag.Int("ticks", -1, "Number of simulation ticks, 0 runs until interrupted (-1 keeps the configured value)")
		seed          = flag.Int64("seed", 0, "Random seed for staff and customer behaviour (0 keeps the configured value)")
		observability = flag.Bool("observability-enabled", false, "Enable OpenTelemetry metrics and tracing")
	)

	flag.Parse()

	return Flags{
		ConfigPath:    *configPath,
		Ticks:         *ticks,
		Seed:          *seed,
		Observability: *observability,
	}
}
