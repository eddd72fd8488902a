package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	JournalDriverMemory = "memory"
	JournalDriverPGX    = "pgx"
	JournalDriverSQLDB  = "sqldb"
	JournalDriverSQLX   = "sqlx"
)

const (
	defaultSecondsPerDay     = 60
	defaultTickInterval      = time.Second
	defaultLowStockThreshold = 3
	defaultServiceName       = "plant-nursery"
	defaultLogLevel          = "info"
)

// Config holds the whole simulation configuration.
type Config struct {
	Simulation    SimulationConfig    `yaml:"simulation"`
	Staff         []string            `yaml:"staff"`
	Journal       JournalConfig       `yaml:"journal"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// SimulationConfig controls the clock, the greenhouse and the initial stock.
type SimulationConfig struct {
	SecondsPerDay     float64        `yaml:"seconds_per_day"`
	TickInterval      time.Duration  `yaml:"tick_interval"`
	Ticks             int            `yaml:"ticks"` // 0 runs until interrupted
	Seed              int64          `yaml:"seed"`
	Palette           []string       `yaml:"palette"`
	LowStockThreshold int            `yaml:"low_stock_threshold"`
	SpeciesFile       string         `yaml:"species_file"` // empty uses the embedded catalog
	InitialStock      map[string]int `yaml:"initial_stock"`
}

// JournalConfig selects where audit entries go.
type JournalConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// ObservabilityConfig selects the telemetry backends.
type ObservabilityConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"` // host:port of an OTLP/HTTP trace receiver
	LogLevel     string `yaml:"log_level"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result. Unknown keys are rejected.
// Empty input yields the default configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()

	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Simulation.SecondsPerDay == 0 {
		c.Simulation.SecondsPerDay = defaultSecondsPerDay
	}
	if c.Simulation.TickInterval == 0 {
		c.Simulation.TickInterval = defaultTickInterval
	}
	if c.Simulation.LowStockThreshold == 0 {
		c.Simulation.LowStockThreshold = defaultLowStockThreshold
	}
	if c.Simulation.InitialStock == nil {
		c.Simulation.InitialStock = map[string]int{}
	}
	if len(c.Staff) == 0 {
		c.Staff = []string{"ada", "ben", "cleo"}
	}
	if c.Journal.Driver == "" {
		c.Journal.Driver = JournalDriverMemory
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = defaultServiceName
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = defaultLogLevel
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Simulation.SecondsPerDay < 0 {
		errs = append(errs, fmt.Errorf("%w: simulation.seconds_per_day must be positive", ErrInvalidConfig))
	}
	if c.Simulation.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: simulation.tick_interval must be positive", ErrInvalidConfig))
	}
	if c.Simulation.Ticks < 0 {
		errs = append(errs, fmt.Errorf("%w: simulation.ticks must not be negative", ErrInvalidConfig))
	}
	for sku, count := range c.Simulation.InitialStock {
		if count <= 0 {
			errs = append(errs, fmt.Errorf("%w: simulation.initial_stock.%s must be positive", ErrInvalidConfig, sku))
		}
	}

	switch c.Journal.Driver {
	case JournalDriverMemory:
	case JournalDriverPGX, JournalDriverSQLDB, JournalDriverSQLX:
		if c.Journal.DSN == "" {
			errs = append(errs, fmt.Errorf("%w: journal.dsn is required for driver %s", ErrInvalidConfig, c.Journal.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown journal.driver %q", ErrInvalidConfig, c.Journal.Driver))
	}

	if _, err := ParseLogLevel(c.Observability.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
