package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/plant-nursery-go/actionlog"
	"github.com/AntonStoeckl/plant-nursery-go/config"
	"github.com/AntonStoeckl/plant-nursery-go/events"
	"github.com/AntonStoeckl/plant-nursery-go/greenhouse"
	"github.com/AntonStoeckl/plant-nursery-go/inventory"
	"github.com/AntonStoeckl/plant-nursery-go/journal"
	"github.com/AntonStoeckl/plant-nursery-go/journal/postgresjournal"
	"github.com/AntonStoeckl/plant-nursery-go/nursery"
	"github.com/AntonStoeckl/plant-nursery-go/nursery/oteladapters"
	"github.com/AntonStoeckl/plant-nursery-go/plant"
	"github.com/AntonStoeckl/plant-nursery-go/sales"
	"github.com/AntonStoeckl/plant-nursery-go/species"
)

// app is the fully wired nursery.
type app struct {
	logger     *oteladapters.SlogBridgeLogger
	metrics    nursery.MetricsCollector
	tracing    nursery.TracingCollector
	greenhouse *greenhouse.Greenhouse
	inventory  *inventory.Service
	sales      *sales.Service
	roster     *sales.StaffRoster
	actions    *actionlog.ActionLog
	journal    journal.Journal
	staff      []string

	metricReader *sdkmetric.ManualReader
	closers      []func(context.Context) error
}

func wire(ctx context.Context, cfg *config.Config, logOutput io.Writer) (*app, error) {
	level, err := config.ParseLogLevel(cfg.Observability.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{
		logger: oteladapters.NewSlogBridgeLoggerWithHandler(
			slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level}),
		),
		staff: cfg.Staff,
	}

	if cfg.Observability.Enabled {
		if err := a.wireObservability(ctx, cfg.Observability); err != nil {
			return nil, err
		}
	}

	catalog, err := loadCatalog(cfg.Simulation.SpeciesFile)
	if err != nil {
		return nil, err
	}

	env := plant.NewEnvironment(nursery.SystemClock)
	env.SecondsPerDay = cfg.Simulation.SecondsPerDay

	bus := events.NewBus(events.WithContextualLogger(a.logger), events.WithMetrics(a.metrics))

	greenhouseOptions := []greenhouse.Option{
		greenhouse.WithContextualLogger(a.logger),
		greenhouse.WithMetrics(a.metrics),
		greenhouse.WithTracing(a.tracing),
	}
	if len(cfg.Simulation.Palette) > 0 {
		greenhouseOptions = append(greenhouseOptions, greenhouse.WithPalette(cfg.Simulation.Palette))
	}
	a.greenhouse = greenhouse.New(catalog, env, bus, greenhouseOptions...)

	a.inventory = inventory.NewService(inventory.WithContextualLogger(a.logger), inventory.WithMetrics(a.metrics))
	bus.Subscribe(a.inventory)

	a.roster = sales.NewStaffRoster(cfg.Staff...)
	bus.Subscribe(a.roster)

	a.sales = sales.NewService(a.inventory, a.greenhouse, bus,
		sales.WithLowStockThreshold(cfg.Simulation.LowStockThreshold),
		sales.WithContextualLogger(a.logger),
		sales.WithMetrics(a.metrics),
	)

	a.journal, err = a.openJournal(ctx, cfg.Journal)
	if err != nil {
		a.close()
		return nil, err
	}

	bus.Subscribe(journal.NewEventRecorder(a.journal,
		journal.WithContextualLogger(a.logger),
		journal.WithMetrics(a.metrics),
	))

	a.actions = actionlog.New(
		actionlog.WithJournal(a.journal),
		actionlog.WithContextualLogger(a.logger),
		actionlog.WithMetrics(a.metrics),
		actionlog.WithTracing(a.tracing),
	)

	a.logger.Info("nursery wired",
		"species", catalog.Len(),
		"staff", len(cfg.Staff),
		"journal_driver", cfg.Journal.Driver,
		"observability", cfg.Observability.Enabled,
	)

	return a, nil
}

func (a *app) wireObservability(ctx context.Context, cfg config.ObservabilityConfig) error {
	a.metricReader = sdkmetric.NewManualReader()

	providers, err := config.NewObservabilityProviders(ctx, cfg, a.metricReader)
	if err != nil {
		return fmt.Errorf("failed to create observability providers: %w", err)
	}

	a.metrics = oteladapters.NewMetricsCollector(otel.Meter(cfg.ServiceName))
	a.tracing = oteladapters.NewTracingCollector(otel.Tracer(cfg.ServiceName))
	a.closers = append(a.closers, providers.Shutdown, a.reportMetrics)

	return nil
}

func loadCatalog(path string) (*species.Catalog, error) {
	if path == "" {
		return species.DefaultCatalog(), nil
	}

	catalog, err := species.LoadCatalogFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load species catalog: %w", err)
	}

	return catalog, nil
}

func (a *app) openJournal(ctx context.Context, cfg config.JournalConfig) (journal.Journal, error) {
	var options []postgresjournal.Option
	if cfg.Table != "" {
		options = append(options, postgresjournal.WithTableName(cfg.Table))
	}
	options = append(options, postgresjournal.WithLogger(a.logger))

	var (
		j   *postgresjournal.Journal
		err error
	)

	switch cfg.Driver {
	case config.JournalDriverMemory:
		return journal.NewMemoryJournal(), nil

	case config.JournalDriverPGX:
		pool, openErr := config.OpenPostgresPGXPool(ctx, cfg.DSN)
		if openErr != nil {
			return nil, openErr
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		j, err = postgresjournal.NewJournalFromPGXPool(pool, options...)

	case config.JournalDriverSQLDB:
		db, openErr := config.OpenPostgresSQLDB(ctx, cfg.DSN)
		if openErr != nil {
			return nil, openErr
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		j, err = postgresjournal.NewJournalFromSQLDB(db, options...)

	case config.JournalDriverSQLX:
		db, openErr := config.OpenPostgresSQLX(ctx, cfg.DSN)
		if openErr != nil {
			return nil, openErr
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		j, err = postgresjournal.NewJournalFromSQLX(db, options...)

	default:
		return nil, fmt.Errorf("%w: unknown journal driver %q", config.ErrInvalidConfig, cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}

	if err := j.CreateTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create journal table: %w", err)
	}

	return j, nil
}

func (a *app) reportMetrics(ctx context.Context) error {
	var collected metricdata.ResourceMetrics
	if err := a.metricReader.Collect(ctx, &collected); err != nil {
		return err
	}

	for _, scope := range collected.ScopeMetrics {
		for _, m := range scope.Metrics {
			a.logger.Debug("metric collected", "scope", scope.Scope.Name, "name", m.Name)
		}
	}

	return nil
}

// close runs the registered closers in reverse order.
func (a *app) close() {
	ctx := context.Background()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil

	if err := errors.Join(errs...); err != nil {
		a.logger.Error("shutdown failed", "error", err.Error())
	}
}
