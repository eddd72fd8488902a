// Package main runs a plant nursery simulation: shipments arrive, staff care for plants, customers
// place orders and the greenhouse advances one tick at a time.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AntonStoeckl/plant-nursery-go/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer app.close()

	sim := newSimulation(app, cfg.Simulation.Seed)
	sim.stockUp(ctx, cfg.Simulation.InitialStock)

	ticker := time.NewTicker(cfg.Simulation.TickInterval)
	defer ticker.Stop()

loop:
	for tick := 1; cfg.Simulation.Ticks == 0 || tick <= cfg.Simulation.Ticks; tick++ {
		select {
		case <-ctx.Done():
			app.logger.Info("received shutdown signal", "tick", tick)
			break loop
		case <-ticker.C:
			sim.step(ctx, tick)
		}
	}

	sim.summarize(context.WithoutCancel(ctx))

	return nil
}

func loadConfig(flags Flags) (*config.Config, error) {
	cfg := config.Default()

	if flags.ConfigPath != "" {
		loaded, err := config.Load(flags.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	if flags.Ticks >= 0 {
		cfg.Simulation.Ticks = flags.Ticks
	}
	if flags.Seed != 0 {
		cfg.Simulation.Seed = flags.Seed
	}
	if flags.Observability {
		cfg.Observability.Enabled = true
	}

	return cfg, cfg.Validate()
}
