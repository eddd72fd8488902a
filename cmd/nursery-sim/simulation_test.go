package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/plant-nursery-go/config"
	"github.com/AntonStoeckl/plant-nursery-go/journal"
)

func Test_Simulation_Runs_Against_Memory_Journal(t *testing.T) {
	// arrange
	ctx := context.Background()
	cfg, err := config.Parse([]byte("simulation:\n  seconds_per_day: 0.001\n  initial_stock:\n    FERN-01: 4\n    CACT-01: 2\n"))
	require.NoError(t, err)

	var logs bytes.Buffer
	a, err := wire(ctx, cfg, &logs)
	require.NoError(t, err)
	t.Cleanup(a.close)

	sim := newSimulation(a, 42)

	// act
	sim.stockUp(ctx, cfg.Simulation.InitialStock)
	for tick := 1; tick <= 5; tick++ {
		sim.step(ctx, tick)
	}
	sim.summarize(ctx)

	// assert
	memory, ok := a.journal.(*journal.MemoryJournal)
	require.True(t, ok)
	assert.NotZero(t, memory.Len())
	assert.Contains(t, logs.String(), "tick completed")
	assert.Contains(t, logs.String(), "final population")
	assert.NoError(t, a.inventory.CheckInvariants())
}

func Test_Simulation_Stocks_Every_Species_By_Default(t *testing.T) {
	// arrange
	ctx := context.Background()
	a, err := wire(ctx, config.Default(), &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(a.close)

	// act
	newSimulation(a, 1).stockUp(ctx, nil)

	// assert
	assert.Equal(t, a.greenhouse.Catalog().Len()*minShipmentSize, a.greenhouse.Len())
	assert.Equal(t, 1, a.actions.HistorySize())
}

func Test_Wire_With_Observability_Collects_Metrics(t *testing.T) {
	// arrange
	ctx := context.Background()
	cfg := config.Default()
	cfg.Observability.Enabled = true
	cfg.Observability.LogLevel = "debug"

	var logs bytes.Buffer
	a, err := wire(ctx, cfg, &logs)
	require.NoError(t, err)

	// act
	newSimulation(a, 1).stockUp(ctx, map[string]int{"FERN-01": 2})
	a.close()

	// assert
	assert.Contains(t, logs.String(), "metric collected")
}

func Test_LoadConfig_Applies_Flag_Overrides(t *testing.T) {
	cfg, err := loadConfig(Flags{Ticks: 3, Seed: 9, Observability: true})

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Simulation.Ticks)
	assert.Equal(t, int64(9), cfg.Simulation.Seed)
	assert.True(t, cfg.Observability.Enabled)
}
