package inventory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/AntonStoeckl/plant-nursery-go/events"
	"github.com/AntonStoeckl/plant-nursery-go/inventory"
	"github.com/AntonStoeckl/plant-nursery-go/testutil/observability/testdoubles"
)

func plantEvent(id string, kind events.PlantEventKind) events.PlantEvent {
	return events.PlantEvent{PlantID: id, SKU: "FERN-01", Kind: kind}
}

func assertStatus(t *testing.T, s *inventory.Service, id string, expected inventory.Status) {
	t.Helper()

	status, ok := s.Status(id)
	require.True(t, ok, "unknown plant %s", id)
	assert.Equal(t, expected, status)
}

func Test_ReserveAndRelease_RoundTrip(t *testing.T) {
	// arrange
	s := inventory.NewService()
	require.True(t, s.AddPlant("FERN-01#1", "FERN-01"))

	// act
	reserved := s.ReservePlant("FERN-01#1")
	countsWhileReserved := [2]int{s.AvailableCount("FERN-01"), s.ReservedCount("FERN-01")}
	released := s.ReleasePlantFromOrder("FERN-01#1")

	// assert
	assert.True(t, reserved)
	assert.True(t, released)
	assert.Equal(t, [2]int{0, 1}, countsWhileReserved)
	assert.Equal(t, 1, s.AvailableCount("FERN-01"))
	assert.Equal(t, 0, s.ReservedCount("FERN-01"))
	assertStatus(t, s, "FERN-01#1", inventory.Available)
	require.NoError(t, s.CheckInvariants())
}

func Test_ReservePlant_Twice(t *testing.T) {
	s := inventory.NewService()
	s.AddPlant("FERN-01#1", "FERN-01")

	assert.True(t, s.ReservePlant("FERN-01#1"))
	assert.False(t, s.ReservePlant("FERN-01#1"))
	assert.Equal(t, 1, s.ReservedCount("FERN-01"))
}

func Test_IllegalTransitions(t *testing.T) {
	logger := testdoubles.NewContextualLoggerSpy()
	s := inventory.NewService(inventory.WithContextualLogger(logger))
	s.AddPlant("FERN-01#1", "FERN-01")

	assert.False(t, s.AddPlant("FERN-01#1", "FERN-01"), "duplicate add")
	assert.False(t, s.ReleasePlantFromOrder("FERN-01#1"), "release while available")
	assert.False(t, s.ReservePlant("unknown"))
	assert.False(t, s.MarkSold("unknown"))

	require.True(t, s.MarkSold("FERN-01#1"))
	assert.False(t, s.ReservePlant("FERN-01#1"), "reserve after sale")
	assert.False(t, s.MarkSold("FERN-01#1"), "sell twice")
	assert.True(t, logger.Has("debug", "inventory transition rejected"))
}

func Test_MarkSold_FromReserved(t *testing.T) {
	s := inventory.NewService()
	s.AddPlant("FERN-01#1", "FERN-01")
	s.ReservePlant("FERN-01#1")

	assert.True(t, s.MarkSold("FERN-01#1"))
	assert.Equal(t, 1, s.SoldCount("FERN-01"))
	assert.Equal(t, 0, s.ReservedCount("FERN-01"))
}

func Test_ReserveAnyAvailable_PicksSmallestID(t *testing.T) {
	s := inventory.NewService()
	s.AddPlant("FERN-01#2", "FERN-01")
	s.AddPlant("FERN-01#1", "FERN-01")

	first, ok1 := s.ReserveAnyAvailable("FERN-01")
	second, ok2 := s.ReserveAnyAvailable("FERN-01")
	_, ok3 := s.ReserveAnyAvailable("FERN-01")

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.False(t, ok3)
	assert.Equal(t, "FERN-01#1", first)
	assert.Equal(t, "FERN-01#2", second)
}

func Test_ListAvailablePlants_Sorted(t *testing.T) {
	s := inventory.NewService()
	s.AddPlant("LAVD-01#1", "LAVD-01")
	s.AddPlant("CACT-01#1", "CACT-01")
	s.AddPlant("CACT-01#2", "CACT-01")
	s.ReservePlant("CACT-01#2")

	assert.Equal(t, []string{"CACT-01#1", "LAVD-01#1"}, s.ListAvailablePlants())
}

func Test_OnPlantEvent_Lifecycle(t *testing.T) {
	// arrange
	ctx := context.Background()
	s := inventory.NewService()

	// act + assert
	s.OnPlantEvent(ctx, plantEvent("FERN-01#1", events.PlantMatured))
	assertStatus(t, s, "FERN-01#1", inventory.Available)
	assert.Equal(t, 1, s.AvailableCount("FERN-01"))

	s.OnPlantEvent(ctx, plantEvent("FERN-01#1", events.PlantWilted))
	assertStatus(t, s, "FERN-01#1", inventory.Wilted)
	assert.Equal(t, 0, s.AvailableCount("FERN-01"))

	s.OnPlantEvent(ctx, plantEvent("FERN-01#1", events.PlantMatured))
	assertStatus(t, s, "FERN-01#1", inventory.Available)

	s.OnPlantEvent(ctx, plantEvent("FERN-01#1", events.PlantDied))
	assertStatus(t, s, "FERN-01#1", inventory.Dead)
	assert.Empty(t, s.ListAvailablePlants())

	s.OnPlantEvent(ctx, plantEvent("FERN-01#1", events.PlantMatured))
	assertStatus(t, s, "FERN-01#1", inventory.Dead)
	require.NoError(t, s.CheckInvariants())
}

func Test_OnPlantEvent_KeepsReservedAndSold(t *testing.T) {
	ctx := context.Background()
	s := inventory.NewService()
	s.AddPlant("FERN-01#1", "FERN-01")
	s.AddPlant("FERN-01#2", "FERN-01")
	s.ReservePlant("FERN-01#1")
	s.MarkSold("FERN-01#2")

	for _, kind := range []events.PlantEventKind{events.PlantWilted, events.PlantMatured} {
		s.OnPlantEvent(ctx, plantEvent("FERN-01#1", kind))
		s.OnPlantEvent(ctx, plantEvent("FERN-01#2", kind))
	}

	assertStatus(t, s, "FERN-01#1", inventory.Reserved)
	assertStatus(t, s, "FERN-01#2", inventory.Sold)
	require.NoError(t, s.CheckInvariants())
}

func Test_OnPlantEvent_DiedPurgesReservation(t *testing.T) {
	s := inventory.NewService()
	s.AddPlant("FERN-01#1", "FERN-01")
	s.ReservePlant("FERN-01#1")

	s.OnPlantEvent(context.Background(), plantEvent("FERN-01#1", events.PlantDied))
	s.OnPlantEvent(context.Background(), plantEvent("FERN-01#9", events.PlantDied))

	assert.Equal(t, 0, s.ReservedCount("FERN-01"))
	assertStatus(t, s, "FERN-01#1", inventory.Dead)
	assertStatus(t, s, "FERN-01#9", inventory.Dead)
	assert.False(t, s.ReleasePlantFromOrder("FERN-01#1"))
	require.NoError(t, s.CheckInvariants())
}

func Test_OnPlantEvent_RemovedForgetsUnsoldPlants(t *testing.T) {
	// arrange
	ctx := context.Background()
	metrics := testdoubles.NewMetricsCollectorSpy()
	s := inventory.NewService(inventory.WithMetrics(metrics))
	for _, id := range []string{"FERN-01#1", "FERN-01#2", "FERN-01#3", "FERN-01#4"} {
		s.AddPlant(id, "FERN-01")
	}
	s.ReservePlant("FERN-01#2")
	s.MarkSold("FERN-01#3")
	s.OnPlantEvent(ctx, plantEvent("FERN-01#4", events.PlantWilted))

	// act
	for _, id := range []string{"FERN-01#1", "FERN-01#2", "FERN-01#3", "FERN-01#4", "FERN-01#9"} {
		s.OnPlantEvent(ctx, plantEvent(id, events.PlantRemoved))
	}

	// assert
	assert.Zero(t, s.AvailableCount("FERN-01"))
	assert.Zero(t, s.ReservedCount("FERN-01"))
	assert.Equal(t, 1, s.SoldCount("FERN-01"))
	assertStatus(t, s, "FERN-01#3", inventory.Sold)

	for _, id := range []string{"FERN-01#1", "FERN-01#2", "FERN-01#4", "FERN-01#9"} {
		_, known := s.Status(id)
		assert.False(t, known, id)
	}

	assert.False(t, s.MarkSold("FERN-01#1"))
	assert.Equal(t, 3, metrics.CounterTotal(inventory.TransitionsMetric, map[string]string{"to": "Removed"}))
	require.NoError(t, s.CheckInvariants())
}

func Test_OnPlantEvent_ViaBus(t *testing.T) {
	bus := events.NewBus()
	s := inventory.NewService()
	_, ok := bus.Subscribe(s)
	require.True(t, ok)

	bus.Publish(context.Background(), plantEvent("FERN-01#1", events.PlantMatured))

	assertStatus(t, s, "FERN-01#1", inventory.Available)
}

func Test_Sets_StayDisjoint_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		s := inventory.NewService()
		ids := make([]string, rapid.IntRange(1, 6).Draw(rt, "plants"))
		for i := range ids {
			ids[i] = fmt.Sprintf("FERN-01#%d", i+1)
		}

		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(rt, "id")

			switch rapid.IntRange(0, 9).Draw(rt, "op") {
			case 0:
				s.AddPlant(id, "FERN-01")
			case 1:
				s.ReservePlant(id)
			case 2:
				s.ReleasePlantFromOrder(id)
			case 3:
				s.MarkSold(id)
			case 4:
				s.ReserveAnyAvailable("FERN-01")
			case 5:
				s.OnPlantEvent(ctx, plantEvent(id, events.PlantMatured))
			case 6:
				s.OnPlantEvent(ctx, plantEvent(id, events.PlantWilted))
			case 7:
				s.OnPlantEvent(ctx, plantEvent(id, events.PlantDied))
			case 9:
				s.OnPlantEvent(ctx, plantEvent(id, events.PlantRemoved))
			case 8:
				before, known := s.Status(id)
				if s.ReservePlant(id) {
					if !s.ReleasePlantFromOrder(id) {
						rt.Fatalf("release after reserve failed for %s", id)
					}
					if after, _ := s.Status(id); !known || before != after {
						rt.Fatalf("reserve/release changed %s from %s to %s", id, before, after)
					}
				}
			}

			if err := s.CheckInvariants(); err != nil {
				rt.Fatal(err)
			}

			total := s.AvailableCount("FERN-01") + s.ReservedCount("FERN-01") + s.SoldCount("FERN-01")
			if total > len(ids) {
				rt.Fatalf("more indexed plants than exist: %d", total)
			}
		}
	})
}
