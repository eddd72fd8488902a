package greenhouse_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/plant-nursery-go/events"
	"github.com/AntonStoeckl/plant-nursery-go/greenhouse"
	"github.com/AntonStoeckl/plant-nursery-go/inventory"
	"github.com/AntonStoeckl/plant-nursery-go/nursery"
	"github.com/AntonStoeckl/plant-nursery-go/plant"
	"github.com/AntonStoeckl/plant-nursery-go/species"
	"github.com/AntonStoeckl/plant-nursery-go/testutil/observability/testdoubles"
)

type eventLog struct {
	plant []events.PlantEvent
	stock []events.StockEvent
}

func (l *eventLog) OnPlantEvent(_ context.Context, e events.PlantEvent) { l.plant = append(l.plant, e) }
func (l *eventLog) OnStockEvent(_ context.Context, e events.StockEvent) { l.stock = append(l.stock, e) }

type fixture struct {
	greenhouse *greenhouse.Greenhouse
	env        *plant.Environment
	clock      *nursery.ManualClock
	log        *eventLog
	logger     *testdoubles.ContextualLoggerSpy
	metrics    *testdoubles.MetricsCollectorSpy
	tracing    *testdoubles.TracingCollectorSpy
	fern       *species.Record
}

func newFixture(t *testing.T, options ...greenhouse.Option) fixture {
	t.Helper()

	catalog := species.NewCatalog()
	fern := catalog.Add(species.Record{
		SKU:                  "FERN-01",
		Biome:                species.Indoor,
		WaterSensitivity:     1,
		InsecticideTolerance: 1,
		GrowthRate:           1,
		ThrivingSeason:       species.Spring,
	})
	catalog.Add(species.Record{SKU: "CACT-01", Biome: species.Desert, GrowthRate: 1, ThrivingSeason: species.Summer})

	clock := nursery.NewManualClock(time.Unix(0, 0).UTC())
	env := plant.NewEnvironment(clock)
	bus := events.NewBus()
	log := &eventLog{}
	bus.Subscribe(log)

	f := fixture{
		env:     env,
		clock:   clock,
		log:     log,
		logger:  testdoubles.NewContextualLoggerSpy(),
		metrics: testdoubles.NewMetricsCollectorSpy(),
		tracing: testdoubles.NewTracingCollectorSpy(),
		fern:    fern,
	}

	options = append([]greenhouse.Option{
		greenhouse.WithContextualLogger(f.logger),
		greenhouse.WithMetrics(f.metrics),
		greenhouse.WithTracing(f.tracing),
	}, options...)
	f.greenhouse = greenhouse.New(catalog, env, bus, options...)

	return f
}

func (f fixture) addPlant(t *testing.T, id string, state plant.State, moisture, insecticide, health float64) *plant.Plant {
	t.Helper()

	p := plant.New(id, "green", f.fern, f.env,
		plant.WithState(state),
		plant.WithResources(moisture, insecticide, health))
	require.True(t, f.greenhouse.AddPlant(p))

	return p
}

func Test_ReceiveShipment_AddsSequentialPlantsAndOneStockEvent(t *testing.T) {
	// arrange
	f := newFixture(t, greenhouse.WithPalette([]string{"red", "blue"}))
	ctx := context.Background()

	// act
	first := f.greenhouse.ReceiveShipment(ctx, "FERN-01", 3)
	second := f.greenhouse.ReceiveShipment(ctx, "FERN-01", 1)

	// assert
	assert.Equal(t, []string{"FERN-01#1", "FERN-01#2", "FERN-01#3"}, first)
	assert.Equal(t, []string{"FERN-01#4"}, second)
	assert.Equal(t, 4, f.greenhouse.CountBySKU("FERN-01"))

	var colours []string
	for _, id := range append(first, second...) {
		p, ok := f.greenhouse.GetPlant(id)
		require.True(t, ok)
		assert.Equal(t, plant.Seedling, p.State())
		assert.Same(t, f.fern, p.Species())
		colours = append(colours, p.Colour())
	}
	assert.Equal(t, []string{"red", "blue", "red", "blue"}, colours)

	require.Len(t, f.log.stock, 2)
	assert.Equal(t, events.StockAdded, f.log.stock[0].Kind)
	assert.Equal(t, "FERN-01", f.log.stock[0].Key)
	assert.Equal(t, 3, f.log.stock[0].Quantity)
	assert.Empty(t, f.log.plant)
}

func Test_ReceiveShipment_UnknownSKUAddsNothing(t *testing.T) {
	f := newFixture(t)

	added := f.greenhouse.ReceiveShipment(context.Background(), "NOPE-99", 5)

	assert.Nil(t, added)
	assert.Zero(t, f.greenhouse.Len())
	assert.Empty(t, f.log.stock)
	assert.True(t, f.logger.HasErrorLog("shipment rejected, unknown species"))
}

func Test_ReceiveShipment_NonPositiveCountAddsNothing(t *testing.T) {
	f := newFixture(t)

	assert.Nil(t, f.greenhouse.ReceiveShipment(context.Background(), "FERN-01", 0))
	assert.Empty(t, f.log.stock)
	assert.True(t, f.logger.HasWarnLog("shipment rejected, non-positive count"))
}

func Test_ReceiveShipment_SkipsIDsTakenByAddPlant(t *testing.T) {
	f := newFixture(t)
	f.addPlant(t, "FERN-01#1", plant.Seedling, 50, 50, 50)

	added := f.greenhouse.ReceiveShipment(context.Background(), "FERN-01", 1)

	assert.Equal(t, []string{"FERN-01#2"}, added)
}

func Test_AddPlant_RejectsDuplicatesAndNil(t *testing.T) {
	f := newFixture(t)
	f.addPlant(t, "FERN-01#1", plant.Seedling, 50, 50, 50)

	assert.False(t, f.greenhouse.AddPlant(plant.New("FERN-01#1", "", f.fern, f.env)))
	assert.False(t, f.greenhouse.AddPlant(nil))
	assert.Equal(t, 1, f.greenhouse.Len())
	assert.Empty(t, f.log.stock, "AddPlant publishes nothing")
}

func Test_RemovePlant_PublishesRemovedOnce(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.addPlant(t, "FERN-01#1", plant.Mature, 50, 50, 50)
	ctx := context.Background()

	// act
	first := f.greenhouse.RemovePlant(ctx, "FERN-01#1")
	second := f.greenhouse.RemovePlant(ctx, "FERN-01#1")

	// assert
	assert.True(t, first)
	assert.False(t, second)
	_, ok := f.greenhouse.GetPlant("FERN-01#1")
	assert.False(t, ok)

	require.Len(t, f.log.plant, 1)
	assert.Equal(t, events.PlantEvent{
		PlantID:    "FERN-01#1",
		SKU:        "FERN-01",
		Kind:       events.PlantRemoved,
		OccurredAt: f.clock.Now(),
	}, f.log.plant[0])
	assert.True(t, f.logger.HasInfoLog("plant taken out"))
}

func Test_RemovePlant_WithdrawsPlantFromInventory(t *testing.T) {
	// arrange
	f := newFixture(t)
	inv := inventory.NewService()
	f.greenhouse.Bus().Subscribe(inv)
	ctx := context.Background()

	f.greenhouse.ReceiveShipment(ctx, "FERN-01", 2)
	f.clock.Advance(20 * f.env.DayDuration())
	f.greenhouse.TickAll(ctx)
	report := f.greenhouse.TickAll(ctx)
	require.Equal(t, 2, report.Matured)
	require.Equal(t, 2, inv.AvailableCount("FERN-01"))

	// act
	f.greenhouse.RemovePlant(ctx, "FERN-01#1")

	// assert
	assert.Equal(t, []string{"FERN-01#2"}, inv.ListAvailablePlants())
	_, known := inv.Status("FERN-01#1")
	assert.False(t, known)
	assert.NoError(t, inv.CheckInvariants())
}

func Test_TickAll_PublishesTransitionsAndDefersRemoval(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.addPlant(t, "FERN-01#1", plant.Growing, 10, 10, 5)  // dies
	f.addPlant(t, "FERN-01#2", plant.Mature, 10, 10, 52)  // wilts
	f.addPlant(t, "FERN-01#3", plant.Wilting, 90, 90, 58) // recovers
	f.addPlant(t, "FERN-01#4", plant.Mature, 80, 80, 80)  // unchanged

	// act
	report := f.greenhouse.TickAll(context.Background())

	// assert
	assert.Equal(t, greenhouse.TickReport{
		Checked: 4,
		Matured: 1,
		Wilted:  1,
		Died:    1,
		Removed: []string{"FERN-01#1"},
	}, report)

	require.Len(t, f.log.plant, 3)
	assert.Equal(t, events.PlantEvent{PlantID: "FERN-01#1", SKU: "FERN-01", Kind: events.PlantDied, OccurredAt: f.clock.Now()}, f.log.plant[0])
	assert.Equal(t, events.PlantWilted, f.log.plant[1].Kind)
	assert.Equal(t, "FERN-01#2", f.log.plant[1].PlantID)
	assert.Equal(t, events.PlantMatured, f.log.plant[2].Kind)
	assert.Equal(t, "FERN-01#3", f.log.plant[2].PlantID)

	assert.Equal(t, 3, f.greenhouse.Len())
	_, ok := f.greenhouse.GetPlant("FERN-01#1")
	assert.False(t, ok)

	spans := f.tracing.Spans("greenhouse.tick")
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Finished)
	assert.Len(t, f.metrics.Records(greenhouse.TickDurationMetric), 1)
	assert.Equal(t, 1, f.metrics.CounterTotal(greenhouse.TransitionsMetric, map[string]string{"to": "Dead"}))
}

func Test_TickAll_ObserverSeesDyingPlantBeforeRemoval(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.addPlant(t, "FERN-01#1", plant.Growing, 10, 10, 5)
	f.addPlant(t, "FERN-01#2", plant.Mature, 80, 80, 80)

	var stillPresent bool
	f.greenhouse.Bus().Subscribe(events.PlantObserverFunc(func(_ context.Context, e events.PlantEvent) {
		_, stillPresent = f.greenhouse.GetPlant(e.PlantID)
	}))

	// act
	report := f.greenhouse.TickAll(context.Background())

	// assert
	assert.True(t, stillPresent)
	assert.Equal(t, 2, report.Checked)
}

func Test_TickAll_FansOutMaturedToEveryObserverInRegistrationOrder(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.addPlant(t, "FERN-01#1", plant.Wilting, 90, 90, 58)
	f.addPlant(t, "FERN-01#2", plant.Mature, 80, 80, 80)

	var trail []string
	observer := func(name string) events.PlantObserverFunc {
		return func(_ context.Context, e events.PlantEvent) {
			trail = append(trail, name+" "+e.PlantID+" "+string(e.Kind))
		}
	}
	f.greenhouse.Bus().Subscribe(observer("first"))
	f.greenhouse.Bus().Subscribe(observer("second"))

	// act
	report := f.greenhouse.TickAll(context.Background())

	// assert
	assert.Equal(t, 1, report.Matured)
	assert.Equal(t, []string{
		"first FERN-01#1 Matured",
		"second FERN-01#1 Matured",
	}, trail)
}

func Test_TickAll_SeedlingToGrowingPublishesNothing(t *testing.T) {
	f := newFixture(t)
	f.addPlant(t, "FERN-01#1", plant.Seedling, 80, 80, 90)
	f.clock.Advance(10 * f.env.DayDuration())

	f.greenhouse.TickAll(context.Background())

	p, _ := f.greenhouse.GetPlant("FERN-01#1")
	assert.Equal(t, plant.Growing, p.State())
	assert.Empty(t, f.log.plant)
}

func Test_Care_ReportsTransitions(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.addPlant(t, "FERN-01#1", plant.Wilting, 50, 90, 58)
	ctx := context.Background()

	// act
	err := f.greenhouse.Water(ctx, "FERN-01#1")

	// assert
	require.NoError(t, err)
	require.Len(t, f.log.plant, 1)
	assert.Equal(t, events.PlantMatured, f.log.plant[0].Kind)
}

func Test_Care_DeathRemovesPlantImmediately(t *testing.T) {
	f := newFixture(t)
	f.addPlant(t, "FERN-01#1", plant.Mature, 99, 50, 5)

	require.NoError(t, f.greenhouse.Water(context.Background(), "FERN-01#1"))

	require.Len(t, f.log.plant, 1)
	assert.Equal(t, events.PlantDied, f.log.plant[0].Kind)
	assert.Zero(t, f.greenhouse.Len())
}

func Test_Care_UnknownPlant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.greenhouse.Water(ctx, "nope"), greenhouse.ErrPlantNotFound)
	assert.ErrorIs(t, f.greenhouse.Fertilize(ctx, "nope"), greenhouse.ErrPlantNotFound)
	assert.ErrorIs(t, f.greenhouse.SprayInsecticide(ctx, "nope"), greenhouse.ErrPlantNotFound)
}

func ids(seq func(func(*plant.Plant) bool)) []string {
	var out []string
	for p := range seq {
		out = append(out, p.ID())
	}

	return out
}

func Test_Iterate_IsARestartableSnapshot(t *testing.T) {
	// arrange
	f := newFixture(t)
	f.greenhouse.ReceiveShipment(context.Background(), "FERN-01", 2)
	seq := f.greenhouse.Iterate()

	// act
	f.greenhouse.ReceiveShipment(context.Background(), "CACT-01", 1)
	f.greenhouse.RemovePlant(context.Background(), "FERN-01#1")

	// assert
	assert.Equal(t, []string{"FERN-01#1", "FERN-01#2"}, ids(seq))
	assert.Equal(t, []string{"FERN-01#1", "FERN-01#2"}, ids(seq), "second pass replays the snapshot")
	assert.Equal(t, []string{"FERN-01#2", "CACT-01#1"}, ids(f.greenhouse.Iterate()))
}

func Test_IterateBySKUAndState(t *testing.T) {
	f := newFixture(t)
	f.greenhouse.ReceiveShipment(context.Background(), "FERN-01", 2)
	f.greenhouse.ReceiveShipment(context.Background(), "CACT-01", 1)
	f.addPlant(t, "FERN-01#9", plant.Mature, 80, 80, 80)

	assert.Equal(t, []string{"CACT-01#1"}, ids(f.greenhouse.IterateBySKU("CACT-01")))
	assert.Equal(t, []string{"FERN-01#9"}, ids(f.greenhouse.IterateByState(plant.Mature)))
	assert.Len(t, ids(f.greenhouse.IterateByState(plant.Seedling)), 3)
	assert.Empty(t, ids(f.greenhouse.IterateByState(plant.Dead)))
	assert.Empty(t, ids(f.greenhouse.IterateBySKU("NOPE")))
}

func Test_Iterate_StopsEarly(t *testing.T) {
	f := newFixture(t)
	f.greenhouse.ReceiveShipment(context.Background(), "FERN-01", 5)

	visited := 0
	for range f.greenhouse.Iterate() {
		visited++
		if visited == 2 {
			break
		}
	}

	assert.Equal(t, 2, visited)
	assert.True(t, slices.IsSorted(f.greenhouse.PlantIDsBySKU("FERN-01")))
}
