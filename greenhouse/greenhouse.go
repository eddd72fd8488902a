package greenhouse

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/AntonStoeckl/plant-nursery-go/events"
	"github.com/AntonStoeckl/plant-nursery-go/nursery"
	"github.com/AntonStoeckl/plant-nursery-go/plant"
	"github.com/AntonStoeckl/plant-nursery-go/species"
)

var ErrPlantNotFound = errors.New("plant not found")

const (
	TickDurationMetric      = "greenhouse_tick_duration_seconds"
	TransitionsMetric       = "greenhouse_transitions_total"
	PopulationMetric        = "greenhouse_population"
	ShipmentsReceivedMetric = "greenhouse_shipments_received_total"

	spanNameTick = "greenhouse.tick"

	logMsgUnknownSKU       = "shipment rejected, unknown species"
	logMsgInvalidCount     = "shipment rejected, non-positive count"
	logMsgShipmentReceived = "shipment received"
	logMsgTransition       = "plant transitioned"
	logMsgPlantRemoved     = "dead plant removed"
	logMsgPlantTakenOut    = "plant taken out"
	logMsgTickCompleted    = "tick completed"

	logAttrSKU      = "sku"
	logAttrCount    = "count"
	logAttrPlantID  = "plant_id"
	logAttrFrom     = "from"
	logAttrTo       = "to"
	logAttrChecked  = "checked"
	logAttrMatured  = "matured"
	logAttrWilted   = "wilted"
	logAttrDied     = "died"
	logAttrDuration = "duration_ms"
)

// DefaultPalette is the colour rotation used for new plants.
var DefaultPalette = []string{"green", "variegated", "red", "yellow", "purple", "white"}

// TickReport summarizes one TickAll.
type TickReport struct {
	Checked int
	Matured int
	Wilted  int
	Died    int
	Removed []string
}

// Greenhouse is safe for concurrent use.
type Greenhouse struct {
	catalog *species.Catalog
	env     *plant.Environment
	bus     *events.Bus

	mu          sync.Mutex
	plants      map[string]*plant.Plant
	order       []string
	sequences   map[string]int
	prototypes  map[string]*plant.Prototype
	palette     []string
	paletteNext int

	observability nursery.Observability
}

// Option configures a Greenhouse.
type Option func(*Greenhouse)

// WithPalette replaces the colour rotation. An empty palette is ignored.
func WithPalette(palette []string) Option {
	return func(g *Greenhouse) {
		if len(palette) > 0 {
			g.palette = append([]string(nil), palette...)
		}
	}
}

// WithLogger sets a plain logger.
func WithLogger(logger nursery.Logger) Option {
	return func(g *Greenhouse) { g.observability.Logger = logger }
}

// WithContextualLogger sets a context-aware logger.
func WithContextualLogger(logger nursery.ContextualLogger) Option {
	return func(g *Greenhouse) { g.observability.ContextualLogger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector nursery.MetricsCollector) Option {
	return func(g *Greenhouse) { g.observability.Metrics = collector }
}

// WithTracing sets the tracing collector.
func WithTracing(collector nursery.TracingCollector) Option {
	return func(g *Greenhouse) { g.observability.Tracing = collector }
}

// New creates an empty greenhouse. A nil bus gets a private one.
func New(catalog *species.Catalog, env *plant.Environment, bus *events.Bus, options ...Option) *Greenhouse {
	if catalog == nil {
		catalog = species.NewCatalog()
	}

	if env == nil {
		env = plant.NewEnvironment(nil)
	}

	if bus == nil {
		bus = events.NewBus()
	}

	g := &Greenhouse{
		catalog:    catalog,
		env:        env,
		bus:        bus,
		plants:     make(map[string]*plant.Plant),
		sequences:  make(map[string]int),
		prototypes: make(map[string]*plant.Prototype),
		palette:    DefaultPalette,
	}

	for _, option := range options {
		option(g)
	}

	return g
}

// Bus returns the bus plant and stock events are published on.
func (g *Greenhouse) Bus() *events.Bus { return g.bus }

// Environment returns the shared clock and season source.
func (g *Greenhouse) Environment() *plant.Environment { return g.env }

// Catalog returns the species catalog shipments are cloned from.
func (g *Greenhouse) Catalog() *species.Catalog { return g.catalog }

// ReceiveShipment clones count new Seedlings of sku with IDs "<sku>#<n>" and publishes one
// aggregate StockAdded event. Unknown SKUs and non-positive counts are logged and add nothing.
// It returns the IDs of the added plants.
func (g *Greenhouse) ReceiveShipment(ctx context.Context, sku string, count int) []string {
	if count <= 0 {
		g.observability.Warn(ctx, logMsgInvalidCount, logAttrSKU, sku, logAttrCount, count)
		return nil
	}

	g.mu.Lock()

	prototype, ok := g.prototypeLocked(sku)
	if !ok {
		g.mu.Unlock()
		g.observability.Error(ctx, logMsgUnknownSKU, logAttrSKU, sku, logAttrCount, count)

		return nil
	}

	added := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := g.nextIDLocked(sku)
		p := prototype.Clone(id, g.nextColourLocked())
		g.insertLocked(p)
		added = append(added, id)
	}

	population := len(g.plants)
	g.mu.Unlock()

	g.observability.Info(ctx, logMsgShipmentReceived, logAttrSKU, sku, logAttrCount, count)
	g.observability.IncrementCounter(ctx, ShipmentsReceivedMetric, map[string]string{logAttrSKU: sku})
	g.observability.RecordValue(ctx, PopulationMetric, float64(population), nil)

	g.bus.PublishStock(ctx, events.StockEvent{
		Key:        sku,
		Kind:       events.StockAdded,
		Quantity:   count,
		OccurredAt: g.env.Now(),
	})

	return added
}

func (g *Greenhouse) prototypeLocked(sku string) (*plant.Prototype, bool) {
	if prototype, ok := g.prototypes[sku]; ok {
		return prototype, true
	}

	record, ok := g.catalog.Get(sku)
	if !ok {
		return nil, false
	}

	prototype, err := plant.NewPrototype(record, g.env)
	if err != nil {
		return nil, false
	}

	g.prototypes[sku] = prototype

	return prototype, true
}

// nextIDLocked skips sequence numbers already taken by plants added through AddPlant.
func (g *Greenhouse) nextIDLocked(sku string) string {
	for {
		g.sequences[sku]++
		id := fmt.Sprintf("%s#%d", sku, g.sequences[sku])

		if _, taken := g.plants[id]; !taken {
			return id
		}
	}
}

func (g *Greenhouse) nextColourLocked() string {
	colour := g.palette[g.paletteNext%len(g.palette)]
	g.paletteNext++

	return colour
}

func (g *Greenhouse) insertLocked(p *plant.Plant) {
	g.plants[p.ID()] = p
	g.order = append(g.order, p.ID())
}

// AddPlant inserts an existing plant without publishing events.
// It returns false for a nil plant or a duplicate ID.
func (g *Greenhouse) AddPlant(p *plant.Plant) bool {
	if p == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.plants[p.ID()]; exists {
		return false
	}

	g.insertLocked(p)

	return true
}

// RemovePlant takes id out of the greenhouse and reports whether it was present.
// A PlantRemoved event is published so stock bookkeeping can drop the plant.
func (g *Greenhouse) RemovePlant(ctx context.Context, id string) bool {
	g.mu.Lock()
	p, ok := g.plants[id]
	if ok {
		g.removeLocked(id)
	}
	g.mu.Unlock()

	if !ok {
		return false
	}

	g.observability.Info(ctx, logMsgPlantTakenOut, logAttrPlantID, id)
	g.bus.PublishPlant(ctx, events.PlantEvent{
		PlantID:    id,
		SKU:        p.SKU(),
		Kind:       events.PlantRemoved,
		OccurredAt: g.env.Now(),
	})

	return true
}

func (g *Greenhouse) dropDead(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.removeLocked(id)
}

func (g *Greenhouse) removeLocked(id string) bool {
	if _, ok := g.plants[id]; !ok {
		return false
	}

	delete(g.plants, id)

	for i, candidate := range g.order {
		if candidate == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}

	return true
}

// GetPlant returns the plant with id, if present.
func (g *Greenhouse) GetPlant(id string) (*plant.Plant, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.plants[id]

	return p, ok
}

// Len returns the number of plants currently held.
func (g *Greenhouse) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.plants)
}

// CountBySKU returns how many plants of sku are held.
func (g *Greenhouse) CountBySKU(sku string) int {
	return len(g.PlantIDsBySKU(sku))
}

// PlantIDsBySKU returns the IDs of all plants of sku, sorted.
func (g *Greenhouse) PlantIDsBySKU(sku string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var ids []string
	for id, p := range g.plants {
		if p.SKU() == sku {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	return ids
}

// Water applies the plant's watering care and reports any resulting transition.
func (g *Greenhouse) Water(ctx context.Context, id string) error {
	return g.care(ctx, id, (*plant.Plant).Water)
}

// Fertilize applies the plant's fertilizing care and reports any resulting transition.
func (g *Greenhouse) Fertilize(ctx context.Context, id string) error {
	return g.care(ctx, id, (*plant.Plant).Fertilize)
}

// SprayInsecticide applies the plant's insecticide care and reports any resulting transition.
func (g *Greenhouse) SprayInsecticide(ctx context.Context, id string) error {
	return g.care(ctx, id, (*plant.Plant).SprayInsecticide)
}

// care removes a plant killed by the action right away; no iteration is in progress.
func (g *Greenhouse) care(ctx context.Context, id string, action func(*plant.Plant) plant.Transition) error {
	p, ok := g.GetPlant(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlantNotFound, id)
	}

	transition := action(p)
	if g.report(ctx, p, transition) == events.PlantDied {
		g.dropDead(id)
		g.observability.Info(ctx, logMsgPlantRemoved, logAttrPlantID, id)
	}

	return nil
}

// TickAll runs one lifecycle check on every plant of a snapshot. Dead plants are removed
// after the whole snapshot has been visited.
func (g *Greenhouse) TickAll(ctx context.Context) TickReport {
	start := time.Now()
	ctx, span := g.observability.StartSpan(ctx, spanNameTick, nil)

	var report TickReport
	var pendingRemoval []string

	for p := range g.Iterate() {
		report.Checked++

		switch g.report(ctx, p, p.Check()) {
		case events.PlantMatured:
			report.Matured++
		case events.PlantWilted:
			report.Wilted++
		case events.PlantDied:
			report.Died++
			pendingRemoval = append(pendingRemoval, p.ID())
		}
	}

	g.mu.Lock()
	for _, id := range pendingRemoval {
		if g.removeLocked(id) {
			report.Removed = append(report.Removed, id)
		}
	}
	population := len(g.plants)
	g.mu.Unlock()

	duration := time.Since(start)
	g.observability.RecordDuration(ctx, TickDurationMetric, duration, nil)
	g.observability.RecordValue(ctx, PopulationMetric, float64(population), nil)
	g.observability.Debug(ctx, logMsgTickCompleted,
		logAttrChecked, report.Checked,
		logAttrMatured, report.Matured,
		logAttrWilted, report.Wilted,
		logAttrDied, report.Died,
		logAttrDuration, nursery.ToMilliseconds(duration))
	g.observability.FinishSpan(span, "success", map[string]string{
		logAttrChecked: fmt.Sprint(report.Checked),
		logAttrDied:    fmt.Sprint(report.Died),
	})

	return report
}

// report publishes the PlantEvent matching a state change and returns its kind, or "" when
// nothing was published. Seedling to Growing has no event.
func (g *Greenhouse) report(ctx context.Context, p *plant.Plant, transition plant.Transition) events.PlantEventKind {
	if !transition.Changed() {
		return ""
	}

	var kind events.PlantEventKind

	switch transition.To {
	case plant.Mature:
		kind = events.PlantMatured
	case plant.Wilting:
		kind = events.PlantWilted
	case plant.Dead:
		kind = events.PlantDied
	default:
		return ""
	}

	g.observability.Info(ctx, logMsgTransition,
		logAttrPlantID, p.ID(),
		logAttrFrom, transition.From.Name(),
		logAttrTo, transition.To.Name())
	g.observability.IncrementCounter(ctx, TransitionsMetric, map[string]string{logAttrTo: transition.To.Name()})

	g.bus.PublishPlant(ctx, events.PlantEvent{
		PlantID:    p.ID(),
		SKU:        p.SKU(),
		Kind:       kind,
		OccurredAt: g.env.Now(),
	})

	return kind
}

// Iterate returns every plant of a snapshot taken now, in insertion order.
// The sequence can be ranged over any number of times and always yields the same snapshot.
func (g *Greenhouse) Iterate() iter.Seq[*plant.Plant] {
	return g.filtered(func(*plant.Plant) bool { return true })
}

// IterateByState yields the snapshot's plants whose state is state at the moment they are visited.
func (g *Greenhouse) IterateByState(state plant.State) iter.Seq[*plant.Plant] {
	return g.filtered(func(p *plant.Plant) bool { return p.State() == state })
}

// IterateBySKU yields the snapshot's plants of sku.
func (g *Greenhouse) IterateBySKU(sku string) iter.Seq[*plant.Plant] {
	return g.filtered(func(p *plant.Plant) bool { return p.SKU() == sku })
}

func (g *Greenhouse) filtered(keep func(*plant.Plant) bool) iter.Seq[*plant.Plant] {
	snapshot := g.snapshot()

	return func(yield func(*plant.Plant) bool) {
		for _, p := range snapshot {
			if keep(p) && !yield(p) {
				return
			}
		}
	}
}

func (g *Greenhouse) snapshot() []*plant.Plant {
	g.mu.Lock()
	defer g.mu.Unlock()

	snapshot := make([]*plant.Plant, 0, len(g.order))
	for _, id := range g.order {
		snapshot = append(snapshot, g.plants[id])
	}

	return snapshot
}
