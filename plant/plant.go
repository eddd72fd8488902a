package plant

import (
	"errors"
	"sync"
	"time"

	"github.com/AntonStoeckl/plant-nursery-go/species"
)

var ErrNilSpecies = errors.New("species record must not be nil")

// Transition reports the state of a plant before and after an operation.
type Transition struct {
	From State
	To   State
}

// Changed reports whether the state moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Plant is a single living plant. All methods are safe for concurrent use.
type Plant struct {
	id        string
	colour    string
	species   *species.Record
	care      CareStrategy
	env       *Environment
	createdAt time.Time

	mu        sync.Mutex
	state     State
	resources Resources
}

// Option configures a Plant at construction.
type Option func(*Plant)

// WithState sets the initial lifecycle state.
func WithState(state State) Option {
	return func(p *Plant) {
		if state != nil {
			p.state = state
		}
	}
}

// WithResources sets the initial resource levels, clamped.
func WithResources(moisture, insecticide, health float64) Option {
	return func(p *Plant) {
		p.resources = NewResources(moisture, insecticide, health)
	}
}

// WithCreatedAt overrides the creation timestamp used for ageing.
func WithCreatedAt(t time.Time) Option {
	return func(p *Plant) {
		p.createdAt = t
	}
}

// WithCareStrategy overrides the strategy derived from the species' biome.
func WithCareStrategy(care CareStrategy) Option {
	return func(p *Plant) {
		p.care = care
	}
}

// New creates a Seedling with moisture 0, insecticide 100 and health 100.
// The record is referenced, never copied.
func New(id, colour string, record *species.Record, env *Environment, options ...Option) *Plant {
	if env == nil {
		env = NewEnvironment(nil)
	}

	p := &Plant{
		id:        id,
		colour:    colour,
		species:   record,
		env:       env,
		createdAt: env.Now(),
		state:     Seedling,
		resources: NewResources(MinLevel, MaxLevel, MaxLevel),
	}

	if record != nil {
		p.care = StrategyFor(record.Biome)
	}

	for _, option := range options {
		option(p)
	}

	if p.resources.health <= MinLevel {
		p.state = Dead
	}

	return p
}

// ID returns the plant ID, "<SKU>#<n>" for shipped plants.
func (p *Plant) ID() string { return p.id }

// Colour returns the colour assigned at creation.
func (p *Plant) Colour() string { return p.colour }

// Species returns the species record, possibly nil.
func (p *Plant) Species() *species.Record { return p.species }

// CareStrategy returns the strategy derived from the species biome.
func (p *Plant) CareStrategy() CareStrategy { return p.care }

// CreatedAt returns the simulated creation time.
func (p *Plant) CreatedAt() time.Time { return p.createdAt }

// SKU returns the species SKU, or "" for a plant without species.
func (p *Plant) SKU() string {
	if p.species == nil {
		return ""
	}

	return p.species.SKU
}

// State returns the current lifecycle state.
func (p *Plant) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Moisture returns the current moisture level.
func (p *Plant) Moisture() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.resources.moisture
}

// Insecticide returns the current insecticide level.
func (p *Plant) Insecticide() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.resources.insecticide
}

// Health returns the current health level.
func (p *Plant) Health() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.resources.health
}

// AgeDays returns the simulated age in days.
func (p *Plant) AgeDays() float64 {
	return p.ageDays()
}

// SetMoisture sets moisture, clamped. It has no effect on a dead plant.
func (p *Plant) SetMoisture(v float64) {
	p.mutate(func(r *Resources) { r.SetMoisture(v) })
}

// SetInsecticide sets insecticide, clamped. It has no effect on a dead plant.
func (p *Plant) SetInsecticide(v float64) {
	p.mutate(func(r *Resources) { r.SetInsecticide(v) })
}

// SetHealth sets health, clamped. Health 0 kills the plant.
func (p *Plant) SetHealth(v float64) {
	p.mutate(func(r *Resources) { r.SetHealth(v) })
}

func (p *Plant) mutate(change func(r *Resources)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.IsTerminal() {
		return
	}

	change(&p.resources)
	p.enforceDeath()
}

// Water applies the care strategy watering and runs one lifecycle check.
func (p *Plant) Water() Transition {
	return p.applyCare(func(c CareStrategy) { c.Water(p.species, &p.resources) })
}

// Fertilize applies the care strategy fertilizing and runs one lifecycle check.
func (p *Plant) Fertilize() Transition {
	return p.applyCare(func(c CareStrategy) { c.Fertilize(p.species, &p.resources) })
}

// SprayInsecticide applies the care strategy spraying and runs one lifecycle check.
func (p *Plant) SprayInsecticide() Transition {
	return p.applyCare(func(c CareStrategy) { c.SprayInsecticide(p.species, &p.resources) })
}

// applyCare runs the strategy action and one lifecycle check under the plant's lock.
func (p *Plant) applyCare(action func(CareStrategy)) Transition {
	p.mu.Lock()
	defer p.mu.Unlock()

	from := p.state
	if from.IsTerminal() {
		return Transition{From: from, To: from}
	}

	if p.care != nil {
		action(p.care)
	}

	p.enforceDeath()

	return Transition{From: from, To: p.checkLocked().To}
}

// Check runs one lifecycle evaluation.
func (p *Plant) Check() Transition {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.checkLocked()
}

func (p *Plant) checkLocked() Transition {
	from := p.state
	if from.IsTerminal() {
		return Transition{From: from, To: from}
	}

	p.state = from.evaluate(p)
	p.enforceDeath()

	return Transition{From: from, To: p.state}
}

func (p *Plant) enforceDeath() {
	if p.resources.health <= MinLevel {
		p.state = Dead
	}
}

func (p *Plant) ageDays() float64 {
	return p.env.Days(p.env.Now().Sub(p.createdAt))
}

func (p *Plant) growthRate() float64 {
	if p.species == nil {
		return defaultGrowthRate
	}

	return p.species.GrowthRate
}

func (p *Plant) seasonFactor() float64 {
	if p.species != nil && p.env.Season() == p.species.ThrivingSeason {
		return thrivingSeasonFactor
	}

	return nonThrivingSeasonFactor
}

// Snapshot is a point-in-time copy of a plant's observable data.
type Snapshot struct {
	ID          string
	SKU         string
	Colour      string
	State       State
	Moisture    float64
	Insecticide float64
	Health      float64
	AgeDays     float64
}

// Snapshot copies the observable data under the plant lock.
func (p *Plant) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		ID:          p.id,
		SKU:         p.SKU(),
		Colour:      p.colour,
		State:       p.state,
		Moisture:    p.resources.moisture,
		Insecticide: p.resources.insecticide,
		Health:      p.resources.health,
		AgeDays:     p.ageDays(),
	}
}

// Prototype clones fresh plants of one species.
type Prototype struct {
	record *species.Record
	env    *Environment
}

// NewPrototype returns a prototype for record.
func NewPrototype(record *species.Record, env *Environment) (*Prototype, error) {
	if record == nil {
		return nil, ErrNilSpecies
	}

	return &Prototype{record: record, env: env}, nil
}

// SKU returns the SKU of the prototype species.
func (pt *Prototype) SKU() string {
	return pt.record.SKU
}

// Clone returns a new Seedling with the given ID and colour, moisture 0, insecticide 100,
// health 100 and age 0.
func (pt *Prototype) Clone(id, colour string) *Plant {
	return New(id, colour, pt.record, pt.env)
}
