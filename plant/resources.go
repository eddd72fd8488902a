package plant

const (
	MinLevel = 0.0
	MaxLevel = 100.0
)

// overTreatmentPenalty is the health lost when a water or insecticide dose would overflow MaxLevel.
const overTreatmentPenalty = 5.0

func clamp(v float64) float64 {
	switch {
	case v < MinLevel:
		return MinLevel
	case v > MaxLevel:
		return MaxLevel
	default:
		return v
	}
}

// Resources holds the bounded moisture, insecticide and health levels of a plant.
// Every mutation clamps to [MinLevel, MaxLevel]. Resources is not synchronized; the owning
// Plant serializes access.
type Resources struct {
	moisture    float64
	insecticide float64
	health      float64
}

// NewResources returns clamped resources.
func NewResources(moisture, insecticide, health float64) Resources {
	return Resources{moisture: clamp(moisture), insecticide: clamp(insecticide), health: clamp(health)}
}

// Moisture returns the moisture level.
func (r *Resources) Moisture() float64 { return r.moisture }

// Insecticide returns the insecticide level.
func (r *Resources) Insecticide() float64 { return r.insecticide }

// Health returns the health level.
func (r *Resources) Health() float64 { return r.health }

// AddMoisture shifts moisture by delta, clamped.
func (r *Resources) AddMoisture(delta float64) { r.moisture = clamp(r.moisture + delta) }

// AddInsecticide shifts insecticide by delta, clamped.
func (r *Resources) AddInsecticide(delta float64) { r.insecticide = clamp(r.insecticide + delta) }

// AddHealth shifts health by delta, clamped.
func (r *Resources) AddHealth(delta float64) { r.health = clamp(r.health + delta) }

// SetMoisture sets moisture, clamped.
func (r *Resources) SetMoisture(v float64) { r.moisture = clamp(v) }

// SetInsecticide sets insecticide, clamped.
func (r *Resources) SetInsecticide(v float64) { r.insecticide = clamp(v) }

// SetHealth sets health, clamped.
func (r *Resources) SetHealth(v float64) { r.health = clamp(v) }

// dose adds delta to *level; if the unclamped result would exceed MaxLevel, health pays the
// over-treatment penalty. The clamped dose is applied either way.
func (r *Resources) dose(level *float64, delta float64) {
	projected := *level + delta
	if projected > MaxLevel {
		r.AddHealth(-overTreatmentPenalty)
	}

	*level = clamp(projected)
}
