package plant

import (
	"github.com/AntonStoeckl/plant-nursery-go/species"
)

// CareStrategy applies biome-specific care to a plant's resources.
// A nil species record turns every operation into a no-op.
type CareStrategy interface {
	Biome() species.Biome
	Water(record *species.Record, r *Resources)
	Fertilize(record *species.Record, r *Resources)
	SprayInsecticide(record *species.Record, r *Resources)
}

type careProfile struct {
	biome species.Biome

	waterBase              float64
	waterScale             float64
	invertWaterSensitivity bool

	fertilizeThreshold float64
	fertilizeBase      float64
	fertilizeScale     float64

	sprayBase  float64
	sprayScale float64
}

// Biome returns the biome this profile cares for.
func (c careProfile) Biome() species.Biome {
	return c.biome
}

// Water raises moisture by the biome dose scaled by the species water sensitivity.
func (c careProfile) Water(record *species.Record, r *Resources) {
	if record == nil || r == nil {
		return
	}

	sensitivity := record.WaterSensitivity
	if c.invertWaterSensitivity {
		sensitivity = 1 - sensitivity
	}

	r.dose(&r.moisture, c.waterBase+sensitivity*c.waterScale)
}

// Fertilize boosts health only while it is below the threshold. It never lowers health.
func (c careProfile) Fertilize(record *species.Record, r *Resources) {
	if record == nil || r == nil {
		return
	}

	if r.health >= c.fertilizeThreshold {
		return
	}

	boost := c.fertilizeBase + record.GrowthRate*c.fertilizeScale
	if boost > 0 {
		r.AddHealth(boost)
	}
}

// SprayInsecticide raises insecticide by the biome dose scaled by the species tolerance.
func (c careProfile) SprayInsecticide(record *species.Record, r *Resources) {
	if record == nil || r == nil {
		return
	}

	r.dose(&r.insecticide, c.sprayBase+record.InsecticideTolerance*c.sprayScale)
}

// DesertCare waters less the more water-sensitive the species is.
type DesertCare struct{ careProfile }

// TropicalCare waters and sprays generously.
type TropicalCare struct{ careProfile }

// IndoorCare applies moderate doses.
type IndoorCare struct{ careProfile }

// MediterraneanCare waters sparingly and sprays moderately.
type MediterraneanCare struct{ careProfile }

// WetlandCare applies the largest doses.
type WetlandCare struct{ careProfile }

// NewDesertCare returns the care strategy for Desert species.
func NewDesertCare() DesertCare {
	return DesertCare{careProfile{
		biome:     species.Desert,
		waterBase: 10, waterScale: 10, invertWaterSensitivity: true,
		fertilizeThreshold: 60, fertilizeBase: 3, fertilizeScale: 4,
		sprayBase: 12, sprayScale: 8,
	}}
}

// NewTropicalCare returns the care strategy for Tropical species.
func NewTropicalCare() TropicalCare {
	return TropicalCare{careProfile{
		biome:     species.Tropical,
		waterBase: 20, waterScale: 10,
		fertilizeThreshold: 60, fertilizeBase: 8, fertilizeScale: 5,
		sprayBase: 20, sprayScale: 10,
	}}
}

// NewIndoorCare returns the care strategy for Indoor species.
func NewIndoorCare() IndoorCare {
	return IndoorCare{careProfile{
		biome:     species.Indoor,
		waterBase: 18, waterScale: 7,
		fertilizeThreshold: 60, fertilizeBase: 5, fertilizeScale: 4,
		sprayBase: 12, sprayScale: 6,
	}}
}

// NewMediterraneanCare returns the care strategy for Mediterranean species.
func NewMediterraneanCare() MediterraneanCare {
	return MediterraneanCare{careProfile{
		biome:     species.Mediterranean,
		waterBase: 15, waterScale: 8,
		fertilizeThreshold: 60, fertilizeBase: 6, fertilizeScale: 4,
		sprayBase: 16, sprayScale: 8,
	}}
}

// NewWetlandCare returns the care strategy for Wetland species.
func NewWetlandCare() WetlandCare {
	return WetlandCare{careProfile{
		biome:     species.Wetland,
		waterBase: 25, waterScale: 12,
		fertilizeThreshold: 60, fertilizeBase: 10, fertilizeScale: 6,
		sprayBase: 25, sprayScale: 10,
	}}
}

// StrategyFor returns the care strategy of a biome, or nil for an unknown biome.
func StrategyFor(biome species.Biome) CareStrategy {
	switch biome {
	case species.Desert:
		return NewDesertCare()
	case species.Tropical:
		return NewTropicalCare()
	case species.Indoor:
		return NewIndoorCare()
	case species.Mediterranean:
		return NewMediterraneanCare()
	case species.Wetland:
		return NewWetlandCare()
	default:
		return nil
	}
}
