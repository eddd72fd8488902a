package plant

// State is a lifecycle stage. The five stages are stateless singletons and compare by identity:
//
//	if p.State() == plant.Mature { ... }
type State interface {
	Name() string
	// IsMature reports whether plants in this state are sellable stock.
	IsMature() bool
	// IsTerminal reports whether no further transition can leave this state.
	IsTerminal() bool
	// evaluate consumes resources, adjusts health and returns the next state.
	evaluate(p *Plant) State
}

type seedlingState struct{}
type growingState struct{}
type matureState struct{}
type wiltingState struct{}
type deadState struct{}

var (
	Seedling State = seedlingState{}
	Growing  State = growingState{}
	Mature   State = matureState{}
	Wilting  State = wiltingState{}
	Dead     State = deadState{}
)

// States lists every lifecycle stage in progression order.
func States() []State {
	return []State{Seedling, Growing, Mature, Wilting, Dead}
}

// ParseState returns the state with the given name.
func ParseState(name string) (State, bool) {
	for _, s := range States() {
		if s.Name() == name {
			return s, true
		}
	}

	return nil, false
}

const (
	seedlingGrowthDays = 5.0
	growingMatureDays  = 12.0
)

func (seedlingState) Name() string     { return "Seedling" }
func (seedlingState) IsMature() bool   { return false }
func (seedlingState) IsTerminal() bool { return false }
func (s seedlingState) String() string { return s.Name() }

func (seedlingState) evaluate(p *Plant) State {
	r := &p.resources
	r.AddMoisture(-1)
	r.AddInsecticide(-1)

	if r.moisture >= 40 && r.insecticide >= 40 {
		r.AddHealth(2)
	} else {
		if r.moisture < 30 {
			r.AddHealth(-3)
		}
		if r.insecticide < 30 {
			r.AddHealth(-2)
		}
	}

	switch {
	case r.health <= 0:
		return Dead
	case p.ageDays() > seedlingGrowthDays*p.growthRate()*p.seasonFactor() && r.health > 40:
		return Growing
	default:
		return Seedling
	}
}

func (growingState) Name() string     { return "Growing" }
func (growingState) IsMature() bool   { return false }
func (growingState) IsTerminal() bool { return false }
func (s growingState) String() string { return s.Name() }

func (growingState) evaluate(p *Plant) State {
	r := &p.resources
	r.AddMoisture(-2)
	r.AddInsecticide(-1)

	if r.moisture >= 40 && r.insecticide >= 40 {
		r.AddHealth(3)
	} else {
		if r.moisture < 25 {
			r.AddHealth(-4)
		}
		if r.insecticide < 25 {
			r.AddHealth(-3)
		}
	}

	switch {
	case r.health <= 0:
		return Dead
	case r.health <= 20:
		return Wilting
	case p.ageDays() > growingMatureDays*p.growthRate()*p.seasonFactor() && r.health > 50:
		return Mature
	default:
		return Growing
	}
}

func (matureState) Name() string     { return "Mature" }
func (matureState) IsMature() bool   { return true }
func (matureState) IsTerminal() bool { return false }
func (s matureState) String() string { return s.Name() }

func (matureState) evaluate(p *Plant) State {
	r := &p.resources
	r.AddMoisture(-5)
	r.AddInsecticide(-5)

	if r.moisture >= 55 && r.insecticide >= 55 {
		r.AddHealth(4)
	} else {
		if r.moisture < 30 {
			r.AddHealth(-5)
		}
		if r.insecticide < 30 {
			r.AddHealth(-4)
		}
	}

	switch {
	case r.health <= 0:
		return Dead
	case r.health <= 50:
		return Wilting
	default:
		return Mature
	}
}

func (wiltingState) Name() string     { return "Wilting" }
func (wiltingState) IsMature() bool   { return false }
func (wiltingState) IsTerminal() bool { return false }
func (s wiltingState) String() string { return s.Name() }

// Recovery takes priority over death.
func (wiltingState) evaluate(p *Plant) State {
	r := &p.resources
	r.AddMoisture(-3)
	r.AddInsecticide(-3)

	if r.moisture > 60 && r.insecticide > 60 {
		r.AddHealth(5)
	} else {
		if r.moisture < 40 {
			r.AddHealth(-3)
		}
		if r.insecticide < 40 {
			r.AddHealth(-3)
		}
	}

	switch {
	case r.health > 60 && r.moisture > 40 && r.insecticide > 40:
		return Mature
	case r.health <= 0:
		return Dead
	default:
		return Wilting
	}
}

func (deadState) Name() string            { return "Dead" }
func (deadState) IsMature() bool          { return false }
func (deadState) IsTerminal() bool        { return true }
func (s deadState) String() string        { return s.Name() }
func (deadState) evaluate(_ *Plant) State { return Dead }
