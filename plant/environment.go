package plant

import (
	"time"

	"github.com/AntonStoeckl/plant-nursery-go/nursery"
	"github.com/AntonStoeckl/plant-nursery-go/species"
)

const (
	DefaultSecondsPerDay = 60.0

	thrivingSeasonFactor    = 0.8
	nonThrivingSeasonFactor = 1.2
	defaultGrowthRate       = 1.0
)

// Environment supplies the time base shared by all plants of a greenhouse.
type Environment struct {
	Clock         nursery.Clock
	SecondsPerDay float64
	SeasonOf      func(time.Time) species.Season
}

// NewEnvironment returns an Environment with the given clock, falling back to the system clock,
// the default day length and meteorological seasons.
func NewEnvironment(clock nursery.Clock) *Environment {
	if clock == nil {
		clock = nursery.SystemClock
	}

	return &Environment{
		Clock:         clock,
		SecondsPerDay: DefaultSecondsPerDay,
		SeasonOf:      species.SeasonOf,
	}
}

// Now returns the simulated time. A nil environment falls back to the wall clock.
func (e *Environment) Now() time.Time {
	if e == nil || e.Clock == nil {
		return time.Now()
	}

	return e.Clock.Now()
}

// Season returns the season of Now.
func (e *Environment) Season() species.Season {
	if e == nil || e.SeasonOf == nil {
		return species.SeasonOf(e.Now())
	}

	return e.SeasonOf(e.Now())
}

// Days converts an elapsed duration into simulated days.
func (e *Environment) Days(elapsed time.Duration) float64 {
	secondsPerDay := DefaultSecondsPerDay
	if e != nil && e.SecondsPerDay > 0 {
		secondsPerDay = e.SecondsPerDay
	}

	return elapsed.Seconds() / secondsPerDay
}

// DayDuration is the wall-clock length of one simulated day.
func (e *Environment) DayDuration() time.Duration {
	secondsPerDay := DefaultSecondsPerDay
	if e != nil && e.SecondsPerDay > 0 {
		secondsPerDay = e.SecondsPerDay
	}

	return time.Duration(secondsPerDay * float64(time.Second))
}
