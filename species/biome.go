package species

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownBiome = errors.New("unknown biome")
var ErrUnknownSeason = errors.New("unknown season")

// Biome selects the care strategy of a species.
type Biome string

const (
	Desert        Biome = "desert"
	Tropical      Biome = "tropical"
	Indoor        Biome = "indoor"
	Mediterranean Biome = "mediterranean"
	Wetland       Biome = "wetland"
)

// Biomes lists every supported biome.
func Biomes() []Biome {
	return []Biome{Desert, Tropical, Indoor, Mediterranean, Wetland}
}

func (b Biome) String() string {
	return string(b)
}

// ParseBiome parses a biome name case-insensitively.
func ParseBiome(s string) (Biome, error) {
	candidate := Biome(strings.ToLower(strings.TrimSpace(s)))
	for _, b := range Biomes() {
		if b == candidate {
			return b, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownBiome, s)
}

// Season is one of the four meteorological seasons.
type Season int

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

var seasonNames = [...]string{"spring", "summer", "autumn", "winter"}

func (s Season) String() string {
	if s < Spring || s > Winter {
		return fmt.Sprintf("season(%d)", int(s))
	}

	return seasonNames[s]
}

// ParseSeason parses a season name case-insensitively. "fall" is accepted for Autumn.
func ParseSeason(s string) (Season, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "fall" {
		return Autumn, nil
	}

	for i, candidate := range seasonNames {
		if candidate == name {
			return Season(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownSeason, s)
}

// SeasonOf returns the northern-hemisphere meteorological season of t.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	case time.September, time.October, time.November:
		return Autumn
	default:
		return Winter
	}
}
