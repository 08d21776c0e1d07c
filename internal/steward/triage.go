package steward

import "github.com/talgya/civ-world/internal/world"

// Health levels, most urgent first.
const (
	LevelCritical = "CRITICAL" // hungry and struck by a disaster
	LevelStricken = "STRICKEN"
	LevelHungry   = "HUNGRY"
	LevelHealthy  = "HEALTHY"
)

// Health holds the signals derived from an observation and the planned
// harvest. Deterministic and cheap.
type Health struct {
	FoodPerThousand float64 `json:"food_per_thousand"`
	Fed             bool    `json:"fed"`      // at least one unit of food per 1,000 people
	Stricken        bool    `json:"stricken"` // a disaster hit the territory within DisasterWindow turns
	Level           string  `json:"level"`
}

// Triage computes a civilization's health. Food counts the stock already
// held plus what this cycle's harvest brings in. The population denominator
// is floored at one thousand people.
func Triage(obs *Observation, yield world.Resources) *Health {
	food := obs.Civilization.Resources[world.ResourceFood] + yield[world.ResourceFood]
	thousands := max(obs.Civilization.Population/1000, 1)

	h := &Health{
		FoodPerThousand: food / thousands,
		Stricken:        len(obs.RecentDisasters) > 0,
	}
	h.Fed = h.FoodPerThousand >= 1

	switch {
	case h.Stricken && !h.Fed:
		h.Level = LevelCritical
	case h.Stricken:
		h.Level = LevelStricken
	case !h.Fed:
		h.Level = LevelHungry
	default:
		h.Level = LevelHealthy
	}
	return h
}
