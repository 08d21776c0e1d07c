// Package steward implements the deterministic stand-in decision maker that
// runs between the environment update and the balancer. Each turn it
// observes every civilization's territory, triages its condition, decides a
// Decision and applies it.
package steward

import (
	"github.com/talgya/civ-world/internal/engine"
	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

// DisasterWindow is how many turns back a disaster still counts as recent.
const DisasterWindow = 2

// Observation holds everything collected about one civilization in a cycle.
type Observation struct {
	Turn         uint64              `json:"turn"`
	Civilization social.Civilization `json:"civilization"` // copy, never the live record

	Territory       []world.Coord        `json:"territory"`
	Stock           world.Resources      `json:"stock"` // resources on the territory tiles
	Climate         engine.RegionClimate `json:"climate"`
	RecentDisasters []engine.Disaster    `json:"recent_disasters,omitempty"`
}

// Observe summarizes a civilization's territory with the region queries.
// Returns false for an unknown civilization.
func Observe(s *engine.WorldState, id social.CivilizationID) (*Observation, bool) {
	c := s.Civilization(id)
	if c == nil {
		return nil, false
	}

	territory := s.Territory(id)
	return &Observation{
		Turn:            s.Turn,
		Civilization:    *c.Clone(),
		Territory:       territory,
		Stock:           s.SumResources(territory),
		Climate:         s.AverageClimate(territory),
		RecentDisasters: s.RecentDisastersInRegion(territory, DisasterWindow),
	}, true
}
