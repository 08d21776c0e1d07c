// Package social holds the per-civilization power records that external
// decision makers update and the balancer reads and corrects.
package social

import (
	"sort"

	"github.com/talgya/civ-world/internal/world"
)

// CivilizationID is a unique identifier for a civilization.
type CivilizationID = string

// Composite power weights.
const (
	WeightMilitary   = 0.4
	WeightEconomic   = 0.3
	WeightTechnology = 0.2
	WeightPopulation = 0.1

	// PopulationScale normalizes headcount before weighting.
	PopulationScale = 10000.0
)

// Civilization is the power record of one competing civilization.
// Power values are never negative.
type Civilization struct {
	ID   CivilizationID `json:"id"`
	Name string         `json:"name"`

	MilitaryPower   float64 `json:"military_power"`
	EconomicPower   float64 `json:"economic_power"`
	TechnologyLevel float64 `json:"technology_level"`
	Population      float64 `json:"population"`

	Resources world.Resources `json:"resources"`

	// Capital is the civilization's home tile; its territory is the disc
	// of TerritoryRadius tiles around it. Nil until placed.
	Capital         *world.Coord `json:"capital,omitempty"`
	TerritoryRadius int          `json:"territory_radius"`
}

// DefaultTerritoryRadius is used when a civilization does not set one.
const DefaultTerritoryRadius = 2

// PowerScore returns the composite power score:
// military×0.4 + economic×0.3 + technology×0.2 + (population/10000)×0.1.
func (c *Civilization) PowerScore() float64 {
	return c.MilitaryPower*WeightMilitary +
		c.EconomicPower*WeightEconomic +
		c.TechnologyLevel*WeightTechnology +
		(c.Population/PopulationScale)*WeightPopulation
}

// Clamp floors every power value and resource quantity at zero.
func (c *Civilization) Clamp() {
	c.MilitaryPower = max(c.MilitaryPower, 0)
	c.EconomicPower = max(c.EconomicPower, 0)
	c.TechnologyLevel = max(c.TechnologyLevel, 0)
	c.Population = max(c.Population, 0)
	for k, v := range c.Resources {
		if v < 0 {
			c.Resources[k] = 0
		}
	}
}

// Clone returns an independent copy.
func (c *Civilization) Clone() *Civilization {
	cp := *c
	if c.Resources != nil {
		cp.Resources = c.Resources.Clone()
	}
	if c.Capital != nil {
		capital := *c.Capital
		cp.Capital = &capital
	}
	return &cp
}

// SortedIDs returns the keys of a civilization map in ascending order.
func SortedIDs(civs map[CivilizationID]*Civilization) []CivilizationID {
	ids := make([]CivilizationID, 0, len(civs))
	for id := range civs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
