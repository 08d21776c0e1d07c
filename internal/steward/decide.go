package steward

import (
	"strings"

	"github.com/talgya/civ-world/internal/engine"
	"github.com/talgya/civ-world/internal/world"
)

// Per-turn rates, as fractions of the current value.
const (
	HarvestRate    = 0.10
	GrowthRate     = 0.02
	DeclineRate    = 0.01
	DisasterLoss   = 0.03
	TechnologyRate = 0.005

	// Economic power moves EconomicDrift of the way toward
	// EconomicStockShare of the civilization's total stock.
	EconomicDrift      = 0.10
	EconomicStockShare = 0.01
)

// HarvestedKinds are the resources gathered from territory tiles.
var HarvestedKinds = [...]world.ResourceKind{
	world.ResourceFood,
	world.ResourceWood,
	world.ResourceStone,
	world.ResourceIron,
}

// Harvest is the planned extraction for one cycle.
type Harvest struct {
	Extractions []engine.Extraction `json:"extractions"`
	Yield       world.Resources     `json:"yield"` // totals by kind
}

// PlanHarvest takes HarvestRate of every harvested kind on each territory
// tile. Tiles are visited in territory order so the plan is reproducible.
func PlanHarvest(m *world.Map, obs *Observation) Harvest {
	h := Harvest{Yield: make(world.Resources)}
	for _, c := range obs.Territory {
		for _, k := range HarvestedKinds {
			v := m.Resource(c, k)
			if v <= 0 {
				continue
			}
			amount := v * HarvestRate
			h.Extractions = append(h.Extractions, engine.Extraction{Coord: c, Kind: k, Amount: amount})
			h.Yield[k] += amount
		}
	}
	return h
}

// Decide turns an observation, its triage and the planned harvest into a
// decision document.
func Decide(obs *Observation, h *Health, plan Harvest) engine.Decision {
	c := obs.Civilization

	d := engine.Decision{
		CivilizationID: c.ID,
		Extractions:    plan.Extractions,
		Reason:         strings.ToLower(h.Level),
	}

	if h.Fed {
		d.PopulationDelta = c.Population * GrowthRate
	} else {
		d.PopulationDelta = -c.Population * DeclineRate
	}
	if h.Stricken {
		d.PopulationDelta -= c.Population * DisasterLoss
	}

	stock := c.Resources.Total() + plan.Yield.Total()
	d.EconomicDelta = (stock*EconomicStockShare - c.EconomicPower) * EconomicDrift
	d.TechnologyDelta = c.TechnologyLevel * TechnologyRate

	return d
}
