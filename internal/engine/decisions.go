// Decision documents: the typed side effects external decision makers apply
// to civilization records before the balancer runs.
package engine

import (
	"log/slog"

	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

// Extraction moves a resource from a tile into a civilization's stock.
type Extraction struct {
	Coord  world.Coord        `json:"coord"`
	Kind   world.ResourceKind `json:"kind"`
	Amount float64            `json:"amount"`
}

// Decision is one civilization's turn outcome, expressed as deltas.
type Decision struct {
	CivilizationID social.CivilizationID `json:"civilization_id"`

	MilitaryDelta   float64 `json:"military_delta,omitempty"`
	EconomicDelta   float64 `json:"economic_delta,omitempty"`
	TechnologyDelta float64 `json:"technology_delta,omitempty"`
	PopulationDelta float64 `json:"population_delta,omitempty"`

	ResourceDeltas world.Resources `json:"resource_deltas,omitempty"`
	Extractions    []Extraction    `json:"extractions,omitempty"`

	Reason string `json:"reason,omitempty"`
}

// ApplyDecision applies a decision to the live state. Deltas are added and
// the record is clamped at zero; each extraction takes at most what the tile
// holds. Unknown civilizations are skipped. Returns the total extracted and
// whether the decision was applied.
func ApplyDecision(s *WorldState, d Decision) (float64, bool) {
	civ := s.Civilizations[d.CivilizationID]
	if civ == nil {
		slog.Warn("decision for unknown civilization", "civilization", d.CivilizationID, "turn", s.Turn)
		return 0, false
	}

	civ.MilitaryPower += d.MilitaryDelta
	civ.EconomicPower += d.EconomicDelta
	civ.TechnologyLevel += d.TechnologyDelta
	civ.Population += d.PopulationDelta

	if civ.Resources == nil {
		civ.Resources = make(world.Resources)
	}
	for _, k := range world.AllResources {
		if v, ok := d.ResourceDeltas[k]; ok {
			civ.Resources[k] += v
		}
	}

	extracted := 0.0
	for _, x := range d.Extractions {
		t := s.Map.Get(x.Coord)
		if t == nil || x.Amount <= 0 {
			continue
		}
		have, ok := t.Resources[x.Kind]
		if !ok {
			continue
		}
		take := min(have, x.Amount)
		t.Resources[x.Kind] = have - take
		civ.Resources[x.Kind] += take
		extracted += take
	}

	civ.Clamp()

	s.AddEvent(Event{
		Type:    EventDecision,
		Subtype: "applied",
		Target:  civ.ID,
		Amount:  extracted,
		Reason:  d.Reason,
	})
	return extracted, true
}
