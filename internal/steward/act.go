package steward

import (
	"context"
	"log/slog"

	"github.com/talgya/civ-world/internal/engine"
	"github.com/talgya/civ-world/internal/social"
)

// Steward runs the observe, triage, decide and act cycle for every
// civilization once per turn. It implements engine.Agent.
type Steward struct {
	Memory *CycleMemory
}

// New creates a steward with an empty cycle memory.
func New() *Steward {
	return &Steward{Memory: NewCycleMemory(DefaultMemorySize)}
}

// Name implements engine.Agent.
func (st *Steward) Name() string { return "steward" }

// Process implements engine.Agent. Civilizations are handled in id order.
func (st *Steward) Process(_ context.Context, s *engine.WorldState) error {
	for _, id := range social.SortedIDs(s.Civilizations) {
		st.cycle(s, id)
	}
	return nil
}

func (st *Steward) cycle(s *engine.WorldState, id social.CivilizationID) {
	obs, ok := Observe(s, id)
	if !ok {
		return
	}

	plan := PlanHarvest(s.Map, obs)
	health := Triage(obs, plan.Yield)
	decision := Decide(obs, health, plan)

	extracted, applied := engine.ApplyDecision(s, decision)
	if !applied {
		return
	}

	st.Memory.Record(CycleRecord{
		Turn:            s.Turn,
		Civilization:    id,
		Level:           health.Level,
		FoodPerThousand: health.FoodPerThousand,
		Extracted:       extracted,
		PopulationDelta: decision.PopulationDelta,
	})

	if health.Level == LevelCritical {
		slog.Info("steward: civilization in crisis",
			"turn", s.Turn,
			"civilization", id,
			"food_per_thousand", health.FoodPerThousand,
			"disasters", len(obs.RecentDisasters),
		)
	} else {
		slog.Debug("steward cycle",
			"turn", s.Turn,
			"civilization", id,
			"level", health.Level,
			"extracted", extracted,
		)
	}
}
