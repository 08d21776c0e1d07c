package steward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civ-world/internal/engine"
	"github.com/talgya/civ-world/internal/entropy"
	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

// testState builds a 5x5 plains grid with one civilization whose capital
// sits at the centre.
func testState(t *testing.T, pop, food float64) (*engine.WorldState, *social.Civilization) {
	t.Helper()
	capital := world.Coord{X: 2, Y: 2}
	c := &social.Civilization{
		ID:              "rome",
		Name:            "Rome",
		EconomicPower:   0,
		TechnologyLevel: 10,
		Population:      pop,
		Resources:       world.Resources{world.ResourceFood: food},
		Capital:         &capital,
		TerritoryRadius: social.DefaultTerritoryRadius,
	}
	s := &engine.WorldState{
		Map:           world.NewMap(5, 5),
		Civilizations: map[social.CivilizationID]*social.Civilization{c.ID: c},
	}
	return s, c
}

func TestObserveTerritory(t *testing.T) {
	s, _ := testState(t, 1000, 0)
	s.Map.Get(world.Coord{X: 2, Y: 2}).Resources[world.ResourceFood] = 40
	s.Map.Get(world.Coord{X: 0, Y: 0}).Resources[world.ResourceFood] = 99 // outside radius 2

	obs, ok := Observe(s, "rome")
	require.True(t, ok)
	assert.Len(t, obs.Territory, 13)
	assert.Equal(t, world.Coord{X: 2, Y: 2}, obs.Territory[0])
	assert.Equal(t, 40.0, obs.Stock[world.ResourceFood])
	assert.Equal(t, 13, obs.Climate.Tiles)

	_, ok = Observe(s, "nobody")
	assert.False(t, ok)
}

func TestObserveCopiesRecord(t *testing.T) {
	s, c := testState(t, 1000, 5)
	obs, _ := Observe(s, "rome")
	obs.Civilization.Resources[world.ResourceFood] = 500
	assert.Equal(t, 5.0, c.Resources[world.ResourceFood])
}

func TestObserveRecentDisasters(t *testing.T) {
	s, _ := testState(t, 1000, 0)
	s.Turn = 3
	engine.ApplyDisaster(s, engine.Disaster{Kind: engine.DisasterFlood, Area: []world.Coord{{X: 2, Y: 3}}, Turn: 3})

	s.Turn = 5
	obs, _ := Observe(s, "rome")
	assert.Len(t, obs.RecentDisasters, 1)

	s.Turn = 6
	obs, _ = Observe(s, "rome")
	assert.Empty(t, obs.RecentDisasters)
}

func TestPlanHarvest(t *testing.T) {
	s, _ := testState(t, 1000, 0)
	centre := s.Map.Get(world.Coord{X: 2, Y: 2})
	centre.Resources[world.ResourceFood] = 50
	centre.Resources[world.ResourceGold] = 50
	s.Map.Get(world.Coord{X: 2, Y: 1}).Resources[world.ResourceIron] = 20

	obs, _ := Observe(s, "rome")
	plan := PlanHarvest(s.Map, obs)

	require.Len(t, plan.Extractions, 2)
	assert.Equal(t, engine.Extraction{Coord: world.Coord{X: 2, Y: 2}, Kind: world.ResourceFood, Amount: 5}, plan.Extractions[0])
	assert.InDelta(t, 2.0, plan.Yield[world.ResourceIron], 1e-12)
	assert.False(t, plan.Yield.Has(world.ResourceGold), "gold is not harvested")
}

func TestTriage(t *testing.T) {
	tests := []struct {
		name      string
		pop, food float64
		yield     float64
		stricken  bool
		fed       bool
		level     string
	}{
		{name: "fed", pop: 10000, food: 10, fed: true, level: LevelHealthy},
		{name: "harvest counts", pop: 10000, food: 5, yield: 5, fed: true, level: LevelHealthy},
		{name: "hungry", pop: 10000, food: 5, level: LevelHungry},
		{name: "small population floors at one thousand", pop: 10, food: 1, fed: true, level: LevelHealthy},
		{name: "stricken", pop: 1000, food: 5, stricken: true, fed: true, level: LevelStricken},
		{name: "critical", pop: 100000, food: 0, stricken: true, level: LevelCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &Observation{Civilization: social.Civilization{
				Population: tt.pop,
				Resources:  world.Resources{world.ResourceFood: tt.food},
			}}
			if tt.stricken {
				obs.RecentDisasters = []engine.Disaster{{Kind: engine.DisasterDrought}}
			}
			h := Triage(obs, world.Resources{world.ResourceFood: tt.yield})
			assert.Equal(t, tt.fed, h.Fed)
			assert.Equal(t, tt.stricken, h.Stricken)
			assert.Equal(t, tt.level, h.Level)
		})
	}
}

func TestDecidePopulation(t *testing.T) {
	obs := &Observation{Civilization: social.Civilization{ID: "a", Population: 10000, TechnologyLevel: 20}}

	d := Decide(obs, &Health{Fed: true, Level: LevelHealthy}, Harvest{})
	assert.InDelta(t, 200.0, d.PopulationDelta, 1e-9)
	assert.InDelta(t, 0.1, d.TechnologyDelta, 1e-12)
	assert.Equal(t, "healthy", d.Reason)

	d = Decide(obs, &Health{Level: LevelHungry}, Harvest{})
	assert.InDelta(t, -100.0, d.PopulationDelta, 1e-9)

	d = Decide(obs, &Health{Stricken: true, Level: LevelCritical}, Harvest{})
	assert.InDelta(t, -400.0, d.PopulationDelta, 1e-9)

	d = Decide(obs, &Health{Fed: true, Stricken: true, Level: LevelStricken}, Harvest{})
	assert.InDelta(t, -100.0, d.PopulationDelta, 1e-9)
}

func TestDecideEconomicDrift(t *testing.T) {
	obs := &Observation{Civilization: social.Civilization{
		ID:            "a",
		EconomicPower: 4,
		Resources:     world.Resources{world.ResourceStone: 900},
	}}
	plan := Harvest{Yield: world.Resources{world.ResourceWood: 100}}

	d := Decide(obs, &Health{Fed: true}, plan)
	// Target is 1% of 1000; move 10% of the way from 4.
	assert.InDelta(t, 0.6, d.EconomicDelta, 1e-12)
}

func TestStewardProcessAppliesDecisions(t *testing.T) {
	s, c := testState(t, 2000, 10)
	s.Turn = 1
	centre := s.Map.Get(world.Coord{X: 2, Y: 2})
	centre.Resources[world.ResourceFood] = 100

	st := New()
	require.NoError(t, st.Process(t.Context(), s))

	assert.InDelta(t, 90.0, centre.Resources[world.ResourceFood], 1e-9)
	assert.InDelta(t, 20.0, c.Resources[world.ResourceFood], 1e-9)
	assert.InDelta(t, 2000*(1+GrowthRate), c.Population, 1e-9)
	assert.InDelta(t, 10*(1+TechnologyRate), c.TechnologyLevel, 1e-9)

	require.Len(t, s.Events, 1)
	assert.Equal(t, engine.EventDecision, s.Events[0].Type)
	assert.InDelta(t, 10.0, s.Events[0].Amount, 1e-9)

	require.Len(t, st.Memory.Records, 1)
	assert.Equal(t, LevelHealthy, st.Memory.Records[0].Level)
	assert.Equal(t, "1 cycles (healthy=1)", st.Memory.Summary())
}

func TestStewardInPipelineIsReproducible(t *testing.T) {
	run := func() *engine.Snapshot {
		rng := entropy.New(77)
		civs := []*social.Civilization{
			{ID: "a", MilitaryPower: 30, Population: 5000, TechnologyLevel: 5, Resources: world.Resources{}},
			{ID: "b", MilitaryPower: 8, Population: 3000, TechnologyLevel: 2, Resources: world.Resources{}},
		}
		cfg := world.DefaultGenConfig()
		cfg.Width, cfg.Height = 12, 12
		s, err := engine.InitializeWorld(cfg, civs, rng)
		require.NoError(t, err)

		opts := engine.DefaultOptions()
		opts.DisasterProbability = 0.4
		sim := engine.NewSimulation(s, rng, opts)
		sim.Deciders = []engine.Agent{New()}
		for i := 0; i < 30; i++ {
			require.NoError(t, sim.RunTurn(t.Context()))
		}
		return sim.Latest()
	}

	a, b := run(), run()
	assert.Equal(t, a, b)
	for _, c := range a.Civilizations {
		assert.GreaterOrEqual(t, c.Population, 0.0)
		assert.GreaterOrEqual(t, c.EconomicPower, 0.0)
	}
}

func TestCycleMemoryBounded(t *testing.T) {
	m := NewCycleMemory(3)
	for i := 1; i <= 5; i++ {
		m.Record(CycleRecord{Turn: uint64(i), Level: LevelHungry})
	}
	require.Len(t, m.Records, 3)
	assert.Equal(t, uint64(3), m.Records[0].Turn)
	assert.Len(t, m.Recent(2), 2)
	assert.Equal(t, uint64(5), m.Recent(2)[1].Turn)
	assert.Len(t, m.Recent(10), 3)
	assert.Equal(t, map[string]int{LevelHungry: 3}, m.LevelCounts())
	assert.Equal(t, "no cycles", NewCycleMemory(1).Summary())
}
