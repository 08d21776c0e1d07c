package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civ-world/internal/world"
)

func TestApplyDecisionDeltasAndClamp(t *testing.T) {
	c := civ("a", 10)
	c.EconomicPower = 5
	c.Resources[world.ResourceFood] = 3
	s := blankState(2, 2, c)
	s.Turn = 7

	_, ok := ApplyDecision(s, Decision{
		CivilizationID:  "a",
		MilitaryDelta:   -15,
		EconomicDelta:   2.5,
		TechnologyDelta: 1,
		PopulationDelta: 100,
		ResourceDeltas:  world.Resources{world.ResourceFood: -5, world.ResourceWood: 4},
		Reason:          "test",
	})
	require.True(t, ok)

	assert.Equal(t, 0.0, c.MilitaryPower)
	assert.Equal(t, 7.5, c.EconomicPower)
	assert.Equal(t, 1.0, c.TechnologyLevel)
	assert.Equal(t, 100.0, c.Population)
	assert.Equal(t, 0.0, c.Resources[world.ResourceFood])
	assert.Equal(t, 4.0, c.Resources[world.ResourceWood])

	require.Len(t, s.Events, 1)
	e := s.Events[0]
	assert.Equal(t, EventDecision, e.Type)
	assert.Equal(t, "a", e.Target)
	assert.Equal(t, uint64(7), e.Turn)
	assert.Equal(t, "test", e.Reason)
}

func TestApplyDecisionExtractionsTakeAtMostTileStock(t *testing.T) {
	c := civ("a", 1)
	s := blankState(3, 3, c)
	s.Map.Get(world.Coord{X: 1, Y: 1}).Resources[world.ResourceStone] = 4
	s.Map.Get(world.Coord{X: 0, Y: 0}).Resources[world.ResourceFood] = 20

	extracted, ok := ApplyDecision(s, Decision{
		CivilizationID: "a",
		Extractions: []Extraction{
			{Coord: world.Coord{X: 1, Y: 1}, Kind: world.ResourceStone, Amount: 10},
			{Coord: world.Coord{X: 0, Y: 0}, Kind: world.ResourceFood, Amount: 5},
			{Coord: world.Coord{X: 0, Y: 0}, Kind: world.ResourceOil, Amount: 5},
			{Coord: world.Coord{X: 9, Y: 9}, Kind: world.ResourceFood, Amount: 5},
			{Coord: world.Coord{X: 0, Y: 0}, Kind: world.ResourceFood, Amount: -3},
		},
	})
	require.True(t, ok)

	assert.Equal(t, 9.0, extracted)
	assert.Equal(t, 0.0, s.Map.Resource(world.Coord{X: 1, Y: 1}, world.ResourceStone))
	assert.Equal(t, 15.0, s.Map.Resource(world.Coord{X: 0, Y: 0}, world.ResourceFood))
	assert.Equal(t, 4.0, c.Resources[world.ResourceStone])
	assert.Equal(t, 5.0, c.Resources[world.ResourceFood])
	assert.False(t, s.Map.Get(world.Coord{X: 0, Y: 0}).Resources.Has(world.ResourceOil))
	assert.Equal(t, 9.0, s.Events[0].Amount)
}

func TestApplyDecisionUnknownCivilization(t *testing.T) {
	s := blankState(2, 2, civ("a", 1))
	extracted, ok := ApplyDecision(s, Decision{CivilizationID: "ghost", MilitaryDelta: 5})
	assert.False(t, ok)
	assert.Zero(t, extracted)
	assert.Empty(t, s.Events)
}
