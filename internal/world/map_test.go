package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMissingLookupsAreNeutral(t *testing.T) {
	m := NewMap(3, 3)
	off := Coord{X: 5, Y: -1}

	assert.Nil(t, m.Get(off))
	assert.Zero(t, m.Resource(off, ResourceGold))
	assert.Zero(t, m.Resource(Coord{X: 1, Y: 1}, ResourceGold))

	cl := m.ClimateAt(off)
	assert.Equal(t, NeutralTemperature, cl.Temperature)
	assert.Equal(t, NeutralPrecipitation, cl.Precipitation)
}

func TestWithinClipsToGrid(t *testing.T) {
	m := NewMap(10, 10)

	corner := m.Within(Coord{X: 0, Y: 0}, 1)
	assert.Equal(t, Coord{X: 0, Y: 0}, corner[0], "center comes first")
	assert.ElementsMatch(t, []Coord{{0, 0}, {0, 1}, {1, 0}}, corner)

	inner := m.Within(Coord{X: 5, Y: 5}, 2)
	// Radius-2 Euclidean disc: 13 points.
	assert.Len(t, inner, 13)
	for _, c := range inner {
		assert.LessOrEqual(t, Distance(c, Coord{X: 5, Y: 5}), 2.0)
	}

	assert.Empty(t, m.Within(Coord{X: 50, Y: 50}, 1))
}

func TestParseCoord(t *testing.T) {
	c, err := ParseCoord(" 3, 14 ")
	require.NoError(t, err)
	assert.Equal(t, Coord{X: 3, Y: 14}, c)
	assert.Equal(t, "3,14", c.String())

	_, err = ParseCoord("3;14")
	assert.Error(t, err)
	_, err = ParseCoord("a,1")
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	m := NewMap(2, 2)
	m.Get(Coord{X: 0, Y: 0}).Resources[ResourceFood] = 10

	cp := m.Clone()
	cp.Get(Coord{X: 0, Y: 0}).Resources[ResourceFood] = 99
	cp.Get(Coord{X: 0, Y: 0}).Climate.Temperature = 40

	assert.Equal(t, 10.0, m.Resource(Coord{X: 0, Y: 0}, ResourceFood))
	assert.Zero(t, m.ClimateAt(Coord{X: 0, Y: 0}).Temperature)
}

func TestResourcesScaleKeepsAbsentKindsAbsent(t *testing.T) {
	r := Resources{ResourceFood: 50, ResourceStone: 20}
	r.Scale(0.5, ResourceFood, ResourceWood)

	assert.Equal(t, 25.0, r[ResourceFood])
	assert.Equal(t, 20.0, r[ResourceStone])
	assert.False(t, r.Has(ResourceWood))

	r.Scale(0.5)
	assert.Equal(t, 12.5, r[ResourceFood])
	assert.Equal(t, 10.0, r[ResourceStone])
}

func TestResourceKindText(t *testing.T) {
	k, ok := ParseResourceKind("Uranium")
	require.True(t, ok)
	assert.Equal(t, ResourceUranium, k)

	_, ok = ParseResourceKind("mithril")
	assert.False(t, ok)

	var z ClimateZone
	require.NoError(t, z.UnmarshalText([]byte("polar")))
	assert.Equal(t, ZonePolar, z)
}
