package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civ-world/internal/entropy"
	"github.com/talgya/civ-world/internal/world"
)

func stockedState() *WorldState {
	s := blankState(8, 8)
	for _, tile := range s.Map.Tiles() {
		tile.Resources[world.ResourceFood] = 80
		tile.Resources[world.ResourceWood] = 60
		tile.Resources[world.ResourceStone] = 40
		tile.Resources[world.ResourceGold] = 10
	}
	return s
}

func TestSevereDisasterDepletesExactly(t *testing.T) {
	tests := []struct {
		kind  DisasterKind
		hit   []world.ResourceKind
		ratio float64
	}{
		{DisasterDrought, []world.ResourceKind{world.ResourceFood}, 1},
		{DisasterFlood, []world.ResourceKind{world.ResourceFood, world.ResourceWood}, 1},
		{DisasterEarthquake, world.AllResources[:], 0.5},
		{DisasterHurricane, []world.ResourceKind{world.ResourceFood, world.ResourceWood}, 0.7},
		{DisasterWildfire, []world.ResourceKind{world.ResourceFood, world.ResourceWood}, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			s := stockedState()
			s.Turn = 3
			pristine := s.Map.Clone()

			center := world.Coord{X: 2, Y: 2}
			d := Disaster{
				Kind:     tt.kind,
				Severity: SeveritySevere,
				Center:   center,
				Radius:   1,
				Area:     s.Map.Within(center, 1),
				Turn:     s.Turn,
			}
			ApplyDisaster(s, d)

			hit := make(map[world.Coord]bool)
			for _, c := range d.Area {
				hit[c] = true
			}
			isHitKind := make(map[world.ResourceKind]bool)
			for _, k := range tt.hit {
				isHitKind[k] = true
			}

			keep := 1 - SeveritySevere.Multiplier()*tt.ratio
			for _, tile := range s.Map.Tiles() {
				before := pristine.Get(tile.Coord).Resources
				for k, pre := range before {
					post := tile.Resources[k]
					if hit[tile.Coord] && isHitKind[k] {
						assert.Equal(t, pre*keep, post, "%s %s", tile.Coord, k)
						assert.LessOrEqual(t, post, pre*(1-tt.kind.Loss(SeveritySevere)))
					} else {
						assert.Equal(t, pre, post, "%s %s must be untouched", tile.Coord, k)
					}
				}
				assert.Len(t, tile.Resources, len(before), "no kinds created or removed")
			}

			require.Len(t, s.Disasters, 1)
			assert.Equal(t, uint64(3), s.Disasters[0].Turn)
			require.Len(t, s.Events, 1)
			assert.Equal(t, EventDisaster, s.Events[0].Type)
			assert.Equal(t, tt.kind.String(), s.Events[0].Subtype)
			assert.Equal(t, "severe", s.Events[0].Reason)
			assert.Equal(t, float64(len(d.Area)), s.Events[0].Amount)
		})
	}
}

func TestSeverityMultipliers(t *testing.T) {
	assert.Equal(t, 0.2, SeverityMild.Multiplier())
	assert.Equal(t, 0.5, SeverityModerate.Multiplier())
	assert.Equal(t, 0.8, SeveritySevere.Multiplier())
	assert.Equal(t, 0.5*0.5, DisasterEarthquake.Loss(SeverityModerate))
}

func TestApplyDisasterIgnoresOffGridArea(t *testing.T) {
	s := stockedState()
	d := Disaster{
		Kind:     DisasterDrought,
		Severity: SeverityMild,
		Area:     []world.Coord{{X: -1, Y: 0}, {X: 0, Y: 0}, {X: 100, Y: 100}},
	}
	assert.NotPanics(t, func() { ApplyDisaster(s, d) })
	assert.Equal(t, 80*(1-0.2), s.Map.Resource(world.Coord{X: 0, Y: 0}, world.ResourceFood))
}

func TestRollDisasterShape(t *testing.T) {
	s := stockedState()
	rng := entropy.New(17)

	seen := make(map[DisasterKind]bool)
	for i := 0; i < 300; i++ {
		d := rollDisaster(s, rng)
		seen[d.Kind] = true

		lo, hi := d.Kind.RadiusRange()
		assert.GreaterOrEqual(t, d.Radius, lo)
		assert.LessOrEqual(t, d.Radius, hi)
		require.NotEmpty(t, d.Area)
		assert.Equal(t, d.Center, d.Area[0], "center is always affected")
		for _, c := range d.Area {
			assert.True(t, s.Map.InBounds(c))
			assert.LessOrEqual(t, world.Distance(c, d.Center), float64(d.Radius))
		}
	}
	assert.Len(t, seen, len(AllDisasterKinds))
}

func TestDisasterHistoryIsAppendOnly(t *testing.T) {
	s, rng := generatedState(t, 8, 10, 10)
	w := NewWorldEngine(rng, 1)

	prev := []Disaster{}
	for i := 0; i < 30; i++ {
		w.AdvanceTurn(s)
		require.Len(t, s.Disasters, len(prev)+1)
		assert.Equal(t, prev, s.Disasters[:len(prev)])
		assert.Equal(t, s.Turn, s.Disasters[len(prev)].Turn)
		prev = append([]Disaster{}, s.Disasters...)
	}
}
