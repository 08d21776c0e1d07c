package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/civ-world/internal/entropy"
	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

// blankState returns a hand-built state on an all-plains grid with empty
// stocks and zeroed climate.
func blankState(w, h int, civs ...*social.Civilization) *WorldState {
	s := &WorldState{
		Map:           world.NewMap(w, h),
		Civilizations: make(map[social.CivilizationID]*social.Civilization),
	}
	for _, c := range civs {
		if c.Resources == nil {
			c.Resources = make(world.Resources)
		}
		s.Civilizations[c.ID] = c
	}
	return s
}

// generatedState runs the real generator.
func generatedState(t *testing.T, seed int64, w, h int, civs ...*social.Civilization) (*WorldState, *entropy.Source) {
	t.Helper()
	cfg := world.DefaultGenConfig()
	cfg.Width, cfg.Height = w, h
	rng := entropy.New(seed)
	s, err := InitializeWorld(cfg, civs, rng)
	require.NoError(t, err)
	return s, rng
}

func civ(id string, military float64) *social.Civilization {
	return &social.Civilization{ID: id, Name: id, MilitaryPower: military, Resources: make(world.Resources)}
}
