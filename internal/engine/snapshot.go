package engine

import (
	"sort"

	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

// Snapshot is the read-only projection of a WorldState handed to
// persistence and reporting. It shares no memory with the live state.
type Snapshot struct {
	RunID  string `json:"run_id"`
	Seed   int64  `json:"seed"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Turn   uint64 `json:"turn"`

	Civilizations []social.Civilization `json:"civilizations"` // sorted by id
	Events        []Event               `json:"events"`
	Disasters     []Disaster            `json:"disasters"`

	TerrainCounts map[string]int `json:"terrain_counts"`
}

// Snapshot returns a deep copy of the state's exported projection.
func (s *WorldState) Snapshot() *Snapshot {
	snap := &Snapshot{
		RunID:         s.RunID,
		Seed:          s.Seed,
		Width:         s.Map.Width,
		Height:        s.Map.Height,
		Turn:          s.Turn,
		Civilizations: make([]social.Civilization, 0, len(s.Civilizations)),
		Events:        append([]Event(nil), s.Events...),
		Disasters:     make([]Disaster, len(s.Disasters)),
		TerrainCounts: make(map[string]int),
	}

	for _, id := range social.SortedIDs(s.Civilizations) {
		snap.Civilizations = append(snap.Civilizations, *s.Civilizations[id].Clone())
	}
	for i, d := range s.Disasters {
		d.Area = append([]world.Coord(nil), d.Area...)
		snap.Disasters[i] = d
	}
	for t, n := range s.Map.TerrainCounts() {
		snap.TerrainCounts[t.String()] = n
	}
	return snap
}

// Civilization finds a civilization in the snapshot by id.
func (s *Snapshot) Civilization(id social.CivilizationID) (social.Civilization, bool) {
	i := sort.Search(len(s.Civilizations), func(i int) bool {
		return s.Civilizations[i].ID >= id
	})
	if i < len(s.Civilizations) && s.Civilizations[i].ID == id {
		return s.Civilizations[i], true
	}
	return social.Civilization{}, false
}

// Power analyzes the snapshot's civilizations the same way the balancer
// analyzes live state.
func (s *Snapshot) Power() PowerAnalysis {
	return analyze(len(s.Civilizations), func(i int) *social.Civilization {
		return &s.Civilizations[i]
	})
}

// EventsSince returns the events recorded after turn.
func (s *Snapshot) EventsSince(turn uint64) []Event {
	i := sort.Search(len(s.Events), func(i int) bool {
		return s.Events[i].Turn > turn
	})
	return s.Events[i:]
}

// DisastersSince returns the disasters that occurred after turn.
func (s *Snapshot) DisastersSince(turn uint64) []Disaster {
	i := sort.Search(len(s.Disasters), func(i int) bool {
		return s.Disasters[i].Turn > turn
	})
	return s.Disasters[i:]
}
