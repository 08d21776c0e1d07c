// Package engine runs the deterministic world simulation: the world state
// aggregate, per-turn environmental updates and disasters, the power
// balancer, region queries and the turn loop.
package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/civ-world/internal/entropy"
	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

// Event types recorded in the world event log.
const (
	EventBalance  = "balance"
	EventDisaster = "disaster"
	EventDecision = "decision"
)

// Event is a notable occurrence recorded in the world event log.
type Event struct {
	Turn    uint64  `json:"turn"`
	Type    string  `json:"type"`
	Subtype string  `json:"subtype"`
	Target  string  `json:"target,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// WorldState is the aggregate root of a run. It is created once by
// InitializeWorld and handed explicitly to every module that reads or
// mutates it.
type WorldState struct {
	RunID string
	Seed  int64

	Map  *world.Map
	Turn uint64 // Monotonic; starts at 0, +1 per AdvanceTurn

	Events    []Event    // Append-only
	Disasters []Disaster // Append-only

	Civilizations map[social.CivilizationID]*social.Civilization
}

// RunNamespace scopes deterministic run ids.
var RunNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/talgya/civ-world/run"))

// RunID derives a stable identifier from the seed, the generation config and
// the starting civilizations, so the same setup always files its history
// under the same id.
func RunID(seed int64, cfg world.GenConfig, civs []*social.Civilization) (string, error) {
	setup, err := json.Marshal(struct {
		Seed          int64                  `json:"seed"`
		World         world.GenConfig        `json:"world"`
		Civilizations []*social.Civilization `json:"civilizations"`
	}{seed, cfg, civs})
	if err != nil {
		return "", fmt.Errorf("run id: %w", err)
	}
	return uuid.NewSHA1(RunNamespace, setup).String(), nil
}

// InitializeWorld generates the world and registers the starting
// civilizations. It is the only engine call that can fail: malformed grid
// config, duplicate civilization ids and off-grid capitals are rejected with
// world.ErrInvalidConfig. Civilizations without a capital get one placed.
func InitializeWorld(cfg world.GenConfig, civs []*social.Civilization, rng *entropy.Source) (*WorldState, error) {
	m, err := world.Generate(cfg, rng)
	if err != nil {
		return nil, err
	}

	s := &WorldState{
		Seed:          rng.Seed(),
		Map:           m,
		Civilizations: make(map[social.CivilizationID]*social.Civilization, len(civs)),
	}

	var unplaced []*social.Civilization
	for _, c := range civs {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: civilization without id", world.ErrInvalidConfig)
		}
		if _, dup := s.Civilizations[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate civilization %q", world.ErrInvalidConfig, c.ID)
		}
		civ := c.Clone()
		if civ.Resources == nil {
			civ.Resources = make(world.Resources)
		}
		if civ.TerritoryRadius <= 0 {
			civ.TerritoryRadius = social.DefaultTerritoryRadius
		}
		civ.Clamp()
		if civ.Capital != nil && !m.InBounds(*civ.Capital) {
			return nil, fmt.Errorf("%w: capital %s of %q is off the grid", world.ErrInvalidConfig, civ.Capital, civ.ID)
		}
		if civ.Capital == nil {
			unplaced = append(unplaced, civ)
		}
		s.Civilizations[civ.ID] = civ
	}

	// Place in config order so placement does not depend on map iteration.
	capitals := world.PlaceCapitals(m, len(unplaced))
	for i, civ := range unplaced {
		c := capitals[i]
		civ.Capital = &c
	}

	starting := make([]*social.Civilization, 0, len(s.Civilizations))
	for _, id := range social.SortedIDs(s.Civilizations) {
		starting = append(starting, s.Civilizations[id])
	}
	if s.RunID, err = RunID(s.Seed, cfg, starting); err != nil {
		return nil, err
	}

	slog.Info("world initialized",
		"run", s.RunID,
		"seed", s.Seed,
		"size", m.String(),
		"civilizations", len(s.Civilizations),
	)
	return s, nil
}

// AddEvent appends an event stamped with the current turn. Any turn set by
// the caller is overwritten.
func (s *WorldState) AddEvent(e Event) {
	e.Turn = s.Turn
	s.Events = append(s.Events, e)
}

// Civilization returns the record for id, or nil.
func (s *WorldState) Civilization(id social.CivilizationID) *social.Civilization {
	return s.Civilizations[id]
}

// Territory returns the grid tiles belonging to a civilization: the disc of
// its territory radius around its capital. Nil for an unknown id.
func (s *WorldState) Territory(id social.CivilizationID) []world.Coord {
	c := s.Civilizations[id]
	if c == nil || c.Capital == nil {
		return nil
	}
	return s.Map.Within(*c.Capital, c.TerritoryRadius)
}
