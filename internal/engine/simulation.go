// Simulation ties the turn pipeline together: environment, decisions,
// balance, recording.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/talgya/civ-world/internal/entropy"
)

// Options tunes the per-turn modules.
type Options struct {
	DisasterProbability float64
	BalanceEnabled      bool
	BalanceThreshold    float64
	BalanceIntensity    float64
	BreakthroughChance  float64
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		DisasterProbability: DefaultDisasterProbability,
		BalanceEnabled:      true,
		BalanceThreshold:    DefaultBalanceThreshold,
		BalanceIntensity:    DefaultBalanceIntensity,
		BreakthroughChance:  DefaultBreakthroughChance,
	}
}

// Simulation owns the world state and the run's random source. One
// goroutine drives it; other goroutines read only published snapshots.
type Simulation struct {
	State *WorldState

	World    *WorldEngine
	Balancer *Balancer // nil when balancing is disabled

	// Deciders run in order between the environment update and the balancer.
	Deciders  []Agent
	Recorders []Recorder

	latest atomic.Pointer[Snapshot]
}

// NewSimulation wires the per-turn modules to state, all sharing rng.
func NewSimulation(state *WorldState, rng *entropy.Source, opts Options) *Simulation {
	sim := &Simulation{
		State: state,
		World: NewWorldEngine(rng, opts.DisasterProbability),
	}
	if opts.BalanceEnabled {
		b := NewBalancer(rng)
		b.Threshold = opts.BalanceThreshold
		b.Intensity = opts.BalanceIntensity
		b.BreakthroughChance = opts.BreakthroughChance
		sim.Balancer = b
	}
	sim.latest.Store(state.Snapshot())
	return sim
}

// Pipeline returns the agents of one turn in execution order.
func (s *Simulation) Pipeline() []Agent {
	agents := []Agent{s.World}
	agents = append(agents, s.Deciders...)
	if s.Balancer != nil {
		agents = append(agents, s.Balancer)
	}
	return agents
}

// RunTurn runs one full turn and publishes the resulting snapshot.
func (s *Simulation) RunTurn(ctx context.Context) error {
	for _, a := range s.Pipeline() {
		if err := a.Process(ctx, s.State); err != nil {
			return fmt.Errorf("%s: %w", a.Name(), err)
		}
	}

	snap := s.State.Snapshot()
	s.latest.Store(snap)

	for _, r := range s.Recorders {
		if err := r.Record(ctx, snap); err != nil {
			return fmt.Errorf("record: %w", err)
		}
	}

	slog.Debug("turn complete",
		"turn", s.State.Turn,
		"season", SeasonName(s.State.Turn),
		"events", len(s.State.Events),
		"disasters", len(s.State.Disasters),
	)
	return nil
}

// Latest returns the most recently published snapshot. Safe for concurrent use.
func (s *Simulation) Latest() *Snapshot {
	return s.latest.Load()
}
