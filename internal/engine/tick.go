package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Engine drives a Simulation forward one turn at a time. Turn boundaries are
// the only interruption points: Stop and context cancellation take effect
// before the next turn starts, never in the middle of one.
type Engine struct {
	Sim      *Simulation
	MaxTurns uint64        // 0 runs until stopped
	Interval time.Duration // Minimum wall time per turn; 0 runs flat out

	// OnTurn runs after every completed turn.
	OnTurn func(turn uint64)

	stopped atomic.Bool
}

// NewEngine creates a turn loop for sim.
func NewEngine(sim *Simulation, maxTurns uint64) *Engine {
	return &Engine{Sim: sim, MaxTurns: maxTurns}
}

// Run steps the simulation until MaxTurns is reached, Stop is called or ctx
// is done. A context cancellation is not an error; a failing agent or
// recorder is.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "turn", e.Sim.State.Turn, "max_turns", e.MaxTurns)

	for !e.done(ctx) {
		start := time.Now()

		if err := e.Sim.RunTurn(ctx); err != nil {
			return fmt.Errorf("turn %d: %w", e.Sim.State.Turn, err)
		}
		if e.OnTurn != nil {
			e.OnTurn(e.Sim.State.Turn)
		}

		if e.Interval > 0 {
			if wait := e.Interval - time.Since(start); wait > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(wait):
				}
			}
		}
	}

	slog.Info("simulation engine stopped", "turn", e.Sim.State.Turn)
	return nil
}

// Stop halts the loop at the next turn boundary.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

func (e *Engine) done(ctx context.Context) bool {
	if e.stopped.Load() || ctx.Err() != nil {
		return true
	}
	return e.MaxTurns > 0 && e.Sim.State.Turn >= e.MaxTurns
}
