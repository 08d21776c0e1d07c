package engine

import "context"

// Agent is anything that takes part in a turn: the world engine, the
// balancer, and the decision makers that run between them.
type Agent interface {
	Name() string
	Process(ctx context.Context, s *WorldState) error
}

// AgentFunc adapts a function to the Agent interface.
type AgentFunc struct {
	Label string
	Fn    func(ctx context.Context, s *WorldState) error
}

// Name implements Agent.
func (a AgentFunc) Name() string { return a.Label }

// Process implements Agent.
func (a AgentFunc) Process(ctx context.Context, s *WorldState) error {
	return a.Fn(ctx, s)
}

// Recorder receives a read-only snapshot at the end of every turn.
type Recorder interface {
	Record(ctx context.Context, snap *Snapshot) error
}
