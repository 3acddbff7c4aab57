package simulation

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/neighbor"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/steering"
)

// Individual is one flocking agent: its body, the neighbor set its sensor
// maintains, and the steering engine that reads them.
type Individual struct {
	ID        string
	State     *Body
	Neighbors *neighbor.Set

	engine  *steering.Engine
	heading mgl64.Vec3 // last desired heading, for snapshots
}

var _ Thinker = (*Individual)(nil)

func newIndividual(body *Body, engine *steering.Engine) *Individual {
	return &Individual{
		ID:        body.ID,
		State:     body,
		Neighbors: neighbor.NewSet(),
		engine:    engine,
		heading:   body.Fwd,
	}
}

func (i *Individual) EntityID() string { return i.ID }

// Think is the read phase: it only reads committed state, so every
// individual can think at the same time.
func (i *Individual) Think() mgl64.Vec3 {
	return i.engine.ComputeHeading(i.State, i.Neighbors)
}

// components exposes the unweighted rule outputs for diagnostics.
func (i *Individual) components() steering.Components {
	return i.engine.Components(i.State, i.Neighbors)
}

// act is the apply phase.
func (i *Individual) act(heading mgl64.Vec3) {
	i.engine.Apply(i.State, heading, i.State)
	i.heading = heading
}
