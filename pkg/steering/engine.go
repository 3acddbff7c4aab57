// Package steering computes the desired heading of one flocking agent from
// the separation, alignment and cohesion rules.
//
// The engine is pure: it reads the agent and its neighbor set and returns a
// unit vector. Applying the heading is left to a motion Actuator.
package steering

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/neighbor"
)

// Self is the agent being steered.
type Self interface {
	Position() mgl64.Vec3
	Velocity() mgl64.Vec3
	Forward() mgl64.Vec3
}

// Neighbors is the read side of a neighbor.Set.
type Neighbors interface {
	AgentNeighbors() []neighbor.Agent
	Obstacles() []neighbor.Entity
}

// SurfaceQuery returns the point of an obstacle's boundary closest to query.
// found is false when the handle does not resolve to a known obstacle.
type SurfaceQuery interface {
	ClosestSurfacePoint(obstacle neighbor.Entity, query mgl64.Vec3) (point mgl64.Vec3, found bool)
}

// Actuator turns a desired heading into motion.
// Drive pushes the velocity toward heading*cruiseSpeed without exceeding
// cruiseSpeed; Face orients the agent along direction.
type Actuator interface {
	Drive(heading mgl64.Vec3, cruiseSpeed float64)
	Face(direction mgl64.Vec3)
}

// Components holds the three rule outputs of one tick, before weighting.
type Components struct {
	Separation mgl64.Vec3
	Alignment  mgl64.Vec3
	Cohesion   mgl64.Vec3
}

// Engine is the configured steering computation for one agent
// (or for a group of agents sharing the same configuration).
type Engine struct {
	cfg      Config
	surfaces SurfaceQuery
}

// NewEngine validates cfg and binds it to an obstacle surface query.
// surfaces may be nil, in which case obstacles never repel.
func NewEngine(cfg Config, surfaces SurfaceQuery) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid steering config: %w", err)
	}
	return &Engine{cfg: cfg, surfaces: surfaces}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Components evaluates the three rules for self without weighting them.
func (e *Engine) Components(self Self, n Neighbors) Components {
	return e.components(self.Position(), n.AgentNeighbors(), n.Obstacles())
}

func (e *Engine) components(pos mgl64.Vec3, agents []neighbor.Agent, obstacles []neighbor.Entity) Components {
	return Components{
		Separation: Separation(pos, agents, obstacles, e.surfaces, e.cfg.InnerRadius),
		Alignment:  Alignment(agents),
		Cohesion:   Cohesion(pos, agents, e.cfg.InnerRadius),
	}
}

// ComputeHeading returns the desired heading for this tick as a unit vector.
//
// Near the destination only separation and cohesion count. An isolated agent
// keeps its goal direction: the destination when one is configured, its
// forward direction otherwise. Otherwise the weighted rule sum is biased
// toward the goal in proportion to its own magnitude. A zero result falls
// back to the current forward direction.
func (e *Engine) ComputeHeading(self Self, n Neighbors) mgl64.Vec3 {
	pos := self.Position()
	forward := facing(self)
	agents := n.AgentNeighbors()
	obstacles := n.Obstacles()

	var heading mgl64.Vec3
	switch {
	case e.settling(pos):
		heading = Separation(pos, agents, obstacles, e.surfaces, e.cfg.InnerRadius).Mul(e.cfg.SeparationWeight).
			Add(Cohesion(pos, agents, e.cfg.InnerRadius).Mul(e.cfg.CohesionWeight))

	case len(agents) == 0 && len(obstacles) == 0:
		heading = e.goal(pos, forward)

	default:
		c := e.components(pos, agents, obstacles)
		heading = c.Separation.Mul(e.cfg.SeparationWeight).
			Add(c.Alignment.Mul(e.cfg.AlignWeight)).
			Add(c.Cohesion.Mul(e.cfg.CohesionWeight))
		heading = heading.Add(e.goal(pos, forward).Mul(heading.Len() * e.cfg.DestinationWeight))
	}

	heading = geometry.Normalize(heading)
	if geometry.IsZero(heading) {
		return forward
	}
	return heading
}

// Apply hands a computed heading to the actuator and turns the agent to face
// its resulting velocity.
func (e *Engine) Apply(self Self, heading mgl64.Vec3, act Actuator) {
	act.Drive(heading, e.cfg.MoveSpeed)
	if v := self.Velocity(); !geometry.IsZero(v) {
		act.Face(geometry.Normalize(v))
	}
}

// Tick computes and applies the heading in one call, for hosts that do not
// need to split the read and write phases.
func (e *Engine) Tick(self Self, n Neighbors, act Actuator) mgl64.Vec3 {
	heading := e.ComputeHeading(self, n)
	e.Apply(self, heading, act)
	return heading
}

// settling reports whether pos lies inside the near-destination radius.
func (e *Engine) settling(pos mgl64.Vec3) bool {
	if !e.cfg.HasDestination() {
		return false
	}
	return geometry.DistanceTo(pos, *e.cfg.Destination) < e.cfg.NearDestinationRadius
}

func (e *Engine) goal(pos, forward mgl64.Vec3) mgl64.Vec3 {
	if !e.cfg.HasDestination() {
		return forward
	}
	dir := geometry.Normalize(e.cfg.Destination.Sub(pos))
	if geometry.IsZero(dir) {
		return forward
	}
	return dir
}

// facing is the agent's unit forward vector, world forward when undefined.
func facing(self Self) mgl64.Vec3 {
	f := geometry.Normalize(self.Forward())
	if geometry.IsZero(f) {
		return geometry.Forward
	}
	return f
}
