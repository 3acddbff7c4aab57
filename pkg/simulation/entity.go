package simulation

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
)

// Body is the physical state of one agent. It implements neighbor.Agent,
// steering.Self and steering.Actuator.
type Body struct {
	ID  string
	Pos mgl64.Vec3
	Vel mgl64.Vec3
	Fwd mgl64.Vec3

	mass           float64
	responsiveness float64
	dt             float64
	keepLevel      bool
}

func newBody(id string, pos, forward mgl64.Vec3, cfg *Config) *Body {
	fwd := geometry.Normalize(forward)
	if geometry.IsZero(fwd) {
		fwd = geometry.Forward
	}
	return &Body{
		ID:             id,
		Pos:            pos,
		Fwd:            fwd,
		mass:           cfg.Mass,
		responsiveness: cfg.Responsiveness,
		dt:             cfg.TickSeconds,
		keepLevel:      cfg.KeepLevel,
	}
}

func (b *Body) EntityID() string     { return b.ID }
func (b *Body) Position() mgl64.Vec3 { return b.Pos }
func (b *Body) Velocity() mgl64.Vec3 { return b.Vel }
func (b *Body) Forward() mgl64.Vec3  { return b.Fwd }

// Drive applies, for one tick, the force that would bring the velocity to
// heading*cruiseSpeed, then caps the speed at cruiseSpeed.
func (b *Body) Drive(heading mgl64.Vec3, cruiseSpeed float64) {
	delta := heading.Mul(cruiseSpeed).Sub(b.Vel)
	gain := b.responsiveness * b.dt / b.mass
	if gain > 1 {
		// never overshoot the target velocity in a single tick
		gain = 1
	}
	b.Vel = b.Vel.Add(delta.Mul(gain))
	b.Vel = geometry.ClampLength(b.Vel, cruiseSpeed)
}

// Face turns the body toward direction. A zero direction keeps the
// current orientation.
func (b *Body) Face(direction mgl64.Vec3) {
	if b.keepLevel {
		direction = geometry.Horizontal(direction)
	}
	d := geometry.Normalize(direction)
	if geometry.IsZero(d) {
		return
	}
	b.Fwd = d
}

// UpdatePhysics applies the velocity to the Body position for one tick
func (b *Body) UpdatePhysics() {
	b.Pos = b.Pos.Add(b.Vel.Mul(b.dt))
}

// Speed is the length of the velocity.
func (b *Body) Speed() float64 {
	return b.Vel.Len()
}
