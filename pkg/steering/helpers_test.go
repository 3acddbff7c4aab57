package steering

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/neighbor"
)

type testAgent struct {
	id       string
	pos, vel mgl64.Vec3
	fwd      mgl64.Vec3
}

func (a *testAgent) EntityID() string     { return a.id }
func (a *testAgent) Position() mgl64.Vec3 { return a.pos }
func (a *testAgent) Velocity() mgl64.Vec3 { return a.vel }
func (a *testAgent) Forward() mgl64.Vec3  { return a.fwd }

type testObstacle string

func (o testObstacle) EntityID() string { return string(o) }

// fixedSurfaces answers every query with a precomputed closest point per handle.
type fixedSurfaces map[string]mgl64.Vec3

func (f fixedSurfaces) ClosestSurfacePoint(o neighbor.Entity, _ mgl64.Vec3) (mgl64.Vec3, bool) {
	p, ok := f[o.EntityID()]
	return p, ok
}

type recordingActuator struct {
	target  *testAgent
	heading mgl64.Vec3
	speed   float64
	faced   mgl64.Vec3
	drives  int
	facings int
}

func (r *recordingActuator) Drive(heading mgl64.Vec3, cruiseSpeed float64) {
	r.heading, r.speed = heading, cruiseSpeed
	r.drives++
	if r.target != nil {
		r.target.vel = heading.Mul(cruiseSpeed)
	}
}

func (r *recordingActuator) Face(direction mgl64.Vec3) {
	r.faced = direction
	r.facings++
}

func agentsOf(list ...*testAgent) []neighbor.Agent {
	out := make([]neighbor.Agent, 0, len(list))
	for _, a := range list {
		out = append(out, a)
	}
	return out
}

func setOf(entities ...neighbor.Entity) *neighbor.Set {
	s := neighbor.NewSet()
	for _, e := range entities {
		s.OnEnter(e)
	}
	return s
}

func mustEngine(t *testing.T, cfg Config, surfaces SurfaceQuery) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, surfaces)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func assertUnit(t *testing.T, v mgl64.Vec3) {
	t.Helper()
	if !geometry.IsFinite(v) {
		t.Fatalf("heading %v is not finite", geometry.String(v))
	}
	if l := v.Len(); l < 1-1e-9 || l > 1+1e-9 {
		t.Fatalf("heading %v has length %v; want 1", geometry.String(v), l)
	}
}

// flockConfig is a destination-free configuration with unit weights.
func flockConfig() Config {
	return Config{
		MoveSpeed:        3,
		InnerRadius:      6,
		SeparationWeight: 1,
		AlignWeight:      1,
		CohesionWeight:   1,
	}
}
