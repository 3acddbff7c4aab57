package steering

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/neighbor"
)

func TestRepulsion_InverseDistance(t *testing.T) {
	// Moving a neighbor closer must strictly increase its contribution.
	prev := 0.0
	for _, d := range []float64{6, 5, 3, 1, 0.5, 0.01} {
		push, dist, ok := repulsion(mgl64.Vec3{-d, 0, 0})
		if !ok {
			t.Fatalf("repulsion at distance %v skipped", d)
		}
		if math.Abs(dist-d) > 1e-12 {
			t.Errorf("distance = %v; want %v", dist, d)
		}
		mag := push.Len()
		if math.Abs(mag-1/d) > 1e-9 {
			t.Errorf("magnitude at %v = %v; want %v", d, mag, 1/d)
		}
		if mag <= prev {
			t.Errorf("magnitude at %v = %v did not grow past %v", d, mag, prev)
		}
		if push.X() >= 0 {
			t.Errorf("push at %v points toward the neighbor: %v", d, geometry.String(push))
		}
		prev = mag
	}
}

func TestRepulsion_ZeroDistanceSkipped(t *testing.T) {
	if _, _, ok := repulsion(geometry.Zero); ok {
		t.Error("coincident neighbor should be skipped")
	}
}

func TestSeparation(t *testing.T) {
	origin := geometry.Zero

	t.Run("Pushes away from close neighbor", func(t *testing.T) {
		got := Separation(origin, agentsOf(&testAgent{id: "n", pos: mgl64.Vec3{1, 0, 0}}), nil, nil, 6)
		if !geometry.Eq(got, mgl64.Vec3{-1, 0, 0}) {
			t.Errorf("Separation = %v; want (-1, 0, 0)", geometry.String(got))
		}
	})

	t.Run("Ignores neighbors beyond inner radius", func(t *testing.T) {
		got := Separation(origin, agentsOf(&testAgent{id: "n", pos: mgl64.Vec3{10, 0, 0}}), nil, nil, 6)
		if !geometry.IsZero(got) {
			t.Errorf("Separation = %v; want zero", geometry.String(got))
		}
	})

	t.Run("Neighbor on the inner radius counts", func(t *testing.T) {
		got := Separation(origin, agentsOf(&testAgent{id: "n", pos: mgl64.Vec3{0, 0, 6}}), nil, nil, 6)
		if !geometry.Eq(got, mgl64.Vec3{0, 0, -1}) {
			t.Errorf("Separation = %v; want (0, 0, -1)", geometry.String(got))
		}
	})

	t.Run("Closer neighbor dominates", func(t *testing.T) {
		near := &testAgent{id: "near", pos: mgl64.Vec3{1, 0, 0}}
		far := &testAgent{id: "far", pos: mgl64.Vec3{-4, 0, 0}}
		got := Separation(origin, agentsOf(near, far), nil, nil, 6)
		if got.X() >= 0 {
			t.Errorf("Separation = %v; want negative X", geometry.String(got))
		}
		assertUnit(t, got)
	})

	t.Run("Coincident neighbor is skipped", func(t *testing.T) {
		same := &testAgent{id: "same", pos: origin}
		other := &testAgent{id: "other", pos: mgl64.Vec3{0, 2, 0}}
		got := Separation(origin, agentsOf(same, other), nil, nil, 6)
		if !geometry.Eq(got, mgl64.Vec3{0, -1, 0}) {
			t.Errorf("Separation = %v; want (0, -1, 0)", geometry.String(got))
		}

		alone := Separation(origin, agentsOf(same), nil, nil, 6)
		if !geometry.IsZero(alone) || !geometry.IsFinite(alone) {
			t.Errorf("Separation with only a coincident neighbor = %v; want zero", geometry.String(alone))
		}
	})

	t.Run("Obstacle surface repels", func(t *testing.T) {
		surfaces := fixedSurfaces{"wall": {0, 0, 2}}
		got := Separation(origin, nil, []neighbor.Entity{testObstacle("wall")}, surfaces, 6)
		if !geometry.Eq(got, mgl64.Vec3{0, 0, -1}) {
			t.Errorf("Separation = %v; want (0, 0, -1)", geometry.String(got))
		}
	})

	t.Run("Unknown or distant obstacles are ignored", func(t *testing.T) {
		surfaces := fixedSurfaces{"far": {0, 0, 50}, "touching": origin}
		obstacles := []neighbor.Entity{testObstacle("far"), testObstacle("ghost"), testObstacle("touching")}
		got := Separation(origin, nil, obstacles, surfaces, 6)
		if !geometry.IsZero(got) {
			t.Errorf("Separation = %v; want zero", geometry.String(got))
		}
	})

	t.Run("Nil surface query skips obstacles", func(t *testing.T) {
		got := Separation(origin, nil, []neighbor.Entity{testObstacle("wall")}, nil, 6)
		if !geometry.IsZero(got) {
			t.Errorf("Separation = %v; want zero", geometry.String(got))
		}
	})
}

func TestAlignment(t *testing.T) {
	t.Run("Single neighbor", func(t *testing.T) {
		got := Alignment(agentsOf(&testAgent{id: "n", vel: mgl64.Vec3{1, 0, 0}}))
		if got != (mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Alignment = %v; want exactly (1, 0, 0)", got)
		}
	})

	t.Run("Vertical component dropped", func(t *testing.T) {
		got := Alignment(agentsOf(
			&testAgent{id: "a", vel: mgl64.Vec3{0, 5, 1}},
			&testAgent{id: "b", vel: mgl64.Vec3{0, 3, 1}},
		))
		if !geometry.Eq(got, mgl64.Vec3{0, 0, 1}) {
			t.Errorf("Alignment = %v; want (0, 0, 1)", geometry.String(got))
		}
	})

	t.Run("Includes neighbors at any distance", func(t *testing.T) {
		got := Alignment(agentsOf(&testAgent{id: "n", pos: mgl64.Vec3{1000, 0, 0}, vel: mgl64.Vec3{0, 0, -2}}))
		if !geometry.Eq(got, mgl64.Vec3{0, 0, -1}) {
			t.Errorf("Alignment = %v; want (0, 0, -1)", geometry.String(got))
		}
	})

	t.Run("No neighbors or opposing velocities give zero", func(t *testing.T) {
		if got := Alignment(nil); !geometry.IsZero(got) {
			t.Errorf("Alignment(nil) = %v; want zero", geometry.String(got))
		}
		got := Alignment(agentsOf(
			&testAgent{id: "a", vel: mgl64.Vec3{1, 0, 0}},
			&testAgent{id: "b", vel: mgl64.Vec3{-1, 0, 0}},
		))
		if !geometry.IsZero(got) || !geometry.IsFinite(got) {
			t.Errorf("Alignment = %v; want zero", geometry.String(got))
		}
	})
}

func TestCohesion(t *testing.T) {
	origin := geometry.Zero

	t.Run("Near neighbor contributes nothing", func(t *testing.T) {
		got := Cohesion(origin, agentsOf(&testAgent{id: "n", pos: mgl64.Vec3{2, 0, 0}}), 6)
		if !geometry.IsZero(got) {
			t.Errorf("Cohesion = %v; want zero", geometry.String(got))
		}
	})

	t.Run("Far neighbor attracts", func(t *testing.T) {
		got := Cohesion(origin, agentsOf(&testAgent{id: "n", pos: mgl64.Vec3{10, 0, 0}}), 6)
		if !geometry.Eq(got, mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Cohesion = %v; want (1, 0, 0)", geometry.String(got))
		}
	})

	t.Run("Neighbor exactly on the inner radius is near", func(t *testing.T) {
		got := Cohesion(origin, agentsOf(&testAgent{id: "n", pos: mgl64.Vec3{6, 0, 0}}), 6)
		if !geometry.IsZero(got) {
			t.Errorf("Cohesion = %v; want zero", geometry.String(got))
		}
	})

	t.Run("Centroid of far neighbors only", func(t *testing.T) {
		got := Cohesion(mgl64.Vec3{1, 0, 1}, agentsOf(
			&testAgent{id: "near", pos: mgl64.Vec3{1, 0, 2}},
			&testAgent{id: "east", pos: mgl64.Vec3{21, 0, 1}},
			&testAgent{id: "north", pos: mgl64.Vec3{1, 0, 21}},
		), 6)
		want := geometry.Normalize(mgl64.Vec3{1, 0, 1})
		if !geometry.Eq(got, want) {
			t.Errorf("Cohesion = %v; want %v", geometry.String(got), geometry.String(want))
		}
	})
}
