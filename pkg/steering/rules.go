package steering

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/neighbor"
)

// repulsion turns the offset from a neighbor (self - other) into its separation
// contribution: the unit direction away from the neighbor scaled by 1/distance.
// A coincident neighbor has no defined direction and is skipped (ok == false).
func repulsion(offset mgl64.Vec3) (contribution mgl64.Vec3, distance float64, ok bool) {
	distance = offset.Len()
	if distance < geometry.Epsilon {
		return geometry.Zero, 0, false
	}
	return offset.Mul(1 / (distance * distance)), distance, true
}

// Separation pushes the agent away from agents and obstacle surfaces inside
// innerRadius. Contributions are averaged over the terms that contributed and
// the result is normalized; nothing in range gives the zero vector.
// Obstacles are ignored when surfaces is nil or cannot resolve a handle.
func Separation(self mgl64.Vec3, agents []neighbor.Agent, obstacles []neighbor.Entity, surfaces SurfaceQuery, innerRadius float64) mgl64.Vec3 {
	var sum mgl64.Vec3
	count := 0

	for _, other := range agents {
		push, d, ok := repulsion(self.Sub(other.Position()))
		if !ok || d > innerRadius {
			continue
		}
		sum = sum.Add(push)
		count++
	}

	if surfaces != nil {
		for _, obstacle := range obstacles {
			closest, found := surfaces.ClosestSurfacePoint(obstacle, self)
			if !found {
				continue
			}
			push, d, ok := repulsion(self.Sub(closest))
			if !ok || d > innerRadius {
				continue
			}
			sum = sum.Add(push)
			count++
		}
	}

	if count == 0 {
		return geometry.Zero
	}
	return geometry.Normalize(sum.Mul(1 / float64(count)))
}

// Alignment steers toward the average velocity of every agent neighbor,
// kept in the horizontal plane.
func Alignment(agents []neighbor.Agent) mgl64.Vec3 {
	if len(agents) == 0 {
		return geometry.Zero
	}
	var sum mgl64.Vec3
	for _, other := range agents {
		sum = sum.Add(other.Velocity())
	}
	avg := sum.Mul(1 / float64(len(agents)))
	return geometry.Normalize(geometry.Horizontal(avg))
}

// Cohesion steers toward the centroid of the neighbors strictly farther than
// innerRadius. Closer neighbors are left to Separation.
func Cohesion(self mgl64.Vec3, agents []neighbor.Agent, innerRadius float64) mgl64.Vec3 {
	var sum mgl64.Vec3
	count := 0
	limitSq := innerRadius * innerRadius

	for _, other := range agents {
		delta := other.Position().Sub(self)
		if geometry.LenSqr(delta) <= limitSq {
			continue
		}
		sum = sum.Add(delta)
		count++
	}

	if count == 0 {
		return geometry.Zero
	}
	return geometry.Normalize(sum.Mul(1 / float64(count)))
}
