// Package obstacle describes the static, non-agent bodies of a scene and
// answers closest-surface-point queries against them.
package obstacle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/geometry"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Shape is a closed solid. ClosestPoint returns the point of its boundary
// nearest to p, whether p is outside or inside the solid.
type Shape interface {
	ClosestPoint(p mgl64.Vec3) mgl64.Vec3
	Bounds() (min, max mgl64.Vec3)
}

// Sphere is a ball around Center.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

func (s Sphere) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	d := p.Sub(s.Center)
	l := d.Len()
	if l < geometry.Epsilon {
		// every surface point is equally close, pick the top
		return s.Center.Add(geometry.Up.Mul(s.Radius))
	}
	return s.Center.Add(d.Mul(s.Radius / l))
}

func (s Sphere) Bounds() (mgl64.Vec3, mgl64.Vec3) {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return s.Center.Sub(r), s.Center.Add(r)
}

// Box is an axis-aligned box.
type Box struct {
	Min, Max mgl64.Vec3
}

// NewBoxFromBound extrudes a ground-plane bound (orb X = world X, orb Y = world Z)
// between minY and maxY.
func NewBoxFromBound(b orb.Bound, minY, maxY float64) Box {
	return Box{
		Min: mgl64.Vec3{b.Min.X(), minY, b.Min.Y()},
		Max: mgl64.Vec3{b.Max.X(), maxY, b.Max.Y()},
	}
}

func (b Box) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	q := geometry.Clamp(p, b.Min, b.Max)
	if q != p {
		return q
	}
	// p is inside: move it onto the nearest face
	axis, toMax, best := 0, false, math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := p[i] - b.Min[i]; d < best {
			axis, toMax, best = i, false, d
		}
		if d := b.Max[i] - p[i]; d < best {
			axis, toMax, best = i, true, d
		}
	}
	if toMax {
		q[axis] = b.Max[axis]
	} else {
		q[axis] = b.Min[axis]
	}
	return q
}

func (b Box) Bounds() (mgl64.Vec3, mgl64.Vec3) {
	return b.Min, b.Max
}

// Prism is a ground footprint extruded vertically between MinY and MaxY.
// The footprint lives in the X/Z plane: orb X is world X, orb Y is world Z.
type Prism struct {
	Footprint orb.Polygon
	MinY      float64
	MaxY      float64
}

func (pr Prism) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	ground := orb.Point{p[0], p[2]}
	edge, edgeDist := closestOnRings(pr.Footprint, ground)
	y := mgl64.Clamp(p[1], pr.MinY, pr.MaxY)

	if !planar.PolygonContains(pr.Footprint, ground) {
		return mgl64.Vec3{edge.X(), y, edge.Y()}
	}
	switch {
	case p[1] > pr.MaxY:
		return mgl64.Vec3{p[0], pr.MaxY, p[2]}
	case p[1] < pr.MinY:
		return mgl64.Vec3{p[0], pr.MinY, p[2]}
	}

	// inside the solid: nearest of the side wall and the two caps
	best := mgl64.Vec3{edge.X(), p[1], edge.Y()}
	bestDist := edgeDist
	if d := pr.MaxY - p[1]; d < bestDist {
		best, bestDist = mgl64.Vec3{p[0], pr.MaxY, p[2]}, d
	}
	if d := p[1] - pr.MinY; d < bestDist {
		best = mgl64.Vec3{p[0], pr.MinY, p[2]}
	}
	return best
}

func (pr Prism) Bounds() (mgl64.Vec3, mgl64.Vec3) {
	b := pr.Footprint.Bound()
	return mgl64.Vec3{b.Min.X(), pr.MinY, b.Min.Y()}, mgl64.Vec3{b.Max.X(), pr.MaxY, b.Max.Y()}
}

// closestOnRings returns the boundary point of poly nearest to p, holes included.
func closestOnRings(poly orb.Polygon, p orb.Point) (orb.Point, float64) {
	best, bestDist := p, math.Inf(1)
	for _, ring := range poly {
		n := len(ring)
		for i := 0; i < n; i++ {
			a, b := ring[i], ring[(i+1)%n]
			if a == b {
				continue
			}
			q := closestOnSegment(p, a, b)
			if d := planar.Distance(p, q); d < bestDist {
				best, bestDist = q, d
			}
		}
	}
	return best, bestDist
}

func closestOnSegment(p, a, b orb.Point) orb.Point {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	t = mgl64.Clamp(t, 0, 1)
	return orb.Point{a[0] + t*dx, a[1] + t*dy}
}
