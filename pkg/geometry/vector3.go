package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the length under which a vector is treated as the zero vector.
const (
	Epsilon = 1e-9
)

// Axis conventions follow the usual Y-up, Z-forward world frame.
var (
	Zero    = mgl64.Vec3{0, 0, 0}
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
)

// String formats a vector the same way everywhere in logs: (x, y, z) with two decimals.
func String(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}

// LenSqr calculates the squared magnitude of the vector.
// Use it for range comparisons to avoid the square root.
func LenSqr(v mgl64.Vec3) float64 {
	return v.Dot(v)
}

// IsZero reports whether v is shorter than Epsilon.
func IsZero(v mgl64.Vec3) bool {
	return LenSqr(v) < Epsilon*Epsilon
}

// Normalize returns a unit vector in the same direction.
// Unlike mgl64.Vec3.Normalize it returns the zero vector when the length is
// effectively zero instead of a NaN vector.
func Normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon {
		return Zero
	}
	return v.Mul(1 / l)
}

// Horizontal drops the vertical (Y) component.
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], 0, v[2]}
}

// DistanceTo calculates the Euclidean distance between two points.
func DistanceTo(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance between two points.
func DistanceSquaredTo(a, b mgl64.Vec3) float64 {
	return LenSqr(a.Sub(b))
}

// ClampLength scales v down so that its length does not exceed max.
// A non-positive max yields the zero vector.
func ClampLength(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if max <= 0 {
		return Zero
	}
	l := v.Len()
	if l > max {
		return v.Mul(max / l)
	}
	return v
}

// Clamp restricts every component of p to the [min, max] box.
func Clamp(p, min, max mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(p[0], min[0], max[0]),
		mgl64.Clamp(p[1], min[1], max[1]),
		mgl64.Clamp(p[2], min[2], max[2]),
	}
}

// IsFinite reports whether no component is NaN or infinite.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func Eq(a, b mgl64.Vec3) bool {
	return math.Abs(a[0]-b[0]) <= Epsilon &&
		math.Abs(a[1]-b[1]) <= Epsilon &&
		math.Abs(a[2]-b[2]) <= Epsilon
}

// EqWithin is Eq with a caller supplied tolerance.
func EqWithin(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a[0]-b[0]) <= tolerance &&
		math.Abs(a[1]-b[1]) <= tolerance &&
		math.Abs(a[2]-b[2]) <= tolerance
}
