package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// floatEquals is a helper for testing scalar float values with epsilon.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

func TestString(t *testing.T) {
	v := mgl64.Vec3{1.234, 5.678, -0.5}
	want := "(1.23, 5.68, -0.50)"
	if got := String(v); got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		v    mgl64.Vec3
		want mgl64.Vec3
	}{
		{"X axis", mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 0, 0}},
		{"3-4 in XZ", mgl64.Vec3{3, 0, 4}, mgl64.Vec3{0.6, 0, 0.8}},
		{"Zero stays zero", mgl64.Vec3{0, 0, 0}, Zero},
		{"Below epsilon", mgl64.Vec3{Epsilon / 10, 0, 0}, Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.v)
			if !Eq(got, tt.want) {
				t.Errorf("Normalize(%v) = %v; want %v", String(tt.v), String(got), String(tt.want))
			}
			if !IsFinite(got) {
				t.Errorf("Normalize(%v) produced a non finite vector", String(tt.v))
			}
		})
	}
}

func TestMagnitude(t *testing.T) {
	v := mgl64.Vec3{2, 3, 6} // 2-3-6-7 quadruple

	if got := v.Len(); !floatEquals(got, 7) {
		t.Errorf("Len = %v; want 7", got)
	}
	if got := LenSqr(v); got != 49 {
		t.Errorf("LenSqr = %v; want 49", got)
	}
	if IsZero(v) {
		t.Error("IsZero reported a non zero vector as zero")
	}
	if !IsZero(Zero) {
		t.Error("IsZero(Zero) = false")
	}
}

func TestHorizontal(t *testing.T) {
	got := Horizontal(mgl64.Vec3{1, 7, -2})
	if !Eq(got, mgl64.Vec3{1, 0, -2}) {
		t.Errorf("Horizontal = %v; want (1, 0, -2)", String(got))
	}
}

func TestDistance(t *testing.T) {
	a := mgl64.Vec3{1, 1, 1}
	b := mgl64.Vec3{3, 4, 7} // 2-3-6 offset

	if got := DistanceTo(a, b); !floatEquals(got, 7) {
		t.Errorf("DistanceTo = %v; want 7", got)
	}
	if got := DistanceSquaredTo(a, b); got != 49 {
		t.Errorf("DistanceSquaredTo = %v; want 49", got)
	}
}

func TestClampLength(t *testing.T) {
	t.Run("Shorter is untouched", func(t *testing.T) {
		v := mgl64.Vec3{1, 0, 0}
		if got := ClampLength(v, 2); !Eq(got, v) {
			t.Errorf("ClampLength = %v; want %v", String(got), String(v))
		}
	})

	t.Run("Longer is scaled", func(t *testing.T) {
		got := ClampLength(mgl64.Vec3{0, 0, 10}, 3)
		if !Eq(got, mgl64.Vec3{0, 0, 3}) {
			t.Errorf("ClampLength = %v; want (0, 0, 3)", String(got))
		}
	})

	t.Run("Non positive max", func(t *testing.T) {
		if got := ClampLength(mgl64.Vec3{1, 1, 1}, 0); !Eq(got, Zero) {
			t.Errorf("ClampLength(.., 0) = %v; want zero", String(got))
		}
	})
}

func TestClamp(t *testing.T) {
	clamped := Clamp(mgl64.Vec3{-3, 0.5, 9}, mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})
	if !Eq(clamped, mgl64.Vec3{-1, 0.5, 1}) {
		t.Errorf("Clamp = %v; want (-1, 0.5, 1)", String(clamped))
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(mgl64.Vec3{1, 2, 3}) {
		t.Error("IsFinite rejected a finite vector")
	}
	if IsFinite(mgl64.Vec3{math.NaN(), 0, 0}) {
		t.Error("IsFinite accepted NaN")
	}
	if IsFinite(mgl64.Vec3{0, math.Inf(1), 0}) {
		t.Error("IsFinite accepted +Inf")
	}
}

func TestEq(t *testing.T) {
	v := mgl64.Vec3{1, 2, 3}

	if !Eq(v, mgl64.Vec3{1, 2, 3}) {
		t.Error("Eq exact match failed")
	}
	if !Eq(v, mgl64.Vec3{1 + Epsilon/2, 2 - Epsilon/2, 3}) {
		t.Error("Eq epsilon match failed")
	}
	if Eq(v, mgl64.Vec3{1.1, 2, 3}) {
		t.Error("Eq mismatch failed")
	}
	if !EqWithin(v, mgl64.Vec3{1.05, 2, 3}, 0.1) {
		t.Error("EqWithin tolerance match failed")
	}
}
