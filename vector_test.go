package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNormalize(t *testing.T) {
	u := Normalize(mgl64.Vec3{}, VectorY)
	if u != VectorY {
		t.Errorf("Expected fallback, got %v", u)
	}
	u = Normalize(mgl64.Vec3{3, 0, 4}, VectorY)
	if math.Abs(u.Len()-1) > 1e-12 || math.Abs(u.X()-0.6) > 1e-12 {
		t.Errorf("Expected unit vector, got %v", u)
	}
}

func TestTangents(t *testing.T) {
	normals := []mgl64.Vec3{
		VectorX, VectorY, VectorZ,
		Normalize(mgl64.Vec3{1, 1, 1}, VectorY),
		Normalize(mgl64.Vec3{-0.2, 0.9, -0.4}, VectorY),
	}
	for _, n := range normals {
		t1, t2 := Tangents(n)
		if math.Abs(t1.Len()-1) > 1e-9 || math.Abs(t2.Len()-1) > 1e-9 {
			t.Errorf("Tangents of %v not unit: %v %v", n, t1, t2)
		}
		if math.Abs(t1.Dot(n)) > 1e-9 || math.Abs(t2.Dot(n)) > 1e-9 || math.Abs(t1.Dot(t2)) > 1e-9 {
			t.Errorf("Tangents of %v not orthogonal: %v %v", n, t1, t2)
		}
	}
}

func TestWrapAngle(t *testing.T) {
	cases := map[float64]float64{
		0:               0,
		math.Pi / 2:     math.Pi / 2,
		3 * math.Pi / 2: -math.Pi / 2,
		7:               7 - 2*math.Pi,
	}
	for in, want := range cases {
		if got := WrapAngle(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("WrapAngle(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestTwistAngle(t *testing.T) {
	q := mgl64.QuatRotate(0.7, VectorZ)
	if got := TwistAngle(q, VectorZ); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("Expected 0.7, got %v", got)
	}
	// rotation about another axis does not twist
	q = mgl64.QuatRotate(0.7, VectorX)
	if got := TwistAngle(q, VectorZ); math.Abs(got) > 1e-9 {
		t.Errorf("Expected 0, got %v", got)
	}
}

func TestClampLength(t *testing.T) {
	v := ClampLength(mgl64.Vec3{10, 0, 0}, 2)
	if v != (mgl64.Vec3{2, 0, 0}) {
		t.Errorf("Expected clamp to 2, got %v", v)
	}
	v = ClampLength(mgl64.Vec3{1, 0, 0}, 2)
	if v != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Expected unchanged, got %v", v)
	}
}
