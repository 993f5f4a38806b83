package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const INFINITY = math.MaxFloat64

// Effective masses and lengths below these are treated as zero.
const (
	MassEpsilon = 1e-9
	AxisEpsilon = 1e-6
)

var (
	VectorZero = mgl64.Vec3{}
	VectorX    = mgl64.Vec3{1, 0, 0}
	VectorY    = mgl64.Vec3{0, 1, 0}
	VectorZ    = mgl64.Vec3{0, 0, 1}
)

func Clamp(f, min, max float64) float64 {
	return math.Min(math.Max(f, min), max)
}

func Clamp01(f float64) float64 {
	return math.Max(0, math.Min(f, 1))
}

func Lerp(f1, f2, t float64) float64 {
	return f1*(1.0-t) + f2*t
}

// Normalize returns the unit vector of v, or fallback if v is too short to normalize.
func Normalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < AxisEpsilon {
		return fallback
	}
	return v.Mul(1.0 / l)
}

// ClampLength scales v down so its length does not exceed length.
func ClampLength(v mgl64.Vec3, length float64) mgl64.Vec3 {
	if v.Dot(v) > length*length {
		return Normalize(v, VectorZero).Mul(length)
	}
	return v
}

// Tangents builds two unit vectors orthogonal to n and to each other.
func Tangents(n mgl64.Vec3) (t1, t2 mgl64.Vec3) {
	if math.Abs(n.X()) >= 0.57735 {
		t1 = mgl64.Vec3{n.Y(), -n.X(), 0}
	} else {
		t1 = mgl64.Vec3{0, n.Z(), -n.Y()}
	}
	t1 = Normalize(t1, VectorX)
	t2 = n.Cross(t1)
	return t1, t2
}

// WrapAngle maps a into [-Pi, Pi].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// TwistAngle returns the rotation of q about the unit axis.
func TwistAngle(q mgl64.Quat, axis mgl64.Vec3) float64 {
	return WrapAngle(2 * math.Atan2(q.V.Dot(axis), q.W))
}

// SmallAngles returns the rotation vector of q under the small angle
// approximation, taking the short way around.
func SmallAngles(q mgl64.Quat) mgl64.Vec3 {
	if q.W < 0 {
		return q.V.Mul(-2)
	}
	return q.V.Mul(2)
}

// InertiaAlong is the scalar inverse inertia about axis.
func InertiaAlong(invInertia mgl64.Mat3, axis mgl64.Vec3) float64 {
	return axis.Dot(invInertia.Mul3x1(axis))
}
