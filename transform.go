package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a rigid transform: a rotation followed by a translation.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func NewTransformIdentity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

func NewTransform(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	return Transform{Position: position, Rotation: rotation.Normalize()}
}

func NewTransformTranslate(translate mgl64.Vec3) Transform {
	return Transform{Position: translate, Rotation: mgl64.QuatIdent()}
}

func NewTransformRotate(radians float64, axis mgl64.Vec3) Transform {
	return Transform{Rotation: mgl64.QuatRotate(radians, Normalize(axis, VectorZ))}
}

func (t Transform) Inverse() Transform {
	inv := t.Rotation.Conjugate()
	return Transform{
		Position: inv.Rotate(t.Position).Mul(-1),
		Rotation: inv,
	}
}

// Mult returns t applied after t2.
func (t Transform) Mult(t2 Transform) Transform {
	return Transform{
		Position: t.Point(t2.Position),
		Rotation: t.Rotation.Mul(t2.Rotation).Normalize(),
	}
}

func (t Transform) Point(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Position)
}

func (t Transform) Vect(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(v)
}

func (t Transform) InversePoint(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(p.Sub(t.Position))
}

func (t Transform) InverseVect(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(v)
}

// Basis is the rotation as a matrix whose columns are the rotated x, y and z axes.
func (t Transform) Basis() mgl64.Mat3 {
	return t.Rotation.Mat4().Mat3()
}

// Aabb returns the world bounds of a local box under t.
func (t Transform) Aabb(bb Aabb) Aabb {
	center := t.Point(bb.Center())
	half := bb.HalfExtents()
	m := t.Basis()

	var extents mgl64.Vec3
	for i := 0; i < 3; i++ {
		extents[i] = math.Abs(m.At(i, 0))*half[0] + math.Abs(m.At(i, 1))*half[1] + math.Abs(m.At(i, 2))*half[2]
	}
	return NewAabbForExtents(center, extents)
}
