package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	BODY_DYNAMIC = iota
	BODY_KINEMATIC
	BODY_STATIC
)

// Body is the rigid body state the solver consumes. Integration lives
// outside this package; the solver only reads mass properties and
// writes velocities.
type Body struct {
	id int

	bodyType int

	// mass and it's inverse
	m     float64
	m_inv float64

	// local inertia tensor inverse
	i_inv mgl64.Mat3

	transform Transform

	// linear and angular velocity
	v mgl64.Vec3
	w mgl64.Vec3

	// "pseudo-velocities" written by the position pass.
	// Integrators apply them to positions and then discard them.
	v_bias mgl64.Vec3
	w_bias mgl64.Vec3

	UserData interface{}
}

func (b Body) String() string {
	return fmt.Sprint("Body ", b.id)
}

var bodyCur int = 0

// NewBody creates a dynamic body. The inertia is the principal moment of
// inertia along each local axis.
func NewBody(mass float64, inertia mgl64.Vec3) *Body {
	body := &Body{
		id:        bodyCur,
		bodyType:  BODY_DYNAMIC,
		transform: NewTransformIdentity(),
	}
	bodyCur++

	body.SetMass(mass)
	body.SetInertia(inertia)
	return body
}

func NewStaticBody() *Body {
	body := NewBody(0, VectorZero)
	body.SetType(BODY_STATIC)
	return body
}

func NewKinematicBody() *Body {
	body := NewBody(0, VectorZero)
	body.SetType(BODY_KINEMATIC)
	return body
}

// MomentForBox returns the principal moments of a solid box of the given full size.
func MomentForBox(m float64, size mgl64.Vec3) mgl64.Vec3 {
	x2, y2, z2 := size[0]*size[0], size[1]*size[1], size[2]*size[2]
	return mgl64.Vec3{m * (y2 + z2) / 12, m * (x2 + z2) / 12, m * (x2 + y2) / 12}
}

func MomentForSphere(m, r float64) mgl64.Vec3 {
	i := 0.4 * m * r * r
	return mgl64.Vec3{i, i, i}
}

func (body *Body) GetType() int {
	return body.bodyType
}

func (body *Body) SetType(newType int) {
	body.bodyType = newType
	if newType != BODY_DYNAMIC {
		body.v_bias = VectorZero
		body.w_bias = VectorZero
	}
	if newType == BODY_STATIC {
		body.v = VectorZero
		body.w = VectorZero
	}
}

func (body *Body) Mass() float64 {
	return body.m
}

func (body *Body) SetMass(mass float64) {
	assert(mass >= 0, "Mass must be positive")
	body.m = mass
	if mass > MassEpsilon {
		body.m_inv = 1.0 / mass
	} else {
		body.m_inv = 0
	}
}

func (body *Body) SetInertia(inertia mgl64.Vec3) {
	var inv mgl64.Vec3
	for i := 0; i < 3; i++ {
		if inertia[i] > MassEpsilon {
			inv[i] = 1.0 / inertia[i]
		}
	}
	body.i_inv = mgl64.Diag3(inv)
}

// InverseMass is zero for anything that is not dynamic.
func (body *Body) InverseMass() float64 {
	if body == nil || body.bodyType != BODY_DYNAMIC {
		return 0
	}
	return body.m_inv
}

// InverseInertiaWorld is R * I^-1 * R^T, zero for anything that is not dynamic.
func (body *Body) InverseInertiaWorld() mgl64.Mat3 {
	if body == nil || body.bodyType != BODY_DYNAMIC {
		return mgl64.Mat3{}
	}
	r := body.transform.Basis()
	return r.Mul3(body.i_inv).Mul3(r.Transpose())
}

func (body *Body) Transform() Transform {
	return body.transform
}

func (body *Body) SetTransform(t Transform) {
	body.transform = t
}

func (body *Body) Position() mgl64.Vec3 {
	return body.transform.Position
}

func (body *Body) SetPosition(position mgl64.Vec3) {
	body.transform.Position = position
}

func (body *Body) Rotation() mgl64.Quat {
	return body.transform.Rotation
}

func (body *Body) SetRotation(rotation mgl64.Quat) {
	body.transform.Rotation = rotation.Normalize()
}

func (body *Body) Velocity() mgl64.Vec3 {
	return body.v
}

func (body *Body) SetVelocity(v mgl64.Vec3) {
	body.v = v
}

func (body *Body) AngularVelocity() mgl64.Vec3 {
	return body.w
}

func (body *Body) SetAngularVelocity(w mgl64.Vec3) {
	body.w = w
}

// BiasVelocity returns the linear and angular position-correction velocities
// from the last step.
func (body *Body) BiasVelocity() (mgl64.Vec3, mgl64.Vec3) {
	return body.v_bias, body.w_bias
}

func (body *Body) ClearBiasVelocity() {
	body.v_bias = VectorZero
	body.w_bias = VectorZero
}

func (body *Body) WorldToLocal(point mgl64.Vec3) mgl64.Vec3 {
	return body.transform.InversePoint(point)
}

func (body *Body) LocalToWorld(point mgl64.Vec3) mgl64.Vec3 {
	return body.transform.Point(point)
}

// PointVelocity is the velocity of a world point rigidly attached to the body.
func (body *Body) PointVelocity(point mgl64.Vec3) mgl64.Vec3 {
	r := point.Sub(body.transform.Position)
	return body.v.Add(body.w.Cross(r))
}

func (body *Body) ApplyImpulseAtWorldPoint(impulse, point mgl64.Vec3) {
	r := point.Sub(body.transform.Position)
	body.v = body.v.Add(impulse.Mul(body.InverseMass()))
	body.w = body.w.Add(body.InverseInertiaWorld().Mul3x1(r.Cross(impulse)))
}

func (body *Body) KineticEnergy() float64 {
	if body.m_inv == 0 {
		return 0
	}
	e := body.m * body.v.Dot(body.v)
	wl := body.transform.InverseVect(body.w)
	for i := 0; i < 3; i++ {
		if inv := body.i_inv.At(i, i); inv > 0 {
			e += wl[i] * wl[i] / inv
		}
	}
	return 0.5 * e
}
