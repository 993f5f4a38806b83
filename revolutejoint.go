package physics

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type JointSide int

const (
	SideA JointSide = iota
	SideB
)

// RevoluteJoint is a hinge. The anchors are pinned together and the
// collider frames may only turn about their shared z axis.
type RevoluteJoint struct {
	AnchorA, AnchorB mgl64.Vec3

	// Local frames. Their z axes are the hinge.
	FrameA, FrameB mgl64.Quat

	// PrimaryFrame is the frame the hinge axis and angle are measured in.
	PrimaryFrame JointSide

	// FreeOffAxes drops the two angular locks, leaving a ball and socket
	// that still measures, limits and drives the hinge angle.
	FreeOffAxes bool

	// hinge angle, unwrapped across turns
	angle float64
}

// NewRevoluteJoint hinges a and b at a world pivot about a world axis.
func NewRevoluteJoint(a, b *Collider, pivot, axis mgl64.Vec3) *Joint {
	frame := frameFromAxis(axis, VectorX, VectorY)

	j := newJoint(JointRevolute, a, b)
	j.Revolute = &RevoluteJoint{
		AnchorA: localAnchor(a, pivot),
		AnchorB: localAnchor(b, pivot),
		FrameA:  localFrame(a, frame),
		FrameB:  localFrame(b, frame),
	}
	return j
}

// frameFromAxis builds an orientation whose z axis is axis. The x axis is
// re-derived from oldX, or from oldY when oldX nearly lies along the new axis.
func frameFromAxis(axis, oldX, oldY mgl64.Vec3) mgl64.Quat {
	z := Normalize(axis, VectorZ)

	x := oldX
	if math.Abs(x.Dot(z)) > 0.99 {
		x = oldY
	}
	y := Normalize(z.Cross(x), VectorY)
	x = y.Cross(z)

	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(x, y, z).Mat4()).Normalize()
}

// primaryFrame returns the world frame of the primary side.
func (j *Joint) primaryFrame(frameA, frameB mgl64.Quat, side JointSide) mgl64.Quat {
	qA, qB := j.worldFrames(frameA, frameB)
	if side == SideB {
		return qB
	}
	return qA
}

// WorldAxis is the hinge or slide axis in world space.
func (j *Joint) WorldAxis() mgl64.Vec3 {
	switch j.Kind {
	case JointRevolute:
		r := j.Revolute
		return j.primaryFrame(r.FrameA, r.FrameB, r.PrimaryFrame).Rotate(VectorZ)
	case JointPrismatic:
		p := j.Prismatic
		return j.primaryFrame(p.FrameA, p.FrameB, SideA).Rotate(VectorZ)
	}
	return VectorZero
}

// SetWorldAxis turns the hinge or slide axis of a revolute or prismatic
// joint. Both local frames are rebuilt from the current primary frame.
func (j *Joint) SetWorldAxis(axis mgl64.Vec3) {
	var frameA, frameB *mgl64.Quat
	side := SideA
	switch j.Kind {
	case JointRevolute:
		frameA, frameB = &j.Revolute.FrameA, &j.Revolute.FrameB
		side = j.Revolute.PrimaryFrame
	case JointPrismatic:
		frameA, frameB = &j.Prismatic.FrameA, &j.Prismatic.FrameB
	default:
		log.Println("Warning: SetWorldAxis on a", j.Kind, "joint")
		return
	}

	old := j.primaryFrame(*frameA, *frameB, side)
	frame := frameFromAxis(axis, old.Rotate(VectorX), old.Rotate(VectorY))
	*frameA = localFrame(j.colliderA, frame)
	*frameB = localFrame(j.colliderB, frame)

	if j.Kind == JointRevolute {
		j.Revolute.angle = 0
	}
	j.revalidate()
}

func (j *Joint) SetPrimaryFrame(side JointSide) {
	assert(j.Kind == JointRevolute, "SetPrimaryFrame on a", j.Kind, "joint")
	if j.Revolute == nil {
		return
	}
	j.Revolute.PrimaryFrame = side
	j.revalidate()
}

func (j *Joint) SetFreeOffAxes(free bool) {
	assert(j.Kind == JointRevolute, "SetFreeOffAxes on a", j.Kind, "joint")
	if j.Revolute == nil {
		return
	}
	j.Revolute.FreeOffAxes = free
	j.revalidate()
}

// Angle is the current hinge angle of a revolute joint, in radians.
func (j *Joint) Angle() float64 {
	if j.Kind != JointRevolute {
		return 0
	}
	angle, _ := revoluteAngle(j)
	return angle
}

// revoluteAngle measures B against A about the hinge in the primary frame.
// The result keeps counting past a full turn, relative to the angle stored
// by the last unwrapRevoluteAngle. It does not move that baseline.
func revoluteAngle(j *Joint) (float64, Jacobian) {
	r := j.Revolute
	qA, qB := j.worldFrames(r.FrameA, r.FrameB)

	var raw float64
	var axis mgl64.Vec3
	if r.PrimaryFrame == SideB {
		axis = qB.Rotate(VectorZ)
		raw = -TwistAngle(qB.Conjugate().Mul(qA), VectorZ)
	} else {
		axis = qA.Rotate(VectorZ)
		raw = TwistAngle(qA.Conjugate().Mul(qB), VectorZ)
	}

	return r.angle + WrapAngle(raw-r.angle), AngularJacobian(axis)
}

// unwrapRevoluteAngle measures and stores the angle as the new baseline.
// Only the solver calls it, once per step.
func unwrapRevoluteAngle(j *Joint) (float64, Jacobian) {
	angle, jac := revoluteAngle(j)
	j.Revolute.angle = angle
	return angle, jac
}

func updateRevoluteAtoms(j *Joint, ctx *SolverContext) {
	r := j.Revolute
	atoms := j.resizeAtoms(6)
	j.lockPoint(atoms[:3], r.AnchorA, r.AnchorB)

	if r.FreeOffAxes {
		atoms[3].activate(false)
		atoms[4].activate(false)
	} else {
		qA, qB := j.worldFrames(r.FrameA, r.FrameB)
		primary := qA
		if r.PrimaryFrame == SideB {
			primary = qB
		}
		// error is the rotation that brings the two hinge axes together
		e := qA.Rotate(VectorZ).Cross(qB.Rotate(VectorZ))
		for i, axis := range [2]mgl64.Vec3{primary.Rotate(VectorX), primary.Rotate(VectorY)} {
			atoms[3+i].setLock(AngularJacobian(axis), e.Dot(axis))
		}
	}

	angle, jac := unwrapRevoluteAngle(j)
	j.updateFreeAtom(&atoms[5], jac, angle)
}
