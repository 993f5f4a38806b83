package physics

import "github.com/go-gl/mathgl/mgl64"

// PrismaticJoint lets anchor B slide along the z axis of frame A. The
// relative rotation is locked.
type PrismaticJoint struct {
	AnchorA, AnchorB mgl64.Vec3

	// Local frames. The z axis of FrameA is the slide axis.
	FrameA, FrameB mgl64.Quat
}

// NewPrismaticJoint lets b slide on a along a world axis through a world anchor.
func NewPrismaticJoint(a, b *Collider, anchor, axis mgl64.Vec3) *Joint {
	frame := frameFromAxis(axis, VectorX, VectorY)

	j := newJoint(JointPrismatic, a, b)
	j.Prismatic = &PrismaticJoint{
		AnchorA: localAnchor(a, anchor),
		AnchorB: localAnchor(b, anchor),
		FrameA:  localFrame(a, frame),
		FrameB:  localFrame(b, frame),
	}
	return j
}

// NewGrooveJoint is a prismatic joint whose travel is limited to the groove
// between two world points.
func NewGrooveJoint(a, b *Collider, grooveA, grooveB mgl64.Vec3) *Joint {
	j := NewPrismaticJoint(a, b, grooveA, grooveB.Sub(grooveA))
	j.Limit = &JointLimit{Lower: 0, Upper: grooveB.Sub(grooveA).Len()}
	return j
}

// Translation is how far anchor B has slid from anchor A along the axis.
func (j *Joint) Translation() float64 {
	if j.Kind != JointPrismatic {
		return 0
	}
	translation, _ := prismaticTranslation(j)
	return translation
}

// prismaticTranslation measures along the slide axis. The lever arm on A
// reaches out to anchor B, since that is where the axis is being pushed.
func prismaticTranslation(j *Joint) (float64, Jacobian) {
	p := j.Prismatic
	pA, pB, rA, rB := j.anchors(p.AnchorA, p.AnchorB)
	qA, _ := j.worldFrames(p.FrameA, p.FrameB)

	axis := qA.Rotate(VectorZ)
	d := pB.Sub(pA)
	return d.Dot(axis), LinearJacobian(axis, rA.Add(d), rB)
}

func updatePrismaticAtoms(j *Joint, ctx *SolverContext) {
	p := j.Prismatic
	atoms := j.resizeAtoms(6)

	qA, qB := j.worldFrames(p.FrameA, p.FrameB)
	lockAngles(atoms[:3], qA, qB, VectorX, VectorY, VectorZ)

	pA, pB, rA, rB := j.anchors(p.AnchorA, p.AnchorB)
	d := pB.Sub(pA)
	for i, axis := range [2]mgl64.Vec3{qA.Rotate(VectorX), qA.Rotate(VectorY)} {
		atoms[3+i].setLock(LinearJacobian(axis, rA.Add(d), rB), d.Dot(axis))
	}

	translation, jac := prismaticTranslation(j)
	j.updateFreeAtom(&atoms[5], jac, translation)
}
