package physics

import "github.com/go-gl/mathgl/mgl64"

// WeldJoint locks all six degrees of freedom between two colliders.
type WeldJoint struct {
	AnchorA, AnchorB mgl64.Vec3

	// FrameA and FrameB coincide in world space when the weld is satisfied.
	FrameA, FrameB mgl64.Quat
}

// NewWeldJoint welds a and b in their current relative pose at a world pivot.
func NewWeldJoint(a, b *Collider, pivot mgl64.Vec3) *Joint {
	j := newJoint(JointWeld, a, b)
	j.Weld = &WeldJoint{
		AnchorA: localAnchor(a, pivot),
		AnchorB: localAnchor(b, pivot),
		FrameA:  localFrame(a, mgl64.QuatIdent()),
		FrameB:  localFrame(b, mgl64.QuatIdent()),
	}
	return j
}

func updateWeldAtoms(j *Joint, ctx *SolverContext) {
	weld := j.Weld
	atoms := j.resizeAtoms(6)
	j.lockPoint(atoms[:3], weld.AnchorA, weld.AnchorB)

	qA, qB := j.worldFrames(weld.FrameA, weld.FrameB)
	lockAngles(atoms[3:], qA, qB, VectorX, VectorY, VectorZ)
}
