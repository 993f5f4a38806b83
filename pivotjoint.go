package physics

import "github.com/go-gl/mathgl/mgl64"

// PositionJoint is a ball and socket: the two anchors are held together and
// rotation stays free.
type PositionJoint struct {
	AnchorA, AnchorB mgl64.Vec3
}

// NewPositionJoint pins a and b together at a world pivot.
func NewPositionJoint(a, b *Collider, pivot mgl64.Vec3) *Joint {
	return NewPositionJoint2(a, b, localAnchor(a, pivot), localAnchor(b, pivot))
}

// NewPositionJoint2 takes the anchors in each collider's own frame.
func NewPositionJoint2(a, b *Collider, anchorA, anchorB mgl64.Vec3) *Joint {
	j := newJoint(JointPosition, a, b)
	j.Position = &PositionJoint{
		AnchorA: anchorA,
		AnchorB: anchorB,
	}
	return j
}

func updatePositionAtoms(j *Joint, ctx *SolverContext) {
	atoms := j.resizeAtoms(3)
	j.lockPoint(atoms, j.Position.AnchorA, j.Position.AnchorB)
}
