package physics

import "github.com/go-gl/mathgl/mgl64"

// StickJoint keeps the distance between two anchors at Length.
type StickJoint struct {
	AnchorA, AnchorB mgl64.Vec3
	Length           float64
}

// NewStickJoint takes world anchors and keeps their current distance.
func NewStickJoint(a, b *Collider, anchorA, anchorB mgl64.Vec3) *Joint {
	j := newJoint(JointStick, a, b)
	j.Stick = &StickJoint{
		AnchorA: localAnchor(a, anchorA),
		AnchorB: localAnchor(b, anchorB),
		Length:  anchorB.Sub(anchorA).Len(),
	}
	return j
}

func (j *Joint) SetLength(length float64) {
	assert(j.Kind == JointStick, "SetLength on a", j.Kind, "joint")
	assert(length >= 0, "Length must be positive")
	if j.Stick == nil {
		return
	}
	j.Stick.Length = length
	j.revalidate()
}

// stickLength measures the current anchor distance. When the anchors meet,
// the direction falls back to the world up axis.
func stickLength(j *Joint) (float64, Jacobian) {
	pA, pB, rA, rB := j.anchors(j.Stick.AnchorA, j.Stick.AnchorB)
	delta := pB.Sub(pA)
	n := Normalize(delta, VectorY)
	return delta.Len(), LinearJacobian(n, rA, rB)
}

func updateStickAtoms(j *Joint, ctx *SolverContext) {
	atoms := j.resizeAtoms(1)
	dist, jac := stickLength(j)
	atoms[0].setLock(jac, dist-j.Stick.Length)
}
