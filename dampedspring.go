package physics

import "github.com/go-gl/mathgl/mgl64"

// NewDampedSpring pulls two world anchors toward restLength apart. The
// spring is a soft custom row, tuned by frequency in Hz and dampingRatio.
func NewDampedSpring(a, b *Collider, anchorA, anchorB mgl64.Vec3, restLength, frequency, dampingRatio float64) *Joint {
	assert(frequency > 0, "Spring frequency must be positive")
	localA, localB := localAnchor(a, anchorA), localAnchor(b, anchorB)

	row := NewCustomConstraint()
	row.Frequency = frequency
	row.DampingRatio = dampingRatio

	j := NewCustomJoint(a, b, func(j *Joint, ctx *SolverContext) {
		pA, pB, rA, rB := j.anchors(localA, localB)
		delta := pB.Sub(pA)
		row.SetLinear(Normalize(delta, VectorY), rA, rB)
		row.Error = delta.Len() - restLength
	})
	j.AddConstraint(row)
	return j
}
