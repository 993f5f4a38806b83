package physics

import "github.com/go-gl/mathgl/mgl64"

// NewSlideJoint keeps the distance between two world anchors within
// [min, max]. Inside that range the anchors move freely. It is a custom
// joint with a single row that only pushes while the range is breached.
func NewSlideJoint(a, b *Collider, anchorA, anchorB mgl64.Vec3, min, max float64) *Joint {
	assert(min <= max, "Slide joint min must not exceed max")
	localA, localB := localAnchor(a, anchorA), localAnchor(b, anchorB)

	row := NewCustomConstraint()
	row.SolvePosition = true

	j := NewCustomJoint(a, b, func(j *Joint, ctx *SolverContext) {
		pA, pB, rA, rB := j.anchors(localA, localB)
		delta := pB.Sub(pA)
		dist := delta.Len()
		row.SetLinear(Normalize(delta, VectorY), rA, rB)

		switch {
		case dist > max:
			row.Error = dist - max
			row.MinImpulse, row.MaxImpulse = -INFINITY, 0
		case dist < min:
			row.Error = dist - min
			row.MinImpulse, row.MaxImpulse = 0, INFINITY
		default:
			row.Error = 0
			row.MinImpulse, row.MaxImpulse = 0, 0
		}
	})
	j.AddConstraint(row)
	return j
}
