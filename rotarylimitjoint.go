package physics

import "github.com/go-gl/mathgl/mgl64"

// rotaryTracker measures how far b has turned against a about an axis
// since it was made. The angle keeps counting past a full turn.
type rotaryTracker struct {
	frameA, frameB mgl64.Quat
	angle          float64
}

func newRotaryTracker(a, b *Collider, axis mgl64.Vec3) *rotaryTracker {
	frame := frameFromAxis(axis, VectorX, VectorY)
	return &rotaryTracker{
		frameA: localFrame(a, frame),
		frameB: localFrame(b, frame),
	}
}

// measure returns the angle and the current world axis, as seen from a.
func (r *rotaryTracker) measure(j *Joint) (float64, mgl64.Vec3) {
	qA, qB := j.worldFrames(r.frameA, r.frameB)
	raw := TwistAngle(qA.Conjugate().Mul(qB), VectorZ)
	r.angle += WrapAngle(raw - r.angle)
	return r.angle, qA.Rotate(VectorZ)
}

// NewRotaryLimitJoint keeps the relative rotation of b about a world axis
// within [min, max] radians of where it started. Other motion is free.
func NewRotaryLimitJoint(a, b *Collider, axis mgl64.Vec3, min, max float64) *Joint {
	assert(min <= max, "Rotary limit min must not exceed max")
	rotary := newRotaryTracker(a, b, axis)

	row := NewCustomConstraint()
	row.SolvePosition = true

	j := NewCustomJoint(a, b, func(j *Joint, ctx *SolverContext) {
		angle, world := rotary.measure(j)
		row.SetAngular(world)

		switch {
		case angle > max:
			row.Error = angle - max
			row.MinImpulse, row.MaxImpulse = -INFINITY, 0
		case angle < min:
			row.Error = angle - min
			row.MinImpulse, row.MaxImpulse = 0, INFINITY
		default:
			row.Error = 0
			row.MinImpulse, row.MaxImpulse = 0, 0
		}
	})
	j.AddConstraint(row)
	return j
}
