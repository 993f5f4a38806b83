package physics

import "github.com/go-gl/mathgl/mgl64"

// NewDampedRotarySpring pulls the relative rotation of b about a world
// axis toward restAngle radians from where it started.
func NewDampedRotarySpring(a, b *Collider, axis mgl64.Vec3, restAngle, frequency, dampingRatio float64) *Joint {
	assert(frequency > 0, "Spring frequency must be positive")
	rotary := newRotaryTracker(a, b, axis)

	row := NewCustomConstraint()
	row.Frequency = frequency
	row.DampingRatio = dampingRatio

	j := NewCustomJoint(a, b, func(j *Joint, ctx *SolverContext) {
		angle, world := rotary.measure(j)
		row.SetAngular(world)
		row.Error = angle - restAngle
	})
	j.AddConstraint(row)
	return j
}
