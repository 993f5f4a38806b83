package physics

import "github.com/go-gl/mathgl/mgl64"

// NewSimpleMotor spins b relative to a about a world axis at rate radians
// per second, using at most maxImpulse per step. A zero rate brakes.
func NewSimpleMotor(a, b *Collider, axis mgl64.Vec3, rate, maxImpulse float64) *Joint {
	assert(maxImpulse >= 0, "Motor impulse must be positive")
	rotary := newRotaryTracker(a, b, axis)

	row := NewCustomConstraint()
	row.TargetSpeed = rate
	row.MinImpulse, row.MaxImpulse = -maxImpulse, maxImpulse

	j := NewCustomJoint(a, b, func(j *Joint, ctx *SolverContext) {
		_, world := rotary.measure(j)
		row.SetAngular(world)
	})
	j.AddConstraint(row)
	return j
}
