package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NewRatchetJoint lets b turn about a world axis in the direction of
// ratchet only, like a socket wrench. The pawl drops into a tooth every
// |ratchet| radians, offset by phase, and holds against reverse rotation.
func NewRatchetJoint(a, b *Collider, axis mgl64.Vec3, phase, ratchet float64) *Joint {
	assert(ratchet != 0, "Ratchet spacing must not be zero")
	rotary := newRotaryTracker(a, b, axis)
	pawl := 0.0

	row := NewCustomConstraint()
	row.SolvePosition = true
	if ratchet > 0 {
		row.MinImpulse, row.MaxImpulse = 0, INFINITY
	} else {
		row.MinImpulse, row.MaxImpulse = -INFINITY, 0
	}

	j := NewCustomJoint(a, b, func(j *Joint, ctx *SolverContext) {
		angle, world := rotary.measure(j)
		row.SetAngular(world)

		if (pawl-angle)*ratchet > 0 {
			row.Error = angle - pawl
		} else {
			pawl = math.Floor((angle-phase)/ratchet)*ratchet + phase
			row.Error = 0
		}
	})
	j.AddConstraint(row)
	return j
}
