package physics

// JointLimit bounds the free coordinate of a revolute (radians) or
// prismatic (distance) joint.
type JointLimit struct {
	Lower, Upper float64
}

// JointMotor drives the free coordinate at Speed using at most MaxImpulse
// per step.
type JointMotor struct {
	Speed      float64
	MaxImpulse float64
}

// JointSpring pulls the free coordinate toward Rest.
type JointSpring struct {
	Frequency    float64
	DampingRatio float64
	Rest         float64
}

// JointConfigOverride replaces the solver's error correction settings for one joint.
type JointConfigOverride struct {
	Baumgarte             float64
	Slop                  float64
	MaxCorrectionVelocity float64
	Correction            PositionCorrection
}

type limitState struct {
	lower, upper bool

	// set on the step a limit becomes breached
	reachedLower, reachedUpper bool
}

func (s *limitState) update(lower, upper bool) {
	s.reachedLower = s.reachedLower || (lower && !s.lower)
	s.reachedUpper = s.reachedUpper || (upper && !s.upper)
	s.lower, s.upper = lower, upper
}

func (j *Joint) correction(config *SolverConfig) correction {
	c := config.correction(config.JointCorrection)
	if o := j.Override; o != nil {
		c.baumgarte = o.Baumgarte
		c.slop = o.Slop
		c.mode = o.Correction
		if o.MaxCorrectionVelocity > 0 {
			c.maxCorrection = o.MaxCorrectionVelocity
		}
	}
	return c
}

func (j *Joint) SetLimit(lower, upper float64) {
	assert(lower <= upper, "Limit lower bound must not exceed upper bound")
	if lower > upper {
		lower, upper = upper, lower
	}
	j.Limit = &JointLimit{Lower: lower, Upper: upper}
	j.revalidate()
}

func (j *Joint) ClearLimit() {
	j.Limit = nil
	j.limits = limitState{}
	j.revalidate()
}

func (j *Joint) SetMotor(speed, maxImpulse float64) {
	assert(maxImpulse >= 0, "Motor impulse must be positive")
	j.Motor = &JointMotor{Speed: speed, MaxImpulse: maxImpulse}
	j.revalidate()
}

func (j *Joint) ClearMotor() {
	j.Motor = nil
	j.revalidate()
}

func (j *Joint) SetSpring(frequency, dampingRatio, rest float64) {
	assert(frequency >= 0, "Spring frequency must be positive")
	j.Spring = &JointSpring{Frequency: frequency, DampingRatio: dampingRatio, Rest: rest}
	j.revalidate()
}

func (j *Joint) ClearSpring() {
	j.Spring = nil
	j.revalidate()
}

// updateFreeAtom fills the row for the joint's free coordinate. A breached
// limit wins over the motor, and the motor wins over the spring. With
// none of them the row is off.
func (j *Joint) updateFreeAtom(atom *ConstraintAtom, jac Jacobian, value float64) {
	var lower, upper bool

	switch {
	case j.Limit != nil && value < j.Limit.Lower:
		lower = true
		atom.setLimit(jac, value-j.Limit.Lower, 0, INFINITY, roleLowerLimit)
	case j.Limit != nil && value > j.Limit.Upper:
		upper = true
		atom.setLimit(jac, value-j.Limit.Upper, -INFINITY, 0, roleUpperLimit)
	case j.Motor != nil:
		atom.setMotor(jac, j.Motor.Speed, j.Motor.MaxImpulse)
	case j.Spring != nil && j.Spring.Frequency > 0:
		atom.setSpring(jac, value-j.Spring.Rest, j.Spring.Frequency, j.Spring.DampingRatio)
	default:
		atom.activate(false)
	}

	j.limits.update(lower, upper)
}

func (a *ConstraintAtom) setRole(role atomRole) {
	if a.role != role {
		a.Impulse = 0
	}
	a.role = role
}

func (a *ConstraintAtom) setLimit(j Jacobian, err, min, max float64, role atomRole) {
	a.setRole(role)
	a.Jacobian = j
	a.Error = err
	a.TargetSpeed = 0
	a.MinImpulse, a.MaxImpulse = min, max
	a.Frequency, a.DampingRatio = 0, 0
	a.UsesSlop = true
	a.Position = true
	a.activate(true)
}

func (a *ConstraintAtom) setMotor(j Jacobian, speed, maxImpulse float64) {
	a.setRole(roleMotor)
	a.Jacobian = j
	a.Error = 0
	a.TargetSpeed = speed
	a.MinImpulse, a.MaxImpulse = -maxImpulse, maxImpulse
	a.Frequency, a.DampingRatio = 0, 0
	a.UsesSlop = false
	a.Position = false
	a.activate(true)
}

func (a *ConstraintAtom) setSpring(j Jacobian, err, frequency, dampingRatio float64) {
	a.setRole(roleSpring)
	a.Jacobian = j
	a.Error = err
	a.TargetSpeed = 0
	a.MinImpulse, a.MaxImpulse = -INFINITY, INFINITY
	a.Frequency, a.DampingRatio = frequency, dampingRatio
	a.UsesSlop = false
	a.Position = false
	a.activate(true)
}
