package physics

// PulleyJoint couples two stick joints as the two sides of one rope:
// StickA, which must attach ColliderA, and StickB, which must attach
// ColliderB. It holds lenA + Ratio*lenB at Total. While the pulley is valid
// and active it owns the sticks' activation and keeps them switched off.
type PulleyJoint struct {
	StickA, StickB JointID
	Ratio          float64

	// Total is taken from the sticks the first time the pulley is valid.
	Total    float64
	hasTotal bool

	// sticks this pulley switched off
	disabled []JointID
}

func NewPulleyJoint(a, b *Collider, stickA, stickB *Joint, ratio float64) *Joint {
	assert(ratio > 0, "Pulley ratio must be positive")
	j := newJoint(JointPulley, a, b)
	j.Pulley = &PulleyJoint{
		Ratio: ratio,
	}
	if stickA != nil {
		j.Pulley.StickA = stickA.id
	}
	if stickB != nil {
		j.Pulley.StickB = stickB.id
	}
	return j
}

func validatePulley(j *Joint, reg JointRegistry) error {
	pulley := j.Pulley
	stickA, err := linkedJoint(reg, pulley.StickA, j.ColliderA, JointStick)
	if err != nil {
		return err
	}
	stickB, err := linkedJoint(reg, pulley.StickB, j.ColliderB, JointStick)
	if err != nil {
		return err
	}

	if !pulley.hasTotal {
		lenA, _ := stickLength(stickA)
		lenB, _ := stickLength(stickB)
		pulley.Total = lenA + pulley.Ratio*lenB
		pulley.hasTotal = true
	}
	return nil
}

// syncPulleySticks switches the sticks off while the pulley is solving in
// their place, and back on otherwise.
func syncPulleySticks(j *Joint, reg JointRegistry) {
	pulley := j.Pulley
	if j.Valid() && j.active {
		for _, id := range [2]JointID{pulley.StickA, pulley.StickB} {
			if stick := reg.Joint(id); stick != nil && stick.active {
				stick.SetActive(false)
				pulley.disabled = append(pulley.disabled, id)
			}
		}
		return
	}
	releasePulleySticks(j, reg)
}

// releasePulleySticks turns back on the sticks that still exist.
func releasePulleySticks(j *Joint, reg JointRegistry) {
	pulley := j.Pulley
	for _, id := range pulley.disabled {
		if stick := reg.Joint(id); stick != nil {
			stick.SetActive(true)
		}
	}
	pulley.disabled = pulley.disabled[:0]
}

func destroyPulley(j *Joint, reg JointRegistry) {
	releasePulleySticks(j, reg)
}

func updatePulleyAtoms(j *Joint, ctx *SolverContext) {
	pulley := j.Pulley
	atoms := j.resizeAtoms(1)
	reg := j.registry(ctx)
	if reg == nil {
		atoms[0].activate(false)
		return
	}
	stickA, stickB := reg.Joint(pulley.StickA), reg.Joint(pulley.StickB)
	if stickA == nil || stickB == nil {
		atoms[0].activate(false)
		return
	}

	lenA, jacA := stickLength(stickA)
	lenB, jacB := stickLength(stickB)

	a := sideJacobian(stickA, jacA, j.ColliderA, false, 1)
	b := sideJacobian(stickB, jacB, j.ColliderB, true, pulley.Ratio)
	jac := Jacobian{
		LinearA:  a.LinearA,
		AngularA: a.AngularA,
		LinearB:  b.LinearB,
		AngularB: b.AngularB,
	}
	atoms[0].setLock(jac, lenA+pulley.Ratio*lenB-pulley.Total)
}
