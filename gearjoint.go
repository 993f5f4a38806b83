package physics

import "fmt"

// GearJoint couples the free coordinates of two revolute or prismatic
// joints: JointA, which must attach ColliderA, and JointB, which must attach
// ColliderB. It holds coordA + Ratio*coordB at its starting value.
type GearJoint struct {
	JointA, JointB JointID
	Ratio          float64

	initial    float64
	hasInitial bool
}

func NewGearJoint(a, b *Collider, jointA, jointB *Joint, ratio float64) *Joint {
	j := newJoint(JointGear, a, b)
	j.Gear = &GearJoint{
		Ratio: ratio,
	}
	if jointA != nil {
		j.Gear.JointA = jointA.id
	}
	if jointB != nil {
		j.Gear.JointB = jointB.id
	}
	return j
}

func (j *Joint) SetRatio(ratio float64) {
	switch j.Kind {
	case JointGear:
		j.Gear.Ratio = ratio
		j.Gear.hasInitial = false
	case JointPulley:
		j.Pulley.Ratio = ratio
		j.Pulley.hasTotal = false
	default:
		assert(false, "SetRatio on a", j.Kind, "joint")
		return
	}
	j.revalidate()
}

// linkedJoint resolves one of the joints a coupling joint reads and checks
// that it is usable from collider.
func linkedJoint(reg JointRegistry, id JointID, collider ColliderID, kinds ...JointKind) (*Joint, error) {
	linked := reg.Joint(id)
	if linked == nil {
		return nil, fmt.Errorf("%w: %d", ErrMissingJoint, id)
	}

	kindOK := false
	for _, kind := range kinds {
		kindOK = kindOK || linked.Kind == kind
	}
	if !kindOK {
		return nil, fmt.Errorf("%w: %v", ErrWrongJointKind, linked)
	}
	if !linked.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrLinkedInvalid, linked)
	}
	if !linked.Attaches(collider) {
		return nil, fmt.Errorf("%w: %v does not attach collider %d", ErrJointNotAttached, linked, collider)
	}
	return linked, nil
}

func validateGear(j *Joint, reg JointRegistry) error {
	gear := j.Gear
	jointA, err := linkedJoint(reg, gear.JointA, j.ColliderA, JointRevolute, JointPrismatic)
	if err != nil {
		return err
	}
	jointB, err := linkedJoint(reg, gear.JointB, j.ColliderB, JointRevolute, JointPrismatic)
	if err != nil {
		return err
	}

	if !gear.hasInitial {
		coordA, _ := jointKinds[jointA.Kind].measure(jointA)
		coordB, _ := jointKinds[jointB.Kind].measure(jointB)
		gear.initial = coordA + gear.Ratio*coordB
		gear.hasInitial = true
	}
	return nil
}

func updateGearAtoms(j *Joint, ctx *SolverContext) {
	gear := j.Gear
	atoms := j.resizeAtoms(1)
	reg := j.registry(ctx)
	if reg == nil {
		atoms[0].activate(false)
		return
	}
	jointA, jointB := reg.Joint(gear.JointA), reg.Joint(gear.JointB)
	if jointA == nil || jointB == nil {
		atoms[0].activate(false)
		return
	}

	coordA, jacA := jointKinds[jointA.Kind].measure(jointA)
	coordB, jacB := jointKinds[jointB.Kind].measure(jointB)

	a := sideJacobian(jointA, jacA, j.ColliderA, false, 1)
	b := sideJacobian(jointB, jacB, j.ColliderB, true, gear.Ratio)
	jac := Jacobian{
		LinearA:  a.LinearA,
		AngularA: a.AngularA,
		LinearB:  b.LinearB,
		AngularB: b.AngularB,
	}
	atoms[0].setLock(jac, coordA+gear.Ratio*coordB-gear.initial)
}
