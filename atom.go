package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Jacobian holds one scalar row's derivative with respect to the linear and
// angular velocity of both bodies.
type Jacobian struct {
	LinearA, AngularA, LinearB, AngularB mgl64.Vec3
}

// LinearJacobian is the row for C = n . (pB - pA) with lever arms rA and rB.
func LinearJacobian(n, rA, rB mgl64.Vec3) Jacobian {
	return Jacobian{
		LinearA:  n.Mul(-1),
		AngularA: rA.Cross(n).Mul(-1),
		LinearB:  n,
		AngularB: rB.Cross(n),
	}
}

// AngularJacobian is the row for a rotation of B relative to A about axis.
func AngularJacobian(axis mgl64.Vec3) Jacobian {
	return Jacobian{
		AngularA: axis.Mul(-1),
		AngularB: axis,
	}
}

func (j Jacobian) Negate() Jacobian {
	return Jacobian{j.LinearA.Mul(-1), j.AngularA.Mul(-1), j.LinearB.Mul(-1), j.AngularB.Mul(-1)}
}

func (j Jacobian) velocity(a, b *solverBody) float64 {
	return j.LinearA.Dot(a.v) + j.AngularA.Dot(a.w) + j.LinearB.Dot(b.v) + j.AngularB.Dot(b.w)
}

func (j Jacobian) biasVelocity(a, b *solverBody) float64 {
	return j.LinearA.Dot(a.vBias) + j.AngularA.Dot(a.wBias) + j.LinearB.Dot(b.vBias) + j.AngularB.Dot(b.wBias)
}

// inverseMass is J M^-1 J^T.
func (j Jacobian) inverseMass(a, b *solverBody) float64 {
	return a.invMass*j.LinearA.Dot(j.LinearA) + InertiaAlong(a.invInertia, j.AngularA) +
		b.invMass*j.LinearB.Dot(j.LinearB) + InertiaAlong(b.invInertia, j.AngularB)
}

type atomRole int

const (
	roleLock atomRole = iota
	roleLowerLimit
	roleUpperLimit
	roleMotor
	roleSpring
	roleContact
	roleFriction
)

// ConstraintAtom is one scalar constraint row as a joint computes it.
// Impulse survives from step to step for warm starting.
type ConstraintAtom struct {
	Jacobian

	// Error is the positional error of the row, zero when satisfied.
	Error float64

	// TargetSpeed drives J*v toward a velocity (motors, restitution).
	TargetSpeed float64

	MinImpulse, MaxImpulse float64

	// A positive Frequency makes the row soft.
	Frequency, DampingRatio float64

	// UsesSlop lets small errors go uncorrected (limits, contacts).
	UsesSlop bool

	// Position marks rows the position pass may correct.
	Position bool

	Active  bool
	Impulse float64

	role atomRole
}

func (a *ConstraintAtom) setLock(j Jacobian, err float64) {
	a.setRole(roleLock)
	a.Jacobian = j
	a.Error = err
	a.TargetSpeed = 0
	a.MinImpulse, a.MaxImpulse = -INFINITY, INFINITY
	a.Frequency, a.DampingRatio = 0, 0
	a.UsesSlop = false
	a.Position = true
	a.activate(true)
}

// activate switches the row on or off; a row that turns off forgets its impulse.
func (a *ConstraintAtom) activate(active bool) {
	if !active {
		a.Impulse = 0
	}
	a.Active = active
}

// Molecule is the solver-facing form of an atom: the row, its effective
// mass and bias, and the two body slots it couples.
type Molecule struct {
	Jacobian

	Mass  float64
	Bias  float64
	Gamma float64

	MinImpulse, MaxImpulse float64
	Impulse                float64

	BodyA, BodyB int

	atom int
}

// correction gathers the positional error settings that apply to one source.
type correction struct {
	baumgarte     float64
	slop          float64
	maxCorrection float64
	mode          PositionCorrection
}

func (c correction) errorBias(err float64, usesSlop bool, dt float64) float64 {
	if usesSlop {
		if err < 0 {
			err = math.Min(err+c.slop, 0)
		} else {
			err = math.Max(err-c.slop, 0)
		}
	}
	return Clamp(c.baumgarte*err/dt, -c.maxCorrection, c.maxCorrection)
}

// buildMolecule turns an atom into a velocity molecule. Under post
// stabilization the positional part of the bias is left to the position pass.
func buildMolecule(atom *ConstraintAtom, index int, bodies []solverBody, ia, ib int, c correction, dt float64, warmStart bool) Molecule {
	a, b := &bodies[ia], &bodies[ib]
	m := Molecule{
		Jacobian:   atom.Jacobian,
		MinImpulse: atom.MinImpulse,
		MaxImpulse: atom.MaxImpulse,
		BodyA:      ia,
		BodyB:      ib,
		atom:       index,
	}
	if warmStart {
		m.Impulse = Clamp(atom.Impulse, atom.MinImpulse, atom.MaxImpulse)
	}

	k := atom.Jacobian.inverseMass(a, b)
	if k < MassEpsilon {
		// immovable pairing, the row can not do anything
		m.Impulse = 0
		return m
	}

	if atom.Frequency > 0 {
		softenMolecule(&m, atom, k, dt)
		return m
	}

	m.Mass = 1.0 / k
	if !atom.Position || c.mode == Baumgarte {
		m.Bias = c.errorBias(atom.Error, atom.UsesSlop, dt)
	}
	m.Bias -= atom.TargetSpeed
	return m
}

// softenMolecule applies the spring form: the row behaves like a damped
// spring of the given frequency instead of a rigid constraint.
func softenMolecule(m *Molecule, atom *ConstraintAtom, k, dt float64) {
	mass := 1.0 / k
	omega := 2.0 * math.Pi * atom.Frequency
	d := 2.0 * mass * atom.DampingRatio * omega
	stiffness := mass * omega * omega

	gamma := dt * (d + dt*stiffness)
	if gamma > 0 {
		gamma = 1.0 / gamma
	}
	m.Gamma = gamma
	m.Bias = atom.Error*dt*stiffness*gamma - atom.TargetSpeed
	m.Mass = 1.0 / (k + gamma)
}

// buildPositionMolecule is the bias-only form used by the position pass.
func buildPositionMolecule(atom *ConstraintAtom, index int, bodies []solverBody, ia, ib int, c correction, dt float64) Molecule {
	a, b := &bodies[ia], &bodies[ib]
	m := Molecule{
		Jacobian:   atom.Jacobian,
		MinImpulse: atom.MinImpulse,
		MaxImpulse: atom.MaxImpulse,
		BodyA:      ia,
		BodyB:      ib,
		atom:       index,
	}
	if k := atom.Jacobian.inverseMass(a, b); k >= MassEpsilon {
		m.Mass = 1.0 / k
		m.Bias = c.errorBias(atom.Error, atom.UsesSlop, dt)
	}
	return m
}

func applyMoleculeImpulse(bodies []solverBody, m *Molecule, lambda float64) {
	a, b := &bodies[m.BodyA], &bodies[m.BodyB]
	a.v = a.v.Add(m.LinearA.Mul(lambda * a.invMass))
	a.w = a.w.Add(a.invInertia.Mul3x1(m.AngularA.Mul(lambda)))
	b.v = b.v.Add(m.LinearB.Mul(lambda * b.invMass))
	b.w = b.w.Add(b.invInertia.Mul3x1(m.AngularB.Mul(lambda)))
}

func applyMoleculeBiasImpulse(bodies []solverBody, m *Molecule, lambda float64) {
	a, b := &bodies[m.BodyA], &bodies[m.BodyB]
	a.vBias = a.vBias.Add(m.LinearA.Mul(lambda * a.invMass))
	a.wBias = a.wBias.Add(a.invInertia.Mul3x1(m.AngularA.Mul(lambda)))
	b.vBias = b.vBias.Add(m.LinearB.Mul(lambda * b.invMass))
	b.wBias = b.wBias.Add(b.invInertia.Mul3x1(m.AngularB.Mul(lambda)))
}

// The fragment routines below are shared by every joint kind and by contacts.

func warmStartFragment(bodies []solverBody, ms []Molecule) {
	for i := range ms {
		if ms[i].Impulse != 0 {
			applyMoleculeImpulse(bodies, &ms[i], ms[i].Impulse)
		}
	}
}

func solveMolecule(bodies []solverBody, m *Molecule) {
	if m.Mass == 0 {
		return
	}
	jv := m.Jacobian.velocity(&bodies[m.BodyA], &bodies[m.BodyB])
	lambda := -m.Mass * (jv + m.Bias + m.Gamma*m.Impulse)

	old := m.Impulse
	m.Impulse = Clamp(old+lambda, m.MinImpulse, m.MaxImpulse)
	applyMoleculeImpulse(bodies, m, m.Impulse-old)
}

func solveFragment(bodies []solverBody, ms []Molecule) {
	for i := range ms {
		solveMolecule(bodies, &ms[i])
	}
}

func solvePositionFragment(bodies []solverBody, ms []Molecule) {
	for i := range ms {
		m := &ms[i]
		if m.Mass == 0 {
			continue
		}
		jv := m.Jacobian.biasVelocity(&bodies[m.BodyA], &bodies[m.BodyB])
		lambda := -m.Mass * (jv + m.Bias)

		old := m.Impulse
		m.Impulse = Clamp(old+lambda, m.MinImpulse, m.MaxImpulse)
		applyMoleculeBiasImpulse(bodies, m, m.Impulse-old)
	}
}

func commitFragment(atoms []ConstraintAtom, ms []Molecule) {
	for i := range ms {
		atoms[ms[i].atom].Impulse = ms[i].Impulse
	}
}
