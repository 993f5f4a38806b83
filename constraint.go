package physics

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"
)

type JointID uint64

type JointKind int

const (
	JointPosition JointKind = iota
	JointStick
	JointWeld
	JointRevolute
	JointPrismatic
	JointGear
	JointPulley
	JointCustom
	jointKindCount
)

func (k JointKind) String() string {
	if k < 0 || k >= jointKindCount {
		return fmt.Sprint("JointKind(", int(k), ")")
	}
	return jointKinds[k].name
}

type JointState int

const (
	JointUninitialized JointState = iota
	JointValidating
	JointValid
	JointInvalid
)

var (
	ErrMissingCollider  = errors.New("collider not found")
	ErrNoColliders      = errors.New("joint has no colliders")
	ErrSameCollider     = errors.New("joint connects a collider to itself")
	ErrMissingJoint     = errors.New("linked joint not found")
	ErrWrongJointKind   = errors.New("linked joint has the wrong kind")
	ErrLinkedInvalid    = errors.New("linked joint is invalid")
	ErrJointNotAttached = errors.New("linked joint is not attached to the expected collider")
)

// JointRegistry resolves the ids joints hold for their colliders and
// linked joints. A removed object resolves to nil.
type JointRegistry interface {
	Collider(id ColliderID) *Collider
	Joint(id JointID) *Joint
}

// jointKind is the function set one joint kind plugs into Joint.
type jointKind struct {
	name string

	// coupling kinds read other joints and are validated after them
	coupling bool

	validate    func(j *Joint, reg JointRegistry) error
	updateAtoms func(j *Joint, ctx *SolverContext)

	// measure returns the free coordinate of the joint and its derivative.
	measure func(j *Joint) (float64, Jacobian)

	// sync runs whenever the joint becomes valid, invalid, active or inactive.
	sync    func(j *Joint, reg JointRegistry)
	destroy func(j *Joint, reg JointRegistry)
	commit  func(j *Joint)
	draw    func(j *Joint, options Drawer)
}

var jointKinds [jointKindCount]jointKind

func init() {
	jointKinds = [jointKindCount]jointKind{
		JointPosition: {
			name:        "Position",
			updateAtoms: updatePositionAtoms,
			draw:        drawAnchors,
		},
		JointStick: {
			name:        "Stick",
			updateAtoms: updateStickAtoms,
			measure:     stickLength,
			draw:        drawAnchors,
		},
		JointWeld: {
			name:        "Weld",
			updateAtoms: updateWeldAtoms,
			draw:        drawAnchors,
		},
		JointRevolute: {
			name:        "Revolute",
			updateAtoms: updateRevoluteAtoms,
			measure:     unwrapRevoluteAngle,
			draw:        drawRevolute,
		},
		JointPrismatic: {
			name:        "Prismatic",
			updateAtoms: updatePrismaticAtoms,
			measure:     prismaticTranslation,
			draw:        drawPrismatic,
		},
		JointGear: {
			name:        "Gear",
			coupling:    true,
			validate:    validateGear,
			updateAtoms: updateGearAtoms,
			draw:        drawLinked,
		},
		JointPulley: {
			name:        "Pulley",
			coupling:    true,
			validate:    validatePulley,
			updateAtoms: updatePulleyAtoms,
			sync:        syncPulleySticks,
			destroy:     destroyPulley,
			draw:        drawLinked,
		},
		JointCustom: {
			name:        "Custom",
			updateAtoms: updateCustomAtoms,
			destroy:     destroyCustom,
			commit:      commitCustom,
			draw:        drawAnchors,
		},
	}
}

// Joint is one mechanical constraint between two colliders. Either collider
// may be absent, which pins that side to the world. Kind selects which of
// the per-kind configurations is in use.
type Joint struct {
	Kind JointKind

	id    JointID
	space *Space

	// Owner receives the joint's events.
	Owner ObjectID

	// Weak references, resolved again on every validation.
	ColliderA, ColliderB ColliderID

	colliderA, colliderB *Collider
	bodyA, bodyB         *Body

	state  JointState
	err    error
	active bool

	SendsEvents bool

	// A positive MaxImpulse reports JointExceedImpulseLimit when a row
	// needs more than this. AutoSnaps then deactivates the joint.
	MaxImpulse float64
	AutoSnaps  bool

	Limit    *JointLimit
	Motor    *JointMotor
	Spring   *JointSpring
	Override *JointConfigOverride

	atoms  []ConstraintAtom
	corr   correction
	limits limitState

	exceeded bool

	Position  *PositionJoint
	Stick     *StickJoint
	Weld      *WeldJoint
	Revolute  *RevoluteJoint
	Prismatic *PrismaticJoint
	Gear      *GearJoint
	Pulley    *PulleyJoint
	Custom    *CustomJoint

	UserData interface{}
}

var jointCur JointID = 0

func newJoint(kind JointKind, a, b *Collider) *Joint {
	jointCur++
	j := &Joint{
		Kind:        kind,
		id:          jointCur,
		active:      true,
		SendsEvents: true,
		atoms:       make([]ConstraintAtom, 0, 6),
	}
	if a != nil {
		j.ColliderA = a.id
		j.colliderA = a
	}
	if b != nil {
		j.ColliderB = b.id
		j.colliderB = b
	}
	return j
}

func (j *Joint) String() string {
	return fmt.Sprint(j.Kind, " joint ", j.id)
}

func (j *Joint) ID() JointID {
	return j.id
}

func (j *Joint) Space() *Space {
	return j.space
}

func (j *Joint) State() JointState {
	return j.state
}

// Err is the reason the last validation failed.
func (j *Joint) Err() error {
	return j.err
}

func (j *Joint) Valid() bool {
	return j.state == JointValid
}

func (j *Joint) Active() bool {
	return j.active
}

func (j *Joint) SetActive(active bool) {
	if j.active == active {
		return
	}
	j.active = active
	if !active {
		j.deactivateAtoms()
	}
	if sync := jointKinds[j.Kind].sync; sync != nil && j.space != nil {
		sync(j, j.space)
	}
}

// Attaches reports whether the joint holds collider id on either side.
func (j *Joint) Attaches(id ColliderID) bool {
	return id != 0 && (j.ColliderA == id || j.ColliderB == id)
}

// Atoms returns the rows computed by the last UpdateAtoms.
func (j *Joint) Atoms() []ConstraintAtom {
	return j.atoms
}

// Validate resolves the joint's colliders and linked joints through reg.
// It leaves the joint in JointValid or JointInvalid and returns the reason
// for the latter.
func (j *Joint) Validate(reg JointRegistry) error {
	prev := j.state
	j.state = JointValidating

	err := j.validateColliders(reg)
	if validate := jointKinds[j.Kind].validate; err == nil && validate != nil {
		err = validate(j, reg)
	}

	if err != nil {
		j.state = JointInvalid
		j.err = err
		j.deactivateAtoms()
		if prev != JointInvalid {
			log.Println("Warning:", j, "is invalid:", err)
		}
	} else {
		j.state = JointValid
		j.err = nil
	}

	if (prev == JointValid) != (j.state == JointValid) {
		if sync := jointKinds[j.Kind].sync; sync != nil {
			sync(j, reg)
		}
	}
	return err
}

func (j *Joint) validateColliders(reg JointRegistry) error {
	if j.ColliderA == 0 && j.ColliderB == 0 {
		return ErrNoColliders
	}
	if j.ColliderA == j.ColliderB {
		return ErrSameCollider
	}

	j.colliderA, j.colliderB = nil, nil
	if j.ColliderA != 0 {
		if j.colliderA = reg.Collider(j.ColliderA); j.colliderA == nil {
			return fmt.Errorf("%w: A %d", ErrMissingCollider, j.ColliderA)
		}
	}
	if j.ColliderB != 0 {
		if j.colliderB = reg.Collider(j.ColliderB); j.colliderB == nil {
			return fmt.Errorf("%w: B %d", ErrMissingCollider, j.ColliderB)
		}
	}
	return nil
}

// registry is the context's registry, falling back to the joint's own space.
func (j *Joint) registry(ctx *SolverContext) JointRegistry {
	if ctx != nil && ctx.Registry != nil {
		return ctx.Registry
	}
	if j.space != nil {
		return j.space
	}
	return nil
}

// revalidate is called by setters so configuration changes are checked at once.
func (j *Joint) revalidate() {
	if j.space != nil {
		j.Validate(j.space)
	}
}

// deactivateAtoms also forgets the limit state, so a breach seen after
// reactivation is reported again.
func (j *Joint) deactivateAtoms() {
	for i := range j.atoms {
		j.atoms[i].activate(false)
	}
	j.limits = limitState{}
}

// resizeAtoms keeps existing rows so their impulses carry over for warm starting.
func (j *Joint) resizeAtoms(n int) []ConstraintAtom {
	if cap(j.atoms) < n {
		atoms := make([]ConstraintAtom, len(j.atoms), n)
		copy(atoms, j.atoms)
		j.atoms = atoms
	}
	for i := len(j.atoms); i < n; i++ {
		j.atoms = append(j.atoms, ConstraintAtom{})
	}
	j.atoms = j.atoms[:n]
	return j.atoms
}

// UpdateAtoms recomputes every row from the current transforms. It must run
// once per step before the molecules are taken.
func (j *Joint) UpdateAtoms(ctx *SolverContext) {
	if !j.Valid() || !j.active {
		return
	}
	j.corr = j.correction(ctx.Config())
	j.bodyA = colliderBody(j.colliderA)
	j.bodyB = colliderBody(j.colliderB)
	jointKinds[j.Kind].updateAtoms(j, ctx)
}

func (j *Joint) MoleculeCount() int {
	if !j.Valid() || !j.active {
		return 0
	}
	n := 0
	for i := range j.atoms {
		if j.atoms[i].Active {
			n++
		}
	}
	return n
}

func (j *Joint) ComputeMolecules(ctx *SolverContext, out []Molecule) {
	ia, ib := ctx.bodyIndex(j.bodyA), ctx.bodyIndex(j.bodyB)
	bodies := ctx.bodies()
	warm := ctx.Config().WarmStart

	n := 0
	for i := range j.atoms {
		if !j.atoms[i].Active {
			continue
		}
		out[n] = buildMolecule(&j.atoms[i], i, bodies, ia, ib, j.corr, ctx.Dt, warm)
		n++
	}
}

func (j *Joint) WarmStart(bodies []solverBody, ms []Molecule) {
	warmStartFragment(bodies, ms)
}

func (j *Joint) Solve(bodies []solverBody, ms []Molecule) {
	solveFragment(bodies, ms)
}

func (j *Joint) Commit(ms []Molecule) {
	commitFragment(j.atoms, ms)
	if commit := jointKinds[j.Kind].commit; commit != nil {
		commit(j)
	}
}

// PositionMoleculeCount counts the rows the position pass corrects. Motors
// and springs never take part.
func (j *Joint) PositionMoleculeCount() int {
	if !j.Valid() || !j.active || j.corr.mode != PostStabilization {
		return 0
	}
	n := 0
	for i := range j.atoms {
		if a := &j.atoms[i]; a.Active && a.Position && a.Frequency == 0 {
			n++
		}
	}
	return n
}

func (j *Joint) ComputePositionMolecules(ctx *SolverContext, out []Molecule) {
	ia, ib := ctx.bodyIndex(j.bodyA), ctx.bodyIndex(j.bodyB)
	bodies := ctx.bodies()

	n := 0
	for i := range j.atoms {
		if a := &j.atoms[i]; a.Active && a.Position && a.Frequency == 0 {
			out[n] = buildPositionMolecule(a, i, bodies, ia, ib, j.corr, ctx.Dt)
			n++
		}
	}
}

func (j *Joint) SolvePosition(bodies []solverBody, ms []Molecule) {
	solvePositionFragment(bodies, ms)
}

// BatchEvents reports limits that were reached this step and impulses over
// MaxImpulse.
func (j *Joint) BatchEvents(ctx *SolverContext) {
	if !j.Valid() || !j.active {
		return
	}

	events := ctx.Events
	if !j.SendsEvents {
		events = nil
	}

	if j.limits.reachedLower && events != nil {
		events.BatchJointEvent(j, JointLowerLimitReached)
	}
	if j.limits.reachedUpper && events != nil {
		events.BatchJointEvent(j, JointUpperLimitReached)
	}
	j.limits.reachedLower, j.limits.reachedUpper = false, false

	j.exceeded = false
	if j.MaxImpulse > 0 {
		for i := range j.atoms {
			if a := &j.atoms[i]; a.Active && a.role != roleMotor && (a.Impulse > j.MaxImpulse || a.Impulse < -j.MaxImpulse) {
				j.exceeded = true
				break
			}
		}
	}
	if j.exceeded {
		if events != nil {
			events.BatchJointEvent(j, JointExceedImpulseLimit)
		}
		if j.AutoSnaps {
			j.SetActive(false)
		}
	}
}

// Destroy detaches the joint from whatever it manages. The space calls it
// from RemoveJoint.
func (j *Joint) Destroy(reg JointRegistry) {
	if destroy := jointKinds[j.Kind].destroy; destroy != nil {
		destroy(j, reg)
	}
	j.deactivateAtoms()
	j.state = JointInvalid
	j.colliderA, j.colliderB = nil, nil
	j.bodyA, j.bodyB = nil, nil
}

func colliderBody(c *Collider) *Body {
	if c == nil {
		return nil
	}
	return c.body
}

func colliderTransform(c *Collider) Transform {
	if c == nil {
		return NewTransformIdentity()
	}
	return c.WorldTransform()
}

// localAnchor converts a world point into c's frame.
func localAnchor(c *Collider, world mgl64.Vec3) mgl64.Vec3 {
	return colliderTransform(c).InversePoint(world)
}

// localFrame converts a world orientation into c's frame.
func localFrame(c *Collider, world mgl64.Quat) mgl64.Quat {
	return colliderTransform(c).Rotation.Conjugate().Mul(world).Normalize()
}

// anchors returns the world anchors and their lever arms from each body's center.
func (j *Joint) anchors(localA, localB mgl64.Vec3) (pA, pB, rA, rB mgl64.Vec3) {
	pA = colliderTransform(j.colliderA).Point(localA)
	pB = colliderTransform(j.colliderB).Point(localB)
	if body := colliderBody(j.colliderA); body != nil {
		rA = pA.Sub(body.transform.Position)
	}
	if body := colliderBody(j.colliderB); body != nil {
		rB = pB.Sub(body.transform.Position)
	}
	return
}

// worldFrames returns the local frames rotated into world space.
func (j *Joint) worldFrames(frameA, frameB mgl64.Quat) (mgl64.Quat, mgl64.Quat) {
	qA := colliderTransform(j.colliderA).Rotation.Mul(frameA).Normalize()
	qB := colliderTransform(j.colliderB).Rotation.Mul(frameB).Normalize()
	return qA, qB
}

// lockPoint fills three rows that hold anchor B on anchor A along the world axes.
func (j *Joint) lockPoint(atoms []ConstraintAtom, localA, localB mgl64.Vec3) {
	pA, pB, rA, rB := j.anchors(localA, localB)
	d := pB.Sub(pA)
	for i, axis := range [3]mgl64.Vec3{VectorX, VectorY, VectorZ} {
		atoms[i].setLock(LinearJacobian(axis, rA, rB), d.Dot(axis))
	}
}

// lockAngles fills one angular row per axis holding frame B on frame A.
func lockAngles(atoms []ConstraintAtom, qA, qB mgl64.Quat, axes ...mgl64.Vec3) {
	e := SmallAngles(qB.Mul(qA.Conjugate()))
	for i, axis := range axes {
		atoms[i].setLock(AngularJacobian(axis), e.Dot(axis))
	}
}

// sideJacobian picks the half of jac that acts on collider id of joint j and
// moves it to the A or B half of a new row.
func sideJacobian(j *Joint, jac Jacobian, id ColliderID, toB bool, scale float64) Jacobian {
	lin, ang := jac.LinearB, jac.AngularB
	if j.ColliderA == id {
		lin, ang = jac.LinearA, jac.AngularA
	}
	if toB {
		return Jacobian{LinearB: lin.Mul(scale), AngularB: ang.Mul(scale)}
	}
	return Jacobian{LinearA: lin.Mul(scale), AngularA: ang.Mul(scale)}
}
