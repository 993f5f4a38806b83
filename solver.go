package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PositionCorrection selects how positional error is fed back into a source.
type PositionCorrection int

const (
	// Baumgarte folds the error into the velocity bias.
	Baumgarte PositionCorrection = iota
	// PostStabilization corrects error in a separate pass with bias
	// velocities so it never adds energy to the real velocities.
	PostStabilization
)

func (c PositionCorrection) String() string {
	if c == PostStabilization {
		return "PostStabilization"
	}
	return "Baumgarte"
}

type SolverConfig struct {
	VelocityIterations int
	PositionIterations int

	WarmStart bool

	// Fraction of the positional error corrected per step.
	Baumgarte float64
	// Error allowed before limits and contacts start correcting.
	Slop float64
	// Cap on the correction speed.
	MaxCorrectionVelocity float64

	JointCorrection   PositionCorrection
	ContactCorrection PositionCorrection

	// Contacts approaching slower than this do not bounce.
	RestitutionThreshold float64
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		VelocityIterations:    10,
		PositionIterations:    3,
		WarmStart:             true,
		Baumgarte:             0.2,
		Slop:                  0.005,
		MaxCorrectionVelocity: 5,
		JointCorrection:       Baumgarte,
		ContactCorrection:     PostStabilization,
		RestitutionThreshold:  1,
	}
}

func (config SolverConfig) correction(mode PositionCorrection) correction {
	return correction{
		baumgarte:     config.Baumgarte,
		slop:          config.Slop,
		maxCorrection: config.MaxCorrectionVelocity,
		mode:          mode,
	}
}

// solverBody is the compacted per-step copy of a body's velocity state.
type solverBody struct {
	body *Body

	invMass    float64
	invInertia mgl64.Mat3

	v, w         mgl64.Vec3
	vBias, wBias mgl64.Vec3
}

// SolverContext is handed to every source while a step is being solved.
type SolverContext struct {
	Registry JointRegistry
	Events   *EventManager
	Space    *Space

	Dt float64

	solver *Solver
}

func (ctx *SolverContext) Config() *SolverConfig {
	return &ctx.solver.Config
}

func (ctx *SolverContext) bodies() []solverBody {
	return ctx.solver.bodies
}

func (ctx *SolverContext) bodyIndex(body *Body) int {
	return ctx.solver.bodyIndex(body)
}

// solverSource is anything that hands molecules to the solver: joints and contacts.
type solverSource interface {
	UpdateAtoms(ctx *SolverContext)
	MoleculeCount() int
	ComputeMolecules(ctx *SolverContext, out []Molecule)
	WarmStart(bodies []solverBody, ms []Molecule)
	Solve(bodies []solverBody, ms []Molecule)
	Commit(ms []Molecule)
	PositionMoleculeCount() int
	ComputePositionMolecules(ctx *SolverContext, out []Molecule)
	SolvePosition(bodies []solverBody, ms []Molecule)
}

type sourceSpan struct {
	source       solverSource
	start, count int
}

// Solver is a sequential impulse solver. Sources are accepted each step with
// AddJoint and AddContact, solved together with Solve, and released with Clear.
type Solver struct {
	Config SolverConfig

	joints   []*Joint
	contacts []*Contact

	contactPool []*Contact

	spans     []sourceSpan
	molecules []Molecule

	bodies  []solverBody
	indices map[*Body]int

	// bodies given bias velocities by the last Commit
	biased []*Body

	// secondary list for the position pass
	positionSpans     []sourceSpan
	positionMolecules []Molecule
}

func NewSolver(config SolverConfig) *Solver {
	s := &Solver{
		Config:  config,
		indices: map[*Body]int{},
	}
	s.bodies = append(s.bodies, solverBody{})
	return s
}

func (s *Solver) AddJoint(joint *Joint) {
	s.joints = append(s.joints, joint)
}

// AddContact queues a manifold for this step. The manifold's points receive
// the accumulated impulses on Commit.
func (s *Solver) AddContact(manifold *Manifold) {
	var c *Contact
	if n := len(s.contacts); n < len(s.contactPool) {
		c = s.contactPool[n]
	} else {
		c = &Contact{}
		s.contactPool = append(s.contactPool, c)
	}
	c.reset(manifold)
	s.contacts = append(s.contacts, c)
}

func (s *Solver) AddContacts(manifolds []*Manifold) {
	for _, m := range manifolds {
		s.AddContact(m)
	}
}

func (s *Solver) JointCount() int {
	return len(s.joints)
}

func (s *Solver) ContactCount() int {
	return len(s.contacts)
}

func (s *Solver) MoleculeCount() int {
	return len(s.molecules)
}

// Clear releases everything accepted for the current step.
func (s *Solver) Clear() {
	for i := range s.joints {
		s.joints[i] = nil
	}
	s.joints = s.joints[:0]
	for _, c := range s.contacts {
		c.reset(nil)
	}
	s.contacts = s.contacts[:0]

	s.spans = s.spans[:0]
	s.molecules = s.molecules[:0]
	s.positionSpans = s.positionSpans[:0]
	s.positionMolecules = s.positionMolecules[:0]

	s.bodies = s.bodies[:1]
	clear(s.indices)
}

// Solve runs one full step over everything accepted since the last Clear.
func (s *Solver) Solve(ctx *SolverContext, dt float64) {
	if ctx == nil {
		ctx = &SolverContext{}
	}
	ctx.solver = s
	ctx.Dt = dt
	if dt <= 0 {
		return
	}

	s.UpdateData(ctx)
	if s.Config.WarmStart {
		s.WarmStart()
	}
	s.SolveVelocities()
	s.SolvePositions(ctx)
	s.Commit()
	s.BatchEvents(ctx)
}

// bodyIndex returns the compacted slot for body, adding it on first sight.
// Absent and static bodies share slot 0. Kinematic bodies get a slot of
// their own so their velocity is seen, but never receive impulses.
func (s *Solver) bodyIndex(body *Body) int {
	if body == nil || body.GetType() == BODY_STATIC {
		return 0
	}
	if i, ok := s.indices[body]; ok {
		return i
	}

	i := len(s.bodies)
	s.indices[body] = i
	s.bodies = append(s.bodies, solverBody{
		body:       body,
		invMass:    body.InverseMass(),
		invInertia: body.InverseInertiaWorld(),
		v:          body.v,
		w:          body.w,
	})
	return i
}

// UpdateData flattens joints and then contacts, each in the order they
// were added, into one molecule array.
func (s *Solver) UpdateData(ctx *SolverContext) {
	s.spans = s.spans[:0]
	s.molecules = s.molecules[:0]
	s.bodies = s.bodies[:1]
	s.bodies[0] = solverBody{}
	clear(s.indices)

	for _, j := range s.joints {
		s.flatten(ctx, j)
	}
	for _, c := range s.contacts {
		s.flatten(ctx, c)
	}
}

func (s *Solver) flatten(ctx *SolverContext, source solverSource) {
	source.UpdateAtoms(ctx)

	n := source.MoleculeCount()
	if n == 0 {
		return
	}
	start := len(s.molecules)
	s.molecules = growMolecules(s.molecules, n)
	source.ComputeMolecules(ctx, s.molecules[start:start+n])
	s.spans = append(s.spans, sourceSpan{source: source, start: start, count: n})
}

func growMolecules(ms []Molecule, n int) []Molecule {
	if cap(ms)-len(ms) < n {
		grown := make([]Molecule, len(ms), 2*cap(ms)+n)
		copy(grown, ms)
		ms = grown
	}
	return ms[:len(ms)+n]
}

func (s *Solver) WarmStart() {
	for _, span := range s.spans {
		span.source.WarmStart(s.bodies, s.molecules[span.start:span.start+span.count])
	}
}

// SolveVelocities sweeps every source once per iteration, always in the
// same order.
func (s *Solver) SolveVelocities() {
	for i := 0; i < s.Config.VelocityIterations; i++ {
		for _, span := range s.spans {
			span.source.Solve(s.bodies, s.molecules[span.start:span.start+span.count])
		}
	}
}

// SolvePositions gathers the sources that still have positional error to
// correct and iterates over them with bias impulses. The secondary list is
// emptied afterwards so every source is checked again next step.
func (s *Solver) SolvePositions(ctx *SolverContext) {
	if s.Config.PositionIterations <= 0 {
		return
	}

	s.positionSpans = s.positionSpans[:0]
	s.positionMolecules = s.positionMolecules[:0]
	for _, span := range s.spans {
		n := span.source.PositionMoleculeCount()
		if n == 0 {
			continue
		}
		start := len(s.positionMolecules)
		s.positionMolecules = growMolecules(s.positionMolecules, n)
		span.source.ComputePositionMolecules(ctx, s.positionMolecules[start:start+n])
		s.positionSpans = append(s.positionSpans, sourceSpan{source: span.source, start: start, count: n})
	}

	for i := 0; i < s.Config.PositionIterations; i++ {
		for _, span := range s.positionSpans {
			span.source.SolvePosition(s.bodies, s.positionMolecules[span.start:span.start+span.count])
		}
	}

	s.positionSpans = s.positionSpans[:0]
	s.positionMolecules = s.positionMolecules[:0]
}

// Commit writes velocities back to the bodies and impulses back to the
// sources. Bias velocities only last one step: bodies biased last time are
// reset before this step's are written.
func (s *Solver) Commit() {
	for _, body := range s.biased {
		body.ClearBiasVelocity()
	}
	s.biased = s.biased[:0]

	for i := 1; i < len(s.bodies); i++ {
		sb := &s.bodies[i]
		sb.body.v = sb.v
		sb.body.w = sb.w
		sb.body.v_bias = sb.vBias
		sb.body.w_bias = sb.wBias
		if sb.vBias != VectorZero || sb.wBias != VectorZero {
			s.biased = append(s.biased, sb.body)
		}
	}
	for _, span := range s.spans {
		span.source.Commit(s.molecules[span.start : span.start+span.count])
	}
}

func (s *Solver) BatchEvents(ctx *SolverContext) {
	for _, j := range s.joints {
		j.BatchEvents(ctx)
	}
}

// Residual is the velocity error one more iteration would remove, summed
// over all molecules.
func (s *Solver) Residual() float64 {
	var sum float64
	for i := range s.molecules {
		m := &s.molecules[i]
		if m.Mass == 0 {
			continue
		}
		jv := m.Jacobian.velocity(&s.bodies[m.BodyA], &s.bodies[m.BodyB])
		lambda := -m.Mass * (jv + m.Bias + m.Gamma*m.Impulse)
		applied := Clamp(m.Impulse+lambda, m.MinImpulse, m.MaxImpulse) - m.Impulse
		sum += math.Abs(applied) / m.Mass
	}
	return sum
}
