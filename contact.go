package physics

import "github.com/go-gl/mathgl/mgl64"

// Contact is the solver's view of one manifold. Each point gives a normal
// row that only pushes and two friction rows bounded by the normal impulse.
type Contact struct {
	Manifold *Manifold

	atoms []ConstraintAtom
	corr  correction

	bodyA, bodyB *Body
}

func (c *Contact) reset(m *Manifold) {
	c.Manifold = m
	c.atoms = c.atoms[:0]
	c.bodyA, c.bodyB = nil, nil
}

func (c *Contact) pointCount() int {
	if c.Manifold == nil {
		return 0
	}
	if n := len(c.Manifold.Points); n < MaxContactPoints {
		return n
	}
	return MaxContactPoints
}

func (c *Contact) UpdateAtoms(ctx *SolverContext) {
	m := c.Manifold
	count := c.pointCount()
	if count == 0 {
		c.atoms = c.atoms[:0]
		return
	}

	config := ctx.Config()
	c.corr = config.correction(config.ContactCorrection)
	c.bodyA, c.bodyB = colliderBody(m.A), colliderBody(m.B)

	n := Normalize(m.Normal, VectorY)
	t1, t2 := Tangents(n)

	if cap(c.atoms) < 3*count {
		c.atoms = make([]ConstraintAtom, 3*count)
	}
	c.atoms = c.atoms[:3*count]

	for i := 0; i < count; i++ {
		p := &m.Points[i]

		var rA, rB, vA, vB = VectorZero, VectorZero, VectorZero, VectorZero
		if c.bodyA != nil {
			rA = p.Position.Sub(c.bodyA.transform.Position)
			vA = c.bodyA.v.Add(c.bodyA.w.Cross(rA))
		}
		if c.bodyB != nil {
			rB = p.Position.Sub(c.bodyB.transform.Position)
			vB = c.bodyB.v.Add(c.bodyB.w.Cross(rB))
		}

		normal := &c.atoms[3*i]
		normal.setRole(roleContact)
		normal.Jacobian = LinearJacobian(n, rA, rB)
		normal.Error = -p.Depth
		normal.TargetSpeed = 0
		normal.MinImpulse, normal.MaxImpulse = 0, INFINITY
		normal.Frequency, normal.DampingRatio = 0, 0
		normal.UsesSlop = true
		normal.Position = true
		normal.Impulse = p.NormalImpulse
		normal.Active = true

		// bounce only off approaches faster than the threshold
		if vn := vB.Sub(vA).Dot(n); m.Restitution > 0 && vn < -config.RestitutionThreshold {
			normal.TargetSpeed = -m.Restitution * vn
		}

		limit := m.Friction * p.NormalImpulse
		for k, t := range [2]mgl64.Vec3{t1, t2} {
			friction := &c.atoms[3*i+1+k]
			friction.setRole(roleFriction)
			friction.Jacobian = LinearJacobian(t, rA, rB)
			friction.Error = 0
			friction.TargetSpeed = 0
			friction.MinImpulse, friction.MaxImpulse = -limit, limit
			friction.Frequency, friction.DampingRatio = 0, 0
			friction.UsesSlop = false
			friction.Position = false
			friction.Impulse = p.FrictionImpulse[k]
			friction.Active = true
		}
	}
}

func (c *Contact) MoleculeCount() int {
	return len(c.atoms)
}

func (c *Contact) ComputeMolecules(ctx *SolverContext, out []Molecule) {
	ia, ib := ctx.bodyIndex(c.bodyA), ctx.bodyIndex(c.bodyB)
	bodies := ctx.bodies()
	warm := ctx.Config().WarmStart
	for i := range c.atoms {
		out[i] = buildMolecule(&c.atoms[i], i, bodies, ia, ib, c.corr, ctx.Dt, warm)
	}
}

func (c *Contact) WarmStart(bodies []solverBody, ms []Molecule) {
	warmStartFragment(bodies, ms)
}

// Solve handles each point's normal row first so its friction rows are
// bounded by the freshest normal impulse.
func (c *Contact) Solve(bodies []solverBody, ms []Molecule) {
	friction := c.Manifold.Friction
	for i := 0; i+2 < len(ms); i += 3 {
		solveMolecule(bodies, &ms[i])

		limit := friction * ms[i].Impulse
		for k := 1; k <= 2; k++ {
			ms[i+k].MinImpulse, ms[i+k].MaxImpulse = -limit, limit
			solveMolecule(bodies, &ms[i+k])
		}
	}
}

func (c *Contact) Commit(ms []Molecule) {
	commitFragment(c.atoms, ms)

	points := c.Manifold.Points
	for i := 0; i < len(c.atoms)/3; i++ {
		points[i].NormalImpulse = c.atoms[3*i].Impulse
		points[i].FrictionImpulse[0] = c.atoms[3*i+1].Impulse
		points[i].FrictionImpulse[1] = c.atoms[3*i+2].Impulse
	}
}

func (c *Contact) PositionMoleculeCount() int {
	if c.corr.mode != PostStabilization {
		return 0
	}
	return len(c.atoms) / 3
}

func (c *Contact) ComputePositionMolecules(ctx *SolverContext, out []Molecule) {
	ia, ib := ctx.bodyIndex(c.bodyA), ctx.bodyIndex(c.bodyB)
	bodies := ctx.bodies()
	for i := 0; i < len(c.atoms)/3; i++ {
		out[i] = buildPositionMolecule(&c.atoms[3*i], 3*i, bodies, ia, ib, c.corr, ctx.Dt)
	}
}

func (c *Contact) SolvePosition(bodies []solverBody, ms []Molecule) {
	solvePositionFragment(bodies, ms)
}
