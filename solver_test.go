package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

var gravity = mgl64.Vec3{0, -10, 0}

// pendulumSpace hangs one body off a fixed hinge. The body's inertia is
// uneven so the point rows are coupled through rotation.
func pendulumSpace(config SolverConfig) (*Space, *Body, *Joint) {
	space := NewSpace()
	space.Solver.Config = config

	ground := space.AddCollider(NewBoxCollider(1, nil, mgl64.Vec3{1, 1, 1}))

	body := NewBody(1, mgl64.Vec3{1, 2, 3})
	body.SetPosition(mgl64.Vec3{0, -1, 0.5})
	bob := space.AddCollider(NewBoxCollider(2, body, mgl64.Vec3{0.2, 0.2, 0.2}))

	hinge := space.AddJoint(NewRevoluteJoint(ground, bob, VectorZero, VectorZ))
	return space, body, hinge
}

func residualAfter(steps int, warm bool) float64 {
	config := DefaultSolverConfig()
	config.VelocityIterations = 2
	config.WarmStart = warm
	space, body, _ := pendulumSpace(config)

	dt := 1.0 / 60.0
	for i := 0; i < steps; i++ {
		body.SetVelocity(body.Velocity().Add(gravity.Mul(dt)))
		space.Step(dt, nil)
	}
	return space.Solver.Residual()
}

func TestSolver_WarmStartConverges(t *testing.T) {
	cold := residualAfter(10, false)
	warm := residualAfter(10, true)
	if warm > cold+1e-9 {
		t.Errorf("Warm start residual %v is worse than cold start %v", warm, cold)
	}
}

func TestSolver_HingeHoldsPivot(t *testing.T) {
	space := NewSpace()
	ground := space.AddCollider(NewBoxCollider(1, nil, mgl64.Vec3{1, 1, 1}))

	body := NewBody(1, mgl64.Vec3{1, 1, 1})
	body.SetPosition(mgl64.Vec3{0, -1, 0})
	body.SetVelocity(mgl64.Vec3{2, -3, 0})
	body.SetAngularVelocity(mgl64.Vec3{0, 0, 1})
	bob := space.AddCollider(NewBoxCollider(2, body, mgl64.Vec3{0.2, 0.2, 0.2}))

	hinge := space.AddJoint(NewRevoluteJoint(ground, bob, VectorZero, VectorZ))
	if !hinge.Valid() {
		t.Fatal(hinge.Err())
	}
	space.Step(1.0/60.0, nil)

	if v := body.PointVelocity(VectorZero); v.Len() > 1e-6 {
		t.Errorf("Pivot is moving at %v", v)
	}
	if w := body.AngularVelocity(); math.Abs(w.X()) > 1e-6 || math.Abs(w.Y()) > 1e-6 {
		t.Errorf("Body turns off the hinge axis: %v", w)
	}
	if body.AngularVelocity().Z() == 0 {
		t.Error("Hinge axis should stay free")
	}
}

func determinismScene() (*Space, []*Body, []*Manifold) {
	space := NewSpace()
	ground := space.AddCollider(NewBoxCollider(1, nil, mgl64.Vec3{10, 0.5, 10}))

	var bodies []*Body
	prev := ground
	for i := 0; i < 4; i++ {
		body := NewBody(1+float64(i), mgl64.Vec3{1, 1.5, 2})
		body.SetPosition(mgl64.Vec3{float64(i) + 1, 1, 0})
		body.SetVelocity(mgl64.Vec3{0.3 * float64(i), -1, 0.1})
		body.SetAngularVelocity(mgl64.Vec3{0.1, 0.2, -0.3})
		c := space.AddCollider(NewBoxCollider(ObjectID(i+2), body, mgl64.Vec3{0.4, 0.4, 0.4}))
		space.AddJoint(NewRevoluteJoint(prev, c, mgl64.Vec3{float64(i) + 0.5, 1, 0}, VectorZ))
		bodies = append(bodies, body)
		prev = c
	}

	m := NewManifold(ground, prev, VectorY)
	m.AddPoint(mgl64.Vec3{4, 0.6, 0.2}, 0.01)
	m.AddPoint(mgl64.Vec3{4, 0.6, -0.2}, 0.02)
	return space, bodies, []*Manifold{m}
}

func TestSolver_Deterministic(t *testing.T) {
	spaceA, bodiesA, manifoldsA := determinismScene()
	spaceB, bodiesB, manifoldsB := determinismScene()

	for step := 0; step < 20; step++ {
		for i := range bodiesA {
			bodiesA[i].SetVelocity(bodiesA[i].Velocity().Add(gravity.Mul(0.01)))
			bodiesB[i].SetVelocity(bodiesB[i].Velocity().Add(gravity.Mul(0.01)))
		}
		spaceA.Step(0.01, manifoldsA)
		spaceB.Step(0.01, manifoldsB)

		for i := range bodiesA {
			if bodiesA[i].Velocity() != bodiesB[i].Velocity() || bodiesA[i].AngularVelocity() != bodiesB[i].AngularVelocity() {
				t.Fatalf("Step %v body %v diverged: %v %v vs %v %v", step, i,
					bodiesA[i].Velocity(), bodiesA[i].AngularVelocity(),
					bodiesB[i].Velocity(), bodiesB[i].AngularVelocity())
			}
		}
	}
}

func TestSolver_CustomRowClamped(t *testing.T) {
	for _, speed := range []float64{1000, -1000} {
		space := NewSpace()
		body := NewBody(1, MomentForSphere(1, 1))
		c := space.AddCollider(NewBoxCollider(1, body, mgl64.Vec3{1, 1, 1}))

		row := NewCustomConstraint()
		row.SetLinear(VectorX, VectorZero, VectorZero)
		row.MinImpulse, row.MaxImpulse = 0, 10
		row.TargetSpeed = speed

		j := NewCustomJoint(nil, c, nil)
		j.AddConstraint(row)
		space.AddJoint(j)

		for step := 0; step < 3; step++ {
			space.Step(1.0/60.0, nil)
			if row.Impulse < 0 || row.Impulse > 10 {
				t.Fatalf("Speed %v step %v: impulse %v escaped [0, 10]", speed, step, row.Impulse)
			}
		}

		want := 10.0
		if speed < 0 {
			want = 0
		}
		if row.Impulse != want {
			t.Errorf("Speed %v: expected impulse %v, got %v", speed, want, row.Impulse)
		}
	}
}

func TestSolver_CustomComputeRunsEachStep(t *testing.T) {
	space := NewSpace()
	body := NewBody(1, MomentForSphere(1, 1))
	c := space.AddCollider(NewBoxCollider(1, body, mgl64.Vec3{1, 1, 1}))

	calls := 0
	row := NewCustomConstraint()
	j := NewCustomJoint(nil, c, func(j *Joint, ctx *SolverContext) {
		calls++
		row.SetLinear(VectorY, VectorZero, VectorZero)
		row.TargetSpeed = 2
	})
	j.AddConstraint(row)
	space.AddJoint(j)

	space.Step(0.1, nil)
	space.Step(0.1, nil)
	if calls != 2 {
		t.Errorf("Expected 2 compute calls, got %v", calls)
	}
	if math.Abs(body.Velocity().Y()-2) > 1e-9 {
		t.Errorf("Expected the motor row to reach 2, got %v", body.Velocity())
	}
}

func TestSolver_ZeroMassPairing(t *testing.T) {
	solver := NewSolver(DefaultSolverConfig())
	a := NewCollider(1, nil, Aabb{})
	b := NewCollider(2, NewStaticBody(), Aabb{})

	m := NewManifold(a, b, VectorY)
	m.AddPoint(VectorZero, 0.5)
	solver.AddContact(m)
	solver.Solve(&SolverContext{}, 1.0/60.0)

	for _, p := range m.Points {
		if p.NormalImpulse != 0 || math.IsNaN(p.NormalImpulse) {
			t.Errorf("Immovable pair got impulse %v", p.NormalImpulse)
		}
	}
}

func contactScene(v mgl64.Vec3, restitution float64) (*Space, *Body, *Manifold) {
	space := NewSpace()
	ground := space.AddCollider(NewBoxCollider(1, nil, mgl64.Vec3{10, 0.5, 10}))

	body := NewBody(1, MomentForBox(1, mgl64.Vec3{1, 1, 1}))
	body.SetPosition(mgl64.Vec3{0, 1, 0})
	body.SetVelocity(v)
	box := space.AddCollider(NewBoxCollider(2, body, mgl64.Vec3{0.5, 0.5, 0.5}))

	m := NewManifold(ground, box, VectorY)
	m.Restitution = restitution
	m.AddPoint(mgl64.Vec3{0, 0.5, 0}, 0)
	return space, body, m
}

func TestSolver_ContactStopsApproach(t *testing.T) {
	space, body, m := contactScene(mgl64.Vec3{0, -1, 0}, 0)
	space.Step(1.0/60.0, []*Manifold{m})

	if math.Abs(body.Velocity().Y()) > 1e-9 {
		t.Errorf("Expected the box to stop, got %v", body.Velocity())
	}
	if math.Abs(m.Points[0].NormalImpulse-1) > 1e-9 {
		t.Errorf("Expected normal impulse 1, got %v", m.Points[0].NormalImpulse)
	}
}

func TestSolver_ContactNeverPulls(t *testing.T) {
	space, body, m := contactScene(mgl64.Vec3{0, 2, 0}, 0)
	space.Step(1.0/60.0, []*Manifold{m})

	if body.Velocity().Y() != 2 {
		t.Errorf("Separating box was pulled back: %v", body.Velocity())
	}
	if m.Points[0].NormalImpulse != 0 {
		t.Errorf("Expected no impulse, got %v", m.Points[0].NormalImpulse)
	}
}

func TestSolver_ContactRestitution(t *testing.T) {
	space, body, m := contactScene(mgl64.Vec3{0, -5, 0}, 1)
	space.Step(1.0/60.0, []*Manifold{m})

	if math.Abs(body.Velocity().Y()-5) > 1e-9 {
		t.Errorf("Expected the box to bounce at 5, got %v", body.Velocity())
	}
}

func TestSolver_ContactFriction(t *testing.T) {
	space, body, m := contactScene(mgl64.Vec3{3, -1, 0}, 0)
	m.Friction = 0.5
	space.Step(1.0/60.0, []*Manifold{m})

	if math.Abs(body.Velocity().X()-2.5) > 1e-9 {
		t.Errorf("Expected friction to take off 0.5, got %v", body.Velocity())
	}
	friction := m.Points[0].FrictionImpulse
	if math.Hypot(friction[0], friction[1]) > 0.5*m.Points[0].NormalImpulse+1e-9 {
		t.Errorf("Friction %v outside the cone of %v", friction, m.Points[0].NormalImpulse)
	}
}

func TestSolver_PostStabilizationUsesBiasVelocity(t *testing.T) {
	space, body, m := contactScene(VectorZero, 0)
	m.Points[0].Depth = 0.1
	space.Step(1.0/60.0, []*Manifold{m})

	if body.Velocity() != VectorZero {
		t.Errorf("Penetration leaked into the velocity: %v", body.Velocity())
	}
	if vBias, _ := body.BiasVelocity(); vBias.Y() <= 0 {
		t.Errorf("Expected an upward bias velocity, got %v", vBias)
	}
}

func TestSolver_ClearReleasesSources(t *testing.T) {
	space, _, m := contactScene(mgl64.Vec3{0, -1, 0}, 0)
	space.Step(1.0/60.0, []*Manifold{m})

	solver := space.Solver
	if solver.ContactCount() != 1 || solver.MoleculeCount() != 3 {
		t.Fatalf("Expected 1 contact with 3 rows, got %v and %v", solver.ContactCount(), solver.MoleculeCount())
	}
	solver.Clear()
	if solver.ContactCount() != 0 || solver.JointCount() != 0 || solver.MoleculeCount() != 0 {
		t.Error("Clear left sources behind")
	}
}

func TestSolver_BiasVelocityLastsOneStep(t *testing.T) {
	space, body, m := contactScene(VectorZero, 0)
	m.Points[0].Depth = 0.3
	space.Step(1.0/60.0, []*Manifold{m})

	if vBias, _ := body.BiasVelocity(); vBias.Y() <= 0 {
		t.Fatalf("Expected an upward bias velocity, got %v", vBias)
	}

	for step := 0; step < 2; step++ {
		space.Step(1.0/60.0, nil)
		if vBias, wBias := body.BiasVelocity(); vBias != VectorZero || wBias != VectorZero {
			t.Errorf("Free step %v kept a stale bias velocity: %v %v", step, vBias, wBias)
		}
	}
}
