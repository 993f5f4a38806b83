package physics

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
)

// CustomConstraint is one user supplied row of a custom joint. The
// Jacobian is in world space; use SetLinear or SetAngular to build it.
type CustomConstraint struct {
	Jacobian

	// Error is the positional error of the row, zero when satisfied.
	Error float64

	MinImpulse, MaxImpulse float64

	// TargetSpeed makes the row a motor.
	TargetSpeed float64

	// A positive Frequency makes the row a spring.
	Frequency, DampingRatio float64

	// SolvePosition lets the position pass correct Error. Ignored for springs.
	SolvePosition bool

	// Impulse is the accumulated impulse after the last step.
	Impulse float64

	owner *Joint
}

func NewCustomConstraint() *CustomConstraint {
	return &CustomConstraint{
		MinImpulse: -INFINITY,
		MaxImpulse: INFINITY,
	}
}

// SetLinear makes the row act along n at world lever arms rA and rB.
func (row *CustomConstraint) SetLinear(n, rA, rB mgl64.Vec3) {
	row.Jacobian = LinearJacobian(n, rA, rB)
}

// SetAngular makes the row act on the relative rotation about axis.
func (row *CustomConstraint) SetAngular(axis mgl64.Vec3) {
	row.Jacobian = AngularJacobian(axis)
}

func (row *CustomConstraint) Owner() *Joint {
	return row.owner
}

// Detach removes the row from the joint that owns it.
func (row *CustomConstraint) Detach() {
	if row.owner != nil {
		row.owner.RemoveConstraint(row)
	}
}

// CustomComputeFunc is called once per step, before the rows are read, so
// the caller can refresh them from the current transforms.
type CustomComputeFunc func(j *Joint, ctx *SolverContext)

type CustomJoint struct {
	Compute CustomComputeFunc

	rows []*CustomConstraint
}

func NewCustomJoint(a, b *Collider, compute CustomComputeFunc) *Joint {
	j := newJoint(JointCustom, a, b)
	j.Custom = &CustomJoint{
		Compute: compute,
	}
	return j
}

// AddConstraint attaches row to a custom joint. A row owned by another
// joint is refused.
func (j *Joint) AddConstraint(row *CustomConstraint) bool {
	if j.Kind != JointCustom {
		log.Println("Warning: AddConstraint on a", j.Kind, "joint")
		return false
	}
	if row.owner == j {
		return true
	}
	if row.owner != nil {
		log.Println("Warning: constraint row already belongs to", row.owner, "; not adding it to", j)
		return false
	}
	row.owner = j
	j.Custom.rows = append(j.Custom.rows, row)
	return true
}

func (j *Joint) RemoveConstraint(row *CustomConstraint) {
	if j.Kind != JointCustom || row.owner != j {
		return
	}
	rows := j.Custom.rows
	for i, r := range rows {
		if r == row {
			copy(rows[i:], rows[i+1:])
			rows[len(rows)-1] = nil
			j.Custom.rows = rows[:len(rows)-1]
			break
		}
	}
	row.owner = nil
}

func (j *Joint) Constraints() []*CustomConstraint {
	if j.Custom == nil {
		return nil
	}
	return j.Custom.rows
}

func updateCustomAtoms(j *Joint, ctx *SolverContext) {
	custom := j.Custom
	if custom.Compute != nil {
		custom.Compute(j, ctx)
	}

	atoms := j.resizeAtoms(len(custom.rows))
	for i, row := range custom.rows {
		atom := &atoms[i]
		role := roleLock
		if row.TargetSpeed != 0 {
			role = roleMotor
		} else if row.Frequency > 0 {
			role = roleSpring
		}
		atom.setRole(role)

		atom.Jacobian = row.Jacobian
		atom.Error = row.Error
		atom.TargetSpeed = row.TargetSpeed
		atom.MinImpulse, atom.MaxImpulse = row.MinImpulse, row.MaxImpulse
		atom.Frequency, atom.DampingRatio = row.Frequency, row.DampingRatio
		atom.UsesSlop = false
		atom.Position = row.SolvePosition && row.Frequency <= 0
		atom.Impulse = row.Impulse
		atom.activate(true)
	}
}

func commitCustom(j *Joint) {
	for i, row := range j.Custom.rows {
		if i < len(j.atoms) {
			row.Impulse = j.atoms[i].Impulse
		}
	}
}

func destroyCustom(j *Joint, reg JointRegistry) {
	for _, row := range j.Custom.rows {
		row.owner = nil
	}
	j.Custom.rows = nil
}
