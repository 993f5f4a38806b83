package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

const MaxContactPoints = 4

// Points of consecutive manifolds closer than this are treated as the same
// contact and keep their impulses.
const ContactPersistenceDistance = 0.05

type ContactPoint struct {
	// Position is the world contact point.
	Position mgl64.Vec3
	// Depth is the penetration, positive while overlapping.
	Depth float64

	// Accumulated impulses, kept across steps for warm starting.
	NormalImpulse   float64
	FrictionImpulse [2]float64
}

// Manifold is one colliding pair as reported by the narrow phase.
type Manifold struct {
	A, B *Collider

	// Normal points from A to B.
	Normal mgl64.Vec3
	Points []ContactPoint

	Friction    float64
	Restitution float64

	// SendsMessages false suppresses the per-object collision events.
	SendsMessages bool

	// set by PreSolveEvent.Ignore for the current step
	ignored bool

	UserData interface{}
}

func NewManifold(a, b *Collider, normal mgl64.Vec3) *Manifold {
	return &Manifold{
		A:             a,
		B:             b,
		Normal:        Normalize(normal, VectorY),
		Points:        make([]ContactPoint, 0, MaxContactPoints),
		Friction:      0.5,
		SendsMessages: true,
	}
}

func (m *Manifold) String() string {
	return fmt.Sprint("Manifold ", m.A, " ", m.B)
}

// AddPoint appends a contact point. It returns false once the manifold is full.
func (m *Manifold) AddPoint(position mgl64.Vec3, depth float64) bool {
	if len(m.Points) >= MaxContactPoints {
		return false
	}
	m.Points = append(m.Points, ContactPoint{Position: position, Depth: depth})
	return true
}

func (m *Manifold) Ignored() bool {
	return m.ignored
}

func (m *Manifold) Key() PairKey {
	return MakePairKey(colliderID(m.A), colliderID(m.B))
}

// Involves reports whether c is one side of the manifold.
func (m *Manifold) Involves(c *Collider) bool {
	return c != nil && (m.A == c || m.B == c)
}

// TotalImpulse is the impulse applied to B over the last step.
func (m *Manifold) TotalImpulse() mgl64.Vec3 {
	t1, t2 := Tangents(m.Normal)
	var sum mgl64.Vec3
	for _, p := range m.Points {
		sum = sum.Add(m.Normal.Mul(p.NormalImpulse))
		sum = sum.Add(t1.Mul(p.FrictionImpulse[0])).Add(t2.Mul(p.FrictionImpulse[1]))
	}
	return sum
}

// inherit copies impulses from the previous step's manifold of the same pair
// onto points that did not bring their own.
func (m *Manifold) inherit(prev *Manifold) {
	if prev == nil || prev == m {
		return
	}
	// the pair may have been reported in the other order
	sign := 1.0
	if prev.A != m.A {
		sign = -1.0
	}

	for i := range m.Points {
		p := &m.Points[i]
		if p.NormalImpulse != 0 || p.FrictionImpulse != [2]float64{} {
			continue
		}
		for _, old := range prev.Points {
			if old.Position.Sub(p.Position).LenSqr() < ContactPersistenceDistance*ContactPersistenceDistance {
				p.NormalImpulse = old.NormalImpulse
				if sign > 0 {
					p.FrictionImpulse = old.FrictionImpulse
				}
				break
			}
		}
	}
}

// PairKey identifies a collider pair regardless of order.
type PairKey struct {
	A, B ColliderID
}

func MakePairKey(a, b ColliderID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

func colliderID(c *Collider) ColliderID {
	if c == nil {
		return 0
	}
	return c.id
}
