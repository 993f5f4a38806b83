package physics

import "github.com/go-gl/mathgl/mgl64"

//Draw flags
const (
	DRAW_COLLIDERS        = 1 << 0
	DRAW_CONSTRAINTS      = 1 << 1
	DRAW_COLLISION_POINTS = 1 << 2
)

// 16 bytes
type FColor struct {
	R, G, B, A float32
}

// Drawer receives debug geometry. It is handed to DrawSpace by the caller
// each time, there is no global draw state.
type Drawer interface {
	DrawSegment(a, b mgl64.Vec3, fill FColor, data interface{})
	DrawDot(size float64, pos mgl64.Vec3, fill FColor, data interface{})
	DrawAabb(bb Aabb, outline FColor, data interface{})

	Flags() int
	ColliderColor(c *Collider, data interface{}) FColor
	ConstraintColor() FColor
	CollisionPointColor() FColor
	Data() interface{}
}

func DrawCollider(c *Collider, options Drawer) {
	data := options.Data()
	options.DrawAabb(c.WorldAabb(), options.ColliderColor(c, data), data)
}

func DrawConstraint(j *Joint, options Drawer) {
	if !j.Valid() || !j.active {
		return
	}
	if draw := jointKinds[j.Kind].draw; draw != nil {
		draw(j, options)
	}
}

// DrawManifold draws each contact point and a short line along the normal.
func DrawManifold(m *Manifold, options Drawer) {
	data := options.Data()
	color := options.CollisionPointColor()
	for _, p := range m.Points {
		options.DrawDot(4, p.Position, color, data)
		options.DrawSegment(p.Position, p.Position.Add(m.Normal.Mul(p.Depth+0.1)), color, data)
	}
}

func DrawSpace(space *Space, options Drawer) {
	flags := options.Flags()
	if flags&DRAW_COLLIDERS != 0 {
		for _, c := range space.colliderOrder {
			DrawCollider(c, options)
		}
	}

	if flags&DRAW_CONSTRAINTS != 0 {
		for _, j := range space.jointOrder {
			DrawConstraint(j, options)
		}
	}

	if flags&DRAW_COLLISION_POINTS != 0 {
		for _, m := range space.pairOrder {
			DrawManifold(m, options)
		}
	}
}

// localAnchors returns the joint's anchors, or the collider origins for
// kinds that have none.
func (j *Joint) localAnchors() (mgl64.Vec3, mgl64.Vec3) {
	switch j.Kind {
	case JointPosition:
		return j.Position.AnchorA, j.Position.AnchorB
	case JointStick:
		return j.Stick.AnchorA, j.Stick.AnchorB
	case JointWeld:
		return j.Weld.AnchorA, j.Weld.AnchorB
	case JointRevolute:
		return j.Revolute.AnchorA, j.Revolute.AnchorB
	case JointPrismatic:
		return j.Prismatic.AnchorA, j.Prismatic.AnchorB
	}
	return VectorZero, VectorZero
}

func drawAnchors(j *Joint, options Drawer) {
	data := options.Data()
	color := options.ConstraintColor()

	localA, localB := j.localAnchors()
	pA, pB, _, _ := j.anchors(localA, localB)

	options.DrawDot(5, pA, color, data)
	options.DrawDot(5, pB, color, data)
	options.DrawSegment(pA, pB, color, data)
}

func drawRevolute(j *Joint, options Drawer) {
	drawAnchors(j, options)

	pA, _, _, _ := j.anchors(j.Revolute.AnchorA, j.Revolute.AnchorB)
	axis := j.WorldAxis()
	options.DrawSegment(pA.Sub(axis.Mul(0.5)), pA.Add(axis.Mul(0.5)), options.ConstraintColor(), options.Data())
}

func drawPrismatic(j *Joint, options Drawer) {
	drawAnchors(j, options)

	p := j.Prismatic
	pA, _, _, _ := j.anchors(p.AnchorA, p.AnchorB)
	axis := j.WorldAxis()

	lower, upper := -1.0, 1.0
	if j.Limit != nil {
		lower, upper = j.Limit.Lower, j.Limit.Upper
	}
	options.DrawSegment(pA.Add(axis.Mul(lower)), pA.Add(axis.Mul(upper)), options.ConstraintColor(), options.Data())
}

// drawLinked joins the centers of the two colliders a coupling joint moves.
func drawLinked(j *Joint, options Drawer) {
	a := colliderTransform(j.colliderA).Position
	b := colliderTransform(j.colliderB).Position
	options.DrawSegment(a, b, options.ConstraintColor(), options.Data())
}
