package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ObjectID names an event recipient: the object that owns a collider or
// joint, or the space itself.
type ObjectID uint64

type ColliderID uint64

type CollisionGroup uint32

const DefaultGroup CollisionGroup = 0

// Collider is the narrow-phase shape owner as seen by this package: a world
// transform, an optional body, a group and local bounds. A collider without
// a body is static and its Offset is its world transform.
type Collider struct {
	id    ColliderID
	space *Space

	Owner ObjectID
	Group CollisionGroup

	body   *Body
	Offset Transform
	Bounds Aabb

	// Ghost colliders are queryable but the space never hands their manifolds to the solver.
	Ghost bool

	proxy    BroadPhaseProxy
	category BroadPhaseCategory

	UserData interface{}
}

var colliderCur ColliderID = 0

func NewCollider(owner ObjectID, body *Body, bounds Aabb) *Collider {
	colliderCur++
	return &Collider{
		id:       colliderCur,
		Owner:    owner,
		body:     body,
		Offset:   NewTransformIdentity(),
		Bounds:   bounds,
		proxy:    InvalidProxy,
		category: categoryFor(body),
	}
}

// NewBoxCollider creates a collider with box bounds of the given half extents.
func NewBoxCollider(owner ObjectID, body *Body, halfExtents mgl64.Vec3) *Collider {
	return NewCollider(owner, body, NewAabbForExtents(VectorZero, halfExtents))
}

func (c *Collider) String() string {
	return fmt.Sprint("Collider ", c.id)
}

func (c *Collider) ID() ColliderID {
	return c.id
}

func (c *Collider) Body() *Body {
	return c.body
}

func (c *Collider) Space() *Space {
	return c.space
}

func (c *Collider) IsStatic() bool {
	return c.body == nil || c.body.GetType() == BODY_STATIC
}

func (c *Collider) IsKinematic() bool {
	return c.body != nil && c.body.GetType() == BODY_KINEMATIC
}

func (c *Collider) WorldTransform() Transform {
	if c.body == nil {
		return c.Offset
	}
	return c.body.transform.Mult(c.Offset)
}

func (c *Collider) WorldAabb() Aabb {
	return c.WorldTransform().Aabb(c.Bounds)
}

// CenterOfMass is the point the solver measures lever arms from.
func (c *Collider) CenterOfMass() mgl64.Vec3 {
	if c.body == nil {
		return c.Offset.Position
	}
	return c.body.transform.Position
}

func (c *Collider) Proxy() BroadPhaseProxy {
	return c.proxy
}

func (c *Collider) objectData() BroadPhaseObjectData {
	return BroadPhaseObjectData{
		Collider: c,
		Aabb:     c.WorldAabb(),
	}
}

func categoryFor(body *Body) BroadPhaseCategory {
	if body == nil || body.GetType() == BODY_STATIC {
		return BroadPhaseStatic
	}
	return BroadPhaseDynamic
}
