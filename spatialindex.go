package physics

import "github.com/go-gl/mathgl/mgl64"

// BroadPhaseProxy is the handle a broad phase hands out for an inserted object.
type BroadPhaseProxy uint64

const InvalidProxy BroadPhaseProxy = 0

// BroadPhaseObjectData is what gets inserted into, updated in, or queried
// against a broad phase.
type BroadPhaseObjectData struct {
	Collider *Collider
	Aabb     Aabb
}

// BroadPhase is a spatial structure holding one category of colliders.
// Implemented by BBTree, SpaceHash and NSquared.
type BroadPhase interface {
	TypeName() string
	Count() int

	CreateProxy(data BroadPhaseObjectData) BroadPhaseProxy
	CreateProxies(data []BroadPhaseObjectData) []BroadPhaseProxy
	RemoveProxy(proxy BroadPhaseProxy)
	RemoveProxies(proxies []BroadPhaseProxy)
	UpdateProxy(proxy BroadPhaseProxy, data BroadPhaseObjectData)
	UpdateProxies(proxies []BroadPhaseProxy, data []BroadPhaseObjectData)

	// SelfQuery reports every overlapping pair inside the structure once.
	SelfQuery(results *ClientPairs)
	Query(data BroadPhaseObjectData, results *ClientPairs)
	BatchQuery(data []BroadPhaseObjectData, results *ClientPairs)

	CastRay(ray Ray, results *CastResults)
	CastSegment(segment Segment, results *CastResults)
	CastAabb(bb Aabb, results *CastResults)
	CastSphere(sphere Sphere, results *CastResults)
	CastFrustum(frustum Frustum, results *CastResults)
}

type ClientPair struct {
	A, B *Collider
}

// ClientPairs accumulates overlap query results.
type ClientPairs struct {
	Pairs []ClientPair
}

func (p *ClientPairs) Add(a, b *Collider) {
	if a == b {
		return
	}
	p.Pairs = append(p.Pairs, ClientPair{a, b})
}

func (p *ClientPairs) Len() int {
	return len(p.Pairs)
}

func (p *ClientPairs) Clear() {
	p.Pairs = p.Pairs[:0]
}

// castRayAgainst and castVolumeAgainst are the per-object cast tests shared
// by the reference structures. Volume casts order by center distance.
func castRayAgainst(data BroadPhaseObjectData, ray Ray, maxT float64, results *CastResults) {
	t, n, ok := data.Aabb.SegmentQuery(ray.Start, ray.Direction, maxT)
	if ok {
		results.AddItem(CastResult{Collider: data.Collider, T: t, Point: ray.PointAt(t), Normal: n})
	}
}

func castVolumeAgainst(data BroadPhaseObjectData, origin mgl64.Vec3, results *CastResults) {
	c := data.Aabb.Center()
	results.AddItem(CastResult{
		Collider: data.Collider,
		T:        c.Sub(origin).Len(),
		Point:    c,
	})
}
