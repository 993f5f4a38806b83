package physics

// NSquared is the brute force broad phase: every query tests every object.
// It is the reference the BBTree is checked against and is fine for small
// static sets.
type NSquared struct {
	objects map[BroadPhaseProxy]BroadPhaseObjectData
	order   []BroadPhaseProxy
	next    BroadPhaseProxy
}

func NewNSquared() *NSquared {
	return &NSquared{
		objects: map[BroadPhaseProxy]BroadPhaseObjectData{},
	}
}

func (n *NSquared) TypeName() string {
	return "NSquared"
}

func (n *NSquared) Count() int {
	return len(n.order)
}

func (n *NSquared) CreateProxy(data BroadPhaseObjectData) BroadPhaseProxy {
	n.next++
	n.objects[n.next] = data
	n.order = append(n.order, n.next)
	return n.next
}

func (n *NSquared) CreateProxies(data []BroadPhaseObjectData) []BroadPhaseProxy {
	proxies := make([]BroadPhaseProxy, len(data))
	for i := range data {
		proxies[i] = n.CreateProxy(data[i])
	}
	return proxies
}

func (n *NSquared) RemoveProxy(proxy BroadPhaseProxy) {
	if _, ok := n.objects[proxy]; !ok {
		return
	}
	delete(n.objects, proxy)
	for i, p := range n.order {
		if p == proxy {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

func (n *NSquared) RemoveProxies(proxies []BroadPhaseProxy) {
	for _, p := range proxies {
		n.RemoveProxy(p)
	}
}

func (n *NSquared) UpdateProxy(proxy BroadPhaseProxy, data BroadPhaseObjectData) {
	if _, ok := n.objects[proxy]; ok {
		n.objects[proxy] = data
	}
}

func (n *NSquared) UpdateProxies(proxies []BroadPhaseProxy, data []BroadPhaseObjectData) {
	for i := range proxies {
		n.UpdateProxy(proxies[i], data[i])
	}
}

func (n *NSquared) SelfQuery(results *ClientPairs) {
	for i, a := range n.order {
		objA := n.objects[a]
		for _, b := range n.order[i+1:] {
			objB := n.objects[b]
			if objA.Aabb.Intersects(objB.Aabb) {
				results.Add(objA.Collider, objB.Collider)
			}
		}
	}
}

func (n *NSquared) Query(data BroadPhaseObjectData, results *ClientPairs) {
	for _, p := range n.order {
		obj := n.objects[p]
		if data.Aabb.Intersects(obj.Aabb) {
			results.Add(data.Collider, obj.Collider)
		}
	}
}

func (n *NSquared) BatchQuery(data []BroadPhaseObjectData, results *ClientPairs) {
	for i := range data {
		n.Query(data[i], results)
	}
}

func (n *NSquared) CastRay(ray Ray, results *CastResults) {
	for _, p := range n.order {
		castRayAgainst(n.objects[p], ray, INFINITY, results)
	}
}

func (n *NSquared) CastSegment(segment Segment, results *CastResults) {
	ray, length := segment.Ray()
	for _, p := range n.order {
		castRayAgainst(n.objects[p], ray, length, results)
	}
}

func (n *NSquared) CastAabb(bb Aabb, results *CastResults) {
	for _, p := range n.order {
		if obj := n.objects[p]; obj.Aabb.Intersects(bb) {
			castVolumeAgainst(obj, bb.Center(), results)
		}
	}
}

func (n *NSquared) CastSphere(sphere Sphere, results *CastResults) {
	for _, p := range n.order {
		if obj := n.objects[p]; obj.Aabb.IntersectsSphere(sphere) {
			castVolumeAgainst(obj, sphere.Center, results)
		}
	}
}

func (n *NSquared) CastFrustum(frustum Frustum, results *CastResults) {
	for _, p := range n.order {
		obj := n.objects[p]
		if frustum.OverlapsAabb(obj.Aabb) {
			castVolumeAgainst(obj, obj.Aabb.Center(), results)
		}
	}
}
