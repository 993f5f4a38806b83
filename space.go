package physics

import (
	"log"
)

// Space is the simulation context. It owns the colliders and joints by id,
// the broad phase, the solver, the event manager and the collision table,
// and resolves the weak references joints hold.
type Space struct {
	// ID receives the events filters send to the space.
	ID ObjectID

	BroadPhase *BroadPhaseDispatcher
	Solver     *Solver
	Events     *EventManager
	Collisions *CollisionTable

	colliders     map[ColliderID]*Collider
	colliderOrder []*Collider

	joints     map[JointID]*Joint
	jointOrder []*Joint

	// manifolds of the current and the previous step, by pair
	pairs, prevPairs         map[PairKey]*Manifold
	pairOrder, prevPairOrder []*Manifold

	stamp  uint
	locked int

	postStepCallbacks []PostStepCallback

	UserData interface{}
}

func NewSpace() *Space {
	return &Space{
		BroadPhase: NewDefaultBroadPhaseDispatcher(),
		Solver:     NewSolver(DefaultSolverConfig()),
		Events:     NewEventManager(nil),
		Collisions: NewCollisionTable(),
		colliders:  map[ColliderID]*Collider{},
		joints:     map[JointID]*Joint{},
		pairs:      map[PairKey]*Manifold{},
		prevPairs:  map[PairKey]*Manifold{},
	}
}

func (space *Space) SetDispatcher(dispatcher EventDispatcher) {
	space.Events.Dispatcher = dispatcher
}

func (space *Space) Stamp() uint {
	return space.stamp
}

func (space *Space) IsLocked() bool {
	return space.locked > 0
}

func (space *Space) Collider(id ColliderID) *Collider {
	return space.colliders[id]
}

func (space *Space) Joint(id JointID) *Joint {
	return space.joints[id]
}

// Colliders returns the colliders in the order they were added.
func (space *Space) Colliders() []*Collider {
	return space.colliderOrder
}

// Joints returns the joints in the order they were added.
func (space *Space) Joints() []*Joint {
	return space.jointOrder
}

// Manifolds returns the pairs seen by the last step.
func (space *Space) Manifolds() []*Manifold {
	return space.pairOrder
}

func (space *Space) AddCollider(c *Collider) *Collider {
	if !assert(c.space == nil, "You have already added", c, "to another space. You cannot add it to a second.") {
		return c
	}
	if !assert(!space.IsLocked(), "This operation cannot be done safely during a call to Space.Step(). Put these calls into a post-step callback.") {
		return c
	}

	c.space = space
	space.colliders[c.id] = c
	space.colliderOrder = append(space.colliderOrder, c)

	c.category = categoryFor(c.body)
	c.proxy = space.BroadPhase.CreateProxy(c.category, c.objectData())
	return c
}

// RemoveCollider sends CollisionEnded for the collider's live pairs before
// it goes, so listeners can still look at it.
func (space *Space) RemoveCollider(c *Collider) {
	if !assert(c.space == space, "Cannot remove", c, "that was not added to the space. (Removed twice maybe?)") {
		return
	}
	if !assert(!space.IsLocked(), "This operation cannot be done safely during a call to Space.Step(). Put these calls into a post-step callback.") {
		return
	}

	order := space.pairOrder[:0]
	for _, m := range space.pairOrder {
		if m.Involves(c) {
			space.Events.BatchCollisionEndedEvent(m, space, true)
			delete(space.pairs, m.Key())
			continue
		}
		order = append(order, m)
	}
	clear(space.pairOrder[len(order):])
	space.pairOrder = order

	space.BroadPhase.RemoveProxy(c.category, c.proxy)
	c.proxy = InvalidProxy

	delete(space.colliders, c.id)
	for i, other := range space.colliderOrder {
		if other == c {
			space.colliderOrder = append(space.colliderOrder[:i], space.colliderOrder[i+1:]...)
			break
		}
	}
	c.space = nil
}

// UpdateCollider refreshes the collider's broad-phase proxy after it or its
// body moved. A body that changed type moves to the other category.
func (space *Space) UpdateCollider(c *Collider) {
	if c.space != space {
		return
	}
	category := categoryFor(c.body)
	if category != c.category {
		space.BroadPhase.RemoveProxy(c.category, c.proxy)
		c.category = category
		c.proxy = space.BroadPhase.CreateProxy(category, c.objectData())
		return
	}
	space.BroadPhase.UpdateProxy(c.category, c.proxy, c.objectData())
}

// UpdateColliders refreshes every dynamic proxy in one batch.
func (space *Space) UpdateColliders() {
	var proxies []BroadPhaseProxy
	var data []BroadPhaseObjectData
	for _, c := range space.colliderOrder {
		if categoryFor(c.body) != c.category {
			space.UpdateCollider(c)
			continue
		}
		if c.category == BroadPhaseDynamic {
			proxies = append(proxies, c.proxy)
			data = append(data, c.objectData())
		}
	}
	if len(proxies) > 0 {
		space.BroadPhase.UpdateProxies(BroadPhaseDynamic, proxies, data)
	}
}

// AddJoint adds j and validates it. Joints that couple other joints may
// stay invalid until those are added; ValidateJoints picks them up.
func (space *Space) AddJoint(j *Joint) *Joint {
	if !assert(j.space == nil, "You have already added", j, "to another space. You cannot add it to a second.") {
		return j
	}
	if !assert(!space.IsLocked(), "This operation cannot be done safely during a call to Space.Step(). Put these calls into a post-step callback.") {
		return j
	}

	j.space = space
	space.joints[j.id] = j
	space.jointOrder = append(space.jointOrder, j)
	j.Validate(space)
	return j
}

func (space *Space) RemoveJoint(j *Joint) {
	if !assert(j.space == space, "Cannot remove", j, "that was not added to the space. (Removed twice maybe?)") {
		return
	}
	if !assert(!space.IsLocked(), "This operation cannot be done safely during a call to Space.Step(). Put these calls into a post-step callback.") {
		return
	}

	delete(space.joints, j.id)
	for i, other := range space.jointOrder {
		if other == j {
			space.jointOrder = append(space.jointOrder[:i], space.jointOrder[i+1:]...)
			break
		}
	}
	j.Destroy(space)
	j.space = nil
}

// ValidateJoints runs after objects have been created or removed. Joints
// that read other joints go last so they see this pass's results.
func (space *Space) ValidateJoints() {
	for _, j := range space.jointOrder {
		if !jointKinds[j.Kind].coupling {
			j.Validate(space)
		}
	}
	for _, j := range space.jointOrder {
		if jointKinds[j.Kind].coupling {
			j.Validate(space)
		}
	}
}

// Step solves one step against the manifolds the narrow phase produced for
// it. Pairs not seen since the last step start, pairs seen again persist,
// and pairs that are missing end.
func (space *Space) Step(dt float64, manifolds []*Manifold) {
	if dt <= 0 {
		return
	}
	space.stamp++

	space.Lock()
	space.ValidateJoints()

	space.prevPairs, space.pairs = space.pairs, space.prevPairs
	space.prevPairOrder, space.pairOrder = space.pairOrder, space.prevPairOrder[:0]
	clear(space.pairs)

	for _, m := range manifolds {
		if m == nil || (m.A == nil && m.B == nil) {
			continue
		}
		key := m.Key()
		if _, ok := space.pairs[key]; ok {
			log.Println("Warning: more than one manifold for", m.A, "and", m.B, "in one step; ignoring", m)
			continue
		}
		m.ignored = false
		space.pairs[key] = m
		space.pairOrder = append(space.pairOrder, m)

		if prev, ok := space.prevPairs[key]; ok {
			m.inherit(prev)
			space.Events.BatchCollisionPersistedEvent(m, space, false)
		} else {
			space.Events.BatchCollisionStartedEvent(m, space, false)
		}
	}
	for _, prev := range space.prevPairOrder {
		if _, ok := space.pairs[prev.Key()]; !ok {
			space.Events.BatchCollisionEndedEvent(prev, space, false)
		}
	}

	for _, m := range space.pairOrder {
		space.Events.BatchPreSolveEvent(m, space)
	}
	space.Events.DispatchPreSolveEvents(space)

	solver := space.Solver
	solver.Clear()
	for _, j := range space.jointOrder {
		if j.Valid() && j.active {
			solver.AddJoint(j)
		}
	}
	for _, m := range space.pairOrder {
		if space.resolves(m) {
			solver.AddContact(m)
		}
	}

	ctx := &SolverContext{
		Registry: space,
		Events:   space.Events,
		Space:    space,
	}
	solver.Solve(ctx, dt)

	space.Events.DispatchEvents(space)

	clear(space.prevPairs)
	clear(space.prevPairOrder)
	space.Unlock(true)
}

// resolves reports whether m goes to the solver.
func (space *Space) resolves(m *Manifold) bool {
	if m.ignored || len(m.Points) == 0 {
		return false
	}
	if (m.A != nil && m.A.Ghost) || (m.B != nil && m.B.Ghost) {
		return false
	}
	if immovable(m.A) && immovable(m.B) {
		return false
	}
	if filter := space.Collisions.FilterFor(m); filter != nil && filter.SkipResolution {
		return false
	}
	return true
}

func immovable(c *Collider) bool {
	return c == nil || c.IsStatic()
}

func (space *Space) Lock() {
	space.locked++
}

func (space *Space) Unlock(runPostStep bool) {
	space.locked--
	assert(space.locked >= 0, "Internal Error: Space lock underflow.")

	if space.locked != 0 || !runPostStep {
		return
	}
	// callbacks may add more callbacks
	for i := 0; i < len(space.postStepCallbacks); i++ {
		callback := space.postStepCallbacks[i]
		callback.callback(space, callback.key, callback.data)
	}
	clear(space.postStepCallbacks)
	space.postStepCallbacks = space.postStepCallbacks[:0]
}

type PostStepCallback struct {
	callback PostStepCallbackFunc
	key      interface{}
	data     interface{}
}

type PostStepCallbackFunc func(space *Space, key interface{}, data interface{})

// AddPostStepCallback runs f once the current step is done. Only the first
// callback registered for a key is kept. Outside a step f runs at once.
func (space *Space) AddPostStepCallback(f PostStepCallbackFunc, key, data interface{}) bool {
	if !space.IsLocked() {
		f(space, key, data)
		return true
	}
	if key != nil {
		for _, callback := range space.postStepCallbacks {
			if callback.key == key {
				return false
			}
		}
	}
	space.postStepCallbacks = append(space.postStepCallbacks, PostStepCallback{f, key, data})
	return true
}

// CastRay returns up to capacity hits along ray, closest first.
func (space *Space) CastRay(ray Ray, filter CastFilter, capacity int) *CastResults {
	results := NewCastResults(capacity, filter)
	space.BroadPhase.CastRay(ray, results)
	return results
}

func (space *Space) CastSegment(segment Segment, filter CastFilter, capacity int) *CastResults {
	results := NewCastResults(capacity, filter)
	space.BroadPhase.CastSegment(segment, results)
	return results
}

func (space *Space) CastAabb(bb Aabb, filter CastFilter, capacity int) *CastResults {
	results := NewCastResults(capacity, filter)
	space.BroadPhase.CastAabb(bb, results)
	return results
}

func (space *Space) CastSphere(sphere Sphere, filter CastFilter, capacity int) *CastResults {
	results := NewCastResults(capacity, filter)
	space.BroadPhase.CastSphere(sphere, results)
	return results
}

func (space *Space) CastFrustum(frustum Frustum, filter CastFilter, capacity int) *CastResults {
	results := NewCastResults(capacity, filter)
	space.BroadPhase.CastFrustum(frustum, results)
	return results
}

// QueryPairs collects the candidate pairs for the narrow phase: dynamic
// against dynamic, then every dynamic collider against the static ones.
func (space *Space) QueryPairs(results *ClientPairs) {
	space.BroadPhase.SelfQuery(results)

	var data []BroadPhaseObjectData
	for _, c := range space.colliderOrder {
		if c.category == BroadPhaseDynamic {
			data = append(data, c.objectData())
		}
	}
	space.BroadPhase.BatchQuery(data, results)
}
