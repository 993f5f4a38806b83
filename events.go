package physics

import "github.com/go-gl/mathgl/mgl64"

// Event names
const (
	CollisionStarted   = "CollisionStarted"
	CollisionPersisted = "CollisionPersisted"
	CollisionEnded     = "CollisionEnded"

	GroupCollisionStarted   = "GroupCollisionStarted"
	GroupCollisionPersisted = "GroupCollisionPersisted"
	GroupCollisionEnded     = "GroupCollisionEnded"
	GroupCollisionPreSolve  = "GroupCollisionPreSolve"

	JointLowerLimitReached  = "JointLowerLimitReached"
	JointUpperLimitReached  = "JointUpperLimitReached"
	JointExceedImpulseLimit = "JointExceedImpulseLimit"
)

func collisionEventName(phase CollisionPhase) string {
	switch phase {
	case PhaseStarted:
		return CollisionStarted
	case PhasePersisted:
		return CollisionPersisted
	}
	return CollisionEnded
}

type Event interface {
	EventName() string
}

// EventDispatcher delivers events to their recipients. Events are only
// valid for the duration of the call; keep a copy to hold on to one.
type EventDispatcher interface {
	DispatchEvent(target ObjectID, name string, event Event)
}

type EventDispatcherFunc func(target ObjectID, name string, event Event)

func (f EventDispatcherFunc) DispatchEvent(target ObjectID, name string, event Event) {
	f(target, name, event)
}

// CollisionEvent goes to both colliders' owners whenever a pair starts,
// persists or ends touching. Index is the recipient's side.
type CollisionEvent struct {
	Name      string
	Phase     CollisionPhase
	Manifold  *Manifold
	Colliders [2]*Collider
	Index     int
}

func (e *CollisionEvent) EventName() string { return e.Name }

func (e *CollisionEvent) Self() *Collider  { return e.Colliders[e.Index] }
func (e *CollisionEvent) Other() *Collider { return e.Colliders[1-e.Index] }

// Normal points away from the recipient.
func (e *CollisionEvent) Normal() mgl64.Vec3 {
	return sidedNormal(e.Manifold, e.Self())
}

// CollisionGroupEvent is produced by a CollisionFilterBlock. Colliders[0]
// is always the collider in the filter's GroupA.
type CollisionGroupEvent struct {
	Name      string
	Phase     CollisionPhase
	Flags     CollisionFilterFlags
	Filter    *CollisionFilter
	Manifold  *Manifold
	Colliders [2]*Collider
	Index     int
}

func (e *CollisionGroupEvent) EventName() string { return e.Name }

func (e *CollisionGroupEvent) Self() *Collider  { return e.Colliders[e.Index] }
func (e *CollisionGroupEvent) Other() *Collider { return e.Colliders[1-e.Index] }

func (e *CollisionGroupEvent) Normal() mgl64.Vec3 {
	return sidedNormal(e.Manifold, e.Self())
}

// PreSolveEvent is sent before the solver sees the manifold. Listeners may
// change its friction or restitution, or ignore it for this step.
type PreSolveEvent struct {
	CollisionGroupEvent
}

// Ignore keeps the manifold out of this step's solve.
func (e *PreSolveEvent) Ignore() {
	if e.Manifold != nil {
		e.Manifold.ignored = true
	}
}

type JointEvent struct {
	Name  string
	Joint *Joint
}

func (e *JointEvent) EventName() string { return e.Name }

func sidedNormal(m *Manifold, self *Collider) mgl64.Vec3 {
	if m == nil {
		return VectorZero
	}
	if self != nil && self == m.B {
		return m.Normal.Mul(-1)
	}
	return m.Normal
}

type eventKind int

const (
	eventCollision eventKind = iota
	eventGroup
	eventJoint
)

type queuedEvent struct {
	kind  eventKind
	index int
}

// EventManager batches the events of one step and dispatches them in the
// order they were batched. Events live in per-step arenas that are reset,
// not freed, after each dispatch.
type EventManager struct {
	Dispatcher EventDispatcher

	collisions []CollisionEvent
	groups     []CollisionGroupEvent
	joints     []JointEvent
	preSolves  []PreSolveEvent

	queue []queuedEvent
}

func NewEventManager(dispatcher EventDispatcher) *EventManager {
	return &EventManager{Dispatcher: dispatcher}
}

// Pending is the number of deferred events waiting for DispatchEvents.
func (em *EventManager) Pending() int {
	return len(em.queue)
}

func (em *EventManager) PendingPreSolve() int {
	return len(em.preSolves)
}

func (em *EventManager) BatchCollisionStartedEvent(m *Manifold, space *Space, immediate bool) {
	em.batchCollision(m, space, PhaseStarted, immediate)
}

func (em *EventManager) BatchCollisionPersistedEvent(m *Manifold, space *Space, immediate bool) {
	em.batchCollision(m, space, PhasePersisted, immediate)
}

// BatchCollisionEndedEvent is sent with immediate set when a collider is
// removed, so listeners see it before it is gone.
func (em *EventManager) BatchCollisionEndedEvent(m *Manifold, space *Space, immediate bool) {
	em.batchCollision(m, space, PhaseEnded, immediate)
}

func (em *EventManager) batchCollision(m *Manifold, space *Space, phase CollisionPhase, immediate bool) {
	if m.SendsMessages {
		event := CollisionEvent{
			Name:      collisionEventName(phase),
			Phase:     phase,
			Manifold:  m,
			Colliders: [2]*Collider{m.A, m.B},
		}
		if immediate {
			em.dispatchCollision(&event)
		} else {
			em.collisions = append(em.collisions, event)
			em.queue = append(em.queue, queuedEvent{eventCollision, len(em.collisions) - 1})
		}
	}

	event, ok := groupEventFor(m, space, phase)
	if !ok {
		return
	}
	if immediate {
		em.dispatchGroup(&event, space)
	} else {
		em.groups = append(em.groups, event)
		em.queue = append(em.queue, queuedEvent{eventGroup, len(em.groups) - 1})
	}
}

// groupEventFor builds the group event for m in phase, if the collision
// table asks for one.
func groupEventFor(m *Manifold, space *Space, phase CollisionPhase) (CollisionGroupEvent, bool) {
	if space == nil {
		return CollisionGroupEvent{}, false
	}
	filter := space.Collisions.FilterFor(m)
	block := filter.Block(phase)
	if block == nil {
		return CollisionGroupEvent{}, false
	}

	a, b, _ := filter.sides(m)
	return CollisionGroupEvent{
		Name:      block.EventName(),
		Phase:     phase,
		Flags:     block.Flags,
		Filter:    filter,
		Manifold:  m,
		Colliders: [2]*Collider{a, b},
	}, true
}

// BatchPreSolveEvent queues a pre-solve event when the pair's filter has a
// pre-solve block.
func (em *EventManager) BatchPreSolveEvent(m *Manifold, space *Space) {
	event, ok := groupEventFor(m, space, PhasePreSolve)
	if !ok {
		return
	}
	em.preSolves = append(em.preSolves, PreSolveEvent{event})
}

// BatchJointEvent queues name for the joint's owner and the owners of its
// colliders. Each recipient gets it once.
func (em *EventManager) BatchJointEvent(j *Joint, name string) {
	em.joints = append(em.joints, JointEvent{Name: name, Joint: j})
	em.queue = append(em.queue, queuedEvent{eventJoint, len(em.joints) - 1})
}

func (em *EventManager) DispatchPreSolveEvents(space *Space) {
	for i := 0; i < len(em.preSolves); i++ {
		event := &em.preSolves[i]
		em.dispatchSides(event, &event.CollisionGroupEvent, space)
	}
	clear(em.preSolves)
	em.preSolves = em.preSolves[:0]
}

// DispatchEvents sends everything batched since the last call, in batch
// order, and resets the arenas.
func (em *EventManager) DispatchEvents(space *Space) {
	// listeners may batch more events while we dispatch
	for i := 0; i < len(em.queue); i++ {
		q := em.queue[i]
		switch q.kind {
		case eventCollision:
			em.dispatchCollision(&em.collisions[q.index])
		case eventGroup:
			em.dispatchGroup(&em.groups[q.index], space)
		case eventJoint:
			em.dispatchJoint(&em.joints[q.index])
		}
	}
	em.Reset()
}

// Reset drops every batched event without sending it.
func (em *EventManager) Reset() {
	clear(em.collisions)
	clear(em.groups)
	clear(em.joints)
	clear(em.preSolves)
	em.collisions = em.collisions[:0]
	em.groups = em.groups[:0]
	em.joints = em.joints[:0]
	em.preSolves = em.preSolves[:0]
	em.queue = em.queue[:0]
}

func (em *EventManager) send(target ObjectID, name string, event Event) {
	if em.Dispatcher != nil {
		em.Dispatcher.DispatchEvent(target, name, event)
	}
}

// dispatchCollision sends to A then B. Colliders without an owner are skipped.
func (em *EventManager) dispatchCollision(event *CollisionEvent) {
	for i, c := range event.Colliders {
		if c == nil || c.Owner == 0 {
			continue
		}
		event.Index = i
		em.send(c.Owner, event.Name, event)
	}
	event.Index = 0
}

func (em *EventManager) dispatchGroup(event *CollisionGroupEvent, space *Space) {
	em.dispatchSides(event, event, space)
}

// dispatchSides sends a group event to A, then B, then the space, each
// only when its flag is set.
func (em *EventManager) dispatchSides(event Event, group *CollisionGroupEvent, space *Space) {
	if a := group.Colliders[0]; group.Flags.IsSet(SendEventsToA) && a != nil && a.Owner != 0 {
		group.Index = 0
		em.send(a.Owner, group.Name, event)
	}
	if b := group.Colliders[1]; group.Flags.IsSet(SendEventsToB) && b != nil && b.Owner != 0 {
		group.Index = 1
		em.send(b.Owner, group.Name, event)
	}
	if group.Flags.IsSet(SendEventsToSpace) && space != nil {
		group.Index = 0
		em.send(space.ID, group.Name, event)
	}
	group.Index = 0
}

func (em *EventManager) dispatchJoint(event *JointEvent) {
	j := event.Joint
	targets := [3]ObjectID{j.Owner}
	if j.colliderA != nil {
		targets[1] = j.colliderA.Owner
	}
	if j.colliderB != nil {
		targets[2] = j.colliderB.Owner
	}

	for i, target := range targets {
		if target == 0 {
			continue
		}
		seen := false
		for _, prev := range targets[:i] {
			seen = seen || prev == target
		}
		if !seen {
			em.send(target, event.Name, event)
		}
	}
}

// RecordedEvent is one dispatch captured by an EventRecorder.
type RecordedEvent struct {
	Target ObjectID
	Name   string
	Event  Event
}

// EventRecorder is an EventDispatcher that keeps a copy of everything it
// is sent.
type EventRecorder struct {
	Events []RecordedEvent
}

func (r *EventRecorder) DispatchEvent(target ObjectID, name string, event Event) {
	switch e := event.(type) {
	case *CollisionEvent:
		c := *e
		event = &c
	case *CollisionGroupEvent:
		c := *e
		event = &c
	case *PreSolveEvent:
		c := *e
		event = &c
	case *JointEvent:
		c := *e
		event = &c
	}
	r.Events = append(r.Events, RecordedEvent{Target: target, Name: name, Event: event})
}

// Count returns how many events called name went to target.
func (r *EventRecorder) Count(target ObjectID, name string) int {
	n := 0
	for _, e := range r.Events {
		if e.Target == target && e.Name == name {
			n++
		}
	}
	return n
}

func (r *EventRecorder) Named(name string) []RecordedEvent {
	var events []RecordedEvent
	for _, e := range r.Events {
		if e.Name == name {
			events = append(events, e)
		}
	}
	return events
}

func (r *EventRecorder) Reset() {
	r.Events = r.Events[:0]
}
