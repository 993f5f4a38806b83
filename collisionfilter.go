package physics

import (
	"fmt"
	"log"
)

type CollisionPhase int

const (
	PhaseStarted CollisionPhase = iota
	PhasePersisted
	PhaseEnded
	PhasePreSolve
)

func (p CollisionPhase) String() string {
	switch p {
	case PhaseStarted:
		return "Started"
	case PhasePersisted:
		return "Persisted"
	case PhaseEnded:
		return "Ended"
	case PhasePreSolve:
		return "PreSolve"
	}
	return fmt.Sprint("CollisionPhase(", int(p), ")")
}

// groupEventName is the event name used when a block has no override.
func (p CollisionPhase) groupEventName() string {
	switch p {
	case PhaseStarted:
		return GroupCollisionStarted
	case PhasePersisted:
		return GroupCollisionPersisted
	case PhaseEnded:
		return GroupCollisionEnded
	}
	return GroupCollisionPreSolve
}

type CollisionFilterFlags uint

const (
	SendEventsToA CollisionFilterFlags = 1 << iota
	SendEventsToB
	SendEventsToSpace

	SendEventsToAll = SendEventsToA | SendEventsToB | SendEventsToSpace
)

func (f CollisionFilterFlags) IsSet(flag CollisionFilterFlags) bool {
	return f&flag != 0
}

// CollisionFilterBlock asks for a group event in one phase.
type CollisionFilterBlock struct {
	Phase CollisionPhase
	Flags CollisionFilterFlags

	// EventOverride replaces the default group event name when set.
	EventOverride string
}

func (b *CollisionFilterBlock) EventName() string {
	if b.EventOverride != "" {
		return b.EventOverride
	}
	return b.Phase.groupEventName()
}

// CollisionFilter describes what happens when colliders of GroupA and
// GroupB touch. Side A of its events is always the collider in GroupA.
type CollisionFilter struct {
	GroupA, GroupB CollisionGroup

	Blocks []CollisionFilterBlock

	// SkipResolution keeps the pair's manifolds out of the solver.
	SkipResolution bool
}

func NewCollisionFilter(a, b CollisionGroup) *CollisionFilter {
	return &CollisionFilter{GroupA: a, GroupB: b}
}

// Block returns the first block for phase, or nil.
func (f *CollisionFilter) Block(phase CollisionPhase) *CollisionFilterBlock {
	if f == nil {
		return nil
	}
	for i := range f.Blocks {
		if f.Blocks[i].Phase == phase {
			return &f.Blocks[i]
		}
	}
	return nil
}

func (f *CollisionFilter) AddBlock(phase CollisionPhase, flags CollisionFilterFlags, override string) *CollisionFilter {
	f.Blocks = append(f.Blocks, CollisionFilterBlock{Phase: phase, Flags: flags, EventOverride: override})
	return f
}

// sides orders the manifold's colliders so the first one is in GroupA.
func (f *CollisionFilter) sides(m *Manifold) (a, b *Collider, swapped bool) {
	if f.GroupA != f.GroupB && m.A != nil && m.A.Group != f.GroupA {
		return m.B, m.A, true
	}
	return m.A, m.B, false
}

type groupPair struct {
	a, b CollisionGroup
}

func makeGroupPair(a, b CollisionGroup) groupPair {
	if b < a {
		a, b = b, a
	}
	return groupPair{a, b}
}

// CollisionTable holds the filters by unordered group pair. It is not
// modified while a step runs.
type CollisionTable struct {
	filters map[groupPair]*CollisionFilter
}

func NewCollisionTable() *CollisionTable {
	return &CollisionTable{filters: map[groupPair]*CollisionFilter{}}
}

// Add registers filter, replacing any filter for the same pair.
func (t *CollisionTable) Add(filter *CollisionFilter) {
	key := makeGroupPair(filter.GroupA, filter.GroupB)
	if _, ok := t.filters[key]; ok {
		log.Println("Warning: replacing collision filter for groups", filter.GroupA, filter.GroupB)
	}
	t.filters[key] = filter
}

func (t *CollisionTable) Remove(a, b CollisionGroup) {
	delete(t.filters, makeGroupPair(a, b))
}

func (t *CollisionTable) Find(a, b CollisionGroup) *CollisionFilter {
	if t == nil {
		return nil
	}
	return t.filters[makeGroupPair(a, b)]
}

func (t *CollisionTable) Len() int {
	return len(t.filters)
}

// FilterFor looks up the filter that applies to m.
func (t *CollisionTable) FilterFor(m *Manifold) *CollisionFilter {
	if m.A == nil || m.B == nil {
		return nil
	}
	return t.Find(m.A.Group, m.B.Group)
}
