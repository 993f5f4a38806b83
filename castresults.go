package physics

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

type CastFilterFlags uint

const (
	IgnoreDynamic CastFilterFlags = 1 << iota
	IgnoreStatic
	IgnoreKinematic
	IgnoreGhost
	// IgnoreGroup skips colliders in CastFilter.Group.
	IgnoreGroup
)

// CastFilter decides which colliders a cast may report.
type CastFilter struct {
	Flags CastFilterFlags
	Group CollisionGroup

	// Ignore is skipped unconditionally, typically the caster itself.
	Ignore *Collider

	// Callback returns false to reject a collider.
	Callback func(c *Collider) bool
}

func (f CastFilter) IsSet(flag CastFilterFlags) bool {
	return f.Flags&flag != 0
}

func (f CastFilter) Accepts(c *Collider) bool {
	if c == nil || c == f.Ignore {
		return false
	}
	if f.IsSet(IgnoreStatic) && c.IsStatic() {
		return false
	}
	if f.IsSet(IgnoreKinematic) && c.IsKinematic() {
		return false
	}
	if f.IsSet(IgnoreDynamic) && !c.IsStatic() && !c.IsKinematic() {
		return false
	}
	if f.IsSet(IgnoreGhost) && c.Ghost {
		return false
	}
	if f.IsSet(IgnoreGroup) && c.Group == f.Group {
		return false
	}
	if f.Callback != nil && !f.Callback(c) {
		return false
	}
	return true
}

type CastResult struct {
	Collider *Collider

	// T is the distance from the cast origin.
	T      float64
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

// CastResults is a bounded accumulator kept sorted by T. When full, a closer
// item evicts the farthest one.
type CastResults struct {
	filter   CastFilter
	capacity int
	items    []CastResult
}

func NewCastResults(capacity int, filter CastFilter) *CastResults {
	assert(capacity > 0, "CastResults needs a positive capacity")
	if capacity < 1 {
		capacity = 1
	}
	return &CastResults{
		filter:   filter,
		capacity: capacity,
		items:    make([]CastResult, 0, capacity),
	}
}

func (r *CastResults) Filter() CastFilter {
	return r.filter
}

func (r *CastResults) Capacity() int {
	return r.capacity
}

func (r *CastResults) RemainingSize() int {
	return r.capacity - len(r.items)
}

func (r *CastResults) Len() int {
	return len(r.items)
}

func (r *CastResults) Items() []CastResult {
	return r.items
}

func (r *CastResults) Clear() {
	r.items = r.items[:0]
}

// Contains reports whether c is already in the results.
func (r *CastResults) Contains(c *Collider) bool {
	for i := range r.items {
		if r.items[i].Collider == c {
			return true
		}
	}
	return false
}

// AddItem inserts item in T order. It returns false when the filter rejects
// the collider, the collider is already present, or the results are full of
// closer items.
func (r *CastResults) AddItem(item CastResult) bool {
	if !r.filter.Accepts(item.Collider) || r.Contains(item.Collider) {
		return false
	}

	full := len(r.items) == r.capacity
	if full && item.T >= r.items[len(r.items)-1].T {
		return false
	}

	i := sort.Search(len(r.items), func(i int) bool {
		return r.items[i].T > item.T
	})

	if full {
		r.items = r.items[:len(r.items)-1]
	}
	r.items = append(r.items, CastResult{})
	copy(r.items[i+1:], r.items[i:])
	r.items[i] = item
	return true
}
