package physics

import (
	"testing"
)

func TestCastResults_SortedAndBounded(t *testing.T) {
	results := NewCastResults(3, CastFilter{})
	colliders := make([]*Collider, 5)
	for i := range colliders {
		colliders[i] = NewCollider(ObjectID(i+1), nil, Aabb{})
	}

	for i, T := range []float64{5, 1, 4, 2, 3} {
		results.AddItem(CastResult{Collider: colliders[i], T: T})
	}

	if results.Len() != 3 || results.RemainingSize() != 0 {
		t.Fatalf("Expected 3 items and no room, got %v and %v", results.Len(), results.RemainingSize())
	}
	for i, want := range []float64{1, 2, 3} {
		if got := results.Items()[i].T; got != want {
			t.Errorf("Item %v: expected T %v, got %v", i, want, got)
		}
	}

	// farther than everything held
	if results.AddItem(CastResult{Collider: NewCollider(9, nil, Aabb{}), T: 10}) {
		t.Error("Full results accepted a farther item")
	}
}

func TestCastResults_RejectsDuplicates(t *testing.T) {
	results := NewCastResults(4, CastFilter{})
	c := NewCollider(1, nil, Aabb{})
	if !results.AddItem(CastResult{Collider: c, T: 1}) {
		t.Fatal("First add failed")
	}
	if results.AddItem(CastResult{Collider: c, T: 0.5}) {
		t.Error("Same collider added twice")
	}
}

func TestCastFilter(t *testing.T) {
	static := NewCollider(1, nil, Aabb{})
	dynamic := NewCollider(2, NewBody(1, MomentForSphere(1, 1)), Aabb{})
	kinematic := NewCollider(3, NewKinematicBody(), Aabb{})
	ghost := NewCollider(4, NewBody(1, MomentForSphere(1, 1)), Aabb{})
	ghost.Ghost = true
	grouped := NewCollider(5, NewBody(1, MomentForSphere(1, 1)), Aabb{})
	grouped.Group = 7

	cases := []struct {
		filter   CastFilter
		collider *Collider
		accepts  bool
	}{
		{CastFilter{Flags: IgnoreStatic}, static, false},
		{CastFilter{Flags: IgnoreStatic}, dynamic, true},
		{CastFilter{Flags: IgnoreDynamic}, dynamic, false},
		{CastFilter{Flags: IgnoreDynamic}, kinematic, true},
		{CastFilter{Flags: IgnoreKinematic}, kinematic, false},
		{CastFilter{Flags: IgnoreGhost}, ghost, false},
		{CastFilter{Flags: IgnoreGroup, Group: 7}, grouped, false},
		{CastFilter{Flags: IgnoreGroup, Group: 6}, grouped, true},
		{CastFilter{Ignore: dynamic}, dynamic, false},
		{CastFilter{Callback: func(c *Collider) bool { return c.Owner != 1 }}, static, false},
	}
	for i, c := range cases {
		if got := c.filter.Accepts(c.collider); got != c.accepts {
			t.Errorf("Case %v: expected %v, got %v", i, c.accepts, got)
		}
	}
}
