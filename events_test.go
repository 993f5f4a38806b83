package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// groupScene puts X (group 1, owner 100) on a dynamic body and Y (group 2,
// owner 200) on the ground, touching with Y reported as side A.
func groupScene(filter *CollisionFilter) (*Space, *EventRecorder, *Collider, *Collider, *Manifold) {
	space := NewSpace()
	space.ID = 999
	recorder := &EventRecorder{}
	space.SetDispatcher(recorder)

	body := NewBody(1, mgl64.Vec3{1, 1, 1})
	body.SetPosition(mgl64.Vec3{0, 1, 0})
	x := NewBoxCollider(100, body, mgl64.Vec3{0.5, 0.5, 0.5})
	x.Group = 1
	space.AddCollider(x)

	y := NewBoxCollider(200, nil, mgl64.Vec3{5, 0.5, 5})
	y.Group = 2
	space.AddCollider(y)

	if filter != nil {
		space.Collisions.Add(filter)
	}

	m := NewManifold(y, x, VectorY)
	m.AddPoint(mgl64.Vec3{0, 0.5, 0}, 0.01)
	return space, recorder, x, y, m
}

func TestEvents_SideFlags(t *testing.T) {
	filter := NewCollisionFilter(1, 2).AddBlock(PhaseStarted, SendEventsToA, "")
	space, recorder, x, _, m := groupScene(filter)
	space.Step(1.0/60.0, []*Manifold{m})

	if n := recorder.Count(100, GroupCollisionStarted); n != 1 {
		t.Errorf("Expected one group event for X, got %v", n)
	}
	if recorder.Count(200, GroupCollisionStarted) != 0 || recorder.Count(999, GroupCollisionStarted) != 0 {
		t.Error("Group event went to a side without its flag")
	}

	events := recorder.Named(GroupCollisionStarted)
	if len(events) != 1 {
		t.Fatalf("Expected 1 group event, got %v", len(events))
	}
	event := events[0].Event.(*CollisionGroupEvent)
	if event.Self() != x {
		t.Errorf("Side A should be the GroupA collider, got %v", event.Self())
	}
	if !vecNear(event.Normal(), mgl64.Vec3{0, -1, 0}, 1e-12) {
		t.Errorf("Normal should point away from X, got %v", event.Normal())
	}
	if event.Filter != filter || event.Phase != PhaseStarted {
		t.Error("Event lost its filter or phase")
	}
}

func TestEvents_Order(t *testing.T) {
	filter := NewCollisionFilter(1, 2).AddBlock(PhaseStarted, SendEventsToAll, "")
	space, recorder, _, _, m := groupScene(filter)
	space.Step(1.0/60.0, []*Manifold{m})

	expected := []struct {
		target ObjectID
		name   string
		index  int
	}{
		{200, CollisionStarted, 0},
		{100, CollisionStarted, 1},
		{100, GroupCollisionStarted, 0},
		{200, GroupCollisionStarted, 1},
		{999, GroupCollisionStarted, 0},
	}
	if len(recorder.Events) != len(expected) {
		t.Fatalf("Expected %v events, got %v", len(expected), recorder.Events)
	}
	for i, e := range expected {
		got := recorder.Events[i]
		if got.Target != e.target || got.Name != e.name {
			t.Errorf("Event %v: expected %v to %v, got %v to %v", i, e.name, e.target, got.Name, got.Target)
		}
		var index int
		switch ev := got.Event.(type) {
		case *CollisionEvent:
			index = ev.Index
		case *CollisionGroupEvent:
			index = ev.Index
		}
		if index != e.index {
			t.Errorf("Event %v: expected index %v, got %v", i, e.index, index)
		}
	}
}

func TestEvents_SendsMessagesFalse(t *testing.T) {
	filter := NewCollisionFilter(1, 2).AddBlock(PhaseStarted, SendEventsToSpace, "")
	space, recorder, _, _, m := groupScene(filter)
	m.SendsMessages = false
	space.Step(1.0/60.0, []*Manifold{m})

	if len(recorder.Named(CollisionStarted)) != 0 {
		t.Error("Per-object events should be suppressed")
	}
	if recorder.Count(999, GroupCollisionStarted) != 1 {
		t.Error("Group event should still be sent")
	}
}

func TestEvents_Override(t *testing.T) {
	filter := NewCollisionFilter(2, 1).AddBlock(PhaseStarted, SendEventsToA, "Splash")
	space, recorder, _, _, m := groupScene(filter)
	space.Step(1.0/60.0, []*Manifold{m})

	if recorder.Count(200, "Splash") != 1 {
		t.Errorf("Expected the override name for Y, got %v", recorder.Events)
	}
	if len(recorder.Named(GroupCollisionStarted)) != 0 {
		t.Error("Default name used despite the override")
	}
}

func TestEvents_Phases(t *testing.T) {
	filter := NewCollisionFilter(1, 2).
		AddBlock(PhaseStarted, SendEventsToSpace, "").
		AddBlock(PhasePersisted, SendEventsToSpace, "").
		AddBlock(PhaseEnded, SendEventsToSpace, "")
	space, recorder, _, _, m := groupScene(filter)

	space.Step(1.0/60.0, []*Manifold{m})
	space.Step(1.0/60.0, []*Manifold{m})
	space.Step(1.0/60.0, nil)

	for _, name := range []string{GroupCollisionStarted, GroupCollisionPersisted, GroupCollisionEnded} {
		if recorder.Count(999, name) != 1 {
			t.Errorf("Expected one %v for the space", name)
		}
	}
}

func TestEvents_PreSolveIgnore(t *testing.T) {
	filter := NewCollisionFilter(1, 2).AddBlock(PhasePreSolve, SendEventsToA, "")
	space, _, x, _, m := groupScene(filter)

	var seen int
	space.SetDispatcher(EventDispatcherFunc(func(target ObjectID, name string, event Event) {
		if pre, ok := event.(*PreSolveEvent); ok {
			seen++
			if target != x.Owner || name != GroupCollisionPreSolve {
				t.Errorf("Pre-solve sent %v to %v", name, target)
			}
			pre.Ignore()
		}
	}))

	x.Body().SetVelocity(mgl64.Vec3{0, -1, 0})
	space.Step(1.0/60.0, []*Manifold{m})

	if seen != 1 {
		t.Fatalf("Expected one pre-solve event, got %v", seen)
	}
	if !m.Ignored() {
		t.Error("Manifold should be ignored")
	}
	if space.Solver.ContactCount() != 0 {
		t.Error("Ignored manifold was solved")
	}
	if v := x.Body().Velocity(); v.Y() != -1 {
		t.Errorf("Ignored contact changed the velocity: %v", v)
	}

	// ignoring only lasts one step
	space.SetDispatcher(nil)
	space.Step(1.0/60.0, []*Manifold{m})
	if m.Ignored() || space.Solver.ContactCount() != 1 {
		t.Error("Manifold should be solved again")
	}
}

func TestEventManager_JointRecipients(t *testing.T) {
	recorder := &EventRecorder{}
	em := NewEventManager(recorder)

	a := NewBoxCollider(5, nil, mgl64.Vec3{1, 1, 1})
	b := NewBoxCollider(6, NewBody(1, mgl64.Vec3{1, 1, 1}), mgl64.Vec3{1, 1, 1})
	j := NewPositionJoint(a, b, VectorZero)
	j.Owner = 6

	em.BatchJointEvent(j, JointLowerLimitReached)
	if em.Pending() != 1 {
		t.Fatalf("Expected 1 pending event, got %v", em.Pending())
	}
	em.DispatchEvents(nil)

	if len(recorder.Events) != 2 {
		t.Fatalf("Expected 2 recipients, got %v", recorder.Events)
	}
	if recorder.Events[0].Target != 6 || recorder.Events[1].Target != 5 {
		t.Errorf("Unexpected recipients %v", recorder.Events)
	}
	if em.Pending() != 0 {
		t.Error("Dispatch should reset the queue")
	}
}

func TestEventManager_BatchOrder(t *testing.T) {
	recorder := &EventRecorder{}
	em := NewEventManager(recorder)

	a := NewBoxCollider(1, nil, mgl64.Vec3{1, 1, 1})
	b := NewBoxCollider(2, NewBody(1, mgl64.Vec3{1, 1, 1}), mgl64.Vec3{1, 1, 1})
	m := NewManifold(a, b, VectorY)
	j := NewPositionJoint(a, b, VectorZero)
	j.Owner = 3

	em.BatchJointEvent(j, JointUpperLimitReached)
	em.BatchCollisionStartedEvent(m, nil, false)
	em.BatchCollisionEndedEvent(m, nil, false)
	em.DispatchEvents(nil)

	names := []string{
		JointUpperLimitReached, JointUpperLimitReached, JointUpperLimitReached,
		CollisionStarted, CollisionStarted,
		CollisionEnded, CollisionEnded,
	}
	if len(recorder.Events) != len(names) {
		t.Fatalf("Expected %v events, got %v", len(names), len(recorder.Events))
	}
	for i, name := range names {
		if recorder.Events[i].Name != name {
			t.Errorf("Event %v: expected %v, got %v", i, name, recorder.Events[i].Name)
		}
	}
}

func TestEventManager_NoDispatcher(t *testing.T) {
	em := NewEventManager(nil)
	a := NewBoxCollider(1, nil, mgl64.Vec3{1, 1, 1})
	b := NewBoxCollider(2, nil, mgl64.Vec3{1, 1, 1})

	em.BatchCollisionStartedEvent(NewManifold(a, b, VectorY), nil, false)
	em.DispatchEvents(nil)
	if em.Pending() != 0 {
		t.Error("Events should be dropped")
	}
}

func TestCollisionTable(t *testing.T) {
	table := NewCollisionTable()
	filter := NewCollisionFilter(3, 1)
	table.Add(filter)

	if table.Find(1, 3) != filter || table.Find(3, 1) != filter {
		t.Error("Lookup should not depend on group order")
	}
	if table.Find(1, 1) != nil {
		t.Error("Unexpected filter")
	}

	table.Add(NewCollisionFilter(1, 3))
	if table.Len() != 1 {
		t.Errorf("Expected the filter to be replaced, got %v", table.Len())
	}
	table.Remove(3, 1)
	if table.Len() != 0 {
		t.Error("Remove failed")
	}

	var missing *CollisionFilter
	if missing.Block(PhaseStarted) != nil {
		t.Error("Nil filter has no blocks")
	}
}
