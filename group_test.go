package jubako_test

import (
	"testing"

	"github.com/edwinsyarief/jubako"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positionVelocityList() jubako.TypeList {
	return jubako.NewTypeList(jubako.TypeIDFor[Position](), jubako.TypeIDFor[Velocity]())
}

// populateSimulation builds the shared five-entity fixture:
//
//	0: Position, Velocity, Orientation
//	1: Position, Velocity
//	2: Position
//	3: Position, Velocity, Orientation, Camera, Playable
//	4: Velocity
func populateSimulation(container *jubako.Container) []jubako.EntityID {
	return []jubako.EntityID{
		container.EntityBuilder().
			With(jubako.Staged(Position{Value: "p0"})).
			With(jubako.Staged(Velocity{Value: "v0"})).
			With(jubako.Staged(Orientation{Value: "o0"})).
			Build(),
		container.EntityBuilder().
			With(jubako.Staged(Position{Value: "p1"})).
			With(jubako.Staged(Velocity{Value: "v1"})).
			Build(),
		container.EntityBuilder().
			With(jubako.Staged(Position{Value: "p2"})).
			Build(),
		container.EntityBuilder().
			With(jubako.Staged(Position{Value: "p3"})).
			With(jubako.Staged(Velocity{Value: "v3"})).
			With(jubako.Staged(Orientation{Value: "o3"})).
			With(jubako.Staged(Camera{Value: "c3"})).
			With(jubako.Staged(Playable{Value: "pl3"})).
			Build(),
		container.EntityBuilder().
			With(jubako.Staged(Velocity{Value: "v4"})).
			Build(),
	}
}

// drainReceiver polls every queued event, releasing owned component id clones.
func drainReceiver(r *jubako.Receiver) []jubako.GroupEvent {
	var events []jubako.GroupEvent
	for {
		ev, ok := r.Poll()
		if !ok {
			return events
		}
		events = append(events, ev)
		if !ev.ComponentID.IsZero() {
			ev.ComponentID.Release()
		}
	}
}

func TestGroupInitialScan(t *testing.T) {
	container := jubako.NewContainer()
	ids := populateSimulation(container)

	guard := container.Lock()
	defer guard.Unlock()

	group := guard.EntityGroup(positionVelocityList())
	defer group.Close(guard)

	assert.Equal(t, 3, group.Len())
	assert.True(t, group.Contains(ids[0]))
	assert.True(t, group.Contains(ids[1]))
	assert.False(t, group.Contains(ids[2]), "missing Velocity must exclude")
	assert.True(t, group.Contains(ids[3]), "supersets are members")
	assert.False(t, group.Contains(ids[4]), "missing Position must exclude")
}

func TestGroupJoinOnEntityAdd(t *testing.T) {
	container := jubako.NewContainer()

	guard := container.Lock()
	group := guard.EntityGroup(positionVelocityList())
	receiver := group.EventReceiver(false, guard)
	guard.Unlock()

	joined := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		With(jubako.Staged(Velocity{Value: "v"})).
		Build()
	bystander := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		Build()

	guard = container.Lock()
	defer guard.Unlock()
	defer group.Close(guard)
	defer receiver.Close()

	assert.Equal(t, 1, group.Len())
	assert.True(t, group.Contains(joined))
	assert.False(t, group.Contains(bystander))

	events := drainReceiver(receiver)
	require.Len(t, events, 3)
	assert.Equal(t, jubako.EntityAdded, events[0].Kind)
	assert.Equal(t, joined, events[0].EntityID)
	assert.Equal(t, jubako.ComponentAdded, events[1].Kind)
	assert.Equal(t, jubako.ComponentAdded, events[2].Kind)
}

func TestGroupJoinOnComponentAdd(t *testing.T) {
	container := jubako.NewContainer()
	id := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		Build()

	guard := container.Lock()
	defer guard.Unlock()

	group := guard.EntityGroup(positionVelocityList())
	defer group.Close(guard)
	require.Equal(t, 0, group.Len())

	handler, ok := guard.HandlerForEntity(id)
	require.True(t, ok)
	_, ok = jubako.AddComponent(handler, Velocity{Value: "v"})
	require.True(t, ok)

	assert.Equal(t, 1, group.Len())
	assert.True(t, group.Contains(id))
}

func TestGroupExitOnComponentRemoved(t *testing.T) {
	container := jubako.NewContainer()
	id := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		With(jubako.Staged(Velocity{Value: "v"})).
		With(jubako.Staged(Orientation{Value: "o"})).
		Build()

	guard := container.Lock()
	defer guard.Unlock()

	group := guard.EntityGroup(positionVelocityList())
	defer group.Close(guard)
	receiver := group.EventReceiver(false, guard)
	defer receiver.Close()
	require.True(t, group.Contains(id))

	handler, ok := guard.HandlerForEntity(id)
	require.True(t, ok)

	// Dropping a non-required type keeps membership.
	_, removed := jubako.RemoveComponent[Orientation](handler)
	require.True(t, removed)
	assert.True(t, group.Contains(id))

	// Dropping a required type ends membership.
	_, removed = jubako.RemoveComponent[Velocity](handler)
	require.True(t, removed)
	assert.False(t, group.Contains(id))
	assert.Equal(t, 0, group.Len())

	events := drainReceiver(receiver)
	require.Len(t, events, 4)
	assert.Equal(t, jubako.ComponentRemoved, events[0].Kind)
	assert.True(t, jubako.IsComponentTypeOf[Orientation](events[0].ComponentID),
		"non-required removals on members are forwarded")
	assert.Equal(t, jubako.ComponentRemoved, events[1].Kind)
	assert.True(t, jubako.IsComponentTypeOf[Velocity](events[1].ComponentID))
	assert.Equal(t, jubako.ComponentRemoved, events[2].Kind)
	assert.True(t, jubako.IsComponentTypeOf[Position](events[2].ComponentID),
		"remaining components are reported removed from the group's view")
	assert.Equal(t, jubako.EntityRemoved, events[3].Kind)
}

func TestGroupExitOnEntityRemoved(t *testing.T) {
	container := jubako.NewContainer()
	id := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		With(jubako.Staged(Velocity{Value: "v"})).
		Build()

	guard := container.Lock()
	defer guard.Unlock()

	group := guard.EntityGroup(positionVelocityList())
	defer group.Close(guard)
	receiver := group.EventReceiver(false, guard)
	defer receiver.Close()

	require.True(t, guard.RemoveEntity(id))
	assert.False(t, group.Contains(id))

	events := drainReceiver(receiver)
	require.Len(t, events, 3)
	assert.Equal(t, jubako.ComponentRemoved, events[0].Kind)
	assert.Equal(t, jubako.ComponentRemoved, events[1].Kind)
	assert.Equal(t, jubako.EntityRemoved, events[2].Kind)
	assert.Equal(t, id, events[2].EntityID)
}

// Events queued on a receiver own clones, so the component values remain
// readable even after the entity and its own references are gone.
func TestComponentReadableFromQueuedEvent(t *testing.T) {
	container := jubako.NewContainer()
	id := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "queued"})).
		With(jubako.Staged(Velocity{Value: "v"})).
		Build()

	guard := container.Lock()
	defer guard.Unlock()

	group := guard.EntityGroup(positionVelocityList())
	defer group.Close(guard)
	receiver := group.EventReceiver(false, guard)
	defer receiver.Close()

	require.True(t, guard.RemoveEntity(id))
	// Mutating the storage must not reclaim slots the queue still references.
	guard.AddEntity(jubako.Staged(Position{Value: "other"}))

	var sawQueued bool
	for {
		ev, ok := receiver.Poll()
		if !ok {
			break
		}
		if ev.Kind == jubako.ComponentRemoved && jubako.IsComponentTypeOf[Position](ev.ComponentID) {
			read := jubako.GetRef[Position](guard.Storages(), ev.ComponentID)
			require.NotNil(t, read)
			assert.Equal(t, "queued", read.Value)
			sawQueued = true
		}
		if !ev.ComponentID.IsZero() {
			ev.ComponentID.Release()
		}
	}
	assert.True(t, sawQueued)
}

func TestGroupForwardsEventsForMembers(t *testing.T) {
	container := jubako.NewContainer()
	member := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		With(jubako.Staged(Velocity{Value: "v"})).
		Build()
	outsider := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		Build()

	guard := container.Lock()
	defer guard.Unlock()

	group := guard.EntityGroup(positionVelocityList())
	defer group.Close(guard)
	receiver := group.EventReceiver(false, guard)
	defer receiver.Close()

	memberHandler, ok := guard.HandlerForEntity(member)
	require.True(t, ok)
	outsiderHandler, ok := guard.HandlerForEntity(outsider)
	require.True(t, ok)

	// A required-type change on a member is forwarded.
	require.True(t, jubako.ChangeComponent(memberHandler, func(p *Position) {
		p.Value = "moved"
	}))
	// The same change on a non-member is not.
	require.True(t, jubako.ChangeComponent(outsiderHandler, func(p *Position) {
		p.Value = "irrelevant"
	}))
	// A non-required addition on a member is forwarded as ComponentAdded.
	_, ok = jubako.AddComponent(memberHandler, Orientation{Value: "o"})
	require.True(t, ok)

	events := drainReceiver(receiver)
	require.Len(t, events, 2)
	assert.Equal(t, jubako.ComponentChanged, events[0].Kind)
	assert.Equal(t, member, events[0].EntityID)
	assert.True(t, jubako.IsComponentTypeOf[Position](events[0].ComponentID))
	assert.Equal(t, jubako.ComponentAdded, events[1].Kind)
	assert.True(t, jubako.IsComponentTypeOf[Orientation](events[1].ComponentID))
}

func TestGroupMembershipEditsDeferredWhileIterating(t *testing.T) {
	container := jubako.NewContainer()
	ids := populateSimulation(container)

	guard := container.Lock()
	defer guard.Unlock()

	group := guard.EntityGroup(positionVelocityList())
	defer group.Close(guard)
	require.Equal(t, 3, group.Len())

	it := group.IterEntityIDs()
	var visited []jubako.EntityID
	for {
		id, ok := it.Next()
		if !ok {
			break
		}
		visited = append(visited, id)
		if len(visited) == 1 {
			// Mutations mid-iteration must not affect the open traversal.
			joined := guard.AddEntity(
				jubako.Staged(Position{Value: "late"}),
				jubako.Staged(Velocity{Value: "late"}),
			)
			require.True(t, guard.RemoveEntity(ids[1]))
			_ = joined
		}
	}
	it.Close()
	it.Close() // idempotent

	assert.Len(t, visited, 3, "open iteration sees the membership as of its start")
	assert.Equal(t, 3, group.Len(), "one joined, one left")
	assert.False(t, group.Contains(ids[1]))
}

func TestGroupEventReceiverResendCurrent(t *testing.T) {
	container := jubako.NewContainer()
	populateSimulation(container)

	guard := container.Lock()
	defer guard.Unlock()

	group := guard.EntityGroup(positionVelocityList())
	defer group.Close(guard)

	receiver := group.EventReceiver(true, guard)
	defer receiver.Close()

	var entityAdds, componentAdds int
	for _, ev := range drainReceiver(receiver) {
		switch ev.Kind {
		case jubako.EntityAdded:
			entityAdds++
		case jubako.ComponentAdded:
			componentAdds++
		default:
			t.Fatalf("unexpected replayed event kind %s", ev.Kind)
		}
	}
	assert.Equal(t, 3, entityAdds)
	// 3 + 2 + 5 components across the three members.
	assert.Equal(t, 10, componentAdds)
}

func TestGroupCloseFreezesMembership(t *testing.T) {
	container := jubako.NewContainer()

	guard := container.Lock()
	group := guard.EntityGroup(positionVelocityList())
	group.Close(guard)
	guard.Unlock()

	container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		With(jubako.Staged(Velocity{Value: "v"})).
		Build()

	assert.Equal(t, 0, group.Len())
}

func TestReceiverCloseDiscardsAndStops(t *testing.T) {
	container := jubako.NewContainer()
	id := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		With(jubako.Staged(Velocity{Value: "v"})).
		Build()

	guard := container.Lock()
	defer guard.Unlock()

	group := guard.EntityGroup(positionVelocityList())
	defer group.Close(guard)

	receiver := group.EventReceiver(true, guard)
	require.NotZero(t, receiver.Len())

	receiver.Close()
	assert.Zero(t, receiver.Len())
	_, ok := receiver.Poll()
	assert.False(t, ok)

	// Events after Close are discarded, and their would-be clones do not leak:
	// with the entity gone and nothing holding a reference, the slots can be
	// reclaimed at the next mutating access.
	require.True(t, guard.RemoveEntity(id))
	assert.Zero(t, receiver.Len())
}
