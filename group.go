package jubako

import (
	"sync"
	"sync/atomic"
)

// GroupEvent is a structural event scoped to a group's membership. For
// component-level kinds the event owns a clone of the affected component id:
// the component stays alive while the event sits in a receiver queue, and
// ownership transfers to the consumer on Poll.
type GroupEvent struct {
	Kind        EventKind
	EntityID    EntityID
	ComponentID ComponentID
}

type groupEdit struct {
	id  EntityID
	add bool
}

// Group is a live query tracking entities whose component types are a
// superset of a requested set. Membership is scanned once at construction and
// maintained incrementally from the container's event stream; no rescan ever
// happens. Groups are created under a Guard via Guard.EntityGroup and process
// events inside the guarded critical section.
type Group struct {
	required      bitmask256
	requiredCount int

	mu        sync.Mutex
	entityIDs []EntityID

	// iterating is set while an id iterator holds mu; membership edits
	// arriving from event dispatch are deferred then, so an open iteration
	// never deadlocks against mutations it triggers itself.
	iterating atomic.Bool
	editMu    sync.Mutex
	edits     []groupEdit

	recvMu    sync.Mutex
	receivers []*Receiver

	sub Subscription
}

func newGroup(g *Guard, list TypeList) *Group {
	required := list.mask()
	grp := &Group{
		required:      required,
		requiredCount: required.count(),
	}

	it := g.Iter()
	for it.Next() {
		ent := it.Handler().entity
		if maskOfComponents(ent.componentIDs).contains(required) {
			grp.entityIDs = append(grp.entityIDs, ent.id)
		}
	}

	grp.sub = g.state.events.subscribe(grp.processEvent)
	return grp
}

// Close unsubscribes the group from the container's event stream; membership
// is frozen afterwards. Receivers stay drainable and must be closed
// individually.
func (grp *Group) Close(g *Guard) {
	g.state.events.unsubscribe(grp.sub)
}

// Contains reports whether the entity is currently a member.
func (grp *Group) Contains(id EntityID) bool {
	grp.mu.Lock()
	defer grp.mu.Unlock()
	for _, member := range grp.entityIDs {
		if member == id {
			return true
		}
	}
	return false
}

// Len reports the current number of member entities.
func (grp *Group) Len() int {
	grp.mu.Lock()
	defer grp.mu.Unlock()
	return len(grp.entityIDs)
}

// IterEntityIDs returns an iterator over the member entity ids. The iterator
// holds the membership lock until Close; always close it. Membership changes
// triggered while it is open are applied on Close.
func (grp *Group) IterEntityIDs() *GroupIter {
	grp.iterating.Store(true)
	grp.mu.Lock()
	grp.applyEditsLocked()
	return &GroupIter{group: grp}
}

// EventReceiver returns a new receiver of group-level events. With
// resendCurrent set, the current membership is replayed to this receiver
// alone: EntityAdded followed by one ComponentAdded per component, read
// through the given guard.
func (grp *Group) EventReceiver(resendCurrent bool, g *Guard) *Receiver {
	r := &Receiver{}
	grp.recvMu.Lock()
	grp.receivers = append(grp.receivers, r)
	grp.recvMu.Unlock()

	if !resendCurrent {
		return r
	}

	grp.mu.Lock()
	members := make([]EntityID, len(grp.entityIDs))
	copy(members, grp.entityIDs)
	grp.mu.Unlock()

	for _, id := range members {
		handler, ok := g.HandlerForEntity(id)
		if !ok {
			continue
		}
		r.push(GroupEvent{Kind: EntityAdded, EntityID: id})
		for _, componentID := range handler.entity.componentIDs {
			r.push(GroupEvent{Kind: ComponentAdded, EntityID: id, ComponentID: componentID.Clone()})
		}
	}
	return r
}

// addMember records a new member, deferring while an iteration is open.
func (grp *Group) addMember(id EntityID) {
	if grp.iterating.Load() {
		grp.editMu.Lock()
		grp.edits = append(grp.edits, groupEdit{id: id, add: true})
		grp.editMu.Unlock()
		return
	}
	grp.mu.Lock()
	grp.entityIDs = append(grp.entityIDs, id)
	grp.mu.Unlock()
}

// removeMember drops a member, deferring while an iteration is open.
func (grp *Group) removeMember(id EntityID) {
	if grp.iterating.Load() {
		grp.editMu.Lock()
		grp.edits = append(grp.edits, groupEdit{id: id, add: false})
		grp.editMu.Unlock()
		return
	}
	grp.mu.Lock()
	grp.removeLocked(id)
	grp.mu.Unlock()
}

func (grp *Group) removeLocked(id EntityID) {
	for i, member := range grp.entityIDs {
		if member == id {
			last := len(grp.entityIDs) - 1
			grp.entityIDs[i] = grp.entityIDs[last]
			grp.entityIDs = grp.entityIDs[:last]
			return
		}
	}
}

// applyEditsLocked folds deferred edits into the member list. Caller holds mu.
func (grp *Group) applyEditsLocked() {
	grp.editMu.Lock()
	edits := grp.edits
	grp.edits = nil
	grp.editMu.Unlock()
	for _, edit := range edits {
		if edit.add {
			grp.entityIDs = append(grp.entityIDs, edit.id)
		} else {
			grp.removeLocked(edit.id)
		}
	}
}

// send queues one event on every receiver; each receiver's copy owns its own
// clone of the component id.
func (grp *Group) send(kind EventKind, entityID EntityID, componentID ComponentID) {
	grp.recvMu.Lock()
	defer grp.recvMu.Unlock()
	for _, r := range grp.receivers {
		ev := GroupEvent{Kind: kind, EntityID: entityID}
		if !componentID.IsZero() {
			ev.ComponentID = componentID.Clone()
		}
		if !r.push(ev) && !ev.ComponentID.IsZero() {
			ev.ComponentID.Release()
		}
	}
}

// processEvent interprets one structural event, adding or removing the entity
// exactly when its component-type set crosses the superset threshold, and
// forwards membership-scoped events to receivers.
func (grp *Group) processEvent(event EntityEvent) {
	matched := maskOfComponents(event.ComponentIDs).overlapCount(grp.required)

	switch event.Kind {
	case EntityAdded:
		if matched == grp.requiredCount {
			grp.addMember(event.EntityID)
			grp.send(EntityAdded, event.EntityID, ComponentID{})
			for _, id := range event.ComponentIDs {
				grp.send(ComponentAdded, event.EntityID, id)
			}
		}

	case EntityRemoved:
		if matched == grp.requiredCount {
			grp.removeMember(event.EntityID)
			for _, id := range event.ComponentIDs {
				grp.send(ComponentRemoved, event.EntityID, id)
			}
			grp.send(EntityRemoved, event.EntityID, ComponentID{})
		}

	case ComponentAdded:
		if grp.required.containsBit(event.ComponentID.typeID) {
			// A required type appeared; the entity may have crossed into the
			// group.
			if matched == grp.requiredCount {
				grp.addMember(event.EntityID)
				grp.send(EntityAdded, event.EntityID, ComponentID{})
				for _, id := range event.ComponentIDs {
					grp.send(ComponentAdded, event.EntityID, id)
				}
			}
		} else if matched == grp.requiredCount {
			grp.send(ComponentAdded, event.EntityID, event.ComponentID)
		}

	case ComponentRemoved:
		if grp.required.containsBit(event.ComponentID.typeID) {
			// event.ComponentIDs no longer holds the removed id: the entity
			// was a member exactly when the remainder plus the removed type
			// covered the required set.
			if matched+1 == grp.requiredCount {
				grp.removeMember(event.EntityID)
				grp.send(ComponentRemoved, event.EntityID, event.ComponentID)
				for _, id := range event.ComponentIDs {
					grp.send(ComponentRemoved, event.EntityID, id)
				}
				grp.send(EntityRemoved, event.EntityID, ComponentID{})
			}
		} else if matched == grp.requiredCount {
			grp.send(ComponentRemoved, event.EntityID, event.ComponentID)
		}

	case ComponentChanged:
		if grp.required.containsBit(event.ComponentID.typeID) && matched == grp.requiredCount {
			grp.send(ComponentChanged, event.EntityID, event.ComponentID)
		}
	}
}

// GroupIter iterates a group's member entity ids. It holds the group's
// membership lock; Close releases it and applies deferred edits.
type GroupIter struct {
	group  *Group
	next   int
	closed bool
}

// Next returns the next member id, or false when the iteration is done.
func (it *GroupIter) Next() (EntityID, bool) {
	if it.next < len(it.group.entityIDs) {
		id := it.group.entityIDs[it.next]
		it.next++
		return id, true
	}
	return EntityID{}, false
}

// Close releases the membership lock and applies edits deferred during the
// iteration. Close is idempotent.
func (it *GroupIter) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.group.applyEditsLocked()
	it.group.iterating.Store(false)
	it.group.mu.Unlock()
}

// Receiver is a per-consumer queue of group events. Events are queued during
// dispatch and drained by the consumer at its own pace.
type Receiver struct {
	mu     sync.Mutex
	queue  []GroupEvent
	closed bool
}

// push appends an event; returns false if the receiver is closed.
func (r *Receiver) push(ev GroupEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.queue = append(r.queue, ev)
	return true
}

// Poll removes and returns the oldest queued event. Ownership of the event's
// component id clone transfers to the caller, who must Release it once done.
// Returns false when the queue is empty.
func (r *Receiver) Poll() (GroupEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return GroupEvent{}, false
	}
	ev := r.queue[0]
	r.queue = r.queue[1:]
	return ev, true
}

// Len reports the number of queued events.
func (r *Receiver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Close drops the receiver, releasing the component id clones of every
// undelivered event. Further pushes are discarded.
func (r *Receiver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, ev := range r.queue {
		if !ev.ComponentID.IsZero() {
			ev.ComponentID.Release()
		}
	}
	r.queue = nil
}
