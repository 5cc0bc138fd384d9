package jubako

// EventKind classifies a structural event: an entity or component lifecycle
// transition inside a Container.
type EventKind uint8

const (
	// EntityAdded fires after an entity and its initial components exist.
	EntityAdded EventKind = iota + 1
	// EntityRemoved fires after the entity slot was released; the event's
	// component ids are still valid for the duration of dispatch.
	EntityRemoved
	// ComponentAdded fires after a component was appended to an entity.
	ComponentAdded
	// ComponentRemoved fires after a component left the entity's id list.
	ComponentRemoved
	// ComponentChanged fires after a mutator ran on a component in place.
	ComponentChanged
)

func (k EventKind) String() string {
	switch k {
	case EntityAdded:
		return "entity_added"
	case EntityRemoved:
		return "entity_removed"
	case ComponentAdded:
		return "component_added"
	case ComponentRemoved:
		return "component_removed"
	case ComponentChanged:
		return "component_changed"
	default:
		return "unknown"
	}
}

// EntityEvent describes one structural change. Events are transient: they are
// dispatched synchronously to subscribers inside the guarded critical section
// and are not persisted.
//
// ComponentIDs is a view of the entity's current component id list, valid
// only for the synchronous duration of dispatch; subscribers that need an id
// beyond that must Clone it.
type EntityEvent struct {
	Kind     EventKind
	EntityID EntityID

	// ComponentID is the affected component for component-level kinds and the
	// zero ComponentID for entity-level kinds.
	ComponentID  ComponentID
	ComponentIDs []ComponentID
}

// Subscription identifies one registered event subscriber.
type Subscription struct {
	id int
}

type eventSubscriber struct {
	id      int
	handler func(EntityEvent)
}

// broadcaster dispatches structural events synchronously, in subscription
// order, inline in the caller's critical section. A slow subscriber therefore
// stalls container access for the duration; subscribers must not re-enter the
// container. The broadcaster itself is one of the three guarded resources and
// needs no lock of its own.
type broadcaster struct {
	subscribers []eventSubscriber
	nextID      int
}

// subscribe registers a handler and returns a handle for unsubscribing.
func (b *broadcaster) subscribe(handler func(EntityEvent)) Subscription {
	id := b.nextID
	b.nextID++
	b.subscribers = append(b.subscribers, eventSubscriber{id: id, handler: handler})
	return Subscription{id: id}
}

// unsubscribe removes a previously registered handler. Unknown handles are
// ignored.
func (b *broadcaster) unsubscribe(sub Subscription) {
	for i := range b.subscribers {
		if b.subscribers[i].id == sub.id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// dispatch invokes every subscriber with the event, in subscription order.
func (b *broadcaster) dispatch(event EntityEvent) {
	for _, sub := range b.subscribers {
		sub.handler(event)
	}
}
