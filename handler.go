package jubako

import "slices"

// Handler is the per-entity cursor: it bundles storage access and event
// emission for one live entity. Handlers are obtained from a Guard and stay
// valid while that guard is held and the entity is alive.
type Handler struct {
	state  *containerState
	entity *entity
}

// EntityID returns the id of the entity behind the cursor.
func (h *Handler) EntityID() EntityID {
	return h.entity.id
}

// ComponentIDs returns a snapshot of the entity's component id list taken at
// call time. Later mutations of the entity do not affect the snapshot.
func (h *Handler) ComponentIDs() []ComponentID {
	return slices.Clone(h.entity.componentIDs)
}

// AddComponent stores a component of type `T` on the entity and broadcasts
// ComponentAdded. An entity holds at most one component per type: if a `T` is
// already present this is a no-op returning false and the original value is
// unchanged.
//
// The returned id is the entity-owned reference; Clone it to keep the
// component alive independently of the entity.
func AddComponent[T any](h *Handler, value T) (ComponentID, bool) {
	typeID := TypeIDFor[T]()
	if h.entity.hasComponentType(typeID) {
		return ComponentID{}, false
	}

	boxed := value
	id := h.state.storages.storageFor(typeID).add(&boxed)
	h.entity.componentIDs = append(h.entity.componentIDs, id)

	h.state.emit(EntityEvent{
		Kind:         ComponentAdded,
		EntityID:     h.entity.id,
		ComponentID:  id,
		ComponentIDs: h.entity.componentIDs,
	})
	return id, true
}

// RemoveComponent removes the entity's component of type `T`, broadcasts
// ComponentRemoved and returns the removed id. The id list's order is not
// semantically significant, so removal is a swap-remove.
//
// The entity's reference is released after dispatch; the returned id stays
// readable until the owning storage's next mutating access. Clone it before
// calling if it must outlive that.
func RemoveComponent[T any](h *Handler) (ComponentID, bool) {
	typeID, ok := TryTypeIDFor[T]()
	if !ok {
		return ComponentID{}, false
	}
	index := -1
	for i := range h.entity.componentIDs {
		if h.entity.componentIDs[i].typeID == typeID {
			index = i
			break
		}
	}
	if index < 0 {
		return ComponentID{}, false
	}

	id := h.entity.componentIDs[index]
	last := len(h.entity.componentIDs) - 1
	h.entity.componentIDs[index] = h.entity.componentIDs[last]
	h.entity.componentIDs = h.entity.componentIDs[:last]

	h.state.emit(EntityEvent{
		Kind:         ComponentRemoved,
		EntityID:     h.entity.id,
		ComponentID:  id,
		ComponentIDs: h.entity.componentIDs,
	})

	id.Release()
	return id, true
}

// GetComponent returns a read-only pointer to the entity's component of type
// `T`, or nil if the entity holds none. No event is broadcast.
func GetComponent[T any](h *Handler) *T {
	typeID, ok := TryTypeIDFor[T]()
	if !ok {
		return nil
	}
	id, ok := h.entity.componentOfType(typeID)
	if !ok {
		return nil
	}
	storage, ok := h.state.storages.lookup(typeID)
	if !ok {
		return nil
	}
	return componentRef[T](storage, id.index)
}

// ChangeComponent locates the entity's component of type `T`, applies the
// mutator in place and broadcasts ComponentChanged. Returns false if the
// entity holds no `T`.
func ChangeComponent[T any](h *Handler, mutate func(*T)) bool {
	typeID, ok := TryTypeIDFor[T]()
	if !ok {
		return false
	}
	id, ok := h.entity.componentOfType(typeID)
	if !ok {
		return false
	}
	storage, ok := h.state.storages.lookup(typeID)
	if !ok {
		return false
	}
	value := componentMut[T](storage, id.index)
	if value == nil {
		return false
	}
	mutate(value)

	h.state.emit(EntityEvent{
		Kind:         ComponentChanged,
		EntityID:     h.entity.id,
		ComponentID:  id,
		ComponentIDs: h.entity.componentIDs,
	})
	return true
}
