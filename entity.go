package jubako

import "fmt"

// EntityID identifies an entity in a Container. It is a plain, copyable value
// with structural equality and no ownership semantics: holding an EntityID
// keeps nothing alive.
type EntityID struct {
	index poolIndex
}

// IsZero reports whether the id is the zero EntityID, which no live entity
// ever carries.
func (id EntityID) IsZero() bool {
	return id.index.isZero()
}

func (id EntityID) String() string {
	return fmt.Sprintf("entity(%d/%d)", id.index.id, id.index.version)
}

// entity is the internal record of one entity: its identity plus the ordered
// list of component ids it owns. The list is the sole record of which
// components belong to the entity; at most one component per type.
type entity struct {
	id           EntityID
	componentIDs []ComponentID
}

// hasComponentType reports whether the entity already owns a component of the
// given type.
func (e *entity) hasComponentType(typeID ComponentTypeID) bool {
	for i := range e.componentIDs {
		if e.componentIDs[i].typeID == typeID {
			return true
		}
	}
	return false
}

// componentOfType returns the owned id of the given type, if any.
func (e *entity) componentOfType(typeID ComponentTypeID) (ComponentID, bool) {
	for i := range e.componentIDs {
		if e.componentIDs[i].typeID == typeID {
			return e.componentIDs[i], true
		}
	}
	return ComponentID{}, false
}
