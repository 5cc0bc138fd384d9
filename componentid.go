package jubako

import "sync/atomic"

// ComponentID is an opaque, reference-counted handle identifying one stored
// component instance. It is the sole externally visible proof that a slot
// must stay allocated: while any clone of a given (type, slot) pair is alive,
// the component remains readable.
//
// Plain copies of a ComponentID share the usage count without incrementing
// it; they are views, valid as long as some clone is alive. Call Clone to
// take ownership of a new reference and Release to give it up. Releasing the
// last reference schedules the slot for removal; the actual release is
// deferred to the owning storage's next mutating access, so a reference
// obtained before that access stays valid.
//
// ComponentIDs may be cloned and released from any goroutine.
type ComponentID struct {
	typeID  ComponentTypeID
	index   poolIndex
	refs    *atomic.Int32
	storage *componentStorage
}

// Clone increments the shared usage count and returns a handle denoting the
// same (type, slot) pair. It never allocates.
func (id ComponentID) Clone() ComponentID {
	id.refs.Add(1)
	return id
}

// Release decrements the shared usage count. When the count reaches zero the
// slot is enqueued for removal on the owning storage; it is freed at the
// storage's next mutating access. Releasing more references than were taken
// is a programmer error and panics.
func (id ComponentID) Release() {
	n := id.refs.Add(-1)
	switch {
	case n == 0:
		id.storage.scheduleRemoval(id.index)
	case n < 0:
		panic("jubako: component id released more often than cloned")
	}
}

// TypeID returns the component type identifier of the handle.
func (id ComponentID) TypeID() ComponentTypeID {
	return id.typeID
}

// IsZero reports whether the handle is the zero ComponentID, which denotes no
// component (entity-level events carry it).
func (id ComponentID) IsZero() bool {
	return id.refs == nil
}

// Equal reports whether both handles denote the same (type, slot) pair.
func (id ComponentID) Equal(other ComponentID) bool {
	return id.typeID == other.typeID && id.index == other.index
}

// Less orders handles by component type, then slot: a stable total order.
func (id ComponentID) Less(other ComponentID) bool {
	if id.typeID != other.typeID {
		return id.typeID < other.typeID
	}
	return id.index.less(other.index)
}

// IsComponentTypeOf reports whether the handle identifies a component of type
// `T`. It compares type IDs only; no value is touched.
func IsComponentTypeOf[T any](id ComponentID) bool {
	typeID, ok := TryTypeIDFor[T]()
	return ok && typeID == id.typeID
}
