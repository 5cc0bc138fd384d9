package jubako

import (
	"sync"
	"sync/atomic"
)

// componentStorage owns the boxed values of a single component type: an
// object pool of type-erased values plus a queue of slots pending removal.
//
// Removal is two-phase. Releasing the last reference to a ComponentID only
// enqueues the slot here (scheduleRemoval may run on any goroutine, so the
// queue has its own lock); the slot is actually freed by drainPending at the
// storage's next mutating access, when no outstanding read can be racing it.
type componentStorage struct {
	typeID     ComponentTypeID
	components objectPool[any] // each slot boxes a *T

	pendingMu sync.Mutex
	pending   []poolIndex
}

func newComponentStorage(typeID ComponentTypeID) *componentStorage {
	return &componentStorage{
		typeID:     typeID,
		components: newObjectPool[any](0),
	}
}

// add frees previously vacated slots, stores the boxed value and returns a
// fresh reference-counted id with a usage count of one.
func (s *componentStorage) add(boxed any) ComponentID {
	s.drainPending()
	ix := s.components.create(boxed)
	refs := &atomic.Int32{}
	refs.Store(1)
	return ComponentID{
		typeID:  s.typeID,
		index:   ix,
		refs:    refs,
		storage: s,
	}
}

// scheduleRemoval enqueues a slot whose last reference was released. Safe to
// call from any goroutine.
func (s *componentStorage) scheduleRemoval(ix poolIndex) {
	s.pendingMu.Lock()
	s.pending = append(s.pending, ix)
	s.pendingMu.Unlock()
}

// drainPending frees every slot scheduled for removal back to the pool.
func (s *componentStorage) drainPending() {
	s.pendingMu.Lock()
	pending := s.pending
	s.pending = nil
	s.pendingMu.Unlock()
	for _, ix := range pending {
		s.components.release(ix)
	}
}

// boxed returns the type-erased value of a slot, or nil if the slot is empty.
func (s *componentStorage) boxed(ix poolIndex) any {
	v := s.components.get(ix)
	if v == nil {
		return nil
	}
	return *v
}

// componentRef downcasts the slot's boxed value to *T. An empty slot and a
// type mismatch yield the same nil result.
func componentRef[T any](s *componentStorage, ix poolIndex) *T {
	v := s.components.get(ix)
	if v == nil {
		return nil
	}
	p, _ := (*v).(*T)
	return p
}

// componentMut is the mutating access path: it drains the pending-removal
// queue before looking the slot up.
func componentMut[T any](s *componentStorage, ix poolIndex) *T {
	s.drainPending()
	return componentRef[T](s, ix)
}

// Storages routes a component type ID to the storage holding that type's
// values, creating storages lazily on first use. Entries are never removed,
// even when empty. Storages is reachable only through a container Guard.
type Storages struct {
	byType map[ComponentTypeID]*componentStorage
}

func newStorages() Storages {
	return Storages{byType: make(map[ComponentTypeID]*componentStorage, 16)}
}

// storageFor returns the storage for a type, creating it on first use.
func (s *Storages) storageFor(typeID ComponentTypeID) *componentStorage {
	storage, ok := s.byType[typeID]
	if !ok {
		storage = newComponentStorage(typeID)
		s.byType[typeID] = storage
	}
	return storage
}

// lookup returns the storage for a type if one was ever created.
func (s *Storages) lookup(typeID ComponentTypeID) (*componentStorage, bool) {
	storage, ok := s.byType[typeID]
	return storage, ok
}

// GetAny returns the component value behind an id without knowing its
// concrete type; the result is a pointer to the stored value. A type whose
// storage was never created and a released slot yield the same (nil, false).
func (s *Storages) GetAny(id ComponentID) (any, bool) {
	storage, ok := s.lookup(id.typeID)
	if !ok {
		return nil, false
	}
	v := storage.boxed(id.index)
	if v == nil {
		return nil, false
	}
	return v, true
}

// GetRef returns a read-only pointer to the component of type `T` behind an
// id. Absence of the storage, an empty slot and a mismatched type all yield
// nil through the same path.
func GetRef[T any](s *Storages, id ComponentID) *T {
	storage, ok := s.lookup(id.typeID)
	if !ok {
		return nil
	}
	return componentRef[T](storage, id.index)
}
