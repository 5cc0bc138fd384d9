package jubako

// poolIndex is an opaque handle identifying one slot of an objectPool. It
// combines a recyclable slot ID with a generation version so that a stale
// handle can never observe the value of a slot that was released and reused.
// The zero poolIndex is never issued and never matches a live slot.
type poolIndex struct {
	id      uint32
	version uint32
}

// isZero reports whether the index is the never-issued zero handle.
func (ix poolIndex) isZero() bool {
	return ix.version == 0
}

// less orders indices by slot ID, then generation.
func (ix poolIndex) less(other poolIndex) bool {
	if ix.id != other.id {
		return ix.id < other.id
	}
	return ix.version < other.version
}

// poolSlot holds one stored value. version is 0 while the slot is free and
// matches the issuing poolIndex version while it is live.
type poolSlot[T any] struct {
	value   T
	version uint32
}

// objectPool is a free-list-backed slot allocator. Create, get and release
// are O(1) amortized; accessing a released or stale index yields an empty
// result. It is not goroutine-safe on its own; every pool in this package is
// confined behind the container's locks.
type objectPool[T any] struct {
	slots       []poolSlot[T]
	freeIDs     []uint32 // stack of recycled slot IDs
	nextVersion uint32   // generation for the next created value, starts at 1
}

// newObjectPool creates a pool with capacity pre-allocated for `capacity`
// values.
func newObjectPool[T any](capacity int) objectPool[T] {
	return objectPool[T]{
		slots:       make([]poolSlot[T], 0, capacity),
		freeIDs:     make([]uint32, 0, capacity),
		nextVersion: 1,
	}
}

// create stores a value and returns the index of its slot.
func (p *objectPool[T]) create(value T) poolIndex {
	var id uint32
	if n := len(p.freeIDs); n > 0 {
		id = p.freeIDs[n-1]
		p.freeIDs = p.freeIDs[:n-1]
	} else {
		p.slots = append(p.slots, poolSlot[T]{})
		id = uint32(len(p.slots) - 1)
	}
	version := p.nextVersion
	p.nextVersion++
	p.slots[id] = poolSlot[T]{value: value, version: version}
	return poolIndex{id: id, version: version}
}

// get returns a pointer to the stored value, or nil if the slot is free or
// the index is stale.
func (p *objectPool[T]) get(ix poolIndex) *T {
	if ix.isZero() || int(ix.id) >= len(p.slots) {
		return nil
	}
	slot := &p.slots[ix.id]
	if slot.version != ix.version {
		return nil
	}
	return &slot.value
}

// release frees the slot and hands back the stored value. The second result
// is false if the slot was already free or the index stale.
func (p *objectPool[T]) release(ix poolIndex) (T, bool) {
	var zero T
	if ix.isZero() || int(ix.id) >= len(p.slots) {
		return zero, false
	}
	slot := &p.slots[ix.id]
	if slot.version != ix.version {
		return zero, false
	}
	value := slot.value
	slot.value = zero
	slot.version = 0
	p.freeIDs = append(p.freeIDs, ix.id)
	return value, true
}

// seek returns the first live slot with ID >= from, in pool order. It is the
// primitive behind restartable live iteration: callers advance `from` past
// the returned ID. The third result is false when no live slot remains.
func (p *objectPool[T]) seek(from uint32) (poolIndex, *T, bool) {
	for id := from; int(id) < len(p.slots); id++ {
		slot := &p.slots[id]
		if slot.version != 0 {
			return poolIndex{id: id, version: slot.version}, &slot.value, true
		}
	}
	return poolIndex{}, nil, false
}

// count reports the number of live slots.
func (p *objectPool[T]) count() int {
	return len(p.slots) - len(p.freeIDs)
}
