package jubako

import (
	"sync"

	"github.com/rs/zerolog"
)

// containerState bundles the three co-located resources: the entity pool, the
// per-type component storages and the structural-event broadcaster. Each has
// its own lock, and the trio is only ever acquired together, in a fixed
// order, by Container.Lock.
type containerState struct {
	entitiesMu sync.Mutex
	storagesMu sync.Mutex
	eventsMu   sync.Mutex

	entities objectPool[*entity]
	storages Storages
	events   broadcaster
	logger   zerolog.Logger
}

// emit logs and broadcasts one structural event, inline, under the guard.
func (st *containerState) emit(event EntityEvent) {
	logEntityEvent(&st.logger, event)
	st.events.dispatch(event)
}

// Container is a clone-shareable handle to one entity/component store. Copy
// the pointer freely across goroutines; all structural access goes through
// the Guard returned by Lock.
type Container struct {
	state *containerState
}

// Option configures a Container at construction.
type Option func(*containerOptions)

type containerOptions struct {
	logger   zerolog.Logger
	capacity int
}

// WithLogger makes the container log every structural event at trace level.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *containerOptions) {
		o.logger = logger
	}
}

// WithInitialCapacity pre-allocates the entity pool for the given number of
// entities, preventing re-allocations during runtime.
func WithInitialCapacity(capacity int) Option {
	return func(o *containerOptions) {
		o.capacity = capacity
	}
}

// NewContainer creates an empty container.
func NewContainer(opts ...Option) *Container {
	options := containerOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}
	return &Container{
		state: &containerState{
			entities: newObjectPool[*entity](options.capacity),
			storages: newStorages(),
			logger:   options.logger,
		},
	}
}

// Lock acquires exclusive, bundled access to the entity pool, the component
// storages and the event broadcaster, in that fixed order, and returns the
// guard through which every structural operation runs. Lock blocks until all
// three locks are free and never fails; every sequence of operations
// performed under one guard is atomic with respect to other guard holders.
//
// The caller must Unlock the guard; a guard that is never released starves
// every other caller.
func (c *Container) Lock() *Guard {
	st := c.state
	st.entitiesMu.Lock()
	st.storagesMu.Lock()
	st.eventsMu.Lock()
	return &Guard{state: st}
}

// EntityBuilder returns a builder staging initial components for one new
// entity of this container.
func (c *Container) EntityBuilder() *Builder {
	return &Builder{container: c}
}

// StagedComponent is one (type, value) pair staged for entity creation.
type StagedComponent struct {
	typeID ComponentTypeID
	value  any // boxes a *T
}

// Staged wraps a component value for AddEntity or the entity builder.
func Staged[T any](value T) StagedComponent {
	boxed := value
	return StagedComponent{typeID: TypeIDFor[T](), value: &boxed}
}

// Guard is scoped, exclusive access to a container's three resources: the
// unit of atomicity for structural mutation. A Guard must only be used by the
// goroutine that acquired it and only until Unlock.
type Guard struct {
	state *containerState
}

// Unlock releases the three locks in reverse acquisition order. The guard and
// every Handler or iterator obtained from it are invalid afterwards.
func (g *Guard) Unlock() {
	st := g.state
	g.state = nil
	st.eventsMu.Unlock()
	st.storagesMu.Unlock()
	st.entitiesMu.Unlock()
}

// AddEntity routes each staged (type, value) pair to its component storage,
// allocates an entity owning the resulting component ids and broadcasts
// EntityAdded. The entity's own id is back-patched into the record, since it
// is known only after allocation.
func (g *Guard) AddEntity(components ...StagedComponent) EntityID {
	st := g.state
	ids := make([]ComponentID, 0, len(components))
	for _, staged := range components {
		ids = append(ids, st.storages.storageFor(staged.typeID).add(staged.value))
	}
	ent := &entity{componentIDs: ids}
	id := EntityID{index: st.entities.create(ent)}
	ent.id = id

	st.emit(EntityEvent{
		Kind:         EntityAdded,
		EntityID:     id,
		ComponentIDs: ent.componentIDs,
	})
	return id
}

// RemoveEntity releases the entity slot if present and broadcasts
// EntityRemoved; the event's component id list stays valid for the duration
// of dispatch. The entity's component references are released afterwards,
// scheduling any slot nobody else holds for deferred removal. Returns whether
// an entity existed: removing an already-gone entity is routine, not an
// error.
func (g *Guard) RemoveEntity(id EntityID) bool {
	st := g.state
	ent, ok := st.entities.release(id.index)
	if !ok {
		return false
	}

	st.emit(EntityEvent{
		Kind:         EntityRemoved,
		EntityID:     id,
		ComponentIDs: ent.componentIDs,
	})

	for _, componentID := range ent.componentIDs {
		componentID.Release()
	}
	return true
}

// HandlerForEntity returns the per-entity cursor for a live entity in O(1),
// or false if the id is stale.
func (g *Guard) HandlerForEntity(id EntityID) (*Handler, bool) {
	ent := g.state.entities.get(id.index)
	if ent == nil {
		return nil, false
	}
	return &Handler{state: g.state, entity: *ent}, true
}

// Iter returns a lazy, restartable sequence of per-entity handlers visiting
// every live entity exactly once, in pool order. It is not a snapshot:
// mutations performed by earlier handlers in the traversal are visible to
// later ones, and entities removed mid-traversal are skipped.
func (g *Guard) Iter() *EntityIter {
	return &EntityIter{state: g.state}
}

// EntityGroup creates a live query over entities whose component types are a
// superset of the given list. The group subscribes to the container's event
// stream and scans the current entities once; thereafter membership is
// maintained incrementally.
func (g *Guard) EntityGroup(list TypeList) *Group {
	return newGroup(g, list)
}

// Storages exposes the multi-type component storage for id-based reads.
func (g *Guard) Storages() *Storages {
	return &g.state.storages
}

// EntityCount reports the number of live entities.
func (g *Guard) EntityCount() int {
	return g.state.entities.count()
}

// Subscribe registers a structural-event subscriber, called synchronously,
// in subscription order, inside the guarded critical section of every
// mutation. Subscribers must be fast and must not re-enter the container.
func (g *Guard) Subscribe(handler func(EntityEvent)) Subscription {
	return g.state.events.subscribe(handler)
}

// Unsubscribe removes a subscriber registered with Subscribe.
func (g *Guard) Unsubscribe(sub Subscription) {
	g.state.events.unsubscribe(sub)
}

// EntityIter walks live entities in pool order. Next advances the cursor;
// Handler returns the cursor's current per-entity handler.
type EntityIter struct {
	state   *containerState
	nextID  uint32
	handler Handler
}

// Next advances to the next live entity. Returns false when the traversal is
// done.
func (it *EntityIter) Next() bool {
	ix, ent, ok := it.state.entities.seek(it.nextID)
	if !ok {
		return false
	}
	it.nextID = ix.id + 1
	it.handler = Handler{state: it.state, entity: *ent}
	return true
}

// Handler returns the handler for the current entity. Only valid after Next
// returned true.
func (it *EntityIter) Handler() *Handler {
	return &it.handler
}

// Reset rewinds the iterator for reuse.
func (it *EntityIter) Reset() {
	it.nextID = 0
}
