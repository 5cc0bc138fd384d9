// Package jubako provides a type-erased, concurrency-safe entity/component
// storage container. Component values of arbitrary Go types are stored in
// per-type pools, tracked by reference-counted ids, and observed through
// structural events that keep live entity groups incrementally correct.
package jubako

import (
	"fmt"
	"reflect"
	"sync"
)

// ComponentTypeID is a process-wide, stable identifier for a concrete
// component type. IDs are dense, totally ordered, and usable as map keys.
type ComponentTypeID uint8

// MaxComponentTypes defines the maximum number of unique component types that
// can be registered in a process. This value is fixed at 256.
const MaxComponentTypes = 256

var typeRegistry = struct {
	sync.RWMutex
	typeToID map[reflect.Type]ComponentTypeID
	idToType [MaxComponentTypes]reflect.Type
	next     uint16
}{
	typeToID: make(map[reflect.Type]ComponentTypeID, 16),
}

// TypeIDFor returns the ComponentTypeID for the component type `T`,
// registering the type on first use. Registration is safe to perform from any
// goroutine. It panics if the maximum number of component types is exceeded.
//
// Returns:
//   - The stable ComponentTypeID assigned to `T`.
func TypeIDFor[T any]() ComponentTypeID {
	t := reflect.TypeOf((*T)(nil)).Elem()

	typeRegistry.RLock()
	id, ok := typeRegistry.typeToID[t]
	typeRegistry.RUnlock()
	if ok {
		return id
	}

	typeRegistry.Lock()
	defer typeRegistry.Unlock()
	if id, ok := typeRegistry.typeToID[t]; ok {
		return id
	}
	if typeRegistry.next >= MaxComponentTypes {
		panic(fmt.Sprintf("jubako: cannot register component %s: maximum number of component types (%d) reached", t, MaxComponentTypes))
	}
	id = ComponentTypeID(typeRegistry.next)
	typeRegistry.typeToID[t] = id
	typeRegistry.idToType[id] = t
	typeRegistry.next++
	return id
}

// TryTypeIDFor returns the ComponentTypeID for `T` and whether the type has
// been registered. Unlike TypeIDFor it never registers anything.
func TryTypeIDFor[T any]() (ComponentTypeID, bool) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	typeRegistry.RLock()
	id, ok := typeRegistry.typeToID[t]
	typeRegistry.RUnlock()
	return id, ok
}

// typeNameOf reports the Go type name behind a registered id, for logging.
func typeNameOf(id ComponentTypeID) string {
	typeRegistry.RLock()
	t := typeRegistry.idToType[id]
	typeRegistry.RUnlock()
	if t == nil {
		return fmt.Sprintf("unregistered(%d)", id)
	}
	return t.String()
}
