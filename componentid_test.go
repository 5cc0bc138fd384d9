package jubako_test

import (
	"testing"

	"github.com/edwinsyarief/jubako"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A cloned id keeps the component readable after its entity is gone; releasing
// the last clone only schedules the slot, which is reclaimed at the storage's
// next mutating access.
func TestClonedComponentOutlivesEntity(t *testing.T) {
	container := jubako.NewContainer()
	id := container.EntityBuilder().
		With(jubako.Staged(Position{Value: "survivor"})).
		Build()

	guard := container.Lock()
	defer guard.Unlock()

	handler, ok := guard.HandlerForEntity(id)
	require.True(t, ok)
	componentIDs := handler.ComponentIDs()
	require.Len(t, componentIDs, 1)
	clone := componentIDs[0].Clone()

	require.True(t, guard.RemoveEntity(id))

	read := jubako.GetRef[Position](guard.Storages(), clone)
	require.NotNil(t, read, "clone must keep the component alive past entity removal")
	assert.Equal(t, "survivor", read.Value)

	clone.Release()

	// Removal is deferred: the slot stays readable until the storage mutates.
	read = jubako.GetRef[Position](guard.Storages(), clone)
	require.NotNil(t, read)
	assert.Equal(t, "survivor", read.Value)

	guard.AddEntity(jubako.Staged(Position{Value: "trigger drain"}))

	assert.Nil(t, jubako.GetRef[Position](guard.Storages(), clone),
		"slot must be reclaimed once the storage mutates")
	_, ok = guard.Storages().GetAny(clone)
	assert.False(t, ok)
}

func TestComponentIDZeroValue(t *testing.T) {
	var zero jubako.ComponentID
	assert.True(t, zero.IsZero())
	assert.False(t, jubako.IsComponentTypeOf[Position](zero))
}

func TestReleaseBeyondZeroPanics(t *testing.T) {
	container := jubako.NewContainer()
	container.EntityBuilder().
		With(jubako.Staged(Position{Value: "p"})).
		Build()

	guard := container.Lock()
	defer guard.Unlock()

	it := guard.Iter()
	require.True(t, it.Next())
	componentIDs := it.Handler().ComponentIDs()
	require.Len(t, componentIDs, 1)

	clone := componentIDs[0].Clone()
	clone.Release()
	// The entity still owns one reference; releasing it on its behalf drops the
	// count to zero, and one release more must panic.
	clone.Release()
	assert.Panics(t, func() { clone.Release() })
}
