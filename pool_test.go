package jubako

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPoolCreateGetRelease(t *testing.T) {
	pool := newObjectPool[string](4)

	ix := pool.create("first")
	require.False(t, ix.isZero())

	value := pool.get(ix)
	require.NotNil(t, value)
	assert.Equal(t, "first", *value)

	released, ok := pool.release(ix)
	require.True(t, ok)
	assert.Equal(t, "first", released)

	assert.Nil(t, pool.get(ix), "released index must read empty")

	_, ok = pool.release(ix)
	assert.False(t, ok, "double release must report no value")
}

func TestObjectPoolRecycledSlotRejectsStaleIndex(t *testing.T) {
	pool := newObjectPool[int](0)

	stale := pool.create(1)
	_, ok := pool.release(stale)
	require.True(t, ok)

	fresh := pool.create(2)
	assert.Equal(t, stale.id, fresh.id, "free list should reuse the slot")
	assert.NotEqual(t, stale.version, fresh.version)

	assert.Nil(t, pool.get(stale))
	require.NotNil(t, pool.get(fresh))
	assert.Equal(t, 2, *pool.get(fresh))
}

func TestObjectPoolZeroIndex(t *testing.T) {
	pool := newObjectPool[int](0)
	assert.Nil(t, pool.get(poolIndex{}))
	_, ok := pool.release(poolIndex{})
	assert.False(t, ok)
}

func TestObjectPoolSeekSkipsFreeSlots(t *testing.T) {
	pool := newObjectPool[int](0)
	var indices []poolIndex
	for i := 0; i < 5; i++ {
		indices = append(indices, pool.create(i))
	}
	pool.release(indices[1])
	pool.release(indices[3])

	var visited []int
	from := uint32(0)
	for {
		ix, value, ok := pool.seek(from)
		if !ok {
			break
		}
		visited = append(visited, *value)
		from = ix.id + 1
	}
	assert.Equal(t, []int{0, 2, 4}, visited)
	assert.Equal(t, 3, pool.count())
}
