package jubako

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDispatchOrder(t *testing.T) {
	var b broadcaster
	var order []int

	b.subscribe(func(EntityEvent) { order = append(order, 1) })
	b.subscribe(func(EntityEvent) { order = append(order, 2) })
	b.subscribe(func(EntityEvent) { order = append(order, 3) })

	b.dispatch(EntityEvent{Kind: EntityAdded})
	assert.Equal(t, []int{1, 2, 3}, order, "subscribers run in subscription order")
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	var b broadcaster
	var calls []string

	first := b.subscribe(func(EntityEvent) { calls = append(calls, "first") })
	b.subscribe(func(EntityEvent) { calls = append(calls, "second") })

	b.unsubscribe(first)
	b.dispatch(EntityEvent{Kind: EntityRemoved})
	require.Equal(t, []string{"second"}, calls)

	// Unknown handles are ignored.
	b.unsubscribe(first)
	b.unsubscribe(Subscription{id: 99})
	b.dispatch(EntityEvent{Kind: EntityRemoved})
	assert.Equal(t, []string{"second", "second"}, calls)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "entity_added", EntityAdded.String())
	assert.Equal(t, "entity_removed", EntityRemoved.String())
	assert.Equal(t, "component_added", ComponentAdded.String())
	assert.Equal(t, "component_removed", ComponentRemoved.String())
	assert.Equal(t, "component_changed", ComponentChanged.String())
	assert.Equal(t, "unknown", EventKind(0).String())
}
