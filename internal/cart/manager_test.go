package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ReturnsSameSessionPerDevice(t *testing.T) {
	m := NewManager(newMemoryStore(), discardLogger, time.Minute, 0)
	defer m.Close(context.Background())

	a := m.Session("device-1")
	b := m.Session("device-1")
	c := m.Session("device-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestManager_EvictsIdleSessions(t *testing.T) {
	store := newMemoryStore()
	m := NewManager(store, discardLogger, time.Minute, 0)
	ctx := context.Background()

	idle := m.Session("device-1")
	_, err := idle.AddItem(ctx, catalog[0])
	require.NoError(t, err)
	active := m.Session("device-2")

	m.evictIdle(ctx, time.Now().Add(2*time.Minute))

	// evicted sessions flush on the way out
	stored, ok := store.get("device-1")
	require.True(t, ok)
	assert.Len(t, stored.Items, 1)

	assert.NotSame(t, idle, m.Session("device-1"))
	assert.NotSame(t, active, m.Session("device-2"))
	require.NoError(t, m.Close(ctx))
}

func TestManager_KeepsRecentlyUsedSessions(t *testing.T) {
	m := NewManager(newMemoryStore(), discardLogger, time.Minute, 0)
	defer m.Close(context.Background())

	s := m.Session("device-1")
	m.evictIdle(context.Background(), time.Now().Add(30*time.Second))

	assert.Same(t, s, m.Session("device-1"))
}

func TestManager_SessionSurvivesRestart(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	first := NewManager(store, discardLogger, time.Minute, 0)
	_, err := first.Session("device-1").AddItem(ctx, catalog[2])
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second := NewManager(store, discardLogger, time.Minute, 0)
	defer second.Close(ctx)

	state, err := second.Session("device-1").Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, "resistor", state.Items[0].ProductID)
}

func TestManager_CapsOpenSessions(t *testing.T) {
	store := newMemoryStore()
	m := NewManager(store, discardLogger, time.Hour, 2)
	ctx := context.Background()
	defer m.Close(ctx)

	first := m.Session("device-1")
	_, err := first.AddItem(ctx, catalog[0])
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	second := m.Session("device-2")
	time.Sleep(time.Millisecond)

	// device-1 is the least recently used and makes room for device-3
	m.Session("device-3")
	assert.Equal(t, 2, m.Len())
	assert.Same(t, second, m.Session("device-2"))

	// the evicted cart was flushed on the way out
	stored, ok := store.get("device-1")
	require.True(t, ok)
	assert.Len(t, stored.Items, 1)

	reopened := m.Session("device-1")
	assert.NotSame(t, first, reopened)
	assert.Equal(t, 2, m.Len())

	state, err := reopened.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Items, 1)
}
