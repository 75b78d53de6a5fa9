package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResumesOnFirstUse(t *testing.T) {
	b := newFakeBackend()
	ctx := WithUserID(context.Background(), testUser)
	tpl := b.addTemplate(testUser, "Push", 2, 5, nil, "bench")
	require.NoError(t, NewManager(b).StartFromTemplate(ctx, tpl))

	reg := NewRegistry(b)
	snap, err := reg.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Active)
	assert.Equal(t, 2, snap.TotalSetsCount)
	lookups := b.calls["InProgressWorkouts"]

	_, err = reg.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, lookups, b.calls["InProgressWorkouts"], "resume runs once per user")
}

func TestRegistrySeparatesUsers(t *testing.T) {
	b := newFakeBackend()
	alice := WithUserID(context.Background(), "alice")
	bob := WithUserID(context.Background(), "bob")
	tpl := b.addTemplate("alice", "Push", 1, 5, nil, "bench")

	reg := NewRegistry(b)
	require.NoError(t, reg.With(alice, func(m *Manager) error {
		return m.StartFromTemplate(alice, tpl)
	}))

	snap, err := reg.Snapshot(bob)
	require.NoError(t, err)
	assert.False(t, snap.Active)

	snap, err = reg.Snapshot(alice)
	require.NoError(t, err)
	assert.True(t, snap.Active)
}

func TestRegistryRequiresUser(t *testing.T) {
	reg := NewRegistry(newFakeBackend())
	err := reg.With(context.Background(), func(*Manager) error { return nil })
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRegistryRetriesFailedResume(t *testing.T) {
	b := newFakeBackend()
	ctx := WithUserID(context.Background(), testUser)
	boom := errors.New("db down")
	b.failOn("InProgressWorkouts", 1, boom)

	reg := NewRegistry(b)
	_, err := reg.Snapshot(ctx)
	require.ErrorIs(t, err, boom)

	snap, err := reg.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Active)
}

func TestRegistrySerializesPerUser(t *testing.T) {
	b := newFakeBackend()
	ctx := WithUserID(context.Background(), testUser)
	tpl := b.addTemplate(testUser, "Push", 10, 5, nil, "bench")
	reg := NewRegistry(b)
	require.NoError(t, reg.With(ctx, func(m *Manager) error { return m.StartFromTemplate(ctx, tpl) }))

	snap, err := reg.Snapshot(ctx)
	require.NoError(t, err)
	sets := snap.Exercises[0].Sets
	weID := snap.Exercises[0].ID

	var wg sync.WaitGroup
	for _, s := range sets {
		wg.Add(1)
		go func(setID string) {
			defer wg.Done()
			_ = reg.With(ctx, func(m *Manager) error {
				_, err := m.CompleteSet(ctx, weID, setID, 50, 10)
				return err
			})
		}(s.ID)
	}
	wg.Wait()

	snap, err = reg.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.CompletedSetsCount)
	assert.Equal(t, 5000.0, snap.TotalVolume)
	assert.Equal(t, 100, snap.Progress)
	for _, s := range snap.Exercises[0].Sets {
		assert.True(t, s.IsCompleted)
	}
}

func TestRegistryDropsIdleSlots(t *testing.T) {
	b := newFakeBackend()
	alice := WithUserID(context.Background(), "alice")
	bob := WithUserID(context.Background(), "bob")
	tpl := b.addTemplate("alice", "Push", 1, 5, nil, "bench")

	reg := NewRegistry(b)
	require.NoError(t, reg.With(alice, func(m *Manager) error {
		return m.StartFromTemplate(alice, tpl)
	}))
	assert.Equal(t, 1, reg.Len())

	_, err := reg.Snapshot(bob)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len(), "users without a workout are not kept")

	require.NoError(t, reg.With(alice, func(m *Manager) error {
		_, err := m.Finish(alice)
		return err
	}))
	assert.Equal(t, 0, reg.Len())

	snap, err := reg.Snapshot(alice)
	require.NoError(t, err)
	assert.False(t, snap.Active)
	assert.Equal(t, 0, reg.Len())
}
