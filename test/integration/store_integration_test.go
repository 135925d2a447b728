//go:build integration
// +build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_ReadWrite(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "groups/g1", map[string]any{"id": "g1", "name": "Algorithms", "members": []string{"u1"}}))
	require.NoError(t, s.Write(ctx, "groups/g2", map[string]any{"id": "g2", "name": "Databases", "members": []string{}}))

	snap, err := s.ReadOnce(ctx, "groups")
	require.NoError(t, err)
	require.Len(t, snap.Children, 2)
	assert.Equal(t, "g1", snap.Children[0].Key)
	assert.Equal(t, "g2", snap.Children[1].Key)

	require.NoError(t, s.Write(ctx, "groups/g1/members", []string{"u1", "u2"}))
	snap, err = s.ReadOnce(ctx, "groups/g1/members")
	require.NoError(t, err)
	assert.JSONEq(t, `["u1","u2"]`, string(snap.Value))

	// обновление записи не меняет порядок в коллекции
	require.NoError(t, s.Write(ctx, "groups/g1", map[string]any{"id": "g1", "name": "Algorithms II", "members": []string{"u1"}}))
	snap, err = s.ReadOnce(ctx, "groups")
	require.NoError(t, err)
	assert.Equal(t, "g1", snap.Children[0].Key)

	require.NoError(t, s.Write(ctx, "groups/g2", nil))
	snap, err = s.ReadOnce(ctx, "groups/g2")
	require.NoError(t, err)
	assert.False(t, snap.Exists)
}

func TestPostgresStore_SetOperations(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "groups/g1", map[string]any{"id": "g1", "members": []string{"u1"}}))
	require.NoError(t, s.AddToSet(ctx, "groups/g1/members", "u2"))
	require.NoError(t, s.AddToSet(ctx, "groups/g1/members", "u2"))
	require.NoError(t, s.RemoveFromSet(ctx, "groups/g1/members", "u1"))

	snap, err := s.ReadOnce(ctx, "groups/g1/members")
	require.NoError(t, err)
	assert.JSONEq(t, `["u2"]`, string(snap.Value))
}

func TestPostgresStore_SubscriptionFollowsWrites(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "tasks/t1", map[string]any{"id": "t1", "groupId": "g1", "title": "a"}))
	require.NoError(t, s.Write(ctx, "tasks/t2", map[string]any{"id": "t2", "groupId": "g2", "title": "b"}))

	var (
		mu   sync.Mutex
		last []string
	)
	id, err := s.Subscribe(store.EqualityQuery("tasks", "groupId", "g1"), func(snap store.Snapshot) {
		keys := make([]string, 0, len(snap.Children))
		for _, c := range snap.Children {
			keys = append(keys, c.Key)
		}
		mu.Lock()
		last = keys
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	defer s.Unsubscribe(id)

	keys := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return last
	}

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"t1"}, keys())
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Write(ctx, "tasks/t3", map[string]any{"id": "t3", "groupId": "g1", "title": "c"}))

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"t1", "t3"}, keys())
	}, 5*time.Second, 20*time.Millisecond)
}
