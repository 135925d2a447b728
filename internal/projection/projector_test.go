package projection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/catalog"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupIDs(groups []domain.Group) []string {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return ids
}

func seedGroup(t *testing.T, s *memory.Store, id, name string, members ...string) {
	t.Helper()
	if members == nil {
		members = []string{}
	}
	require.NoError(t, s.Write(context.Background(), "groups/"+id, map[string]any{
		"id":      id,
		"name":    name,
		"members": members,
	}))
}

func TestGroupProjector_Snapshots(t *testing.T) {
	t.Run("initial snapshot is emitted in store order", func(t *testing.T) {
		s := memory.New()
		seedGroup(t, s, "g1", "Algorithms", "u1")
		seedGroup(t, s, "g2", "Databases")

		p := NewGroupProjector(s, "u1")
		var views [][]string
		require.NoError(t, p.Subscribe(func(groups []domain.Group) {
			views = append(views, groupIDs(groups))
		}, nil))

		require.NoError(t, p.WaitReady(context.Background()))
		assert.Equal(t, [][]string{{"g1", "g2"}}, views)
		assert.Equal(t, 2, p.Len())
	})

	t.Run("every snapshot replaces the cache", func(t *testing.T) {
		s := memory.New()
		seedGroup(t, s, "g1", "Algorithms")
		seedGroup(t, s, "g2", "Databases")

		p := NewGroupProjector(s, "u1")
		require.NoError(t, p.Subscribe(nil, nil))

		require.NoError(t, s.Write(context.Background(), "groups/g1", nil))
		assert.Equal(t, []string{"g2"}, groupIDs(p.View()))

		_, ok := p.Get("g1")
		assert.False(t, ok)
	})

	t.Run("malformed records are skipped", func(t *testing.T) {
		s := memory.New()
		seedGroup(t, s, "g1", "Algorithms")
		require.NoError(t, s.Write(context.Background(), "groups/broken", map[string]any{"id": "broken"}))
		seedGroup(t, s, "g3", "Compilers")

		p := NewGroupProjector(s, "u1")
		require.NoError(t, p.Subscribe(nil, nil))

		assert.Equal(t, []string{"g1", "g3"}, groupIDs(p.View()))
	})

	t.Run("returned values are copies", func(t *testing.T) {
		s := memory.New()
		seedGroup(t, s, "g1", "Algorithms", "u1")

		p := NewGroupProjector(s, "u1")
		require.NoError(t, p.Subscribe(nil, nil))

		view := p.View()
		view[0].Members[0] = "mutated"

		g, ok := p.Get("g1")
		require.True(t, ok)
		assert.Equal(t, []string{"u1"}, g.Members)
	})
}

func TestGroupProjector_Filter(t *testing.T) {
	s := memory.New()
	seedGroup(t, s, "g1", "Algorithms", "u1", "u2")
	seedGroup(t, s, "g2", "Databases", "u2")
	seedGroup(t, s, "g3", "Compilers", "u1")

	p := NewGroupProjector(s, "u1")
	var views [][]string
	require.NoError(t, p.Subscribe(func(groups []domain.Group) {
		views = append(views, groupIDs(groups))
	}, nil))
	readsBefore := s.Reads()
	assert.Equal(t, "u1", p.CurrentUserID())

	p.SetFilterPredicate(catalog.MemberOf)
	assert.Equal(t, []string{"g1", "g3"}, views[len(views)-1])

	p.SetFilterPredicate(catalog.ShowAll)
	assert.Equal(t, []string{"g1", "g2", "g3"}, views[len(views)-1])

	t.Run("filter survives new snapshots", func(t *testing.T) {
		p.SetFilterPredicate(catalog.MemberOf)
		seedGroup(t, s, "g4", "Networks", "u1")
		assert.Equal(t, []string{"g1", "g3", "g4"}, views[len(views)-1])
	})

	t.Run("filter toggles do not hit the store", func(t *testing.T) {
		assert.Equal(t, readsBefore, s.Reads())
	})

	t.Run("empty user id sees no groups as member", func(t *testing.T) {
		anon := NewGroupProjector(s, "")
		require.NoError(t, anon.Subscribe(nil, nil))
		assert.Empty(t, anon.CurrentUserID())
		anon.SetFilterPredicate(catalog.MemberOf)
		assert.Empty(t, anon.View())
		assert.Len(t, anon.Items(), 4)
	})
}

func TestProjector_TransportErrors(t *testing.T) {
	t.Run("error keeps the cache and reaches onError", func(t *testing.T) {
		s := memory.New()
		seedGroup(t, s, "g1", "Algorithms")

		p := NewGroupProjector(s, "u1")
		var gotErr error
		require.NoError(t, p.Subscribe(nil, func(err error) { gotErr = err }))

		s.EmitError("groups", errors.New("permission denied"))

		require.Error(t, gotErr)
		assert.ErrorIs(t, gotErr, domain.ErrTransport)
		assert.Equal(t, []string{"g1"}, groupIDs(p.View()))
	})

	t.Run("wait ready times out without a snapshot", func(t *testing.T) {
		p := NewGroupProjector(memory.New(), "u1")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := p.WaitReady(ctx)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestProjector_SubscribeLifecycle(t *testing.T) {
	s := memory.New()
	p := NewGroupProjector(s, "u1")

	require.NoError(t, p.Subscribe(nil, nil))
	assert.Error(t, p.Subscribe(nil, nil))
	assert.Equal(t, 1, s.Subscriptions())

	calls := 0
	p.Unsubscribe()
	p.Unsubscribe()
	assert.Equal(t, 0, s.Subscriptions())

	p.SetFilter(func(domain.Group) bool { calls++; return true })
	seedGroup(t, s, "g1", "Algorithms")
	assert.Empty(t, p.View())
	assert.Equal(t, 0, calls)

	require.NoError(t, p.Subscribe(nil, nil))
	assert.Equal(t, []string{"g1"}, groupIDs(p.View()))
}
