package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mradkov043/discite-omnes-app/internal/codec"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/store"
	"github.com/mradkov043/discite-omnes-app/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGroupService_CreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("владелец становится первым участником", func(t *testing.T) {
		s := memory.New()
		service := NewGroupService(s)

		group, err := service.CreateGroup(ctx, "u1", " Algorithms ", "weekly")
		require.NoError(t, err)
		assert.NotEmpty(t, group.ID)
		assert.Equal(t, "Algorithms", group.Name)
		assert.Equal(t, []string{"u1"}, group.Members)

		snap, err := s.ReadOnce(ctx, "groups/"+group.ID)
		require.NoError(t, err)
		stored, ok := codec.DecodeGroup(snap.Value)
		require.True(t, ok)
		assert.Equal(t, *group, stored)
	})

	t.Run("ошибки ввода", func(t *testing.T) {
		s := memory.New()
		service := NewGroupService(s)

		_, err := service.CreateGroup(ctx, "", "Algorithms", "")
		assert.True(t, errors.Is(err, domain.ErrPrecondition))

		_, err = service.CreateGroup(ctx, "u1", "  ", "")
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))

		assert.Empty(t, s.Writes())
	})

	t.Run("key generation failure", func(t *testing.T) {
		mockStore := new(MockRemoteStore)
		mockStore.On("NewKey", "groups").Return("", errors.New("clock skew")).Once()

		_, err := NewGroupService(mockStore).CreateGroup(ctx, "u1", "Algorithms", "")
		assert.True(t, errors.Is(err, domain.ErrTransport))
		mockStore.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGroupService_MyGroups(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps member groups in store order", func(t *testing.T) {
		s := memory.New()
		writeGroup(t, s, "g1", "Algorithms", "u1", "u2")
		writeGroup(t, s, "g2", "Databases", "u2")
		writeGroup(t, s, "g3", "Compilers", "u1")
		require.NoError(t, s.Write(ctx, "groups/bad", map[string]any{"id": "bad", "members": []string{"u1"}}))

		groups, err := NewGroupService(s).MyGroups(ctx, "u1")
		require.NoError(t, err)

		ids := make([]string, 0, len(groups))
		for _, g := range groups {
			ids = append(ids, g.ID)
		}
		assert.Equal(t, []string{"g1", "g3"}, ids)
	})

	t.Run("ошибка чтения", func(t *testing.T) {
		mockStore := new(MockRemoteStore)
		mockStore.On("ReadOnce", mock.Anything, "groups").Return(store.Snapshot{}, errors.New("offline")).Once()

		groups, err := NewGroupService(mockStore).MyGroups(ctx, "u1")
		require.Error(t, err)
		assert.Nil(t, groups)
		assert.True(t, errors.Is(err, domain.ErrTransport))
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := NewGroupService(memory.New()).MyGroups(ctx, "")
		assert.True(t, errors.Is(err, domain.ErrPrecondition))
	})
}
