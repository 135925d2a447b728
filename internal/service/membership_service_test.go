package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/projection"
	"github.com/mradkov043/discite-omnes-app/internal/retry"
	"github.com/mradkov043/discite-omnes-app/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMembershipService_ToggleMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("вступление и выход пишут весь список", func(t *testing.T) {
		mockStore := new(MockRemoteStore)
		service := NewMembershipService(mockStore, WithRetryPolicy(retry.NoRetry()))

		group := &domain.Group{ID: "g1", Name: "Algo", Description: "", Members: []string{"u1"}}

		mockStore.On("Write", mock.Anything, "groups/g1/members", []string{"u1", "u2"}).Return(nil).Once()
		outcome, err := service.ToggleMembership(ctx, group, "u2")
		require.NoError(t, err)
		assert.Equal(t, OutcomeJoined, outcome)
		assert.Equal(t, []string{"u1", "u2"}, group.Members)

		mockStore.On("Write", mock.Anything, "groups/g1/members", []string{"u1"}).Return(nil).Once()
		outcome, err = service.ToggleMembership(ctx, group, "u2")
		require.NoError(t, err)
		assert.Equal(t, OutcomeLeft, outcome)
		assert.Equal(t, []string{"u1"}, group.Members)

		mockStore.AssertExpectations(t)
	})

	t.Run("nil members are initialized", func(t *testing.T) {
		mockStore := new(MockRemoteStore)
		service := NewMembershipService(mockStore)

		group := &domain.Group{ID: "g1", Name: "Algo"}
		mockStore.On("Write", mock.Anything, "groups/g1/members", []string{"u3"}).Return(nil).Once()

		outcome, err := service.ToggleMembership(ctx, group, "u3")
		require.NoError(t, err)
		assert.Equal(t, OutcomeJoined, outcome)
		mockStore.AssertExpectations(t)
	})

	t.Run("ошибка записи не откатывает локальное состояние", func(t *testing.T) {
		mockStore := new(MockRemoteStore)
		service := NewMembershipService(mockStore, WithRetryPolicy(retry.NoRetry()))

		group := &domain.Group{ID: "g1", Name: "Algo", Members: []string{"u1"}}
		boom := errors.New("permission denied")
		mockStore.On("Write", mock.Anything, "groups/g1/members", mock.Anything).Return(boom).Once()

		outcome, err := service.ToggleMembership(ctx, group, "u2")
		require.Error(t, err)
		assert.Equal(t, OutcomeJoined, outcome)
		assert.True(t, errors.Is(err, domain.ErrWriteFailed))
		assert.True(t, errors.Is(err, boom))
		assert.Equal(t, []string{"u1", "u2"}, group.Members)
		mockStore.AssertExpectations(t)
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		mockStore := new(MockRemoteStore)
		service := NewMembershipService(mockStore, WithRetryPolicy(fastRetry))

		group := &domain.Group{ID: "g1", Name: "Algo", Members: []string{"u1"}}
		mockStore.On("Write", mock.Anything, "groups/g1/members", []string{"u1", "u2"}).Return(errors.New("unavailable")).Once()
		mockStore.On("Write", mock.Anything, "groups/g1/members", []string{"u1", "u2"}).Return(nil).Once()

		_, err := service.ToggleMembership(ctx, group, "u2")
		require.NoError(t, err)
		mockStore.AssertNumberOfCalls(t, "Write", 2)
	})

	t.Run("atomic mode uses set operations", func(t *testing.T) {
		mockStore := new(MockSetStore)
		service := NewMembershipService(mockStore, WithAtomicMembership(true))

		group := &domain.Group{ID: "g1", Name: "Algo", Members: []string{"u1"}}
		mockStore.On("AddToSet", mock.Anything, "groups/g1/members", "u2").Return(nil).Once()
		mockStore.On("RemoveFromSet", mock.Anything, "groups/g1/members", "u1").Return(nil).Once()

		outcome, err := service.ToggleMembership(ctx, group, "u2")
		require.NoError(t, err)
		assert.Equal(t, OutcomeJoined, outcome)

		outcome, err = service.ToggleMembership(ctx, group, "u1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeLeft, outcome)
		assert.Equal(t, []string{"u2"}, group.Members)

		mockStore.AssertExpectations(t)
		mockStore.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("atomic mode falls back without set support", func(t *testing.T) {
		mockStore := new(MockRemoteStore)
		service := NewMembershipService(mockStore, WithAtomicMembership(true))

		group := &domain.Group{ID: "g1", Name: "Algo", Members: []string{"u1"}}
		mockStore.On("Write", mock.Anything, "groups/g1/members", []string{"u1", "u2"}).Return(nil).Once()

		_, err := service.ToggleMembership(ctx, group, "u2")
		require.NoError(t, err)
		mockStore.AssertExpectations(t)
	})

	t.Run("ошибка: нет группы или пользователя", func(t *testing.T) {
		mockStore := new(MockRemoteStore)
		service := NewMembershipService(mockStore)

		_, err := service.ToggleMembership(ctx, nil, "u1")
		assert.True(t, errors.Is(err, domain.ErrPrecondition))

		_, err = service.ToggleMembership(ctx, &domain.Group{Name: "Algo"}, "u1")
		assert.True(t, errors.Is(err, domain.ErrPrecondition))

		group := &domain.Group{ID: "g1", Name: "Algo", Members: []string{"u1"}}
		_, err = service.ToggleMembership(ctx, group, "")
		assert.True(t, errors.Is(err, domain.ErrPrecondition))
		assert.Equal(t, []string{"u1"}, group.Members)

		mockStore.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMembershipService_RoundTripThroughProjection(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	writeGroup(t, s, "g1", "Algo", "u1")

	projector := projection.NewGroupProjector(s, "u2")
	require.NoError(t, projector.Subscribe(nil, nil))
	defer projector.Unsubscribe()

	service := NewMembershipService(s)

	group, ok := projector.Get("g1")
	require.True(t, ok)
	outcome, err := service.ToggleMembership(ctx, &group, "u2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeJoined, outcome)

	group, _ = projector.Get("g1")
	assert.Equal(t, []string{"u1", "u2"}, group.Members)

	outcome, err = service.ToggleMembership(ctx, &group, "u2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeLeft, outcome)

	group, _ = projector.Get("g1")
	assert.Equal(t, []string{"u1"}, group.Members)

	writes := s.Writes()
	require.Len(t, writes, 3)
	assert.JSONEq(t, `["u1","u2"]`, string(writes[1].Value))
	assert.JSONEq(t, `["u1"]`, string(writes[2].Value))
}
