package service

import (
	"context"

	"github.com/mradkov043/discite-omnes-app/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockRemoteStore struct {
	mock.Mock
}

func (m *MockRemoteStore) Subscribe(q store.Query, onSnapshot func(store.Snapshot), onError func(error)) (store.SubscriptionID, error) {
	args := m.Called(q, onSnapshot, onError)
	return args.Get(0).(store.SubscriptionID), args.Error(1)
}

func (m *MockRemoteStore) Unsubscribe(id store.SubscriptionID) {
	m.Called(id)
}

func (m *MockRemoteStore) ReadOnce(ctx context.Context, path string) (store.Snapshot, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(store.Snapshot), args.Error(1)
}

func (m *MockRemoteStore) Write(ctx context.Context, path string, value any) error {
	args := m.Called(ctx, path, value)
	return args.Error(0)
}

func (m *MockRemoteStore) NewKey(collection string) (string, error) {
	args := m.Called(collection)
	return args.String(0), args.Error(1)
}

// MockSetStore additionally supports server-side set operations.
type MockSetStore struct {
	MockRemoteStore
}

func (m *MockSetStore) AddToSet(ctx context.Context, path string, element string) error {
	args := m.Called(ctx, path, element)
	return args.Error(0)
}

func (m *MockSetStore) RemoveFromSet(ctx context.Context, path string, element string) error {
	args := m.Called(ctx, path, element)
	return args.Error(0)
}

type MockAssignmentResolver struct {
	mock.Mock
}

func (m *MockAssignmentResolver) LoadPicker(ctx context.Context, groupID string) (*AssigneePicker, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AssigneePicker), args.Error(1)
}
