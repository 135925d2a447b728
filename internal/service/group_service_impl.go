package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/catalog"
	"github.com/mradkov043/discite-omnes-app/internal/codec"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/retry"
	"github.com/mradkov043/discite-omnes-app/internal/store"
)

type groupService struct {
	store store.RemoteStore
	settings
}

// NewGroupService создает новый экземпляр GroupService
func NewGroupService(s store.RemoteStore, opts ...Option) GroupService {
	return &groupService{
		store:    s,
		settings: buildSettings(opts),
	}
}

func (s *groupService) CreateGroup(ctx context.Context, ownerID, name, description string) (*domain.Group, error) {
	if ownerID == "" {
		return nil, domain.NewPreconditionError("user id")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewInvalidInputError("group name is required")
	}

	key, err := s.store.NewKey(store.GroupsCollection)
	if err != nil {
		return nil, domain.NewTransportError("generate group key", err)
	}
	if key == "" {
		return nil, domain.NewPreconditionError("generated group key")
	}

	group := domain.Group{
		ID:          key,
		Name:        name,
		Description: strings.TrimSpace(description),
		Members:     []string{ownerID},
	}

	path := store.GroupPath(key)
	err = retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.store.Write(ctx, path, codec.EncodeGroup(group))
	}, func(err error, wait time.Duration) {
		s.recorder.RecordWriteRetry("create_group")
		s.logger.Debug("retrying group write", slog.String("path", path), slog.Duration("wait", wait), slog.Any("error", err))
	})
	if err != nil {
		s.recorder.RecordWriteFailure("create_group")
		return nil, domain.NewWriteFailure(path, err)
	}

	s.logger.Info("group created", slog.String("group_id", group.ID), slog.String("owner_id", ownerID))
	return &group, nil
}

func (s *groupService) MyGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	if userID == "" {
		return nil, domain.NewPreconditionError("user id")
	}

	snap, err := s.store.ReadOnce(ctx, store.GroupsCollection)
	if err != nil {
		s.recorder.RecordTransportError("read_groups")
		return nil, domain.NewTransportError("read groups", err)
	}

	groups := make([]domain.Group, 0, len(snap.Children))
	for _, child := range snap.Children {
		g, ok := codec.DecodeGroup(child.Value)
		if !ok {
			s.recorder.RecordDecodeSkip("group")
			continue
		}
		groups = append(groups, g)
	}

	return catalog.FilterMember(groups, userID), nil
}
