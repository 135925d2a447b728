package service

import (
	"context"
	"log/slog"

	"github.com/mradkov043/discite-omnes-app/internal/codec"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/store"
)

type userService struct {
	store store.RemoteStore
	settings
}

func NewUserService(s store.RemoteStore, opts ...Option) UserService {
	return &userService{
		store:    s,
		settings: buildSettings(opts),
	}
}

func (s *userService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.NewPreconditionError("user id")
	}

	snap, err := s.store.ReadOnce(ctx, store.UserPath(userID))
	if err != nil {
		s.recorder.RecordTransportError("read_user")
		return nil, domain.NewTransportError("read user "+userID, err)
	}
	if !snap.Exists {
		return nil, domain.NewNotFoundError("user with id " + userID)
	}

	u, ok := codec.DecodeUser(snap.Value)
	if !ok {
		s.recorder.RecordDecodeSkip("user")
		return nil, domain.NewNotFoundError("user with id " + userID)
	}
	return &u, nil
}

func (s *userService) DisplayName(ctx context.Context, userID string) string {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		s.logger.Debug("display name unavailable", slog.String("user_id", userID), slog.Any("error", err))
		return ""
	}
	return u.Name
}
