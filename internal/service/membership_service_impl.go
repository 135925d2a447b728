package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/catalog"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/retry"
	"github.com/mradkov043/discite-omnes-app/internal/store"
)

type membershipService struct {
	store store.RemoteStore
	settings
}

// NewMembershipService создает новый экземпляр MembershipService
func NewMembershipService(s store.RemoteStore, opts ...Option) MembershipService {
	return &membershipService{
		store:    s,
		settings: buildSettings(opts),
	}
}

func (s *membershipService) ToggleMembership(ctx context.Context, group *domain.Group, userID string) (Outcome, error) {
	if group == nil || group.ID == "" {
		return "", domain.NewPreconditionError("group id")
	}
	if userID == "" {
		return "", domain.NewPreconditionError("user id")
	}

	if group.Members == nil {
		group.Members = []string{}
	}

	outcome := OutcomeJoined
	if catalog.IsMember(*group, userID) {
		outcome = OutcomeLeft
		group.Members = removeFirst(group.Members, userID)
	} else {
		group.Members = append(group.Members, userID)
	}

	path := store.GroupMembersPath(group.ID)
	write := s.fullListWrite(path, group.Members)
	if s.atomicMembership {
		if sw, ok := s.store.(store.SetWriter); ok {
			write = setWrite(sw, path, userID, outcome)
		}
	}

	err := retry.Do(ctx, s.retry, write, func(err error, wait time.Duration) {
		s.recorder.RecordWriteRetry("toggle_membership")
		s.logger.Debug("retrying membership write", slog.String("path", path), slog.Duration("wait", wait), slog.Any("error", err))
	})
	if err != nil {
		s.recorder.RecordWriteFailure("toggle_membership")
		s.logger.Warn("membership write failed",
			slog.String("group_id", group.ID),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return outcome, domain.NewWriteFailure(path, err)
	}

	s.logger.Info("membership changed",
		slog.String("group_id", group.ID),
		slog.String("user_id", userID),
		slog.String("outcome", string(outcome)),
	)
	return outcome, nil
}

// fullListWrite overwrites the whole members list. Concurrent toggles from
// other clients between read and write are lost (last write wins).
func (s *membershipService) fullListWrite(path string, members []string) func(context.Context) error {
	payload := append([]string{}, members...)
	return func(ctx context.Context) error {
		return s.store.Write(ctx, path, payload)
	}
}

func setWrite(sw store.SetWriter, path, userID string, outcome Outcome) func(context.Context) error {
	return func(ctx context.Context) error {
		if outcome == OutcomeJoined {
			return sw.AddToSet(ctx, path, userID)
		}
		return sw.RemoveFromSet(ctx, path, userID)
	}
}

func removeFirst(members []string, userID string) []string {
	for i, m := range members {
		if m == userID {
			out := make([]string, 0, len(members)-1)
			out = append(out, members[:i]...)
			return append(out, members[i+1:]...)
		}
	}
	return members
}
