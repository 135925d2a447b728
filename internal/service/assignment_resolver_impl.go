package service

import (
	"context"
	"log/slog"

	"github.com/mradkov043/discite-omnes-app/internal/codec"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/store"
	"golang.org/x/sync/errgroup"
)

type assignmentResolver struct {
	store store.RemoteStore
	settings
}

func NewAssignmentResolver(s store.RemoteStore, opts ...Option) AssignmentResolver {
	return &assignmentResolver{
		store:    s,
		settings: buildSettings(opts),
	}
}

// LoadPicker читает список участников группы один раз, затем только записи
// этих пользователей. Участники без записи в справочнике пропускаются.
func (r *assignmentResolver) LoadPicker(ctx context.Context, groupID string) (*AssigneePicker, error) {
	if groupID == "" {
		return nil, domain.NewPreconditionError("group id")
	}

	snap, err := r.store.ReadOnce(ctx, store.GroupMembersPath(groupID))
	if err != nil {
		r.recorder.RecordTransportError("read_members")
		return nil, domain.NewTransportError("read members of group "+groupID, err)
	}

	var members []string
	if snap.Exists {
		var ok bool
		members, ok = codec.DecodeMembers(snap.Value)
		if !ok {
			r.recorder.RecordDecodeSkip("members")
			r.logger.Debug("members list skipped", slog.String("group_id", groupID))
		}
	}

	users := make([]*domain.User, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.lookupLimit)
	for i, userID := range members {
		g.Go(func() error {
			snap, err := r.store.ReadOnce(gctx, store.UserPath(userID))
			if err != nil {
				return domain.NewTransportError("read user "+userID, err)
			}
			if !snap.Exists {
				return nil
			}
			u, ok := codec.DecodeUser(snap.Value)
			if !ok {
				r.recorder.RecordDecodeSkip("user")
				return nil
			}
			users[i] = &u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.recorder.RecordTransportError("read_user")
		return nil, err
	}

	options := make([]AssigneeOption, 0, len(members))
	for i, u := range users {
		if u == nil {
			r.logger.Debug("member without directory entry", slog.String("user_id", members[i]))
			continue
		}
		options = append(options, AssigneeOption{UserID: members[i], Name: u.Name})
	}

	return NewAssigneePicker(options), nil
}
