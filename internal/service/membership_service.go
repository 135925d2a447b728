package service

import (
	"context"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
)

type Outcome string

const (
	OutcomeJoined Outcome = "joined"
	OutcomeLeft   Outcome = "left"
)

type MembershipService interface {
	// ToggleMembership adds userID to group or removes it, updating group in
	// place. The local change is kept even when the write fails.
	ToggleMembership(ctx context.Context, group *domain.Group, userID string) (Outcome, error)
}
