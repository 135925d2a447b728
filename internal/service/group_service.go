package service

import (
	"context"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
)

type GroupService interface {
	// CreateGroup stores a new group with the owner as its first member.
	CreateGroup(ctx context.Context, ownerID, name, description string) (*domain.Group, error)
	// MyGroups reads every group once and keeps those userID belongs to.
	MyGroups(ctx context.Context, userID string) ([]domain.Group, error)
}
