package service

import (
	"context"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
)

type UserService interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	// DisplayName returns the user's name, or "" when it cannot be read.
	DisplayName(ctx context.Context, userID string) string
}
