package service

import (
	"context"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
)

type CreateTaskRequest struct {
	GroupID     string
	Title       string
	Description string
	// DueDate is YYYY-MM-DD or empty.
	DueDate string
	// AssigneeID is empty when nobody was picked.
	AssigneeID string
}

type TaskService interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*domain.Task, error)
}
