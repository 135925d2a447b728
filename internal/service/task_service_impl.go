package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/codec"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/retry"
	"github.com/mradkov043/discite-omnes-app/internal/store"
)

type taskService struct {
	store    store.RemoteStore
	resolver AssignmentResolver
	settings
}

func NewTaskService(s store.RemoteStore, resolver AssignmentResolver, opts ...Option) TaskService {
	return &taskService{
		store:    s,
		resolver: resolver,
		settings: buildSettings(opts),
	}
}

// CreateTask проверяет ввод, определяет исполнителя по id и записывает задачу
// под новым ключом. При ошибке ничего не записывается.
func (s *taskService) CreateTask(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	if req.GroupID == "" {
		return nil, domain.NewPreconditionError("group id")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.NewInvalidInputError("task title is required")
	}

	dueDate := strings.TrimSpace(req.DueDate)
	if dueDate != "" {
		if _, err := time.Parse(domain.DueDateLayout, dueDate); err != nil {
			return nil, domain.NewInvalidInputError("due date must be in YYYY-MM-DD format")
		}
	}

	if err := s.requireGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}

	task := domain.Task{
		GroupID:     req.GroupID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		DueDate:     dueDate,
	}

	if req.AssigneeID != "" {
		picker, err := s.resolver.LoadPicker(ctx, req.GroupID)
		if err != nil {
			return nil, err
		}
		assignee, ok := picker.Resolve(req.AssigneeID)
		if !ok {
			return nil, domain.NewInvalidInputError("assignee is not a member of the group")
		}
		task.AssignedTo = assignee.UserID
		task.AssignedToName = assignee.Name
	}

	key, err := s.store.NewKey(store.TasksCollection)
	if err != nil {
		return nil, domain.NewTransportError("generate task key", err)
	}
	if key == "" {
		return nil, domain.NewPreconditionError("generated task key")
	}
	task.ID = key

	path := store.TaskPath(key)
	err = retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.store.Write(ctx, path, codec.EncodeTask(task))
	}, func(err error, wait time.Duration) {
		s.recorder.RecordWriteRetry("create_task")
		s.logger.Debug("retrying task write", slog.String("path", path), slog.Duration("wait", wait), slog.Any("error", err))
	})
	if err != nil {
		s.recorder.RecordWriteFailure("create_task")
		s.logger.Warn("task write failed", slog.String("path", path), slog.Any("error", err))
		return nil, domain.NewWriteFailure(path, err)
	}

	s.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("group_id", task.GroupID),
		slog.String("assigned_to", task.AssignedTo),
	)
	return &task, nil
}

// requireGroup читает groups/{id} один раз; задача без существующей группы не создается
func (s *taskService) requireGroup(ctx context.Context, groupID string) error {
	snap, err := s.store.ReadOnce(ctx, store.GroupPath(groupID))
	if err != nil {
		s.recorder.RecordTransportError("read_group")
		return domain.NewTransportError("read group "+groupID, err)
	}
	if !snap.Exists {
		return domain.NewNotFoundError("group with id " + groupID)
	}
	return nil
}
