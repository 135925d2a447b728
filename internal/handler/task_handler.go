package handler

import (
	"context"
	"net/http"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/projection"
)

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		h.handleError(w, domain.NewPreconditionError("group_id"))
		return
	}

	board, err := h.readyBoard(r.Context(), groupID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TasksResponse{
		GroupID: groupID,
		Tasks:   boardTasksToHTTP(board),
	})
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUserID(r); err != nil {
		h.handleError(w, err)
		return
	}

	var req CreateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), httpTaskToRequest(req))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TaskEnvelope{
		Task: domainTaskToHTTP(*task, domain.StatusSynced),
	})
}

func (h *Handler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUserID(r); err != nil {
		h.handleError(w, err)
		return
	}

	var req SetCompletionRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, err)
		return
	}
	if req.GroupID == "" {
		h.handleError(w, domain.NewPreconditionError("group_id"))
		return
	}

	board, err := h.readyBoard(r.Context(), req.GroupID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	if err := board.SetCompletion(r.Context(), req.TaskID, req.Completed); err != nil {
		h.handleError(w, err)
		return
	}

	task, ok := board.Get(req.TaskID)
	if !ok {
		h.handleError(w, domain.NewNotFoundError("task with id "+req.TaskID))
		return
	}
	status, _ := board.Status(req.TaskID)

	writeJSON(w, http.StatusOK, TaskEnvelope{
		Task: domainTaskToHTTP(task, status),
	})
}

func (h *Handler) ListAssignees(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group_id")

	picker, err := h.assignmentResolver.LoadPicker(r.Context(), groupID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AssigneesResponse{
		GroupID:   groupID,
		Assignees: assigneesToHTTP(picker.Options()),
	})
}

func (h *Handler) readyBoard(ctx context.Context, groupID string) (*projection.TaskProjector, error) {
	board, err := h.boards.Get(groupID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.readyTimeout)
	defer cancel()
	if err := board.WaitReady(ctx); err != nil {
		return nil, err
	}
	return board, nil
}

func boardTasksToHTTP(board *projection.TaskProjector) []TaskResponse {
	tasks := board.View()
	result := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		status, _ := board.Status(t.ID)
		result = append(result, domainTaskToHTTP(t, status))
	}
	return result
}
