package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/logger"
	"github.com/mradkov043/discite-omnes-app/internal/projection"
	"github.com/mradkov043/discite-omnes-app/internal/service"
)

// UserIDHeader carries the authenticated user id set by the auth proxy.
const UserIDHeader = "X-User-ID"

// Deps собирает зависимости Handler
type Deps struct {
	Groups             *projection.GroupProjector
	Boards             *projection.TaskBoards
	GroupService       service.GroupService
	MembershipService  service.MembershipService
	TaskService        service.TaskService
	AssignmentResolver service.AssignmentResolver
	UserService        service.UserService
	Logger             *slog.Logger
	// ReadyTimeout bounds how long a request waits for the first snapshot.
	ReadyTimeout time.Duration
}

type Handler struct {
	groups             *projection.GroupProjector
	boards             *projection.TaskBoards
	groupService       service.GroupService
	membershipService  service.MembershipService
	taskService        service.TaskService
	assignmentResolver service.AssignmentResolver
	userService        service.UserService
	logger             *slog.Logger
	readyTimeout       time.Duration
}

func NewHandler(deps Deps) *Handler {
	h := &Handler{
		groups:             deps.Groups,
		boards:             deps.Boards,
		groupService:       deps.GroupService,
		membershipService:  deps.MembershipService,
		taskService:        deps.TaskService,
		assignmentResolver: deps.AssignmentResolver,
		userService:        deps.UserService,
		logger:             deps.Logger,
		readyTimeout:       deps.ReadyTimeout,
	}
	if h.logger == nil {
		h.logger = logger.Discard()
	}
	if h.readyTimeout <= 0 {
		h.readyTimeout = 5 * time.Second
	}
	return h
}

func currentUserID(r *http.Request) (string, error) {
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" {
		return "", domain.NewPreconditionError("current user id")
	}
	return userID, nil
}
