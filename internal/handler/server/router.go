package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mradkov043/discite-omnes-app/internal/handler"
)

// SetupRoutes регистрирует все эндпоинты; metrics может быть nil
func SetupRoutes(r chi.Router, h *handler.Handler, metrics http.Handler) {
	r.Route("/groups", func(r chi.Router) {
		r.Get("/", h.ListGroups)
		r.Get("/mine", h.MyGroups)
		r.Post("/create", h.CreateGroup)
		r.Post("/toggleMembership", h.ToggleMembership)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Get("/assignees", h.ListAssignees)
		r.Post("/create", h.CreateTask)
		r.Post("/setCompletion", h.SetCompletion)
	})

	r.Get("/users/me", h.Me)

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
}

func NewRouter(h *handler.Handler, metrics http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	SetupRoutes(r, h, metrics)
	return r
}
