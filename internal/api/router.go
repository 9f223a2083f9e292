package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/phrazzld/duecall/internal/api/middleware"
	"github.com/phrazzld/duecall/internal/service/auth"
)

// RouterDeps carries the handlers and collaborators the router mounts.
type RouterDeps struct {
	Logger    *slog.Logger
	Validator auth.TokenValidator
	Reminders *ReminderHandler
	Health    *HealthHandler
}

// NewRouter builds the admin router.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(deps.Logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.Validator)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/reminders/run", deps.Reminders.Run)
			r.Get("/reminders/status", deps.Reminders.Status)
		})
	})

	r.Get("/health", deps.Health.Health)

	return r
}
