package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/synergy/internal/api/auth"
	"github.com/good-yellow-bee/synergy/internal/api/middleware"
	"github.com/good-yellow-bee/synergy/internal/api/notifications"
	"github.com/good-yellow-bee/synergy/internal/api/projects"
	"github.com/good-yellow-bee/synergy/internal/api/render"
	"github.com/good-yellow-bee/synergy/internal/api/tasks"
	"github.com/good-yellow-bee/synergy/internal/api/users"
)

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.PrometheusMiddleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.JSONError(w, &render.Error{Code: render.CodeNotFound, Message: "route not found", Status: http.StatusNotFound})
	})

	authHandler := auth.NewHandler(s.service, s.storage, s.jwt, s.lockout, s.config.RefreshTokenTTL)
	projectHandler := projects.NewHandler(s.service)
	taskHandler := tasks.NewHandler(s.service)
	userHandler := users.NewHandler(s.service)
	notificationHandler := notifications.NewHandler(s.service)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(s.ipLimiter))
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
			})
			r.With(middleware.JWTAuth(s.jwt)).Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(s.jwt))
			r.Use(middleware.RateLimitByUser(s.userLimiter))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", userHandler.GetCurrentUser)
				r.Put("/display-name", userHandler.UpdateDisplayName)
				r.Put("/password", userHandler.ChangePassword)
				r.Get("/tasks", taskHandler.Mine)
			})
			r.Get("/team", userHandler.Team)

			r.Route("/projects", func(r chi.Router) {
				projectHandler.Routes(r, func(r chi.Router) {
					r.Post("/tasks", taskHandler.Create)
				})
			})
			r.Route("/tasks", taskHandler.Routes)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Post("/read-all", notificationHandler.MarkAllRead)
				r.Post("/{id}/read", notificationHandler.MarkRead)
			})
			r.Route("/settings", func(r chi.Router) {
				r.Get("/", notificationHandler.GetSettings)
				r.Post("/notifications/toggle", notificationHandler.ToggleNotifications)
				r.Put("/email", notificationHandler.SetEmailNotifications)
			})
		})
	})

	r.Get("/health", s.health.Health)
	r.Get("/health/live", s.health.Live)
	r.Get("/health/ready", s.health.Ready)

	return r
}
