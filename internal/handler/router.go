package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ysa-registration/internal/model"
)

// NewRouter assembles the full route tree with the global middleware stack.
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(AccessLog(logger))       // structured access log
	r.Use(CORS)                    // the form and dashboard are hosted statically

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Public: the registration form needs no login.
		r.Get("/locations", h.Locations)
		r.Get("/registrations/status", h.Status)
		r.Post("/registrations", h.Submit)

		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		// Dashboard: viewers can read and export, admins can also mutate.
		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.RequireRole(anyRole...))
				r.Get("/registrations", h.ListRegistrations)
				r.Get("/registrations/watch", h.Watch)
				r.Get("/registrations/export.csv", h.ExportCSV)
				r.Get("/registrations/export.xlsx", h.ExportXLSX)
			})
			r.Group(func(r chi.Router) {
				r.Use(h.RequireRole(model.RoleAdmin))
				r.Put("/registrations/{id}", h.UpdateRegistration)
				r.Delete("/registrations/{id}", h.DeleteRegistration)
				r.Post("/registrations/{id}/paid", h.TogglePaid)
				r.Get("/users", h.ListUsers)
				r.Post("/users", h.CreateUser)
				r.Delete("/users/{id}", h.DeleteUser)
			})
		})
	})

	return r
}
