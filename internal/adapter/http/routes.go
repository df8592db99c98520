package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/praxis-suite/praxis/internal/domain/access"
	"github.com/praxis-suite/praxis/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Public authentication endpoints
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/link", h.RequestLoginLink)
		r.Post("/auth/link/redeem", h.RedeemLoginLink)

		// Everything below requires an authenticated session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.Auth, h.Sessions))

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)
			r.Post("/auth/heartbeat", h.Heartbeat)

			r.Post("/offices", h.CreateOffice)
			r.Get("/offices", h.ListOffices)

			// Office-scoped endpoints resolve the active office from the
			// X-Office-ID header and enforce role permissions per route.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Office(h.Offices))

				r.Get("/office", h.GetOffice)
				r.Get("/access/check", h.CheckAccess)

				r.With(middleware.RequirePermission(access.ResourceTeam, access.ActionView, h.Metrics)).
					Get("/office/members", h.ListMembers)
				r.With(middleware.RequirePermission(access.ResourceTeam, access.ActionCreate, h.Metrics)).
					Post("/office/members", h.AddMember)
				r.With(middleware.RequirePermission(access.ResourceTeam, access.ActionEdit, h.Metrics)).
					Put("/office/members/{userID}/role", h.SetMemberRole)
				r.With(middleware.RequirePermission(access.ResourceTeam, access.ActionEdit, h.Metrics)).
					Put("/office/members/{userID}/overrides", h.SetMemberOverrides)
				r.With(middleware.RequirePermission(access.ResourceTeam, access.ActionDelete, h.Metrics)).
					Delete("/office/members/{userID}", h.RemoveMember)
			})
		})
	})
}
