package handler

import (
	"net/http"

	"github.com/Stewz00/myfabtotum-link/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// NewRouter mounts the auth and myfabtotum routes. Every route sees the
// session of a valid token, if the request carries one.
func NewRouter(authHandler *AuthHandler, fabHandler *MyFabtotumHandler, auth middleware.Authenticator) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Credential endpoints with strict rate limiting
	r.Group(func(r chi.Router) {
		r.Use(middleware.StrictRateLimiter())
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimiter())
		r.Post("/auth/logout", authHandler.Logout)
	})

	r.Route("/myfabtotum", func(r chi.Router) {
		r.Use(middleware.LoadSession(auth))

		r.With(middleware.RequireSession).Get("/", fabHandler.Index)

		r.Group(func(r chi.Router) {
			r.Use(middleware.StrictRateLimiter())
			r.Post("/connect", fabHandler.Connect)
			r.Post("/connect/{saveToDB}", fabHandler.Connect)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimiter())
			r.Get("/disconnect", fabHandler.Disconnect)
			r.Post("/disconnect", fabHandler.Disconnect)
			r.Get("/disconnect/{fabid}", fabHandler.Disconnect)
			r.Post("/disconnect/{fabid}", fabHandler.Disconnect)
			r.Get("/back_url", fabHandler.BackURL)
		})
	})

	return r
}
