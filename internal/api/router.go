/**
 * @description
 * HTTP router for the local control surface using go-chi/chi. View clients
 * read session state and trigger refreshes here; they never touch the
 * stores directly.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the session routes.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "capacitor://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Session service is healthy"))
	})

	r.Get("/session", h.handleGetSession)
	r.Get("/account", h.handleGetAccount)
	r.Get("/events", h.handleGetEvents)

	r.Post("/session/login", h.handleLogin)
	r.Post("/session/register", h.handleRegister)
	r.Post("/session/refresh", h.handleRefresh)
	r.Post("/session/logout", h.handleLogout)

	return r
}
