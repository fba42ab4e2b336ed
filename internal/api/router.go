package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pitchside/pitchside-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// System metrics (no auth required for basic monitoring)
		r.Get("/metrics", s.handleMetrics)

		// WebSocket handshake. Browsers cannot attach an Authorization
		// header here, so the single-use ticket issued by
		// /auth/ws-ticket is the route's authentication.
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication - the ticket carries the
			// caller's identity to the WebSocket connection
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Component endpoints
			r.Route("/components", func(r chi.Router) {
				r.Get("/", s.handleListComponents)
				r.Get("/order", s.handleComponentOrder)

				// Replaying callbacks changes portal state, admin only
				r.With(s.requireRole(auth.RoleAdmin)).Post("/reinit", s.handleReinit)
			})

			// Run history
			r.Get("/history", s.handleListHistory)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"phase":   string(s.registry.Phase()),
	})
}
