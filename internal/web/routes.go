package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"facegate/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	sessionsHandler := handlers.NewSessionsHandler(s.sessionManager)
	recordsHandler := handlers.NewRecordsHandler(deps.Store)

	s.router.Get("/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Sessions
		r.Post("/sessions", sessionsHandler.Start)
		r.Get("/sessions/{id}", sessionsHandler.Get)
		r.Post("/sessions/{id}/reset", sessionsHandler.Reset)
		r.Delete("/sessions/{id}", sessionsHandler.Stop)
		r.Get("/sessions/{id}/events", sessionsHandler.Events)

		// Records
		r.Get("/records", recordsHandler.List)
	})

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Facegate</title></head>
<body>
    <h1>Facegate</h1>
    <p>Verification kiosk API. See <a href="/health">/health</a>.</p>
</body>
</html>`))
	})
}
