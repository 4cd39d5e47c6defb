// Package web serves the verification kiosk HTTP API.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"facegate/internal/logger"
	"facegate/internal/records"
	"facegate/internal/web/handlers"
	"facegate/internal/web/middleware"
)

// Deps are the collaborators the API serves.
type Deps struct {
	Factory  handlers.OrchestratorFactory
	Store    records.Store
	IDTick   time.Duration
	FaceTick time.Duration
}

// Server represents the web server.
type Server struct {
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *handlers.SessionManager
}

// NewServer creates a new web server.
func NewServer(deps Deps, port int, host string) *Server {
	r := chi.NewRouter()

	sessionManager := handlers.NewSessionManager(deps.Factory, deps.IDTick, deps.FaceTick)

	s := &Server{
		router:         r,
		sessionManager: sessionManager,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes(deps)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // long timeout for SSE
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log := logger.With("web")
	log.Info().Str("addr", s.httpServer.Addr).Msg("starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and stops all sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	log := logger.With("web")
	log.Info().Msg("shutting down web server")

	s.sessionManager.StopAll()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
