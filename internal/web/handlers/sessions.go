package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"facegate/internal/logger"
	"facegate/internal/verifier"
)

// OrchestratorFactory builds a fresh orchestrator for each session. The
// factory owns the wiring of inference clients and record views.
type OrchestratorFactory func() (*verifier.Orchestrator, error)

// Session is one running verification session with its scan loops.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	orch   *verifier.Orchestrator
	cancel context.CancelFunc
}

// Status returns the live session status.
func (s *Session) Status() verifier.Status {
	return s.orch.Status()
}

// SessionManager creates, tracks, and stops verification sessions.
type SessionManager struct {
	factory  OrchestratorFactory
	idTick   time.Duration
	faceTick time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a session manager.
func NewSessionManager(factory OrchestratorFactory, idTick, faceTick time.Duration) *SessionManager {
	return &SessionManager{
		factory:  factory,
		idTick:   idTick,
		faceTick: faceTick,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with running scan loops.
func (m *SessionManager) Create() (*Session, error) {
	orch, err := m.factory()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		orch:      orch,
		cancel:    cancel,
	}

	runner := verifier.NewRunner(orch, m.idTick, m.faceTick)
	go runner.Run(ctx)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	log := logger.With("sessions")
	log.Info().Str("session_id", session.ID).Msg("session started")
	return session, nil
}

// Get returns a session by ID, or nil.
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Stop cancels a session's scan loops and removes it. It reports whether
// the session existed.
func (m *SessionManager) Stop(id string) bool {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	session.cancel()
	log := logger.With("sessions")
	log.Info().Str("session_id", id).Msg("session stopped")
	return true
}

// StopAll cancels every session; called on server shutdown.
func (m *SessionManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		session.cancel()
		delete(m.sessions, id)
	}
}

// SessionsHandler handles session lifecycle endpoints.
type SessionsHandler struct {
	manager *SessionManager
}

// NewSessionsHandler creates a sessions handler.
func NewSessionsHandler(manager *SessionManager) *SessionsHandler {
	return &SessionsHandler{manager: manager}
}

type sessionResponse struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Status    verifier.Status `json:"status"`
}

func sessionToResponse(s *Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Status:    s.Status(),
	}
}

// Start handles POST /api/v1/sessions.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Create()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "failed to start session: "+err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, sessionToResponse(session))
}

// Get handles GET /api/v1/sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := h.lookup(w, r)
	if session == nil {
		return
	}
	respondJSON(w, http.StatusOK, sessionToResponse(session))
}

// Reset handles POST /api/v1/sessions/{id}/reset. Valid from every state
// and idempotent.
func (h *SessionsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session := h.lookup(w, r)
	if session == nil {
		return
	}
	session.orch.Reset()
	respondJSON(w, http.StatusOK, sessionToResponse(session))
}

// Stop handles DELETE /api/v1/sessions/{id}.
func (h *SessionsHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return
	}
	if !h.manager.Stop(id) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request) *Session {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return nil
	}
	session := h.manager.Get(id)
	if session == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return session
}
