package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"facegate/internal/verifier"
)

// Events handles GET /api/v1/sessions/{id}/events. It streams orchestrator
// events over SSE until the session reaches a terminal state, the client
// disconnects, or the session is stopped.
func (h *SessionsHandler) Events(w http.ResponseWriter, r *http.Request) {
	session := h.lookup(w, r)
	if session == nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventCh := session.orch.AddListener()
	defer session.orch.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", sessionToResponse(session))

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-eventCh:
			if !open {
				return
			}
			sendSSEEvent(w, flusher, string(event.Type), event)
			if event.Type == verifier.EventVerdict || isTerminalStateEvent(event) {
				return
			}
		}
	}
}

// isTerminalStateEvent reports whether the event announces a terminal state
// other than a fresh reset.
func isTerminalStateEvent(event verifier.Event) bool {
	if event.Type != verifier.EventState {
		return false
	}
	state, ok := event.Data.(verifier.State)
	return ok && state.Terminal()
}

// sendSSEEvent writes one server-sent event.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
