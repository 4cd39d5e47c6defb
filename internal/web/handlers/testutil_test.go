package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"facegate/internal/identity"
	"facegate/internal/inference"
	"facegate/internal/records"
	"facegate/internal/verifier"
)

// idleSource is a frame source that never produces a frame, so session scan
// loops stay in their initial state during handler tests.
type idleSource struct{}

func (idleSource) Frame(ctx context.Context) ([]byte, error) {
	return nil, context.Canceled
}

func (idleSource) DetectRegions(ctx context.Context, frame []byte) ([]inference.Detection, error) {
	return nil, nil
}

func (idleSource) RecognizeText(ctx context.Context, region []byte) (string, error) {
	return "", nil
}

func (idleSource) ExtractFaces(ctx context.Context, frame []byte) ([]inference.Detection, error) {
	return nil, nil
}

func testStore(t *testing.T) *records.MemoryStore {
	t.Helper()
	store := records.NewMemoryStore()
	store.Add(identity.Record{
		Identifier:  "2540123",
		Name:        "Jana Dvorakova",
		Descriptors: [][]float32{make([]float32, identity.DescriptorDim)},
	})
	return store
}

func testFactory(t *testing.T, store records.Store) OrchestratorFactory {
	t.Helper()
	return func() (*verifier.Orchestrator, error) {
		snapshot := records.NewSnapshot(nil)
		if err := snapshot.Refresh(context.Background(), store); err != nil {
			return nil, err
		}
		src := idleSource{}
		return verifier.New(verifier.Deps{
			Frames:   src,
			Regions:  src,
			Text:     src,
			Faces:    src,
			Store:    store,
			Snapshot: snapshot,
		}, verifier.Tuning{})
	}
}

// testRouter builds the session and record routes the way the server does,
// so chi URL params resolve in handler tests.
func testRouter(t *testing.T, store records.Store) (*chi.Mux, *SessionManager) {
	t.Helper()

	manager := NewSessionManager(testFactory(t, store), time.Hour, time.Hour)
	t.Cleanup(manager.StopAll)

	sessions := NewSessionsHandler(manager)
	recs := NewRecordsHandler(store)

	r := chi.NewRouter()
	r.Post("/api/v1/sessions", sessions.Start)
	r.Get("/api/v1/sessions/{id}", sessions.Get)
	r.Post("/api/v1/sessions/{id}/reset", sessions.Reset)
	r.Delete("/api/v1/sessions/{id}", sessions.Stop)
	r.Get("/api/v1/sessions/{id}/events", sessions.Events)
	r.Get("/api/v1/records", recs.List)
	return r, manager
}

// parseJSONResponse parses the recorded body into target
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}
