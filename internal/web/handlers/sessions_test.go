package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"facegate/internal/verifier"
)

func TestSessionLifecycle(t *testing.T) {
	router, _ := testRouter(t, testStore(t))

	// Start
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/v1/sessions", nil))
	assertStatusCode(t, recorder, http.StatusCreated)

	var created sessionResponse
	parseJSONResponse(t, recorder, &created)
	if created.ID == "" {
		t.Fatal("expected a session ID")
	}
	if created.Status.State != verifier.StateScanningID {
		t.Errorf("expected new session in SCANNING_ID, got %s", created.Status.State)
	}

	// Get
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/sessions/"+created.ID, nil))
	assertStatusCode(t, recorder, http.StatusOK)

	var fetched sessionResponse
	parseJSONResponse(t, recorder, &fetched)
	if fetched.ID != created.ID {
		t.Errorf("expected session %s, got %s", created.ID, fetched.ID)
	}

	// Reset
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/v1/sessions/"+created.ID+"/reset", nil))
	assertStatusCode(t, recorder, http.StatusOK)

	// Stop
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("DELETE", "/api/v1/sessions/"+created.ID, nil))
	assertStatusCode(t, recorder, http.StatusOK)

	// Gone after stop
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/sessions/"+created.ID, nil))
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestSessionNotFound(t *testing.T) {
	router, _ := testRouter(t, testStore(t))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/sessions/nope", nil))
	assertStatusCode(t, recorder, http.StatusNotFound)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("DELETE", "/api/v1/sessions/nope", nil))
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestSessionManagerStopAll(t *testing.T) {
	_, manager := testRouter(t, testStore(t))

	first, err := manager.Create()
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	second, err := manager.Create()
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	manager.StopAll()

	if manager.Get(first.ID) != nil || manager.Get(second.ID) != nil {
		t.Error("expected all sessions removed after StopAll")
	}
}

func TestResetIsIdempotentOverHTTP(t *testing.T) {
	router, _ := testRouter(t, testStore(t))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/v1/sessions", nil))
	var created sessionResponse
	parseJSONResponse(t, recorder, &created)

	for i := 0; i < 2; i++ {
		recorder = httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/v1/sessions/"+created.ID+"/reset", nil))
		assertStatusCode(t, recorder, http.StatusOK)

		var after sessionResponse
		parseJSONResponse(t, recorder, &after)
		if after.Status.State != verifier.StateScanningID {
			t.Errorf("reset %d: expected SCANNING_ID, got %s", i+1, after.Status.State)
		}
	}
}
