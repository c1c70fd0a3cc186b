package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riverqueue/river"

	"github.com/a2aregistry/backend/internal/models"
	"github.com/a2aregistry/backend/internal/store"
)

const goodCard = `{
	"name": "Echo Agent",
	"description": "Echoes whatever it receives.",
	"url": "https://echo.example.com",
	"skills": [{"id": "echo", "name": "Echo"}]
}`

func cardServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != WellKnownPath {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func seedAgent(t *testing.T, st store.Store, id, url string) {
	t.Helper()
	err := st.Put(context.Background(), &models.AgentRecord{
		ID:             id,
		Card:           models.AgentCard{Name: id, Description: "probe test agent", URL: url},
		RegisteredAt:   time.Now().UTC(),
		HeartbeatToken: "tok",
		Status:         models.AgentStatusOffline,
	})
	if err != nil {
		t.Fatalf("seed agent: %v", err)
	}
}

func TestWork_MarksVerified(t *testing.T) {
	srv := cardServer(t, http.StatusOK, goodCard)
	st := store.NewMemory()
	seedAgent(t, st, "echo", srv.URL)

	w, err := NewVerifyEndpointWorker(st, nil)
	if err != nil {
		t.Fatalf("NewVerifyEndpointWorker: %v", err)
	}
	job := &river.Job[VerifyEndpointArgs]{Args: VerifyEndpointArgs{AgentID: "echo", URL: srv.URL}}
	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("Work: %v", err)
	}

	rec, err := st.Get(context.Background(), "echo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec.Verified {
		t.Error("agent should be verified after a valid well-known card")
	}
}

func TestWork_BadCardDoesNotVerifyOrRetry(t *testing.T) {
	srv := cardServer(t, http.StatusOK, `{"name": "X"}`)
	st := store.NewMemory()
	seedAgent(t, st, "echo", srv.URL)

	w, err := NewVerifyEndpointWorker(st, nil)
	if err != nil {
		t.Fatalf("NewVerifyEndpointWorker: %v", err)
	}
	job := &river.Job[VerifyEndpointArgs]{Args: VerifyEndpointArgs{AgentID: "echo", URL: srv.URL}}
	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("schema failure must not be retried, got %v", err)
	}

	rec, _ := st.Get(context.Background(), "echo")
	if rec.Verified {
		t.Error("agent must not be verified with a card failing the schema")
	}
}

func TestWork_MissingWellKnownReturnsError(t *testing.T) {
	srv := cardServer(t, http.StatusNotFound, "")
	st := store.NewMemory()
	seedAgent(t, st, "echo", srv.URL)

	w, err := NewVerifyEndpointWorker(st, nil)
	if err != nil {
		t.Fatalf("NewVerifyEndpointWorker: %v", err)
	}
	job := &river.Job[VerifyEndpointArgs]{Args: VerifyEndpointArgs{AgentID: "echo", URL: srv.URL}}
	if err := w.Work(context.Background(), job); err == nil {
		t.Fatal("expected an error so the job is retried")
	}
}

func TestWork_AgentDeletedWhileInFlight(t *testing.T) {
	srv := cardServer(t, http.StatusOK, goodCard)
	st := store.NewMemory()

	w, err := NewVerifyEndpointWorker(st, nil)
	if err != nil {
		t.Fatalf("NewVerifyEndpointWorker: %v", err)
	}
	job := &river.Job[VerifyEndpointArgs]{Args: VerifyEndpointArgs{AgentID: "gone", URL: srv.URL}}
	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("deleted agent should not fail the job, got %v", err)
	}
}

func TestFetchCard(t *testing.T) {
	srv := cardServer(t, http.StatusOK, goodCard)

	raw, err := FetchCard(context.Background(), nil, srv.URL+"/")
	if err != nil {
		t.Fatalf("FetchCard: %v", err)
	}
	var card models.AgentCard
	if err := json.Unmarshal(raw, &card); err != nil {
		t.Fatalf("unmarshal fetched card: %v", err)
	}
	if card.Name != "Echo Agent" {
		t.Errorf("name = %q", card.Name)
	}
}

func TestFetchCard_InvalidJSON(t *testing.T) {
	srv := cardServer(t, http.StatusOK, "not json")
	if _, err := FetchCard(context.Background(), nil, srv.URL); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}
