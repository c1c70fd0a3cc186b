package router

import (
	"net/http"

	"github.com/a2aregistry/backend/internal/registry"
)

// New returns the API handler. Registry operations live under /api/v1;
// GET /api serves the service descriptor.
func New(h *registry.Handler) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	mux.HandleFunc("POST "+base+"/agents", h.Register)
	mux.HandleFunc("GET "+base+"/agents", h.List)
	// More specific than /agents/{id}, so "search" is never taken as an id.
	mux.HandleFunc("GET "+base+"/agents/search", h.Search)
	mux.HandleFunc("GET "+base+"/agents/{id}", h.GetByID)
	mux.HandleFunc("DELETE "+base+"/agents/{id}", h.DeleteByID)
	mux.HandleFunc("POST "+base+"/agents/{id}/heartbeat", h.Heartbeat)
	mux.HandleFunc("POST "+base+"/validate", h.Validate)

	mux.HandleFunc("GET /api", apiInfo)

	return mux
}

func apiInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{
  "name": "A2A Agent Registry",
  "version": "0.1.0",
  "description": "A public directory for discovering A2A-compatible agents",
  "endpoints": {
    "register": "POST /api/v1/agents",
    "list": "GET /api/v1/agents",
    "get": "GET /api/v1/agents/{agent_id}",
    "delete": "DELETE /api/v1/agents/{agent_id}",
    "heartbeat": "POST /api/v1/agents/{agent_id}/heartbeat",
    "search": "GET /api/v1/agents/search",
    "validate": "POST /api/v1/validate"
  }
}`))
}
