package registry

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/a2aregistry/backend/internal/models"
)

// Request/response structs use snake_case JSON; the embedded agent card
// keeps its A2A camelCase field names.

type RegisterRequest struct {
	Card models.AgentCard `json:"card"`
}

type RegisterResponse struct {
	AgentID        string   `json:"agent_id"`
	HeartbeatToken string   `json:"heartbeat_token"`
	Warnings       []string `json:"warnings"`
	Message        string   `json:"message"`
}

type HeartbeatRequest struct {
	Token   string   `json:"token"`
	Status  string   `json:"status,omitempty"`
	Load    *float64 `json:"load,omitempty"`
	Message *string  `json:"message,omitempty"`
}

type HeartbeatResponse struct {
	LastSeen time.Time `json:"last_seen"`
	Status   string    `json:"status"`
}

type ListResponse struct {
	Agents []*Agent `json:"agents"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

type SearchFilters struct {
	Skill      string `json:"skill,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Q          string `json:"q,omitempty"`
	Capability string `json:"capability,omitempty"`
	Status     string `json:"status,omitempty"`
	Online     *bool  `json:"online,omitempty"`
}

type SearchResponse struct {
	Results []*Agent      `json:"results"`
	Count   int           `json:"count"`
	Filters SearchFilters `json:"filters"`
}

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	reg, err := h.svc.Register(r.Context(), req.Card)
	if err != nil {
		var invalid *InvalidCardError
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":    "invalid agent card",
				"errors":   invalid.Errors,
				"warnings": emptyIfNil(invalid.Warnings),
			})
			return
		}
		h.log.Error("register agent failed", "error", err)
		writeError(w, http.StatusInternalServerError, "register agent failed")
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{
		AgentID:        reg.ID,
		HeartbeatToken: reg.HeartbeatToken,
		Warnings:       emptyIfNil(reg.Warnings),
		Message:        "Agent '" + req.Card.Name + "' registered successfully",
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ListOptions{Status: q.Get("status")}

	var err error
	if opts.Limit, err = intParam(q.Get("limit"), defaultListLimit); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if opts.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}
	if opts.Offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be >= 0")
		return
	}
	if opts.Online, err = boolParam(q.Get("online")); err != nil {
		writeError(w, http.StatusBadRequest, "online must be a boolean")
		return
	}
	// Normalize up front so the response echoes the limit actually applied.
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}

	agents, total, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.log.Error("list agents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list agents failed")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Agents: agents, Total: total, Limit: opts.Limit, Offset: opts.Offset})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := SearchQuery{
		Skill:      q.Get("skill"),
		Tag:        q.Get("tag"),
		Text:       q.Get("q"),
		Capability: q.Get("capability"),
		Status:     q.Get("status"),
	}
	online, err := boolParam(q.Get("online"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "online must be a boolean")
		return
	}
	query.Online = online

	results, err := h.svc.Search(r.Context(), query)
	if err != nil {
		h.log.Error("search agents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search agents failed")
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Results: results,
		Count:   len(results),
		Filters: SearchFilters{
			Skill:      query.Skill,
			Tag:        query.Tag,
			Q:          query.Text,
			Capability: query.Capability,
			Status:     query.Status,
			Online:     query.Online,
		},
	})
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	agent, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "agent not found")
			return
		}
		h.log.Error("get agent failed", "error", err)
		writeError(w, http.StatusInternalServerError, "get agent failed")
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "agent not found")
			return
		}
		h.log.Error("delete agent failed", "error", err)
		writeError(w, http.StatusInternalServerError, "delete agent failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Agent " + id + " removed"})
}

func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	switch req.Status {
	case "", models.AgentStatusOnline, models.AgentStatusOffline, models.AgentStatusBusy:
	default:
		writeError(w, http.StatusBadRequest, "status must be online, offline or busy")
		return
	}
	if req.Load != nil && (*req.Load < 0 || *req.Load > 1) {
		writeError(w, http.StatusBadRequest, "load must be in [0,1]")
		return
	}

	ack, err := h.svc.Heartbeat(r.Context(), r.PathValue("id"), req.Token, HeartbeatUpdate{
		Status:  req.Status,
		Load:    req.Load,
		Message: req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "agent not found")
		case errors.Is(err, ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "invalid heartbeat token")
		default:
			h.log.Error("heartbeat failed", "error", err)
			writeError(w, http.StatusInternalServerError, "heartbeat failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, HeartbeatResponse{LastSeen: ack.LastSeen, Status: ack.Status})
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	res := h.svc.Validate(req.Card)
	res.Errors = emptyIfNil(res.Errors)
	res.Warnings = emptyIfNil(res.Warnings)
	writeJSON(w, http.StatusOK, res)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func boolParam(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
