// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"thumbscope/internal/domain/model"
)

// historyResponse mirrors the wire shape for a session history read.
type historyResponse struct {
	SessionID string               `json:"session_id"`
	Events    []model.SessionEvent `json:"events"`
}

// SessionsHandler handles session history lookups.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleGetHistory handles GET /api/v1/sessions/{id}/history requests.
func (h *SessionsHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	sessionID, tail, found := strings.Cut(rest, "/")
	if !found || tail != "history" || sessionID == "" {
		http.NotFound(w, r)
		return
	}
	events, err := h.deps.SessionHistory(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	}
	if events == nil {
		events = []model.SessionEvent{}
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Events: events})
}
