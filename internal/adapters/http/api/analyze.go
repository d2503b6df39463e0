// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"io"
	"net/http"

	"thumbscope/internal/adapters/features"
	"thumbscope/internal/domain/model"
)

const defaultMaxUploadBytes = 10 << 20

// AnalyzeHandler handles synchronous thumbnail analysis requests.
type AnalyzeHandler struct {
	deps           Dependencies
	maxUploadBytes int64
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Dependencies, maxUploadBytes int64) *AnalyzeHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &AnalyzeHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// HandleAnalyze handles POST /api/v1/thumbnail/analyze requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	req, err := parseAnalyzeForm(r, h.maxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rep, err := h.deps.Analyze(r.Context(), req)
	if err != nil {
		if errors.Is(err, features.ErrUndecodable) {
			writeError(w, http.StatusUnprocessableEntity, "image_undecodable", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalyzeResponse(rep))
}

// parseAnalyzeForm extracts an AnalyzeRequest from a multipart form. The
// image field is required; everything else has a default.
func parseAnalyzeForm(r *http.Request, maxBytes int64) (model.AnalyzeRequest, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return model.AnalyzeRequest{}, errors.New("invalid multipart form")
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return model.AnalyzeRequest{}, errors.New("missing file")
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return model.AnalyzeRequest{}, errors.New("unreadable file")
	}
	if len(data) == 0 {
		return model.AnalyzeRequest{}, errors.New("empty file")
	}

	return model.AnalyzeRequest{
		Image:       data,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		SessionID:   r.FormValue("session_id"),
		Mode:        model.ParseMode(r.FormValue("mode")),
	}, nil
}
