// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// submitResponse acknowledges an async submission.
type submitResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// JobsHandler handles async submission and job status lookups.
type JobsHandler struct {
	deps           Dependencies
	maxUploadBytes int64
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps Dependencies, maxUploadBytes int64) *JobsHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &JobsHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// HandleSubmit handles POST /api/v1/thumbnail/analyze/async requests.
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze_async"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	req, err := parseAnalyzeForm(r, h.maxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	jobID, ok := h.deps.EnqueueAnalysis(r.Context(), req)
	if !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{Status: "queued", JobID: jobID})
}

// HandleGetJob handles GET /api/v1/jobs/{id} requests.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	job, ok := h.deps.JobStatus(r.Context(), jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, job)
}
