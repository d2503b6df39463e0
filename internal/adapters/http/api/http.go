// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"thumbscope/internal/adapters/jobs"
	"thumbscope/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Analyze runs the scoring pipeline synchronously.
	Analyze(ctx context.Context, req model.AnalyzeRequest) (model.Report, error)

	// EnqueueAnalysis submits a request for async processing. Returns the
	// job ID, or ok=false on backpressure.
	EnqueueAnalysis(ctx context.Context, req model.AnalyzeRequest) (string, bool)

	// JobStatus reports the state of a previously submitted job.
	JobStatus(ctx context.Context, jobID string) (jobs.Job, bool)

	// SessionHistory returns all recorded events for a session, oldest
	// first.
	SessionHistory(ctx context.Context, sessionID string) ([]model.SessionEvent, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	analyzeHandler  *AnalyzeHandler
	jobsHandler     *JobsHandler
	sessionsHandler *SessionsHandler
}

// Option customizes Server construction.
type Option func(*serverOptions)

type serverOptions struct {
	maxUploadBytes int64
}

// WithMaxUploadBytes bounds the accepted multipart body size.
func WithMaxUploadBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{maxUploadBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		analyzeHandler:  NewAnalyzeHandler(deps, o.maxUploadBytes),
		jobsHandler:     NewJobsHandler(deps, o.maxUploadBytes),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/thumbnail/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/api/v1/thumbnail/analyze/async", MetricsMiddleware(s.jobsHandler.HandleSubmit, "analyze_async"))
	mux.HandleFunc("/api/v1/jobs/", MetricsMiddleware(s.jobsHandler.HandleGetJob, "jobs"))
	mux.HandleFunc("/api/v1/sessions/", MetricsMiddleware(s.sessionsHandler.HandleGetHistory, "sessions"))
}

// analyzeResponse mirrors the wire shape for a completed analysis.
type analyzeResponse struct {
	Status    string            `json:"status"`
	Score     float64           `json:"score"`
	Review    []string          `json:"review"`
	Aspects   model.AspectSet   `json:"aspects"`
	Meta      model.Diagnostics `json:"meta"`
	SessionID string            `json:"session_id"`
}

func toAnalyzeResponse(rep model.Report) analyzeResponse {
	return analyzeResponse{
		Status:    "ok",
		Score:     rep.Score,
		Review:    rep.Review,
		Aspects:   rep.Aspects,
		Meta:      rep.Meta,
		SessionID: rep.SessionID,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
