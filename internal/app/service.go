// Package service provides the core analysis service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"thumbscope/internal/adapters/features"
	"thumbscope/internal/adapters/jobs"
	jobqueue "thumbscope/internal/adapters/mq/queue"
	workerpool "thumbscope/internal/adapters/mq/worker"
	"thumbscope/internal/adapters/session"
	"thumbscope/internal/adapters/vision"
	"thumbscope/internal/domain/dedupe"
	"thumbscope/internal/domain/model"
	"thumbscope/internal/domain/rating"
	"thumbscope/internal/domain/review"
	"thumbscope/internal/domain/scoring"
	"thumbscope/pkg/logger"
	"thumbscope/pkg/metrics"
)

// Degraded-mode reasons reported in analysis metadata.
const (
	reasonModelDisabled = "model disabled"
	reasonModelTimeout  = "model call timed out"
)

// Default timeout budgets per analysis mode.
const (
	defaultQuickTimeout = 45 * time.Second
	defaultDeepTimeout  = 60 * time.Second
)

// Service implements the API dependencies for the thumbnail analyzer.
type Service struct {
	mu sync.RWMutex

	// Core components
	extractor  *features.Extractor
	rater      *vision.Rater
	sessions   session.Store
	detector   dedupe.Detector
	calibrator *scoring.Calibrator
	composer   *review.Composer
	jobQueue   jobqueue.Queue
	registry   *jobs.Registry
	workerPool *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	maxTrackedJobs int
	dedupeDistance int
	quickTimeout   time.Duration
	deepTimeout    time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxTrackedJobs bounds the async job registry.
func WithMaxTrackedJobs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTrackedJobs = n
		}
	}
}

// WithRater sets the remote model rater. A nil or disabled rater keeps
// the pipeline in heuristics-only mode.
func WithRater(r *vision.Rater) Option {
	return func(s *Service) {
		s.rater = r
	}
}

// WithSessionStore sets the session history backend.
func WithSessionStore(st session.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.sessions = st
		}
	}
}

// WithDedupeDistance sets the perceptual-hash distance under which two
// uploads count as the same thumbnail.
func WithDedupeDistance(d int) Option {
	return func(s *Service) {
		if d > 0 {
			s.dedupeDistance = d
		}
	}
}

// WithModeTimeouts sets the per-mode model call budgets.
func WithModeTimeouts(quick, deep time.Duration) Option {
	return func(s *Service) {
		if quick > 0 {
			s.quickTimeout = quick
		}
		if deep > 0 {
			s.deepTimeout = deep
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		maxTrackedJobs: 10_000,
		dedupeDistance: 0, // detector default applies
		quickTimeout:   defaultQuickTimeout,
		deepTimeout:    defaultDeepTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting thumbnail analysis service...")

	s.extractor = features.NewExtractor()
	s.calibrator = scoring.NewCalibrator()
	s.composer = review.NewComposer()
	if s.sessions == nil {
		s.sessions = session.NewMemStore()
	}
	var detectorOpts []dedupe.Option
	if s.dedupeDistance > 0 {
		detectorOpts = append(detectorOpts, dedupe.WithDistanceThreshold(s.dedupeDistance))
	}
	s.detector = dedupe.NewInMemoryDetector(detectorOpts...)
	s.registry = jobs.NewRegistry(jobs.WithMaxJobs(s.maxTrackedJobs))
	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))

	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s.registry)
	s.workerPool.Start(ctx)
	metrics.UpdateWorkerCount(s.workerCount)

	s.started = true
	s.logger.Info(ctx, "thumbnail analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("modelEnabled", s.modelEnabled()),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping thumbnail analysis service...")

	if s.jobQueue != nil {
		_ = s.jobQueue.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop(ctx)
	}
	if s.sessions != nil {
		_ = s.sessions.Close()
	}

	s.started = false
	s.logger.Info(ctx, "thumbnail analysis service stopped")
}

func (s *Service) modelEnabled() bool {
	return s.rater != nil && s.rater.Enabled()
}

// Analyze runs the full pipeline for one thumbnail: pixel features,
// optional model rating, merge, calibration, review composition, and
// session bookkeeping.
func (s *Service) Analyze(ctx context.Context, req model.AnalyzeRequest) (model.Report, error) {
	start := time.Now()

	sessionID, err := s.sessions.GetOrCreate(ctx, req.SessionID)
	if err != nil {
		return model.Report{}, fmt.Errorf("session lookup: %w", err)
	}

	feats, img, err := s.extractor.Extract(ctx, req.Image)
	if err != nil {
		return model.Report{}, err
	}

	history, err := s.sessions.Summarize(ctx, sessionID)
	if err != nil {
		s.logger.Warn(ctx, "session digest failed", logger.Error(err))
		history = ""
	}

	// The model call and the perceptual hash are independent; run them
	// concurrently since the model round trip dominates latency.
	var (
		op             rating.Opinion
		modelLatencyMS int64
		repeat         bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		op, modelLatencyMS = s.rate(gctx, req, feats, history)
		return nil
	})
	g.Go(func() error {
		repeat = s.detector.SeenAndRecord(gctx, sessionID, img)
		return nil
	})
	_ = g.Wait()

	if repeat {
		metrics.RecordRepeatSubmission()
	}

	merged, source := scoring.Merge(op, feats, true)
	aspects, score := s.calibrator.Calibrate(merged, op.Verdict)

	heuristic := scoring.HeuristicScore(feats.Brightness, feats.Contrast, feats.AspectRatioFit)
	engagement := scoring.Engagement(heuristic, aspects.VisualClarity, op.Verdict)

	lines := s.composer.Compose(review.Input{
		Score:         score,
		Aspects:       aspects,
		Opinion:       op,
		Engagement:    engagement,
		HasEngagement: true,
	})

	rep := model.Report{
		Score:   score,
		Review:  lines,
		Aspects: aspects,
		Meta: model.Diagnostics{
			ModelUsed:        !op.Degraded,
			DegradedReason:   op.DegradedReason,
			RepeatSubmission: repeat,
			EngagementScore:  engagement,
			Features:         feats,
			Sources:          source,
			ModelLatencyMS:   modelLatencyMS,
		},
		SessionID: sessionID,
	}

	summary := ""
	if len(lines) > 0 {
		summary = lines[0]
	}
	if err := s.sessions.Append(ctx, sessionID, model.SessionEvent{
		Score:   score,
		Title:   req.Title,
		Summary: summary,
	}); err != nil {
		s.logger.Warn(ctx, "session append failed",
			logger.String("sessionID", sessionID),
			logger.Error(err),
		)
	}
	metrics.UpdateSessionCount(s.sessions.Count(ctx))

	metrics.RecordAnalysis(string(source))
	metrics.RecordAnalysisLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordScore(score)

	return rep, nil
}

// rate calls the remote model under the mode's timeout budget. Any
// failure degrades to a no-model opinion instead of failing the request.
// The second return value is the model round-trip latency in ms.
func (s *Service) rate(ctx context.Context, req model.AnalyzeRequest, feats model.FeatureSet, history string) (rating.Opinion, int64) {
	if !s.modelEnabled() {
		metrics.RecordModelCall("disabled")
		return rating.Degrade(reasonModelDisabled, ""), 0
	}

	budget := s.quickTimeout
	if req.Mode == model.ModeDeep {
		budget = s.deepTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	start := time.Now()
	op, err := s.rater.Rate(callCtx, req.Image, vision.Context{
		Title:       req.Title,
		Description: req.Description,
		Features:    feats,
		History:     history,
	})
	latency := time.Since(start)
	metrics.RecordModelLatency(float64(latency.Milliseconds()))

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.RecordModelCall("timeout")
			s.logger.Warn(ctx, "model call timed out",
				logger.String("mode", string(req.Mode)),
			)
			return rating.Degrade(reasonModelTimeout, ""), latency.Milliseconds()
		}
		metrics.RecordModelCall("error")
		s.logger.Warn(ctx, "model call failed", logger.Error(err))
		return rating.Degrade("model error: "+err.Error(), ""), latency.Milliseconds()
	}

	if op.Degraded {
		metrics.RecordModelCall("degraded")
	} else {
		metrics.RecordModelCall("ok")
	}
	return op, latency.Milliseconds()
}

// EnqueueAnalysis submits a request for asynchronous processing. Returns
// the job id, or ok=false on backpressure.
func (s *Service) EnqueueAnalysis(ctx context.Context, req model.AnalyzeRequest) (string, bool) {
	jobID := s.registry.Create(ctx)
	if ok := s.jobQueue.Enqueue(ctx, jobqueue.Job{JobID: jobID, Request: req}); !ok {
		s.registry.SetError(ctx, jobID, "queue full")
		return "", false
	}
	metrics.UpdateQueueSize(s.jobQueue.Len(ctx))
	return jobID, true
}

// JobStatus reports the state of a previously submitted job.
func (s *Service) JobStatus(ctx context.Context, jobID string) (jobs.Job, bool) {
	return s.registry.Get(ctx, jobID)
}

// SessionHistory returns all recorded events for a session, oldest first.
func (s *Service) SessionHistory(ctx context.Context, sessionID string) ([]model.SessionEvent, error) {
	return s.sessions.History(ctx, sessionID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"modelEnabled": s.modelEnabled(),
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["sessions"] = s.sessions.Count(ctx)
		stats["trackedJobs"] = s.registry.Len()
		stats["dedupeEntries"] = s.detector.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateSessionCount(s.sessions.Count(ctx))
	}

	return stats
}
