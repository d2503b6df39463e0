// Package worker drains the async job queue through the analysis
// pipeline and records outcomes in the job registry.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"thumbscope/internal/adapters/mq/queue"
	"thumbscope/internal/domain/model"
	"thumbscope/pkg/logger"
	"thumbscope/pkg/metrics"
)

// Analyzer runs one analysis request end to end.
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalyzeRequest) (model.Report, error)
}

// Recorder stores async job outcomes.
type Recorder interface {
	SetResult(ctx context.Context, id string, report model.Report)
	SetError(ctx context.Context, id string, msg string)
}

// Source defines how workers receive jobs.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// Worker processes queued jobs until stopped.
type Worker struct {
	source   Source
	analyzer Analyzer
	recorder Recorder
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker.
func NewWorker(source Source, analyzer Analyzer, recorder Recorder, opts ...Option) *Worker {
	w := &Worker{
		source:   source,
		analyzer: analyzer,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop until ctx is canceled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight job.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "worker shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	report, err := w.analyzer.Analyze(ctx, job.Request)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "async analysis failed",
			logger.String("jobID", job.JobID),
			logger.Error(err),
		)
		w.recorder.SetError(ctx, job.JobID, err.Error())
		return
	}

	w.recorder.SetResult(ctx, job.JobID, report)
	w.logger.Debug(ctx, "async analysis complete",
		logger.String("jobID", job.JobID),
		logger.Float64("score", report.Score),
	)
}

// Pool manages a fixed set of workers.
type Pool struct {
	workers []*Worker
}

// NewPool creates workerCount workers over the same source.
func NewPool(workerCount int, source Source, analyzer Analyzer, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{workers: make([]*Worker, workerCount)}
	for i := range p.workers {
		p.workers[i] = NewWorker(source, analyzer, recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop shuts the pool down, bounding the wait per worker.
func (p *Pool) Stop(ctx context.Context) {
	for _, w := range p.workers {
		_ = w.Shutdown(ctx)
	}
	metrics.UpdateWorkerCount(0)
}
