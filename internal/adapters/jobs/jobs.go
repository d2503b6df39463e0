// Package jobs tracks the lifecycle of asynchronous analysis requests.
package jobs

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"thumbscope/internal/domain/model"
)

// Status of an async job.
type Status string

// Job statuses.
const (
	StatusQueued Status = "queued"
	StatusDone   Status = "done"
	StatusError  Status = "error"
)

// defaultMaxJobs bounds the registry; the oldest finished-or-not job is
// evicted first.
const defaultMaxJobs = 10_000

// Job is one tracked async analysis.
type Job struct {
	ID     string        `json:"job_id"`
	Status Status        `json:"status"`
	Result *model.Report `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithMaxJobs bounds how many jobs the registry remembers.
func WithMaxJobs(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxJobs = n
		}
	}
}

// Registry is an in-memory, uuid-keyed job table safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string
	maxJobs int
}

// NewRegistry creates a Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		jobs:    make(map[string]*Job),
		maxJobs: defaultMaxJobs,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new queued job and returns its id.
func (r *Registry) Create(_ context.Context) string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[id] = &Job{ID: id, Status: StatusQueued}
	r.order = append(r.order, id)
	for len(r.order) > r.maxJobs {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.jobs, oldest)
	}
	return id
}

// SetResult marks a job as done with its report.
func (r *Registry) SetResult(_ context.Context, id string, report model.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.Status = StatusDone
		j.Result = &report
		j.Error = ""
	}
}

// SetError marks a job as failed.
func (r *Registry) SetError(_ context.Context, id string, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.Status = StatusError
		j.Error = msg
	}
}

// Get returns a snapshot of the job, if known.
func (r *Registry) Get(_ context.Context, id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
