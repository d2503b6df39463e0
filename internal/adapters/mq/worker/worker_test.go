package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"thumbscope/internal/adapters/mq/queue"
	"thumbscope/internal/adapters/mq/worker"
	"thumbscope/internal/domain/model"
	"thumbscope/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type stubAnalyzer struct {
	fail bool
}

func (a *stubAnalyzer) Analyze(_ context.Context, req model.AnalyzeRequest) (model.Report, error) {
	if a.fail {
		return model.Report{}, errors.New("analysis blew up")
	}
	return model.Report{Score: 7.7, SessionID: req.SessionID}, nil
}

type recordingSink struct {
	mu      sync.Mutex
	results map[string]model.Report
	errs    map[string]string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		results: make(map[string]model.Report),
		errs:    make(map[string]string),
	}
}

func (r *recordingSink) SetResult(_ context.Context, id string, report model.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[id] = report
}

func (r *recordingSink) SetError(_ context.Context, id string, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[id] = msg
}

func (r *recordingSink) result(id string) (model.Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.results[id]
	return rep, ok
}

func (r *recordingSink) err(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.errs[id]
	return msg, ok
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestWorkerPool(t *testing.T) {
	Convey("Given a worker pool over an in-memory queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		Reset(cancel)

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		sink := newRecordingSink()

		Convey("When a job succeeds", func() {
			pool := worker.NewPool(2, q, &stubAnalyzer{}, sink)
			pool.Start(ctx)
			defer pool.Stop(ctx)

			So(q.Enqueue(ctx, queue.Job{
				JobID:   "job-1",
				Request: model.AnalyzeRequest{SessionID: "sess"},
			}), ShouldBeTrue)

			Convey("Then the result lands in the sink", func() {
				ok := waitFor(func() bool {
					_, done := sink.result("job-1")
					return done
				})
				So(ok, ShouldBeTrue)
				rep, _ := sink.result("job-1")
				So(rep.Score, ShouldEqual, 7.7)
				So(rep.SessionID, ShouldEqual, "sess")
			})
		})

		Convey("When the analyzer fails", func() {
			pool := worker.NewPool(1, q, &stubAnalyzer{fail: true}, sink)
			pool.Start(ctx)
			defer pool.Stop(ctx)

			So(q.Enqueue(ctx, queue.Job{JobID: "job-2"}), ShouldBeTrue)

			Convey("Then the error is recorded", func() {
				ok := waitFor(func() bool {
					_, failed := sink.err("job-2")
					return failed
				})
				So(ok, ShouldBeTrue)
				msg, _ := sink.err("job-2")
				So(msg, ShouldContainSubstring, "analysis blew up")
			})
		})

		Convey("When the pool is stopped", func() {
			pool := worker.NewPool(2, q, &stubAnalyzer{}, sink)
			pool.Start(ctx)

			Convey("Then Stop returns promptly", func() {
				done := make(chan struct{})
				go func() {
					pool.Stop(ctx)
					close(done)
				}()
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					So("stop timed out", ShouldBeBlank)
				}
			})
		})
	})
}
