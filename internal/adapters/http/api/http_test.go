package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"thumbscope/internal/adapters/features"
	"thumbscope/internal/adapters/http/api"
	"thumbscope/internal/adapters/jobs"
	"thumbscope/internal/domain/model"
)

type stubDeps struct {
	analyzeErr  error
	enqueueOK   bool
	lastRequest model.AnalyzeRequest
	job         jobs.Job
	jobKnown    bool
	history     []model.SessionEvent
	historyErr  error
}

func (s *stubDeps) Analyze(_ context.Context, req model.AnalyzeRequest) (model.Report, error) {
	s.lastRequest = req
	if s.analyzeErr != nil {
		return model.Report{}, s.analyzeErr
	}
	return model.Report{
		Score:     8.1,
		Review:    []string{"Solid thumbnail (8.1/10); a few targeted improvements can push it further."},
		SessionID: "sess-abc",
		Meta:      model.Diagnostics{Sources: model.SourceHeuristics},
	}, nil
}

func (s *stubDeps) EnqueueAnalysis(_ context.Context, req model.AnalyzeRequest) (string, bool) {
	s.lastRequest = req
	if !s.enqueueOK {
		return "", false
	}
	return "job-123", true
}

func (s *stubDeps) JobStatus(_ context.Context, _ string) (jobs.Job, bool) {
	return s.job, s.jobKnown
}

func (s *stubDeps) SessionHistory(_ context.Context, _ string) ([]model.SessionEvent, error) {
	return s.history, s.historyErr
}

type stubStats struct{}

func (stubStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func multipartBody(includeFile bool, fields map[string]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if includeFile {
		fw, _ := w.CreateFormFile("file", "thumb.png")
		_, _ = fw.Write([]byte("fake image bytes"))
	}
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func newTestMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stubStats{}).Register(context.Background(), mux)
	return mux
}

func TestAnalyzeEndpoint(t *testing.T) {
	Convey("Given the analyze endpoint", t, func() {
		deps := &stubDeps{}
		mux := newTestMux(deps)

		Convey("When posting a valid multipart form", func() {
			body, ctype := multipartBody(true, map[string]string{
				"title":      "My video",
				"session_id": "sess-abc",
				"mode":       "deep",
			})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnail/analyze", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the report comes back as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["status"], ShouldEqual, "ok")
				So(resp["score"], ShouldEqual, 8.1)
				So(resp["session_id"], ShouldEqual, "sess-abc")
			})

			Convey("And the form fields reach the pipeline", func() {
				So(deps.lastRequest.Title, ShouldEqual, "My video")
				So(deps.lastRequest.SessionID, ShouldEqual, "sess-abc")
				So(deps.lastRequest.Mode, ShouldEqual, model.ModeDeep)
				So(string(deps.lastRequest.Image), ShouldEqual, "fake image bytes")
			})
		})

		Convey("When the file part is missing", func() {
			body, ctype := multipartBody(false, map[string]string{"title": "x"})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnail/analyze", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the image cannot be decoded", func() {
			deps.analyzeErr = features.ErrUndecodable
			body, ctype := multipartBody(true, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnail/analyze", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the response is a structured 422", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["code"], ShouldEqual, "image_undecodable")
			})
		})

		Convey("When the pipeline fails internally", func() {
			deps.analyzeErr = errors.New("session store offline")
			body, ctype := multipartBody(true, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnail/analyze", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When using the wrong method", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/thumbnail/analyze", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAsyncEndpoints(t *testing.T) {
	Convey("Given the async endpoints", t, func() {
		deps := &stubDeps{enqueueOK: true}
		mux := newTestMux(deps)

		Convey("When submitting a job", func() {
			body, ctype := multipartBody(true, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnail/analyze/async", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the job id is acknowledged", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["status"], ShouldEqual, "queued")
				So(resp["job_id"], ShouldEqual, "job-123")
			})
		})

		Convey("When the queue is full", func() {
			deps.enqueueOK = false
			body, ctype := multipartBody(true, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnail/analyze/async", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("When fetching a known job", func() {
			deps.job = jobs.Job{ID: "job-123", Status: jobs.StatusDone, Result: &model.Report{Score: 6.4}}
			deps.jobKnown = true
			req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-123", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the job state is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["status"], ShouldEqual, "done")
			})
		})

		Convey("When fetching an unknown job", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSessionHistoryEndpoint(t *testing.T) {
	Convey("Given the session history endpoint", t, func() {
		deps := &stubDeps{
			history: []model.SessionEvent{
				{Score: 7.0, Title: "first", Summary: "ok"},
				{Score: 8.0, Title: "second", Summary: "better"},
			},
		}
		mux := newTestMux(deps)

		Convey("When fetching history", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/sess-abc/history", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then events come back oldest first", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					SessionID string               `json:"session_id"`
					Events    []model.SessionEvent `json:"events"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.SessionID, ShouldEqual, "sess-abc")
				So(resp.Events, ShouldHaveLength, 2)
				So(resp.Events[0].Title, ShouldEqual, "first")
			})
		})

		Convey("When the path has no history suffix", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/sess-abc", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the stats endpoint", t, func() {
		mux := newTestMux(&stubDeps{})

		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		So(rec.Code, ShouldEqual, http.StatusOK)
		var resp map[string]any
		So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
		So(resp["started"], ShouldEqual, true)
	})
}
