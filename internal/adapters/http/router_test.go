package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akozlenkov/videoqa/internal/core/domain"
	"github.com/akozlenkov/videoqa/internal/core/ports"
)

type fakeAnswerer struct {
	answer     *domain.Answer
	err        error
	increments []string
	streamErr  error
	lastReq    ports.QARequest
}

func (f *fakeAnswerer) Answer(_ context.Context, req ports.QARequest) (*domain.Answer, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *fakeAnswerer) AnswerStream(_ context.Context, req ports.QARequest, emit func(string) error) error {
	f.lastReq = req
	if f.streamErr != nil {
		return f.streamErr
	}
	for _, inc := range f.increments {
		if err := emit(inc); err != nil {
			return err
		}
	}
	return nil
}

type fakeScheduler struct {
	idx *domain.VideoIndex
	err error
}

func (f *fakeScheduler) Schedule(_ context.Context, videoID, namespace string, chunkSize, chunkOverlap int) (*domain.VideoIndex, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.idx != nil {
		return f.idx, nil
	}
	return &domain.VideoIndex{
		VideoID:      videoID,
		Namespace:    namespace,
		Status:       domain.IndexPending,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}, nil
}

type fakeIndexReader struct {
	idx       *domain.VideoIndex
	statusErr error
	deleteErr error
	deleted   []string
}

func (f *fakeIndexReader) Status(_ context.Context, videoID string) (*domain.VideoIndex, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.idx, nil
}

func (f *fakeIndexReader) Delete(_ context.Context, videoID, _ string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, videoID)
	return nil
}

func newTestRouter(answerer *fakeAnswerer, scheduler *fakeScheduler, indexes *fakeIndexReader) http.Handler {
	if answerer == nil {
		answerer = &fakeAnswerer{}
	}
	if scheduler == nil {
		scheduler = &fakeScheduler{}
	}
	if indexes == nil {
		indexes = &fakeIndexReader{}
	}
	return NewRouter(answerer, scheduler, indexes, nil, "api").Handler()
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestScheduleIndexReturnsAccepted(t *testing.T) {
	handler := newTestRouter(nil, &fakeScheduler{}, nil)
	body := strings.NewReader(`{"video_id":"dQw4w9WgXcQ","namespace":"default","chunk_size":1000,"chunk_overlap":200}`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/index", body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var idx domain.VideoIndex
	if err := json.Unmarshal(rec.Body.Bytes(), &idx); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if idx.VideoID != "dQw4w9WgXcQ" || idx.Status != domain.IndexPending {
		t.Fatalf("response = %+v", idx)
	}
}

func TestScheduleIndexMapsInvalidInput(t *testing.T) {
	scheduler := &fakeScheduler{err: domain.WrapError(domain.ErrInvalidInput, "schedule index", errors.New("bad id"))}
	handler := newTestRouter(nil, scheduler, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/index", strings.NewReader(`{"video_id":"bad"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestIndexStatusNotFound(t *testing.T) {
	indexes := &fakeIndexReader{statusErr: domain.WrapError(domain.ErrNotFound, "get video index", errors.New("missing"))}
	handler := newTestRouter(nil, nil, indexes)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/index/status/dQw4w9WgXcQ", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestIndexStatusReturnsRecord(t *testing.T) {
	indexes := &fakeIndexReader{idx: &domain.VideoIndex{VideoID: "dQw4w9WgXcQ", Status: domain.IndexReady, NumChunks: 7}}
	handler := newTestRouter(nil, nil, indexes)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/index/status/dQw4w9WgXcQ", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var idx domain.VideoIndex
	if err := json.Unmarshal(rec.Body.Bytes(), &idx); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if idx.NumChunks != 7 {
		t.Fatalf("response = %+v", idx)
	}
}

func TestDeleteIndex(t *testing.T) {
	indexes := &fakeIndexReader{}
	handler := newTestRouter(nil, nil, indexes)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/index", strings.NewReader(`{"video_id":"dQw4w9WgXcQ"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(indexes.deleted) != 1 || indexes.deleted[0] != "dQw4w9WgXcQ" {
		t.Fatalf("deleted = %v", indexes.deleted)
	}
}

func TestQueryForwardsRequestFields(t *testing.T) {
	answerer := &fakeAnswerer{answer: &domain.Answer{
		Question:      "q",
		Text:          "an answer",
		Citations:     []int{},
		Sources:       []domain.RetrievedChunk{},
		RetrieverType: "hybrid",
	}}
	handler := newTestRouter(answerer, nil, nil)

	body := strings.NewReader(`{"question":"q","video_id":"dQw4w9WgXcQ","top_k":6,"retriever":"hybrid","include_citations":true}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/qa/query", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	req := answerer.lastReq
	if req.Question != "q" || req.VideoID != "dQw4w9WgXcQ" || req.TopK != 6 || req.Retriever != "hybrid" || !req.IncludeCitations {
		t.Fatalf("forwarded request = %+v", req)
	}
}

func TestQueryHidesInternalErrors(t *testing.T) {
	answerer := &fakeAnswerer{err: errors.New("pg: connection refused at 10.0.0.5")}
	handler := newTestRouter(answerer, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/qa/query", strings.NewReader(`{"question":"q"}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestQueryMapsGenerationFailureToBadGateway(t *testing.T) {
	answerer := &fakeAnswerer{err: domain.WrapError(domain.ErrGeneration, "generate answer", errors.New("upstream"))}
	handler := newTestRouter(answerer, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/qa/query", strings.NewReader(`{"question":"q"}`)))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStreamEmitsEventsAndDone(t *testing.T) {
	answerer := &fakeAnswerer{increments: []string{"Neural ", "networks."}}
	handler := newTestRouter(answerer, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/qa/stream", strings.NewReader(`{"question":"q"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `data: {"delta":"Neural "}`) {
		t.Fatalf("missing first delta event:\n%s", body)
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Fatalf("stream must end with [DONE]:\n%s", body)
	}
}

func TestStreamValidationErrorBeforeStart(t *testing.T) {
	answerer := &fakeAnswerer{streamErr: domain.WrapError(domain.ErrInvalidInput, "validate query", errors.New("empty"))}
	handler := newTestRouter(answerer, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/qa/stream", strings.NewReader(`{"question":""}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id header missing")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/qa/query"},
		{http.MethodGet, "/v1/qa/stream"},
		{http.MethodPut, "/v1/index"},
		{http.MethodPost, "/v1/index/status/abc"},
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: status = %d", tc.method, tc.path, rec.Code)
		}
	}
}
