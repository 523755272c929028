// Package httpadapter exposes the QA and indexing use cases over HTTP.
package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/akozlenkov/videoqa/internal/core/ports"
	"github.com/akozlenkov/videoqa/internal/observability/metrics"
)

type Router struct {
	answerer  ports.QuestionAnswerer
	scheduler ports.IndexScheduler
	indexes   ports.IndexReader
	metrics   *metrics.HTTPServerMetrics
	service   string
}

func NewRouter(
	answerer ports.QuestionAnswerer,
	scheduler ports.IndexScheduler,
	indexes ports.IndexReader,
	m *metrics.HTTPServerMetrics,
	service string,
) *Router {
	return &Router{
		answerer:  answerer,
		scheduler: scheduler,
		indexes:   indexes,
		metrics:   m,
		service:   service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/index", rt.index)
	mux.HandleFunc("/v1/index/status/", rt.indexStatus)
	mux.HandleFunc("/v1/qa/query", rt.query)
	mux.HandleFunc("/v1/qa/stream", rt.stream)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type indexRequest struct {
	VideoID      string `json:"video_id"`
	Namespace    string `json:"namespace"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

// index accepts POST to schedule and DELETE to purge.
func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.scheduleIndex(w, r)
	case http.MethodDelete:
		rt.deleteIndex(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) scheduleIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	idx, err := rt.scheduler.Schedule(r.Context(), req.VideoID, req.Namespace, req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, idx)
}

func (rt *Router) deleteIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := rt.indexes.Delete(r.Context(), req.VideoID, req.Namespace); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "video_id": req.VideoID})
}

func (rt *Router) indexStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	videoID := strings.TrimPrefix(r.URL.Path, "/v1/index/status/")
	if videoID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "video id is required"})
		return
	}

	idx, err := rt.indexes.Status(r.Context(), videoID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

type qaRequest struct {
	Question         string `json:"question"`
	VideoID          string `json:"video_id"`
	Namespace        string `json:"namespace"`
	TopK             int    `json:"top_k"`
	Retriever        string `json:"retriever"`
	IncludeCitations bool   `json:"include_citations"`
}

func (q qaRequest) toPort() ports.QARequest {
	return ports.QARequest{
		Question:         q.Question,
		VideoID:          q.VideoID,
		Namespace:        q.Namespace,
		TopK:             q.TopK,
		Retriever:        q.Retriever,
		IncludeCitations: q.IncludeCitations,
	}
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	answer, err := rt.answerer.Answer(r.Context(), req.toPort())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordQAObservation(rt.service, "/v1/qa/query", answer.RetrieverType,
			answer.RetrievedChunks, time.Duration(answer.DurationMS)*time.Millisecond)
		rt.metrics.RecordCitations(rt.service, "/v1/qa/query", len(answer.Citations), answer.NumSources)
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, r, err)
		return
	}

	streamErr := rt.answerer.AnswerStream(r.Context(), req.toPort(), sse.emitDelta)
	if streamErr != nil {
		// Headers may already be out; deliver the failure as a stream event.
		if !sse.started() {
			writeError(w, r, streamErr)
			return
		}
		_ = sse.emitError(streamErr)
		return
	}
	_ = sse.done()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status >= 500 {
		// Internals stay in the logs.
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}
