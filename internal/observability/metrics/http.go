package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics holds the api-side registry. A private registry keeps the
// scrape output limited to what this service registers.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	qaRequestsTotal      *prometheus.CounterVec
	qaRetrieverTotal     *prometheus.CounterVec
	qaRetrievalHitTotal  *prometheus.CounterVec
	qaNoContextTotal     *prometheus.CounterVec
	qaRetrievedChunks    *prometheus.HistogramVec
	qaDuration           *prometheus.HistogramVec
	qaCitationsTotal     *prometheus.CounterVec
	qaValidSourcesChunks *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videoqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "videoqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	qaRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoqa",
			Subsystem: "qa",
			Name:      "requests_total",
			Help:      "Total successful QA requests.",
		},
		[]string{"service", "endpoint"},
	)
	qaRetrieverTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoqa",
			Subsystem: "qa",
			Name:      "retriever_requests_total",
			Help:      "Total successful QA requests by retriever strategy.",
		},
		[]string{"service", "endpoint", "retriever"},
	)
	qaRetrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoqa",
			Subsystem: "qa",
			Name:      "retrieval_hit_total",
			Help:      "Total QA requests with at least one retrieved chunk.",
		},
		[]string{"service", "endpoint"},
	)
	qaNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoqa",
			Subsystem: "qa",
			Name:      "no_context_total",
			Help:      "Total QA requests answered without retrieved context.",
		},
		[]string{"service", "endpoint"},
	)
	qaRetrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videoqa",
			Subsystem: "qa",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful QA request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	qaDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videoqa",
			Subsystem: "qa",
			Name:      "duration_seconds",
			Help:      "QA pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	qaCitationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoqa",
			Subsystem: "qa",
			Name:      "citations_total",
			Help:      "Total citation markers extracted from generated answers.",
		},
		[]string{"service", "endpoint"},
	)
	qaValidSourcesChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videoqa",
			Subsystem: "qa",
			Name:      "valid_sources",
			Help:      "Distribution of resolved citation sources per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		qaRequestsTotal,
		qaRetrieverTotal,
		qaRetrievalHitTotal,
		qaNoContextTotal,
		qaRetrievedChunks,
		qaDuration,
		qaCitationsTotal,
		qaValidSourcesChunks,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		qaRequestsTotal:      qaRequestsTotal,
		qaRetrieverTotal:     qaRetrieverTotal,
		qaRetrievalHitTotal:  qaRetrievalHitTotal,
		qaNoContextTotal:     qaNoContextTotal,
		qaRetrievedChunks:    qaRetrievedChunks,
		qaDuration:           qaDuration,
		qaCitationsTotal:     qaCitationsTotal,
		qaValidSourcesChunks: qaValidSourcesChunks,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/index/status/"):
		return "/v1/index/status/{video_id}"
	default:
		return path
	}
}

// RecordQAObservation tracks one completed QA request.
func (m *HTTPServerMetrics) RecordQAObservation(service, endpoint, retriever string, retrievedChunks int, duration time.Duration) {
	if retriever == "" {
		retriever = "unknown"
	}
	m.qaRequestsTotal.WithLabelValues(service, endpoint).Inc()
	m.qaRetrieverTotal.WithLabelValues(service, endpoint, retriever).Inc()
	m.qaRetrievedChunks.WithLabelValues(service, endpoint).Observe(float64(retrievedChunks))
	m.qaDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())

	if retrievedChunks > 0 {
		m.qaRetrievalHitTotal.WithLabelValues(service, endpoint).Inc()
		return
	}
	m.qaNoContextTotal.WithLabelValues(service, endpoint).Inc()
}

func (m *HTTPServerMetrics) RecordCitations(service, endpoint string, citations, validSources int) {
	if citations > 0 {
		m.qaCitationsTotal.WithLabelValues(service, endpoint).Add(float64(citations))
	}
	m.qaValidSourcesChunks.WithLabelValues(service, endpoint).Observe(float64(validSources))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

