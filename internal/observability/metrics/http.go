package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queryRequestsTotal    *prometheus.CounterVec
	queryStreamTotal      *prometheus.CounterVec
	queryNoContextTotal   *prometheus.CounterVec
	queryDuration         *prometheus.HistogramVec
	hardFilterFieldTotal  *prometheus.CounterVec
	fallbackRetryTotal    *prometheus.CounterVec
	penaltyFiredTotal     *prometheus.CounterVec
	cacheHitTotal         *prometheus.CounterVec
	sessionCommitFailures *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranac",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ranac",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ranac",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queryRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranac",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total completed query-pipeline requests by user type.",
		},
		[]string{"service", "user_type"},
	)
	queryStreamTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranac",
			Subsystem: "query",
			Name:      "stream_requests_total",
			Help:      "Total query requests served in streaming mode.",
		},
		[]string{"service"},
	)
	queryNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranac",
			Subsystem: "query",
			Name:      "no_context_total",
			Help:      "Total query requests answered with no retrieved sources.",
		},
		[]string{"service"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ranac",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Full query pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	hardFilterFieldTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranac",
			Subsystem: "retrieve",
			Name:      "hard_filter_field_total",
			Help:      "Which field the filter priority hierarchy selected as the hard filter.",
		},
		[]string{"service", "field"},
	)
	fallbackRetryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranac",
			Subsystem: "retrieve",
			Name:      "fallback_retry_total",
			Help:      "Total retrieval retries with the hard filter dropped after a thin result set.",
		},
		[]string{"service"},
	)
	penaltyFiredTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranac",
			Subsystem: "retrieve",
			Name:      "penalty_fired_total",
			Help:      "Total post-retrieval soft penalties applied, by kind.",
		},
		[]string{"service", "penalty"},
	)
	cacheHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranac",
			Subsystem: "cache",
			Name:      "hit_total",
			Help:      "Total LRU cache lookups by cache name and outcome.",
		},
		[]string{"service", "cache", "outcome"},
	)
	sessionCommitFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranac",
			Subsystem: "session",
			Name:      "commit_failures_total",
			Help:      "Total session commit failures at end-of-request.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryRequestsTotal,
		queryStreamTotal,
		queryNoContextTotal,
		queryDuration,
		hardFilterFieldTotal,
		fallbackRetryTotal,
		penaltyFiredTotal,
		cacheHitTotal,
		sessionCommitFailures,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		queryRequestsTotal:    queryRequestsTotal,
		queryStreamTotal:      queryStreamTotal,
		queryNoContextTotal:   queryNoContextTotal,
		queryDuration:         queryDuration,
		hardFilterFieldTotal:  hardFilterFieldTotal,
		fallbackRetryTotal:    fallbackRetryTotal,
		penaltyFiredTotal:     penaltyFiredTotal,
		cacheHitTotal:         cacheHitTotal,
		sessionCommitFailures: sessionCommitFailures,
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
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/sessions/"):
		return "/v1/sessions/{session_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordQuery(service, userType string, stream bool, sourceCount int, duration time.Duration) {
	m.queryRequestsTotal.WithLabelValues(service, userType).Inc()
	m.queryDuration.WithLabelValues(service).Observe(duration.Seconds())
	if stream {
		m.queryStreamTotal.WithLabelValues(service).Inc()
	}
	if sourceCount == 0 {
		m.queryNoContextTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordHardFilterField(service, field string) {
	if field == "" {
		field = "none"
	}
	m.hardFilterFieldTotal.WithLabelValues(service, field).Inc()
}

func (m *HTTPServerMetrics) RecordFallbackRetry(service string) {
	m.fallbackRetryTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordPenalty(service, penalty string) {
	m.penaltyFiredTotal.WithLabelValues(service, penalty).Inc()
}

func (m *HTTPServerMetrics) RecordCacheLookup(service, cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheHitTotal.WithLabelValues(service, cache, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordSessionCommitFailure(service string) {
	m.sessionCommitFailures.WithLabelValues(service).Inc()
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

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
