// Package metrics provides Prometheus metrics for the repsense service.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FrameResult labels the outcome of processing one frame.
type FrameResult string

// Frame outcomes.
const (
	FrameDetected    FrameResult = "detected"
	FrameNoDetection FrameResult = "no_detection"
	FrameError       FrameResult = "error"
)

var defaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100}

// Manager owns the Prometheus collectors for one process. A nil *Manager is valid
// and records nothing.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	enabled        bool
	constLabels    map[string]string
	registry       *prometheus.Registry

	// Detection
	framesProcessed *prometheus.CounterVec
	frameLatency    prometheus.Histogram
	repsCounted     prometheus.Counter
	formScore       prometheus.Histogram

	// Sessions
	activeSessions   prometheus.Gauge
	sessionsFinished prometheus.Counter
	sessionDuration  prometheus.Histogram

	// HTTP
	httpRequests *prometheus.CounterVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry a private
// registry is used so tests can create managers freely.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "repsense",
		subsystem:      "detection",
		latencyBuckets: defaultLatencyBuckets,
		enabled:        true,
		constLabels:    make(map[string]string),
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.framesProcessed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "frames_processed_total",
			Help:        "Total number of keypoint frames processed by result",
			ConstLabels: labels,
		},
		[]string{"result"},
	)

	m.frameLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "frame_latency_milliseconds",
		Help:        "Time spent evaluating one frame in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.repsCounted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "reps_total",
		Help:        "Total number of confirmed pushup repetitions",
		ConstLabels: labels,
	})

	m.formScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rep_form_score",
		Help:        "Form score of confirmed repetitions (0-100)",
		Buckets:     prometheus.LinearBuckets(10, 10, 10),
		ConstLabels: labels,
	})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "session",
		Name:        "active",
		Help:        "Number of sessions currently detecting",
		ConstLabels: labels,
	})

	m.sessionsFinished = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "session",
		Name:        "finished_total",
		Help:        "Total number of finished sessions",
		ConstLabels: labels,
	})

	m.sessionDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "session",
		Name:        "duration_seconds",
		Help:        "Active duration of finished sessions in seconds",
		Buckets:     []float64{15, 30, 60, 120, 180, 240, 300, 600},
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "errors_by_component_total",
			Help:        "Total number of errors by component",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)
}

func (m *Manager) active() bool {
	return m != nil && m.enabled
}

// RecordFrame counts one processed frame and its evaluation latency.
func (m *Manager) RecordFrame(result FrameResult, latency time.Duration) error {
	switch result {
	case FrameDetected, FrameNoDetection, FrameError:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResult, result)
	}
	if !m.active() {
		return nil
	}
	m.framesProcessed.WithLabelValues(string(result)).Inc()
	m.frameLatency.Observe(float64(latency) / float64(time.Millisecond))
	return nil
}

// RecordRep counts a confirmed repetition with its form score.
func (m *Manager) RecordRep(formScore float64) {
	if !m.active() {
		return
	}
	m.repsCounted.Inc()
	m.formScore.Observe(formScore)
}

// SessionStarted increments the active session gauge.
func (m *Manager) SessionStarted() {
	if !m.active() {
		return
	}
	m.activeSessions.Inc()
}

// SessionFinished decrements the active session gauge and records the duration.
func (m *Manager) SessionFinished(duration time.Duration) {
	if !m.active() {
		return
	}
	m.activeSessions.Dec()
	m.sessionsFinished.Inc()
	m.sessionDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method string, statusCode int) {
	if !m.active() {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, fmt.Sprint(statusCode)).Inc()
}

// RecordError records an error with component and type labels.
func (m *Manager) RecordError(component, errorType string) {
	if !m.active() {
		return
	}
	m.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// Registry returns the registry the collectors live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
