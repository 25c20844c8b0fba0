package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chat metrics
	ChatRequestsTotal   *prometheus.CounterVec
	ChatDurationSeconds *prometheus.HistogramVec

	// Knowledge fallback metrics
	FallbackRequestsTotal   *prometheus.CounterVec
	FallbackDurationSeconds prometheus.Histogram

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// History metrics
	ActiveChats   prometheus.Gauge
	ChatsPruned   prometheus.Counter
	TurnsAppended *prometheus.CounterVec

	// Singleflight metrics
	FallbackDedupTotal prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ChatRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nau_chat_requests_total",
				Help: "Total number of chat turns by answer source and status",
			},
			[]string{"source", "status"}, // source: predefined, follow_up, fallback, degraded, history; status: success, error
		),

		ChatDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nau_chat_duration_seconds",
				Help:    "Chat turn handling duration in seconds by answer source",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"source"},
		),

		FallbackRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nau_fallback_requests_total",
				Help: "Total number of knowledge fallback calls by model and status",
			},
			[]string{"model", "status"}, // status: success, error, timeout
		),

		FallbackDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nau_fallback_duration_seconds",
				Help:    "Knowledge fallback call duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60}, // Matches 60s fallback timeout
			},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nau_http_errors_total",
				Help: "Total HTTP errors by type and endpoint",
			},
			[]string{"error_type", "endpoint"}, // error_type: bad_request, not_found, internal
		),

		ActiveChats: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "nau_active_chats",
				Help: "Current number of chat sessions in the history store",
			},
		),

		ChatsPruned: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "nau_chats_pruned_total",
				Help: "Total number of chat sessions removed by the history cleanup job",
			},
		),

		TurnsAppended: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nau_turns_appended_total",
				Help: "Total number of conversation turns appended by role",
			},
			[]string{"role"}, // role: user, assistant
		),

		FallbackDedupTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "nau_fallback_dedup_total",
				Help: "Total number of fallback calls deduplicated by singleflight",
			},
		),
	}

	return m
}

// RecordChatRequest increments the chat request counter.
func (m *Metrics) RecordChatRequest(source, status string) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.WithLabelValues(source, status).Inc()
}

// RecordChatDuration observes chat turn handling duration.
func (m *Metrics) RecordChatDuration(source string, seconds float64) {
	if m == nil {
		return
	}
	m.ChatDurationSeconds.WithLabelValues(source).Observe(seconds)
}

// RecordFallback increments the fallback call counter and observes duration.
func (m *Metrics) RecordFallback(model, status string, seconds float64) {
	if m == nil {
		return
	}
	m.FallbackRequestsTotal.WithLabelValues(model, status).Inc()
	m.FallbackDurationSeconds.Observe(seconds)
}

// RecordHTTPError increments the HTTP error counter.
func (m *Metrics) RecordHTTPError(errorType, endpoint string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordTurnAppended increments the appended turn counter.
func (m *Metrics) RecordTurnAppended(role string) {
	if m == nil {
		return
	}
	m.TurnsAppended.WithLabelValues(role).Inc()
}

// RecordFallbackDedup increments the singleflight dedup counter.
func (m *Metrics) RecordFallbackDedup() {
	if m == nil {
		return
	}
	m.FallbackDedupTotal.Inc()
}

// SetActiveChats updates the active chats gauge.
func (m *Metrics) SetActiveChats(n int) {
	if m == nil {
		return
	}
	m.ActiveChats.Set(float64(n))
}

// AddChatsPruned adds to the pruned chats counter.
func (m *Metrics) AddChatsPruned(n int64) {
	if m == nil {
		return
	}
	m.ChatsPruned.Add(float64(n))
}
