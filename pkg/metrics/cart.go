package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics tracks handler outcomes, remote calls and offline queue activity.
type CartMetrics struct {
	outcomes      *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	queue         *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
	sessions      prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solecart_handler_outcomes_total",
		Help: "Cart handler results by operation and outcome kind.",
	}, []string{"operation", "outcome"})
	remoteLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solecart_remote_request_duration_seconds",
		Help:    "Latency of calls to the remote storefront services.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})
	queue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solecart_offline_queue_events_total",
		Help: "Offline mutation queue events by kind and result.",
	}, []string{"kind", "event"})
	breakerState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "solecart_remote_breaker_state",
		Help: "Circuit breaker state per remote (0 closed, 1 half-open, 2 open).",
	}, []string{"breaker"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solecart_active_sessions",
		Help: "Sessions currently held in memory.",
	})
	reg.MustRegister(outcomes, remoteLatency, queue, breakerState, sessions)
	return &CartMetrics{
		outcomes:      outcomes,
		remoteLatency: remoteLatency,
		queue:         queue,
		breakerState:  breakerState,
		sessions:      sessions,
	}
}

// ObserveOutcome counts one handler result.
func (m *CartMetrics) ObserveOutcome(operation, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// ObserveRemote records a remote call. status 0 means no response was received.
func (m *CartMetrics) ObserveRemote(endpoint string, status int, duration time.Duration) {
	if m == nil || m.remoteLatency == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.remoteLatency.WithLabelValues(normalizeLabel(endpoint), label).Observe(duration.Seconds())
}

// ObserveQueue counts an offline queue event such as enqueued, replayed or failed.
func (m *CartMetrics) ObserveQueue(kind, event string) {
	if m == nil || m.queue == nil {
		return
	}
	m.queue.WithLabelValues(normalizeLabel(kind), normalizeLabel(event)).Inc()
}

// SetBreakerState publishes the numeric breaker state.
func (m *CartMetrics) SetBreakerState(name string, state int) {
	if m == nil || m.breakerState == nil {
		return
	}
	m.breakerState.WithLabelValues(normalizeLabel(name)).Set(float64(state))
}

// SetActiveSessions publishes the in-memory session count.
func (m *CartMetrics) SetActiveSessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}
