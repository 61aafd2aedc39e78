package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for iris-gate.
// It also observes tool calls and IRIS round trips.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	ToolCallsTotal      *prometheus.CounterVec
	ToolCallDuration    *prometheus.HistogramVec
	IRISRequestsTotal   *prometheus.CounterVec
	IRISRequestDuration *prometheus.HistogramVec
	AuthFailuresTotal   prometheus.Counter
	RateLimitedTotal    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "irisgate",
				Name:      "requests_total",
				Help:      "Total number of MCP HTTP requests processed",
			},
			[]string{"method", "status"}, // method=POST, status=ok/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "irisgate",
				Name:      "request_duration_seconds",
				Help:      "MCP HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ToolCallsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "irisgate",
				Name:      "tool_calls_total",
				Help:      "Total tool calls by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		ToolCallDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "irisgate",
				Name:      "tool_call_duration_seconds",
				Help:      "Tool call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		IRISRequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "irisgate",
				Name:      "iris_requests_total",
				Help:      "Total DFIR-IRIS API requests by operation and outcome",
			},
			[]string{"method", "outcome"},
		),
		IRISRequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "irisgate",
				Name:      "iris_request_duration_seconds",
				Help:      "DFIR-IRIS API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		AuthFailuresTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "irisgate",
				Name:      "auth_failures_total",
				Help:      "Requests rejected for a missing or invalid API key",
			},
		),
		RateLimitedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "irisgate",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-caller rate limit",
			},
		),
	}
}

// ObserveToolCall records one tool call.
func (m *Metrics) ObserveToolCall(tool, outcome string, elapsed time.Duration) {
	m.ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveRequest records one IRIS round trip.
func (m *Metrics) ObserveRequest(method, outcome string, elapsed time.Duration) {
	m.IRISRequestsTotal.WithLabelValues(method, outcome).Inc()
	m.IRISRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
