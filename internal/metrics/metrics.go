// Package metrics provides Prometheus metrics for the chat backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors used by the services and router.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Chat pipeline metrics
	ChatRequestsTotal    *prometheus.CounterVec
	CompletionDuration   prometheus.Histogram
	CompletionTokens     *prometheus.CounterVec
	PromptMessages       prometheus.Histogram
	ProfileNamesDetected prometheus.Counter

	// Transcript store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	ActiveSessions prometheus.Gauge
}

// New creates and registers all collectors on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ChatRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_chat_requests_total",
				Help: "Chat requests by outcome",
			},
			[]string{"outcome"},
		),
		CompletionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assistant_completion_duration_seconds",
				Help:    "Duration of completion provider calls in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2, 4, 8, 15, 30},
			},
		),
		CompletionTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_completion_tokens_total",
				Help: "Tokens reported by the completion provider",
			},
			[]string{"direction"},
		),
		PromptMessages: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assistant_prompt_messages",
				Help:    "Number of messages sent per completion request",
				Buckets: prometheus.LinearBuckets(2, 4, 8),
			},
		),
		ProfileNamesDetected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "assistant_profile_names_detected_total",
				Help: "Chat requests whose history yielded a user name",
			},
		),
		StoreOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_store_operations_total",
				Help: "Transcript store operations by outcome",
			},
			[]string{"operation", "status"},
		),
		StoreOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_store_operation_duration_seconds",
				Help:    "Duration of transcript store operations in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "assistant_active_sessions",
				Help: "Sessions with activity inside the tracker window",
			},
		),
	}
}

// ObserveStore records the outcome and latency of one store call.
func (m *Metrics) ObserveStore(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
