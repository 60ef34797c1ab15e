package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects chat pipeline metrics.
type Metrics interface {
	// RecordChat counts a completed chat turn by answer source
	RecordChat(source string, duration time.Duration)
	// RecordChatError counts a chat request that failed at stage
	RecordChatError(stage string)
	// RecordRateLimited counts a request rejected by the limiter
	RecordRateLimited()
	// RecordPersistenceFailure counts a best-effort store operation that failed
	RecordPersistenceFailure(operation string)
}

// PrometheusMetrics implements Metrics on a dedicated registry
type PrometheusMetrics struct {
	registry *prometheus.Registry

	chatRequests        *prometheus.CounterVec
	chatLatency         *prometheus.HistogramVec
	chatErrors          *prometheus.CounterVec
	rateLimited         prometheus.Counter
	persistenceFailures *prometheus.CounterVec
}

// NewPrometheusMetrics registers the chat metrics plus Go runtime collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,

		chatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_chat_requests_total",
			Help: "Total number of answered chat requests by source",
		}, []string{"source"}),

		chatLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_chat_request_duration_seconds",
			Help:    "Chat request latency in seconds by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"source"}),

		chatErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_chat_errors_total",
			Help: "Total number of failed chat requests by stage",
		}, []string{"stage"}),

		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_chat_rate_limited_total",
			Help: "Total number of chat requests rejected by the rate limiter",
		}),

		persistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_chat_persistence_failures_total",
			Help: "Total number of failed best-effort session store operations",
		}, []string{"operation"}),
	}
}

func (m *PrometheusMetrics) RecordChat(source string, duration time.Duration) {
	m.chatRequests.WithLabelValues(source).Inc()
	m.chatLatency.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordChatError(stage string) {
	m.chatErrors.WithLabelValues(stage).Inc()
}

func (m *PrometheusMetrics) RecordRateLimited() {
	m.rateLimited.Inc()
}

func (m *PrometheusMetrics) RecordPersistenceFailure(operation string) {
	m.persistenceFailures.WithLabelValues(operation).Inc()
}

// Registry exposes the underlying registry, mostly for tests
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) RecordChat(string, time.Duration) {}
func (NopMetrics) RecordChatError(string) {}
func (NopMetrics) RecordRateLimited() {}
func (NopMetrics) RecordPersistenceFailure(string) {}
