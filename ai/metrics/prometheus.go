// Package metrics provides Prometheus metrics export for the orchestration hub.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the narrow view the AI layers depend on.
// A nil *PrometheusExporter is a valid no-op Recorder.
type Recorder interface {
	RecordRequest(latency time.Duration, success bool)
	RecordAgentInvocation(agent string, latency time.Duration, success bool)
	RecordClassifierDecision(source string)
	RecordLLMTokens(tokenType string, count int64)
	RecordEvaluation(overall float64)
}

// PrometheusExporter exports hub metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Orchestrator metrics
	requests       *prometheus.CounterVec
	requestLatency prometheus.Histogram

	// Agent metrics
	agentInvocations *prometheus.CounterVec
	agentLatency     *prometheus.HistogramVec

	classifierDecisions *prometheus.CounterVec
	llmTokens           *prometheus.CounterVec
	evaluationOverall   prometheus.Histogram
}

var _ Recorder = (*PrometheusExporter)(nil)

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agenthub",
			Subsystem: "orchestrator",
			Name:      "requests_total",
			Help:      "Total number of orchestrated requests",
		},
		[]string{"status"},
	)

	e.requestLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agenthub",
			Subsystem: "orchestrator",
			Name:      "request_seconds",
			Help:      "End-to-end orchestration latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.agentInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agenthub",
			Subsystem: "agent",
			Name:      "invocations_total",
			Help:      "Total number of agent invocations",
		},
		[]string{"agent", "status"},
	)

	e.agentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agenthub",
			Subsystem: "agent",
			Name:      "latency_seconds",
			Help:      "Agent invocation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"agent"},
	)

	e.classifierDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agenthub",
			Subsystem: "classifier",
			Name:      "decisions_total",
			Help:      "Routing decisions by source (prefix, semantic, keyword, sticky, override)",
		},
		[]string{"source"},
	)

	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agenthub",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"type"},
	)

	e.evaluationOverall = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agenthub",
			Subsystem: "evaluation",
			Name:      "overall",
			Help:      "Overall evaluation score (1-5)",
			Buckets:   []float64{1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5},
		},
	)

	registry.MustRegister(
		e.requests,
		e.requestLatency,
		e.agentInvocations,
		e.agentLatency,
		e.classifierDecisions,
		e.llmTokens,
		e.evaluationOverall,
	)

	return e
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordRequest records one orchestrated request.
func (e *PrometheusExporter) RecordRequest(latency time.Duration, success bool) {
	if e == nil {
		return
	}
	e.requests.WithLabelValues(status(success)).Inc()
	e.requestLatency.Observe(latency.Seconds())
}

// RecordAgentInvocation records one agent call.
func (e *PrometheusExporter) RecordAgentInvocation(agent string, latency time.Duration, success bool) {
	if e == nil {
		return
	}
	e.agentInvocations.WithLabelValues(agent, status(success)).Inc()
	e.agentLatency.WithLabelValues(agent).Observe(latency.Seconds())
}

// RecordClassifierDecision counts a routing decision by its source.
func (e *PrometheusExporter) RecordClassifierDecision(source string) {
	if e == nil {
		return
	}
	e.classifierDecisions.WithLabelValues(source).Inc()
}

// RecordLLMTokens records LLM token usage.
func (e *PrometheusExporter) RecordLLMTokens(tokenType string, count int64) {
	if e == nil || count <= 0 {
		return
	}
	e.llmTokens.WithLabelValues(tokenType).Add(float64(count))
}

// RecordEvaluation observes an overall evaluation score.
func (e *PrometheusExporter) RecordEvaluation(overall float64) {
	if e == nil {
		return
	}
	e.evaluationOverall.Observe(overall)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
