// Package metrics collects and exposes Prometheus metrics for the
// generation pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is what the service layer records against. Kept as an
// interface so tests can pass a no-op.
type Collector interface {
	RecordGeneration(status string)
	RecordQuotaRejection(reason string)
	RecordModelCallFailure(stage string)
	RecordAutoReplacements(count int)
	RecordPipelineLatency(d time.Duration)
}

// PrometheusCollector implements Collector on a Prometheus registry.
type PrometheusCollector struct {
	generations      *prometheus.CounterVec
	quotaRejections  *prometheus.CounterVec
	modelFailures    *prometheus.CounterVec
	autoReplacements prometheus.Counter
	pipelineLatency  prometheus.Histogram
}

// NewPrometheusCollector registers the pipeline metrics on reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_generations_total",
			Help: "Completed generate calls by outcome (passed, best-effort).",
		}, []string{"status"}),
		quotaRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_quota_rejections_total",
			Help: "Generate calls rejected before any model call, by reason.",
		}, []string{"reason"}),
		modelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_model_call_failures_total",
			Help: "Model call failures by pipeline stage.",
		}, []string{"stage"}),
		autoReplacements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podium_auto_replacements_total",
			Help: "Substitutions the compliance engine applied.",
		}),
		pipelineLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "podium_pipeline_latency_seconds",
			Help:    "End-to-end latency of one generate call.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 240},
		}),
	}
	reg.MustRegister(
		c.generations,
		c.quotaRejections,
		c.modelFailures,
		c.autoReplacements,
		c.pipelineLatency,
	)
	return c
}

func (c *PrometheusCollector) RecordGeneration(status string) {
	c.generations.WithLabelValues(status).Inc()
}

func (c *PrometheusCollector) RecordQuotaRejection(reason string) {
	c.quotaRejections.WithLabelValues(reason).Inc()
}

func (c *PrometheusCollector) RecordModelCallFailure(stage string) {
	c.modelFailures.WithLabelValues(stage).Inc()
}

func (c *PrometheusCollector) RecordAutoReplacements(count int) {
	c.autoReplacements.Add(float64(count))
}

func (c *PrometheusCollector) RecordPipelineLatency(d time.Duration) {
	c.pipelineLatency.Observe(d.Seconds())
}

// Handler returns the scrape endpoint for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Noop discards every observation.
type Noop struct{}

func (Noop) RecordGeneration(string)             {}
func (Noop) RecordQuotaRejection(string)         {}
func (Noop) RecordModelCallFailure(string)       {}
func (Noop) RecordAutoReplacements(int)          {}
func (Noop) RecordPipelineLatency(time.Duration) {}
