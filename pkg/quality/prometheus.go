package quality

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exports scoring metrics through a dedicated registry.
type PrometheusCollector struct {
	registry  *prometheus.Registry
	scored    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	blocks    *prometheus.CounterVec
	nonFinite *prometheus.CounterVec
}

// NewPrometheusCollector registers the blindiqa metrics on a fresh registry.
func NewPrometheusCollector() (*PrometheusCollector, error) {
	p := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
		scored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blindiqa_images_scored_total",
			Help: "Images scored, by metric and outcome.",
		}, []string{"metric", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blindiqa_score_duration_seconds",
			Help:    "Time to score one image.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"metric"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blindiqa_blocks_total",
			Help: "Feature blocks extracted from successfully scored images.",
		}, []string{"metric"}),
		nonFinite: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blindiqa_nonfinite_blocks_total",
			Help: "Feature blocks with non-finite values, dropped from the covariance or imputed.",
		}, []string{"metric"}),
	}
	for _, c := range []prometheus.Collector{p.scored, p.latency, p.blocks, p.nonFinite} {
		if err := p.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// RecordScore implements MetricsCollector.
func (p *PrometheusCollector) RecordScore(metric string, blocks, nonFinite int, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.scored.WithLabelValues(metric, outcome).Inc()
	p.latency.WithLabelValues(metric).Observe(duration.Seconds())
	if err == nil {
		p.blocks.WithLabelValues(metric).Add(float64(blocks))
		p.nonFinite.WithLabelValues(metric).Add(float64(nonFinite))
	}
}

// Registry exposes the underlying registry, e.g. for promhttp.
func (p *PrometheusCollector) Registry() *prometheus.Registry {
	return p.registry
}

// WriteTextfile dumps the current values in the node exporter textfile format.
func (p *PrometheusCollector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}
