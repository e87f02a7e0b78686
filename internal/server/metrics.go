package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the tagging service's counters and latencies.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal *prometheus.CounterVec
	EntitiesTotal  prometheus.Counter
	TagDuration    prometheus.Histogram
}

// NewMetrics builds and registers the metric set on its own registry,
// so multiple server instances never collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ontotag_documents_total",
			Help: "Documents processed, by outcome.",
		}, []string{"status"}),
		EntitiesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ontotag_entities_total",
			Help: "Entities recognized across all documents.",
		}),
		TagDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ontotag_tag_duration_seconds",
			Help:    "Wall time spent tagging one request.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.DocumentsTotal, m.EntitiesTotal, m.TagDuration)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
