package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline-level Prometheus collectors.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	ProviderErrors prometheus.Counter
}

// NewMetrics registers the pipeline collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CacheHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "studysearch_cache_hits_total",
			Help: "Number of pipeline requests served from the result cache.",
		}),
		CacheMisses: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "studysearch_cache_misses_total",
			Help: "Number of pipeline requests that ran the full pipeline.",
		}),
		ProviderErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "studysearch_provider_errors_total",
			Help: "Number of failed search provider sub-queries.",
		}),
	}
}
