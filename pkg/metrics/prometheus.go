package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchDuration  *prometheus.HistogramVec
	providerErrors *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	signalsServed  *prometheus.CounterVec
	evaluations    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalforge_fetch_duration_seconds",
				Help:    "Duration of upstream candle fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "pair"},
		),
		providerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_provider_errors_total",
				Help: "Total number of upstream provider failures",
			},
			[]string{"provider"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_cache_lookups_total",
				Help: "Candle cache lookups partitioned by hit or miss",
			},
			[]string{"result"},
		),
		signalsServed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_signals_served_total",
				Help: "Total number of signals served",
			},
			[]string{"pair", "direction"},
		),
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalforge_evaluations_total",
				Help: "Completed signal evaluations by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordFetch records an upstream fetch duration.
func (r *Recorder) RecordFetch(provider, pair string, seconds float64) {
	r.fetchDuration.WithLabelValues(provider, pair).Observe(seconds)
}

// RecordProviderError records a provider failure.
func (r *Recorder) RecordProviderError(provider string) {
	r.providerErrors.WithLabelValues(provider).Inc()
}

// RecordCacheHit records a candle cache lookup.
func (r *Recorder) RecordCacheHit(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordSignalServed records a served signal.
func (r *Recorder) RecordSignalServed(pair, direction string) {
	r.signalsServed.WithLabelValues(pair, direction).Inc()
}

// RecordEvaluation records a completed evaluation.
func (r *Recorder) RecordEvaluation(outcome string) {
	r.evaluations.WithLabelValues(outcome).Inc()
}
