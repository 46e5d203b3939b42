// Package metrics exposes the dashboard's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "partnermap"

// Metrics groups the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	FilterRuns    prometheus.Counter
	FilterMatches prometheus.Histogram
	CacheResults  *prometheus.CounterVec
	RecordsLoaded prometheus.Gauge
	RecordsDrop   *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		FilterRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_runs_total",
			Help:      "Filter evaluations, excluding cache hits.",
		}),
		FilterMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_matched_records",
			Help:      "Number of records matched per filter evaluation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		CacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_cache_total",
			Help:      "Filter cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Records held by the record store.",
		}),
		RecordsDrop: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_rejected",
			Help:      "Records dropped at load time by reason.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.FilterRuns,
		m.FilterMatches,
		m.CacheResults,
		m.RecordsLoaded,
		m.RecordsDrop,
	)
	return m
}

// Registry returns the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLoad records the store size and rejection counts.
func (m *Metrics) ObserveLoad(loaded, rejectedLocation, rejectedEmpty int) {
	m.RecordsLoaded.Set(float64(loaded))
	m.RecordsDrop.WithLabelValues("location").Set(float64(rejectedLocation))
	m.RecordsDrop.WithLabelValues("empty").Set(float64(rejectedEmpty))
}
