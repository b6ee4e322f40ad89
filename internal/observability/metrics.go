package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts one run's fetches, cache traffic and results. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	fetches      *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	cacheEvents  *prometheus.CounterVec
	reviews      prometheus.Counter
	resolutions  *prometheus.CounterVec
	labels       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "medscrape", Name: "fetches_total", Help: "Page fetches by HTTP status or failure kind."},
			[]string{"status"},
		),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medscrape", Name: "fetch_duration_seconds",
			Help:    "Page fetch duration seconds, cache hits excluded.",
			Buckets: prometheus.DefBuckets,
		}),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "medscrape", Name: "cache_events_total", Help: "Page cache hits/misses/sets."},
			[]string{"event"}, // event: hit|miss|set
		),
		reviews: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: "medscrape", Name: "reviews_total", Help: "Reviews harvested."},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "medscrape", Name: "resolutions_total", Help: "Drug name resolutions by outcome."},
			[]string{"outcome"},
		),
		labels: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "medscrape", Name: "labels_total", Help: "Review labels assigned, empty label as \"none\"."},
			[]string{"label"},
		),
	}
	m.registry.MustRegister(m.fetches, m.fetchLatency, m.cacheEvents, m.reviews, m.resolutions, m.labels)
	return m
}

// Registry exposes the run's registry, e.g. for promhttp or tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFetch records one network fetch. status 0 means the request never
// got a response.
func (m *Metrics) ObserveFetch(status int, dur time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.fetches.WithLabelValues(label).Inc()
	m.fetchLatency.Observe(dur.Seconds())
}

func (m *Metrics) ObserveCache(event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) AddReviews(n int) {
	if m == nil {
		return
	}
	m.reviews.Add(float64(n))
}

func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLabel(label string) {
	if m == nil {
		return
	}
	if label == "" {
		label = "none"
	}
	m.labels.WithLabelValues(label).Inc()
}

// WriteFile writes the metrics in the text exposition format, for the
// node_exporter textfile collector
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
