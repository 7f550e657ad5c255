package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for the analytics pipeline counters.
const (
	OutcomeSuccess        = "success"
	OutcomeInvalid        = "invalid"
	OutcomeUpstreamFailed = "upstream_error"

	InsightGenerator = "generator"
	InsightFallback  = "fallback"

	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheError  = "error"
	CacheBypass = "bypass"
)

// Metrics holds the Prometheus collectors of the service on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	analyticsRequests *prometheus.CounterVec
	analyticsDuration prometheus.Histogram
	insightGeneration *prometheus.CounterVec
	anomaliesDetected prometheus.Histogram
	cacheRequests     *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyticsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teia_analytics_requests_total",
			Help: "Predictive analytics requests by outcome.",
		}, []string{"outcome"}),
		analyticsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teia_analytics_duration_seconds",
			Help:    "Duration of predictive analytics requests.",
			Buckets: prometheus.DefBuckets,
		}),
		insightGeneration: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teia_insight_generation_total",
			Help: "Insight generation attempts by source of the returned result.",
		}, []string{"outcome"}),
		anomaliesDetected: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teia_anomalies_detected",
			Help:    "Number of anomalous points found per analysis.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teia_series_cache_requests_total",
			Help: "Series cache lookups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teia_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "teia_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.analyticsRequests,
		m.analyticsDuration,
		m.insightGeneration,
		m.anomaliesDetected,
		m.cacheRequests,
		m.httpRequests,
		m.httpDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AnalyticsRequest(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.analyticsRequests.WithLabelValues(outcome).Inc()
	m.analyticsDuration.Observe(duration.Seconds())
}

func (m *Metrics) InsightGenerated(source string) {
	if m == nil {
		return
	}
	m.insightGeneration.WithLabelValues(source).Inc()
}

func (m *Metrics) AnomaliesDetected(count int) {
	if m == nil {
		return
	}
	m.anomaliesDetected.Observe(float64(count))
}

func (m *Metrics) CacheRequest(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) HTTPRequest(route string, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}
