package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	redirectCache     *prometheus.CounterVec
	redirectFallbacks *prometheus.CounterVec
	redirectDuration  prometheus.Histogram
	linksCreated      prometheus.Counter
	clicksPublished   *prometheus.CounterVec
	clicksProcessed   *prometheus.CounterVec
	clickBatchSize    prometheus.Histogram
	clickBatchLatency prometheus.Histogram
	clickQueueDepth   prometheus.Gauge
	clickIngestLag    prometheus.Histogram
	scoreBuild        *prometheus.HistogramVec
}

// NewPrometheus creates a recorder and registers its collectors together with
// the Go runtime and process collectors.
func NewPrometheus(namespace string) *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		redirectCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirect_cache_total",
			Help:      "Redirect link lookups by cache result",
		}, []string{"result"}),
		redirectFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirect_fallback_total",
			Help:      "Redirects sent to the fallback destination",
		}, []string{"reason"}),
		redirectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "redirect_duration_seconds",
			Help:      "Redirect handler latency in seconds",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		linksCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Tracked links issued",
		}),
		clicksPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_published_total",
			Help:      "Click events published to the stream by status",
		}, []string{"status"}),
		clicksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_processed_total",
			Help:      "Click events consumed by the ingest worker by status",
		}, []string{"status"}),
		clickBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "click_batch_size",
			Help:      "Click events per ingest batch",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000},
		}),
		clickBatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "click_batch_duration_seconds",
			Help:      "Ingest batch persistence latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		clickQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "click_queue_depth",
			Help:      "Pending plus undelivered click stream entries",
		}),
		clickIngestLag: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "click_ingest_lag_seconds",
			Help:      "Delay between a click and its persistence",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		scoreBuild: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_build_duration_seconds",
			Help:      "Scoreboard build latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"period"}),
	}
}

// Handler returns the exposition handler for this recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) IncRedirectCacheHit() {
	p.redirectCache.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncRedirectCacheMiss() {
	p.redirectCache.WithLabelValues("miss").Inc()
}

func (p *PrometheusRecorder) IncRedirectFallback(reason string) {
	p.redirectFallbacks.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveRedirectDuration(duration time.Duration) {
	p.redirectDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncLinkCreated() {
	p.linksCreated.Inc()
}

func (p *PrometheusRecorder) IncClickPublished(status string) {
	p.clicksPublished.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncClickProcessed(status string) {
	p.clicksProcessed.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObserveClickBatchSize(size int) {
	p.clickBatchSize.Observe(float64(size))
}

func (p *PrometheusRecorder) ObserveClickBatchDuration(duration time.Duration) {
	p.clickBatchLatency.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) SetClickQueueDepth(depth int64) {
	p.clickQueueDepth.Set(float64(depth))
}

func (p *PrometheusRecorder) ObserveClickIngestLag(lag time.Duration) {
	p.clickIngestLag.Observe(lag.Seconds())
}

func (p *PrometheusRecorder) ObserveScoreBuild(period string, duration time.Duration) {
	p.scoreBuild.WithLabelValues(period).Observe(duration.Seconds())
}
