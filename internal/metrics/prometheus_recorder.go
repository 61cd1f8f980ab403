package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	pageDuration  *prom.HistogramVec
	buildDuration prom.Histogram
	pageOutcomes  *prom.CounterVec
	buildOutcomes *prom.CounterVec
	pagesTotal    prom.Gauge
	watchRebuilds prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.pageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docmacro",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of individual page renders",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docmacro",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.pageOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docmacro",
			Name:      "page_outcomes_total",
			Help:      "Page outcomes by category",
		}, []string{"outcome"})
		pr.buildOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docmacro",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pagesTotal = prom.NewGauge(prom.GaugeOpts{
			Namespace: "docmacro",
			Name:      "pages_total",
			Help:      "Number of pages discovered in the last build",
		})
		pr.watchRebuilds = prom.NewCounter(prom.CounterOpts{
			Namespace: "docmacro",
			Name:      "watch_rebuilds_total",
			Help:      "Rebuilds triggered by the file watcher",
		})
		reg.MustRegister(pr.pageDuration, pr.buildDuration, pr.pageOutcomes, pr.buildOutcomes, pr.pagesTotal, pr.watchRebuilds)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePageDuration(outcome PageOutcomeLabel, d time.Duration) {
	if p == nil || p.pageDuration == nil {
		return
	}
	p.pageDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageOutcome(outcome PageOutcomeLabel) {
	if p == nil || p.pageOutcomes == nil {
		return
	}
	p.pageOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcomes == nil {
		return
	}
	p.buildOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPagesTotal(n int) {
	if p == nil || p.pagesTotal == nil {
		return
	}
	p.pagesTotal.Set(float64(n))
}

func (p *PrometheusRecorder) IncWatchRebuilds() {
	if p == nil || p.watchRebuilds == nil {
		return
	}
	p.watchRebuilds.Inc()
}
