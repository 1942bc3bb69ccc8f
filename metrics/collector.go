package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/grgmap"
)

// Namespace prefixes every metric name.
const Namespace = "grgmap"

var _ grgmap.MetricsCollector = (*Collector)(nil)

// Collector records mapping outcomes and runs as Prometheus metrics.
type Collector struct {
	mutations   *prometheus.CounterVec
	coverage    prometheus.Histogram
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	lastReport  *prometheus.GaugeVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "mutations_total",
			Help:      "Mapped mutations by outcome.",
		}, []string{"outcome"}),
		coverage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "carrier_set_size",
			Help:      "Distinct carriers per mapped mutation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Completed Map calls by status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of Map calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 12),
		}),
		lastReport: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run",
			Help:      "Statistics of the most recent run.",
		}, []string{"stat"}),
	}

	for _, col := range []prometheus.Collector{c.mutations, c.coverage, c.runs, c.runDuration, c.lastReport} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	// Pre-create outcome series so they export as zero.
	for _, o := range grgmap.Outcomes() {
		c.mutations.WithLabelValues(o.String())
	}

	return c, nil
}

// ObserveOutcome implements grgmap.MetricsCollector.
func (c *Collector) ObserveOutcome(o grgmap.Outcome, coverage int) {
	c.mutations.WithLabelValues(o.String()).Inc()
	if coverage > 0 {
		c.coverage.Observe(float64(coverage))
	}
}

// RecordRun implements grgmap.MetricsCollector.
func (c *Collector) RecordRun(report grgmap.Report, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.runs.WithLabelValues(status).Inc()
	c.runDuration.Observe(duration.Seconds())

	for _, s := range reportStats(report) {
		c.lastReport.WithLabelValues(s.name).Set(s.value)
	}
}
