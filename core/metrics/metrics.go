package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "inventory_reconcile"

// Recorder groups the collectors used by the reconciliation engine.
type Recorder struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	discrepancy *prometheus.GaugeVec
	matched     *prometheus.GaugeVec
	pages       *prometheus.CounterVec
	retries     *prometheus.CounterVec
	registry    prometheus.Gatherer
}

// New creates a Recorder and registers its collectors with reg.
// When reg is nil a private registry is used.
func New(reg *prometheus.Registry) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Reconciliation runs by final status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comparison_duration_seconds",
			Help:      "Duration of a single comparison.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"comparison", "status"}),
		discrepancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discrepancies",
			Help:      "Keys found on one side only in the last run.",
		}, []string{"comparison", "side"}),
		matched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matched",
			Help:      "Keys found on both sides in the last run.",
		}, []string{"comparison"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_pages_total",
			Help:      "Pages fetched per source.",
		}, []string{"source"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_retries_total",
			Help:      "Retried page fetches per source.",
		}, []string{"source"}),
		registry: reg,
	}

	for _, c := range []prometheus.Collector{r.runs, r.duration, r.discrepancy, r.matched, r.pages, r.retries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Gatherer returns the registry the collectors are registered with.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// RunFinished counts a run with the given status.
func (r *Recorder) RunFinished(status string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(status).Inc()
}

// ComparisonFinished records a comparison's duration and outcome.
func (r *Recorder) ComparisonFinished(comparison, status string, took time.Duration) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(comparison, status).Observe(took.Seconds())
}

// Discrepancies sets the one-sided counts and the matched count of a comparison.
func (r *Recorder) Discrepancies(comparison, leftSide string, left int, rightSide string, right int, matched int) {
	if r == nil {
		return
	}
	r.discrepancy.WithLabelValues(comparison, leftSide).Set(float64(left))
	r.discrepancy.WithLabelValues(comparison, rightSide).Set(float64(right))
	r.matched.WithLabelValues(comparison).Set(float64(matched))
}

// PageFetched counts a successfully fetched page.
func (r *Recorder) PageFetched(source string) {
	if r == nil {
		return
	}
	r.pages.WithLabelValues(source).Inc()
}

// Retried counts a retried fetch.
func (r *Recorder) Retried(source string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(source).Inc()
}
