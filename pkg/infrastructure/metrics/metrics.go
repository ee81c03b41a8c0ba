package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perishplan"

// Recorder publishes planning run metrics to its own registry
type Recorder struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	solveDuration prometheus.Histogram
	modelSize     *prometheus.GaugeVec
	violations    *prometheus.CounterVec
	fillRate      prometheus.Gauge
}

// NewRecorder creates a recorder with a fresh registry that also carries the
// Go runtime and process collectors
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Planning runs by final status.",
		}, []string{"status"}),
		solveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time spent in the solver.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		modelSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_size",
			Help:      "Size of the last model built.",
		}, []string{"kind"}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_violations_total",
			Help:      "Business-rule violations found after solving.",
		}, []string{"rule"}),
		fillRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_fill_rate",
			Help:      "Share of demand served by the last successful plan.",
		}),
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveModel records the size of a built model
func (r *Recorder) ObserveModel(variables, integers, constraints int) {
	r.modelSize.WithLabelValues("variables").Set(float64(variables))
	r.modelSize.WithLabelValues("integers").Set(float64(integers))
	r.modelSize.WithLabelValues("constraints").Set(float64(constraints))
}

// ObserveSolve records solver wall time
func (r *Recorder) ObserveSolve(elapsed time.Duration) {
	r.solveDuration.Observe(elapsed.Seconds())
}

// ObserveRun counts a finished run
func (r *Recorder) ObserveRun(status string) {
	r.runs.WithLabelValues(status).Inc()
}

// ObserveViolation counts one broken business rule
func (r *Recorder) ObserveViolation(rule string) {
	r.violations.WithLabelValues(rule).Inc()
}

// ObserveFillRate records the fill rate of a successful plan
func (r *Recorder) ObserveFillRate(rate float64) {
	r.fillRate.Set(rate)
}
