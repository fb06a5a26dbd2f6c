package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// stepDurationBuckets covers stubbed sub-millisecond calls up to slow
// device interactions.
var stepDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60}

// Metrics holds all Prometheus metric instruments for the activation
// worker.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	StepsTotal        *prometheus.CounterVec
	StepDuration      *prometheus.HistogramVec
	RecoveriesTotal   *prometheus.CounterVec
	IncidentsTotal    *prometheus.CounterVec
	BackoffWaitsTotal prometheus.Counter
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activation_runs_total",
			Help: "Total number of activation runs by outcome.",
		}, []string{"outcome"}),
		StepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activation_steps_total",
			Help: "Total number of executed steps.",
		}, []string{"step", "status"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "activation_step_duration_seconds",
			Help:    "Step execution duration in seconds.",
			Buckets: stepDurationBuckets,
		}, []string{"step"}),
		RecoveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activation_recoveries_total",
			Help: "Total number of recovery dispatches by failure kind and action.",
		}, []string{"kind", "action"}),
		IncidentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activation_incidents_total",
			Help: "Total number of created incidents by class.",
		}, []string{"class"}),
		BackoffWaitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activation_backoff_waits_total",
			Help: "Total number of fixed backoff waits during recovery.",
		}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.StepsTotal,
		m.StepDuration,
		m.RecoveriesTotal,
		m.IncidentsTotal,
		m.BackoffWaitsTotal,
	)

	return m
}

// Handler returns the HTTP handler serving the default Prometheus
// registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
