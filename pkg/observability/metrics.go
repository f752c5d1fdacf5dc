package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Probe metrics
	ProbesTotal       *prometheus.CounterVec
	ProbeDuration     *prometheus.HistogramVec
	ProbeRetriesTotal *prometheus.CounterVec

	// Exception policy metrics
	ExceptionDecisionsTotal *prometheus.CounterVec

	// Catalog metrics
	CatalogLookupsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Run metrics
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auval_runs_total",
				Help: "Total number of validation runs by final status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "auval_run_duration_seconds",
				Help:    "Validation run duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
			},
		),

		// Probe metrics
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auval_probes_total",
				Help: "Total number of probe executions",
			},
			[]string{"probe", "result"},
		),
		ProbeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auval_probe_duration_seconds",
				Help:    "Probe duration in seconds",
				Buckets: []float64{.0001, .001, .01, .1, .5, 1, 5, 30},
			},
			[]string{"probe"},
		),
		ProbeRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auval_probe_retries_total",
				Help: "Total number of probes retried with an initialized component",
			},
			[]string{"probe"},
		),

		// Exception policy metrics
		ExceptionDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auval_exception_decisions_total",
				Help: "Total number of exception policy decisions",
			},
			[]string{"verdict"},
		),

		// Catalog metrics
		CatalogLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auval_catalog_manifest_lookups_total",
				Help: "Total number of catalog manifest cache lookups",
			},
			[]string{"result"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ProbesTotal,
		m.ProbeDuration,
		m.ProbeRetriesTotal,
		m.ExceptionDecisionsTotal,
		m.CatalogLookupsTotal,
	)

	return m
}

func (m *Metrics) RunFinished(status string, d time.Duration) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

func (m *Metrics) ProbeFinished(probe string, passed bool, d time.Duration) {
	result := "fail"
	if passed {
		result = "pass"
	}
	m.ProbesTotal.WithLabelValues(probe, result).Inc()
	m.ProbeDuration.WithLabelValues(probe).Observe(d.Seconds())
}

func (m *Metrics) ProbeRetried(probe string) {
	m.ProbeRetriesTotal.WithLabelValues(probe).Inc()
}

func (m *Metrics) ExceptionDecision(verdict string) {
	m.ExceptionDecisionsTotal.WithLabelValues(verdict).Inc()
}

func (m *Metrics) CatalogLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CatalogLookupsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes every metric in registry to path in the text
// exposition format, for the node exporter textfile collector
func WriteTextfile(registry *prometheus.Registry, path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
