package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments
type OTelMetrics struct {
	runsTotal          metric.Int64Counter
	runDuration        metric.Float64Histogram
	probesTotal        metric.Int64Counter
	probeDuration      metric.Float64Histogram
	probeRetries       metric.Int64Counter
	exceptionDecisions metric.Int64Counter
	catalogLookups     metric.Int64Counter
}

// NewOTelMetrics creates instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter("github.com/platinummonkey/auval")

	m := &OTelMetrics{}
	var err error

	m.runsTotal, err = meter.Int64Counter(
		"auval.runs",
		metric.WithDescription("Total number of validation runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	m.runDuration, err = meter.Float64Histogram(
		"auval.run.duration",
		metric.WithDescription("Validation run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	m.probesTotal, err = meter.Int64Counter(
		"auval.probes",
		metric.WithDescription("Total number of probe executions"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probes counter: %w", err)
	}

	m.probeDuration, err = meter.Float64Histogram(
		"auval.probe.duration",
		metric.WithDescription("Probe duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe duration histogram: %w", err)
	}

	m.probeRetries, err = meter.Int64Counter(
		"auval.probe.retries",
		metric.WithDescription("Total number of probes retried with an initialized component"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe retries counter: %w", err)
	}

	m.exceptionDecisions, err = meter.Int64Counter(
		"auval.exception.decisions",
		metric.WithDescription("Total number of exception policy decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exception decisions counter: %w", err)
	}

	m.catalogLookups, err = meter.Int64Counter(
		"auval.catalog.lookups",
		metric.WithDescription("Total number of catalog manifest cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog lookups counter: %w", err)
	}

	return m, nil
}

func (m *OTelMetrics) RunFinished(status string, d time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.runsTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *OTelMetrics) ProbeFinished(probe string, passed bool, d time.Duration) {
	ctx := context.Background()
	m.probesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("probe", probe),
		attribute.Bool("passed", passed),
	))
	m.probeDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("probe", probe)))
}

func (m *OTelMetrics) ProbeRetried(probe string) {
	m.probeRetries.Add(context.Background(), 1, metric.WithAttributes(attribute.String("probe", probe)))
}

func (m *OTelMetrics) ExceptionDecision(verdict string) {
	m.exceptionDecisions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("verdict", verdict)))
}

func (m *OTelMetrics) CatalogLookup(hit bool) {
	m.catalogLookups.Add(context.Background(), 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}
