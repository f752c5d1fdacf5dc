// Package observability provides logging, Prometheus metrics, OpenTelemetry
// tracing and metrics, panic recovery and ordered shutdown for auval.
//
// # Overview
//
// A validation run is a short-lived process, so nothing here serves an
// endpoint. Prometheus metrics are written to a node-exporter textfile when
// the run ends, and OpenTelemetry data is pushed over OTLP/gRPC and flushed
// by ShutdownOTel.
//
// # Logging
//
//	log := observability.NewLogger("debug", os.Stderr)
//	log.WithField("component", id).Info("Validating")
//
// # Metrics
//
// Both Metrics and OTelMetrics implement Recorder:
//
//	registry := prometheus.NewRegistry()
//	rec := observability.MultiRecorder{observability.NewMetrics(registry), otelMetrics}
//	rec.RunFinished("failure", time.Since(start))
//	observability.WriteTextfile(registry, "/var/lib/node_exporter/auval.prom")
//
// # Tracing
//
//	providers, err := observability.InitOTel(ctx, cfg, log)
//	defer observability.ShutdownOTel(ctx, providers, log)
//
// # Related Packages
//
//   - pkg/config: observability configuration
//   - pkg/validator: emits spans and metrics per run and per probe
package observability
