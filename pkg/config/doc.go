// Package config loads auval configuration from environment variables.
//
// # Overview
//
// Every setting has a default, so auval runs with no environment at all.
// Command-line flags override whatever this package loads.
//
// Catalog settings:
//
//	AUVAL_CATALOG_DIRS="/opt/components:./components"  # path list
//	AUVAL_EXCEPTIONS_FILE="/etc/auval/exceptions.yaml"
//
// Validation settings:
//
//	AUVAL_REPETITIONS="5"
//	AUVAL_SEED="42"          # fixes the probe order
//	AUVAL_HOST_COCOA="true"
//
// History settings:
//
//	AUVAL_HISTORY_DB="/var/lib/auval/history.db"  # empty disables history
//	AUVAL_HISTORY_DB="postgres://auval@db/auval?sslmode=disable"
//
// Observability settings:
//
//	AUVAL_LOG_LEVEL="info"  # debug, info, warn, error
//	AUVAL_METRICS_FILE="/var/lib/node_exporter/auval.prom"
//	AUVAL_OTEL_ENABLED="true"
//	AUVAL_OTEL_ENDPOINT="otel-collector:4317"
//	AUVAL_OTEL_SERVICE_NAME="auval"
//	AUVAL_OTEL_INSECURE="true"
//	AUVAL_OTEL_SAMPLE_RATIO="0.1"  # fraction of runs traced
//	AUVAL_SHUTDOWN_TIMEOUT="10s"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(cfg.Catalog.Dirs, cfg.Validation.Repetitions)
//
// # Related Packages
//
//   - pkg/catalog: default component directories
//   - pkg/observability: logger and exporter settings
package config
