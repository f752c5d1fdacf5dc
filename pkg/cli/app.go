package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/platinummonkey/auval/pkg/catalog"
	"github.com/platinummonkey/auval/pkg/config"
	"github.com/platinummonkey/auval/pkg/exceptions"
	"github.com/platinummonkey/auval/pkg/history"
	"github.com/platinummonkey/auval/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// App holds what every command shares
type App struct {
	Config *config.Config
	Log    *logrus.Logger
	Out    io.Writer
	// Context is checked between probes; cancelling it stops a run
	Context context.Context

	registry *prometheus.Registry
	metrics  *observability.Metrics
	recorder observability.Recorder
	shutdown *observability.ShutdownManager
}

// NewApp creates an App writing command output to out
func NewApp(cfg *config.Config, log *logrus.Logger, out io.Writer) *App {
	if out == nil {
		out = os.Stdout
	}
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	return &App{
		Config:   cfg,
		Log:      log,
		Out:      out,
		Context:  context.Background(),
		registry: registry,
		metrics:  metrics,
		recorder: metrics,
		shutdown: observability.NewShutdownManager(log, cfg.Observability.ShutdownTimeout),
	}
}

// Start initializes exporters. Everything it starts is stopped by Close.
func (a *App) Start(ctx context.Context) error {
	obs := a.Config.Observability

	if obs.MetricsFile != "" {
		a.shutdown.RegisterShutdownFunc("metrics textfile", func(context.Context) error {
			return observability.WriteTextfile(a.registry, obs.MetricsFile)
		})
	}

	providers, err := observability.InitOTel(ctx, obs.OTel(), a.Log)
	if err != nil {
		return err
	}
	if providers == nil {
		return nil
	}
	a.shutdown.RegisterShutdownFunc("opentelemetry", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, a.Log)
	})

	otelMetrics, err := observability.NewOTelMetrics()
	if err != nil {
		return err
	}
	a.recorder = observability.MultiRecorder{a.metrics, otelMetrics}
	return nil
}

// Close flushes metrics and shuts exporters down
func (a *App) Close() error {
	return a.shutdown.Shutdown()
}

// Metrics returns the Prometheus metrics of this process
func (a *App) Metrics() *observability.Metrics {
	return a.metrics
}

func (a *App) openCatalog(ctx context.Context, dirs []string) (*catalog.Catalog, error) {
	if len(dirs) == 0 {
		dirs = a.Config.Catalog.Dirs
	}
	cat, err := catalog.New(dirs, a.Log, catalog.WithRecorder(a.recorder))
	if err != nil {
		return nil, err
	}
	if _, err := cat.Discover(ctx); err != nil {
		return nil, fmt.Errorf("failed to discover components: %w", err)
	}
	return cat, nil
}

// loadPolicy extends the built-in exception table with the rules in file
func (a *App) loadPolicy(file string) (*exceptions.Policy, error) {
	if file == "" {
		file = a.Config.Catalog.ExceptionsFile
	}
	if file == "" {
		return exceptions.Default(), nil
	}

	rules, err := exceptions.LoadFile(file)
	if err != nil {
		return nil, err
	}
	policy, err := exceptions.Default().Extend(rules)
	if err != nil {
		return nil, fmt.Errorf("invalid exception rules in %s: %w", file, err)
	}
	a.Log.Infof("Loaded %d exception rules from %s", len(rules), file)
	return policy, nil
}

// openHistory returns nil when no history database is configured
func (a *App) openHistory(path string) (*history.Store, error) {
	if path == "" {
		path = a.Config.History.Path
	}
	if path == "" {
		return nil, nil
	}
	return history.Open(path)
}
