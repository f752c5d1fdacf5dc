package observability

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewLogger(t *testing.T) {
	t.Run("parses level", func(t *testing.T) {
		log := NewLogger("debug", &bytes.Buffer{})
		assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger("chatty", &buf)
		assert.Equal(t, logrus.InfoLevel, log.GetLevel())
		assert.Contains(t, buf.String(), "Unknown log level")
	})
}

func TestWithTraceContext(t *testing.T) {
	log := NewLogger("info", &bytes.Buffer{})
	entry := logrus.NewEntry(log)

	assert.Same(t, entry, WithTraceContext(context.Background(), entry))

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	got := WithTraceContext(ctx, entry)
	assert.Equal(t, span.SpanContext().TraceID().String(), got.Data["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), got.Data["span_id"])
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.RunFinished("failure", 2*time.Second)
	m.ProbeFinished("InspectLatency", true, time.Millisecond)
	m.ProbeFinished("InspectLatency", false, time.Millisecond)
	m.ProbeRetried("InspectPresetInfo")
	m.ExceptionDecision("blacklisted")
	m.CatalogLookup(true)
	m.CatalogLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("InspectLatency", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("InspectLatency", "fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeRetriesTotal.WithLabelValues("InspectPresetInfo")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.CatalogLookupsTotal))

	expected := `
# HELP auval_exception_decisions_total Total number of exception policy decisions
# TYPE auval_exception_decisions_total counter
auval_exception_decisions_total{verdict="blacklisted"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.ExceptionDecisionsTotal, strings.NewReader(expected)))
}

func TestWriteTextfile(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.RunFinished("success-requires-init", time.Second)

	path := filepath.Join(t.TempDir(), "auval.prom")
	require.NoError(t, WriteTextfile(registry, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `auval_runs_total{status="success-requires-init"} 1`)
}

func TestMultiRecorder(t *testing.T) {
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())
	rec := MultiRecorder{a, b, NopRecorder{}}

	rec.ProbeRetried("ReinitializeInstance")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ProbeRetriesTotal.WithLabelValues("ReinitializeInstance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.ProbeRetriesTotal.WithLabelValues("ReinitializeInstance")))
}

func TestOTelMetricsOnNoopProvider(t *testing.T) {
	m, err := NewOTelMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RunFinished("failure", time.Second)
		m.ProbeFinished("InspectLatency", true, time.Millisecond)
		m.ProbeRetried("InspectLatency")
		m.ExceptionDecision("whitelisted")
		m.CatalogLookup(false)
	})
}

func TestInitOTelDisabled(t *testing.T) {
	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, NewLogger("info", &bytes.Buffer{}))
	assert.NoError(t, err)
	assert.Nil(t, providers)
	assert.NoError(t, ShutdownOTel(context.Background(), nil, NewLogger("info", &bytes.Buffer{})))
}

func TestInitOTelLazyEndpoint(t *testing.T) {
	log := NewLogger("info", &bytes.Buffer{})
	cfg := OTelConfig{
		Enabled:        true,
		Endpoint:       "localhost:4317",
		ServiceName:    "auval-test",
		ServiceVersion: "test",
		Insecure:       true,
	}

	// exporters do not connect until the first export
	providers, err := InitOTel(context.Background(), cfg, log)
	require.NoError(t, err)
	require.NotNil(t, providers)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = ShutdownOTel(ctx, providers, log)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", Sampler(0).Description())
	assert.Equal(t, "AlwaysOnSampler", Sampler(1).Description())
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestMustRecover(t *testing.T) {
	assert.NoError(t, MustRecover(nil))
	assert.EqualError(t, MustRecover("boom"), "panic: boom")

	cause := errors.New("nil map")
	err := MustRecover(cause)
	assert.ErrorIs(t, err, cause)
}

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("info", &buf)

	assert.NotPanics(t, func() {
		defer RecoverPanic(logrus.NewEntry(log), "test")
		panic("boom")
	})
	assert.Contains(t, buf.String(), "PANIC recovered")
}

func TestShutdownManager(t *testing.T) {
	var order []string
	sm := NewShutdownManager(NewLogger("info", &bytes.Buffer{}), time.Second)
	sm.RegisterShutdownFunc("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	sm.RegisterShutdownFunc("second", func(context.Context) error {
		order = append(order, "second")
		return errors.New("flush failed")
	})

	err := sm.Shutdown()
	assert.ErrorContains(t, err, "second: flush failed")
	assert.Equal(t, []string{"second", "first"}, order)

	assert.NoError(t, sm.Shutdown())
	assert.Len(t, order, 2)
}
