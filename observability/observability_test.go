package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/benz9527/rbstore/config"
	"github.com/benz9527/rbstore/xlog"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	expected := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&expected) {
			return dp.Value
		}
	}
	return 0
}

func gaugeOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	return gauge.DataPoints[0].Value
}

func TestTreeStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	stats := NewTreeStats(mp.Meter("test"))
	ctx := context.Background()

	stats.RecordInsert(ctx, 9)
	stats.RecordInsert(ctx, 0)
	stats.RecordDelete(ctx, true)
	stats.RecordDelete(ctx, false)
	stats.RecordSearch(ctx, true)
	stats.RecordSearch(ctx, false)
	stats.RecordSearch(ctx, false)
	stats.SetShape(8, 4)

	rm := collectMetrics(t, reader)
	require.Equal(t, int64(9), sumOf(t, findMetric(rm, MetricTreeInsert)))
	require.Equal(t, int64(1), sumOf(t, findMetric(rm, MetricTreeDelete)))
	require.Equal(t, int64(3), sumOf(t, findMetric(rm, MetricTreeSearch)))
	notFound := findMetric(rm, MetricTreeNotFound)
	require.Equal(t, int64(1), sumOf(t, notFound, attribute.String("op", "delete")))
	require.Equal(t, int64(2), sumOf(t, notFound, attribute.String("op", "search")))
	require.Equal(t, int64(8), gaugeOf(t, findMetric(rm, MetricTreeSize)))
	require.Equal(t, int64(4), gaugeOf(t, findMetric(rm, MetricTreeHeight)))

	require.NoError(t, stats.Close())
}

func TestTreeStatsNil(t *testing.T) {
	var stats *TreeStats
	require.NotPanics(t, func() {
		ctx := context.Background()
		stats.RecordInsert(ctx, 1)
		stats.RecordDelete(ctx, false)
		stats.RecordSearch(ctx, true)
		stats.SetShape(1, 1)
		require.NoError(t, stats.Close())
	})
}

func TestNewMeterProviderNone(t *testing.T) {
	mp, err := NewMeterProvider(config.MetricsConfig{Exporter: config.MetricsExporterNone, Interval: time.Second})
	require.NoError(t, err)
	require.Empty(t, mp.Addr())
	NewTreeStats(mp.Meter("none")).RecordInsert(context.Background(), 1)
	require.NoError(t, mp.Shutdown(context.Background()))
}

func TestNewMeterProviderInvalid(t *testing.T) {
	_, err := NewMeterProvider(config.MetricsConfig{Exporter: "otlp"})
	require.ErrorIs(t, err, config.ErrInvalidMetricsExporter)
}

func TestNewMeterProviderConsole(t *testing.T) {
	buf := &bytes.Buffer{}
	mp, err := NewMeterProvider(
		config.MetricsConfig{Exporter: config.MetricsExporterConsole, Interval: time.Hour},
		WithConsoleWriter(buf),
	)
	require.NoError(t, err)
	stats := NewTreeStats(mp.Meter("console"))
	stats.RecordInsert(context.Background(), 3)

	// Shutdown exports the last collection.
	require.NoError(t, mp.Shutdown(context.Background()))
	require.Contains(t, buf.String(), MetricTreeInsert)
}

func TestNewMeterProviderPrometheus(t *testing.T) {
	mp, err := NewMeterProvider(
		config.MetricsConfig{Exporter: config.MetricsExporterPrometheus, Listen: "127.0.0.1:0", Interval: time.Second},
		WithLogger(xlog.NewXLogger(xlog.WithXLoggerWriter(io.Discard))),
	)
	require.NoError(t, err)
	require.NotEmpty(t, mp.Addr())

	stats := NewTreeStats(mp.Meter("prometheus"))
	stats.RecordInsert(context.Background(), 2)
	stats.SetShape(2, 2)

	resp, err := http.Get("http://" + mp.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "rbtree_ops_insert_total")
	require.Contains(t, string(body), "rbtree_size")

	require.NoError(t, mp.Shutdown(context.Background()))
}

func TestNewMeterProviderPrometheusListenError(t *testing.T) {
	_, err := NewMeterProvider(config.MetricsConfig{Exporter: config.MetricsExporterPrometheus, Listen: "256.0.0.1:bad"})
	require.Error(t, err)
}

func TestInitAppStats(t *testing.T) {
	require.NoError(t, InitAppStats("test"))
	require.NoError(t, InitAppStats("again"))
}
