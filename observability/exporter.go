package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"

	"github.com/benz9527/rbstore/config"
	"github.com/benz9527/rbstore/lib/infra"
	"github.com/benz9527/rbstore/xlog"
)

// MeterProvider owns the otel sdk provider and, for the prometheus
// exporter, the HTTP server of the scrape endpoint.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	server   *http.Server
	listener net.Listener
}

func (mp *MeterProvider) Meter(name string) metric.Meter {
	return mp.provider.Meter(name)
}

// Addr is the scrape endpoint address, empty without prometheus.
func (mp *MeterProvider) Addr() string {
	if mp.listener == nil {
		return ""
	}
	return mp.listener.Addr().String()
}

// Shutdown flushes the readers and stops the scrape endpoint.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	var err error
	if mp.server != nil {
		err = multierr.Append(err, mp.server.Shutdown(ctx))
	}
	return multierr.Append(err, mp.provider.Shutdown(ctx))
}

type meterProviderCfg struct {
	consoleWriter io.Writer
	logger        xlog.XLogger
}

type MeterProviderOption func(*meterProviderCfg)

// WithConsoleWriter redirects the console exporter, stderr by default.
func WithConsoleWriter(w io.Writer) MeterProviderOption {
	return func(cfg *meterProviderCfg) {
		cfg.consoleWriter = w
	}
}

func WithLogger(logger xlog.XLogger) MeterProviderOption {
	return func(cfg *meterProviderCfg) {
		cfg.logger = logger
	}
}

// NewMeterProvider builds the provider of the configured exporter and
// installs it as the otel global.
func NewMeterProvider(cfg config.MetricsConfig, opts ...MeterProviderOption) (*MeterProvider, error) {
	_cfg := &meterProviderCfg{consoleWriter: os.Stderr}
	for _, o := range opts {
		o(_cfg)
	}

	var (
		mp  *MeterProvider
		err error
	)
	switch cfg.Exporter {
	case config.MetricsExporterConsole:
		mp, err = newConsoleMetricsExporter(cfg.Interval, cfg.Interval, stdoutmetric.WithWriter(_cfg.consoleWriter))
	case config.MetricsExporterPrometheus:
		mp, err = newPrometheusMetricsExporter(cfg.Listen, _cfg.logger)
	case config.MetricsExporterNone, "":
		mp = &MeterProvider{provider: sdkmetric.NewMeterProvider()}
	default:
		err = infra.WrapErrorStackWithMessage(config.ErrInvalidMetricsExporter, cfg.Exporter)
	}
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp.provider)
	return mp, nil
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (*MeterProvider, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "create console exporter")
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(interval),
		sdkmetric.WithTimeout(timeout),
	)))
	return &MeterProvider{provider: provider}, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
// Every provider owns a private registry, so no collector conflicts.
func newPrometheusMetricsExporter(listen string, logger xlog.XLogger) (*MeterProvider, error) {
	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "create prometheus exporter")
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", listen)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, infra.WrapErrorStackWithMessage(err, "listen on "+listen)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) && logger != nil {
			logger.Error(err, "metrics server stopped")
		}
	}()
	return &MeterProvider{
		provider: provider,
		server:   srv,
		listener: listener,
	}, nil
}
