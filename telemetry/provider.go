package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// ProviderConfig selects how observations leave the process.
type ProviderConfig struct {
	ServiceName string
	Exporter    string
	Interval    time.Duration
	Writer      io.Writer
}

// Providers are the SDK meter and tracer providers of the process.
type Providers struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
}

// NewProviders builds SDK providers for cfg. The "none" exporter yields nil
// providers and no error.
func NewProviders(cfg ProviderConfig) (*Providers, error) {
	if cfg.Exporter == "" {
		cfg.Exporter = ExporterStdout
	}
	if cfg.Exporter == ExporterNone {
		return nil, nil
	}
	if cfg.Exporter != ExporterStdout {
		return nil, fmt.Errorf("telemetry: unknown exporter %q", cfg.Exporter)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "mskrouter"
	}
	var w io.Writer = os.Stdout
	if cfg.Writer != nil {
		w = cfg.Writer
	}
	w = &lockedWriter{w: w}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("telemetry: metric exporter: %w", err)
	}
	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("telemetry: trace exporter: %w", err)
	}

	return &Providers{
		MeterProvider: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(cfg.Interval))),
		),
		TracerProvider: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(traceExporter),
		),
	}, nil
}

// Install makes p the global providers.
func (p *Providers) Install() {
	otel.SetMeterProvider(p.MeterProvider)
	otel.SetTracerProvider(p.TracerProvider)
}

// ForceFlush exports everything buffered. Lambda freezes the process between
// invocations, so the engine calls it once per invocation.
func (p *Providers) ForceFlush(ctx context.Context) error {
	return errors.Join(p.MeterProvider.ForceFlush(ctx), p.TracerProvider.ForceFlush(ctx))
}

func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(p.MeterProvider.Shutdown(ctx), p.TracerProvider.Shutdown(ctx))
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}
