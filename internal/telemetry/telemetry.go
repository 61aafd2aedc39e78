// Package telemetry sets up OpenTelemetry tracer and meter providers that
// export to a writer, normally stderr.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DefaultExportInterval is used when Config.ExportInterval is zero.
const DefaultExportInterval = 30 * time.Second

// Config selects which signals are exported.
type Config struct {
	Tracing        bool
	Metrics        bool
	ExportInterval time.Duration
	ServiceName    string
	Version        string
}

// Providers holds the tracer and meter providers. Disabled signals use
// no-op providers so callers never need nil checks.
type Providers struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	shutdowns []func(context.Context) error
}

// Setup builds providers exporting to w. When global is true they are
// also installed as the otel globals.
func Setup(cfg Config, w io.Writer, global bool) (*Providers, error) {
	p := &Providers{
		TracerProvider: tracenoop.NewTracerProvider(),
		MeterProvider:  metricnoop.NewMeterProvider(),
	}
	if !cfg.Tracing && !cfg.Metrics {
		return p, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", orUnknown(cfg.ServiceName)),
		attribute.String("service.version", orUnknown(cfg.Version)),
	)

	if cfg.Tracing {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
		p.TracerProvider = tp
		p.shutdowns = append(p.shutdowns, tp.Shutdown)
	}

	if cfg.Metrics {
		interval := cfg.ExportInterval
		if interval <= 0 {
			interval = DefaultExportInterval
		}
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			_ = p.Shutdown(context.Background())
			return nil, fmt.Errorf("metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
			sdkmetric.WithResource(res),
		)
		p.MeterProvider = mp
		p.shutdowns = append(p.shutdowns, mp.Shutdown)
	}

	if global {
		otel.SetTracerProvider(p.TracerProvider)
		otel.SetMeterProvider(p.MeterProvider)
	}
	return p, nil
}

// Shutdown flushes and stops every enabled provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdowns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdowns = nil
	return errors.Join(errs...)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
