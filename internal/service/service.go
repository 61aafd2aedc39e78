// Package service implements the DFIR-IRIS tools. Each exported method is
// one tool: it opens a fresh session, performs its remote call, normalizes
// the payload and renders a text summary.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sentinel-Gate/irisgate/internal/ctxkey"
	"github.com/Sentinel-Gate/irisgate/internal/domain/catalog"
	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

const instrumentationName = "github.com/Sentinel-Gate/irisgate/internal/service"

// Tool call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// CallObserver is notified after every tool call.
type CallObserver interface {
	ObserveToolCall(tool, outcome string, elapsed time.Duration)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCatalog replaces the built-in catalog set.
func WithCatalog(set *catalog.Set) Option {
	return func(s *Service) { s.catalogs = set }
}

// WithCallObserver registers a CallObserver.
func WithCallObserver(o CallObserver) Option {
	return func(s *Service) { s.observer = o }
}

// WithTracerProvider sets the provider used for per-call spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithMeterProvider sets the provider used for the call counter.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// Service holds the dependencies shared by all tools. It keeps no state
// between calls.
type Service struct {
	sessions outbound.SessionFactory
	catalogs *catalog.Set
	logger   *slog.Logger
	observer CallObserver

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	calls          metric.Int64Counter
}

// New creates a Service that opens one session per tool call through
// sessions.
func New(sessions outbound.SessionFactory, opts ...Option) *Service {
	s := &Service{sessions: sessions}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.catalogs == nil {
		s.catalogs = catalog.Default()
	}
	if s.tracerProvider == nil {
		s.tracerProvider = otel.GetTracerProvider()
	}
	if s.meterProvider == nil {
		s.meterProvider = otel.GetMeterProvider()
	}
	s.tracer = s.tracerProvider.Tracer(instrumentationName)

	counter, err := s.meterProvider.Meter(instrumentationName).Int64Counter("irisgate.tool.calls",
		metric.WithDescription("Tool calls by tool and outcome"))
	if err != nil {
		s.logger.Warn("tool call counter unavailable", "error", err)
		counter = noop.Int64Counter{}
	}
	s.calls = counter
	return s
}

// run executes one tool call. Every failure, including a panic inside fn,
// comes back as a *ToolError labelled with action.
func (s *Service) run(ctx context.Context, tool, action string, fn func(ctx context.Context, sess outbound.Session) (string, error)) (string, error) {
	callID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "tool "+tool, trace.WithAttributes(
		attribute.String("tool.name", tool),
		attribute.String("tool.call_id", callID),
	))
	defer span.End()

	logger := s.loggerFor(ctx)
	logger.Debug("tool call", "tool", tool, "call_id", callID)
	start := time.Now()

	out, err := s.withSession(ctx, fn)
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
		err = &ToolError{Action: action, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("tool call failed", "tool", tool, "call_id", callID, "error", err)
	}

	s.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	))
	if s.observer != nil {
		s.observer.ObserveToolCall(tool, outcome, time.Since(start))
	}
	return out, err
}

// loggerFor prefers the request-scoped logger stored by the HTTP transport.
func (s *Service) loggerFor(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.LoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return s.logger
}

func (s *Service) withSession(ctx context.Context, fn func(ctx context.Context, sess outbound.Session) (string, error)) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	sess, err := s.sessions(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = sess.Close() }()
	return fn(ctx, sess)
}

// call invokes one named operation with nil arguments dropped and unwraps
// the response.
func call(ctx context.Context, sess outbound.Session, method, action string, args outbound.Args) (any, error) {
	m, ok := sess.Method(method)
	if !ok {
		return nil, &normalize.MethodNotFoundError{Action: action, Tried: []string{method}}
	}
	resp, err := m.Invoke(ctx, args.Compact())
	if err != nil {
		return nil, err
	}
	return normalize.ExtractPayload(resp, action)
}

// opt converts an optional input into an argument value; nil pointers
// become nil so that Compact drops them.
func opt[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func optMap(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

func optList[T any](items []T) any {
	if len(items) == 0 {
		return nil
	}
	return items
}
