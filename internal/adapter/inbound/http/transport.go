package http

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sentinel-Gate/irisgate/internal/domain/auth"
	"github.com/Sentinel-Gate/irisgate/internal/domain/ratelimit"
	"github.com/Sentinel-Gate/irisgate/internal/port/inbound"
)

// DefaultMCPPath is where the MCP endpoint is mounted unless WithMCPPath is set.
const DefaultMCPPath = "/mcp"

const shutdownTimeout = 10 * time.Second

// HTTPTransport serves an MCP handler together with /health and /metrics.
type HTTPTransport struct {
	mcpHandler     http.Handler
	server         *http.Server
	addr           string
	mcpPath        string
	allowedOrigins []string
	certFile       string
	keyFile        string
	keys           *auth.KeySet
	logger         *slog.Logger
	registry       *prometheus.Registry
	metrics        *Metrics
	healthChecker  *HealthChecker
	limiter        ratelimit.Limiter
	limit          ratelimit.Limit
}

// Option is a functional option for configuring HTTPTransport.
type Option func(*HTTPTransport)

// WithAddr sets the listen address for the HTTP server.
// Default is "127.0.0.1:9000" (localhost only).
func WithAddr(addr string) Option {
	return func(t *HTTPTransport) {
		t.addr = addr
	}
}

// WithMCPPath sets the path of the MCP endpoint.
func WithMCPPath(path string) Option {
	return func(t *HTTPTransport) {
		if path != "" {
			t.mcpPath = "/" + strings.Trim(path, "/")
		}
	}
}

// WithTLS enables TLS with the provided certificate and key files.
// If not set, the server runs without TLS (plain HTTP).
func WithTLS(certFile, keyFile string) Option {
	return func(t *HTTPTransport) {
		t.certFile = certFile
		t.keyFile = keyFile
	}
}

// WithAllowedOrigins sets the allowed origins for DNS rebinding protection.
// If empty, all requests with an Origin header are blocked (local-only mode).
func WithAllowedOrigins(origins []string) Option {
	return func(t *HTTPTransport) {
		t.allowedOrigins = origins
	}
}

// WithKeys enables bearer authentication against keys.
func WithKeys(keys *auth.KeySet) Option {
	return func(t *HTTPTransport) {
		t.keys = keys
	}
}

// WithLogger sets the logger for the HTTP transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// WithMetrics serves reg on /metrics and records request metrics into m.
// Without it the transport creates its own registry.
func WithMetrics(reg *prometheus.Registry, m *Metrics) Option {
	return func(t *HTTPTransport) {
		t.registry = reg
		t.metrics = m
	}
}

// WithHealthChecker sets the health checker for the /health endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(t *HTTPTransport) {
		t.healthChecker = hc
	}
}

// WithRateLimit throttles MCP requests per caller.
func WithRateLimit(limiter ratelimit.Limiter, limit ratelimit.Limit) Option {
	return func(t *HTTPTransport) {
		t.limiter = limiter
		t.limit = limit
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// MetricsHandler serves the metrics gathered by g.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NewHTTPTransport creates an HTTP transport serving mcpHandler.
func NewHTTPTransport(mcpHandler http.Handler, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		mcpHandler:     mcpHandler,
		addr:           "127.0.0.1:9000",
		mcpPath:        DefaultMCPPath,
		allowedOrigins: []string{},
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}
	if t.registry == nil {
		t.registry = NewRegistry()
		t.metrics = NewMetrics(t.registry)
	}

	return t
}

// Handler builds the routed handler with the middleware chain applied to
// the MCP endpoint.
func (t *HTTPTransport) Handler() http.Handler {
	// Metrics -> RequestID -> RealIP -> DNSRebinding -> BearerAuth -> RateLimit -> MCP
	mcp := t.mcpHandler
	mcp = RateLimit(t.limiter, t.limit, t.metrics)(mcp)
	mcp = BearerAuth(t.keys, t.metrics)(mcp)
	mcp = DNSRebindingProtection(t.allowedOrigins)(mcp)
	mcp = RealIPMiddleware(mcp)
	mcp = RequestIDMiddleware(t.logger)(mcp)
	if t.metrics != nil {
		mcp = MetricsMiddleware(t.metrics)(mcp)
	}

	mux := http.NewServeMux()
	if t.healthChecker != nil {
		mux.Handle("/health", t.healthChecker.Handler())
	} else {
		mux.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"healthy"}` + "\n"))
		}))
	}
	mux.Handle("/metrics", MetricsHandler(t.registry))
	mux.Handle("/favicon.ico", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.Handle(t.mcpPath, mcp)
	mux.Handle(t.mcpPath+"/", mcp)
	return mux
}

// Start begins accepting HTTP connections.
// It blocks until the context is cancelled or an error occurs.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.server = &http.Server{
		Addr:              t.addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if t.certFile != "" && t.keyFile != "" {
		t.server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if t.certFile != "" && t.keyFile != "" {
			t.logger.Info("starting HTTPS server", "addr", t.addr, "mcp_path", t.mcpPath)
			err = t.server.ListenAndServeTLS(t.certFile, t.keyFile)
		} else {
			t.logger.Info("starting HTTP server", "addr", t.addr, "mcp_path", t.mcpPath)
			err = t.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("context cancelled, shutting down HTTP server")
		return t.shutdown()
	case err := <-errCh:
		return err
	}
}

func (t *HTTPTransport) shutdown() error {
	return Shutdown(t.server, t.logger)
}

// Close gracefully shuts down the transport.
func (t *HTTPTransport) Close() error {
	if t.server == nil {
		return nil
	}
	return t.shutdown()
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return Shutdown(srv, logger)
	case err := <-errCh:
		return err
	}
}

// Shutdown stops srv, waiting up to ten seconds for in-flight requests.
func Shutdown(srv *http.Server, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during server shutdown", "addr", srv.Addr, "error", err)
		return err
	}
	logger.Info("HTTP server shutdown complete", "addr", srv.Addr)
	return nil
}

// Compile-time check that HTTPTransport implements the Transport port.
var _ inbound.Transport = (*HTTPTransport)(nil)
