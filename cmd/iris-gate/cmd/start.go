package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sentinel-Gate/irisgate/internal/adapter/inbound/http"
	"github.com/Sentinel-Gate/irisgate/internal/adapter/inbound/mcpserver"
	"github.com/Sentinel-Gate/irisgate/internal/adapter/outbound/cel"
	"github.com/Sentinel-Gate/irisgate/internal/adapter/outbound/iris"
	"github.com/Sentinel-Gate/irisgate/internal/adapter/outbound/memory"
	"github.com/Sentinel-Gate/irisgate/internal/config"
	"github.com/Sentinel-Gate/irisgate/internal/domain/auth"
	"github.com/Sentinel-Gate/irisgate/internal/port/inbound"
	"github.com/Sentinel-Gate/irisgate/internal/service"
	"github.com/Sentinel-Gate/irisgate/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the MCP server",
	Long: `Start the iris-gate MCP server.

The server speaks MCP over one of two transports:

1. stdio (default): the MCP client spawns iris-gate and talks over
   stdin/stdout. Logs go to stderr.

2. http: streamable HTTP on server.http_addr at server.mcp_path, with
   /health and /metrics. Set auth.api_key_hashes to require bearer keys.

Examples:
  # Start with config file settings
  iris-gate start

  # Serve over HTTP with debug logging
  IRIS_GATE_SERVER_TRANSPORT=http iris-gate start --dev`,
	RunE: runStart,
}

var devMode bool

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Load without validation so CLI flags can override first.
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	// stdout is reserved for the MCP stream in stdio mode.
	logger := newLogger(os.Stderr, cfg)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}
	logger.Info("iris-gate stopped")
	return nil
}

// newLogger builds the process logger. Dev mode always forces debug.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// app holds the wired components of a running server.
type app struct {
	server    *mcpserver.Server
	registry  *prometheus.Registry
	metrics   *http.Metrics
	providers *telemetry.Providers
	settings  iris.Settings
}

// wire builds every component from cfg. Telemetry is exported to
// telemetryOut. The caller shuts down app.providers.
func wire(cfg *config.Config, logger *slog.Logger, telemetryOut io.Writer) (*app, error) {
	providers, err := telemetry.Setup(telemetry.Config{
		Tracing:        cfg.Telemetry.Tracing,
		Metrics:        cfg.Telemetry.Metrics,
		ExportInterval: cfg.Telemetry.Interval(),
		ServiceName:    mcpserver.DefaultName,
		Version:        Version,
	}, telemetryOut, true)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	policy, err := cel.NewPolicy(cfg.Tools.Expose)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("tools.expose: %w", err)
	}

	settings := cfg.IRIS.Settings()
	if err := settings.Validate(); err != nil {
		logger.Warn("IRIS connection is incomplete, tool calls will fail until it is configured", "error", err)
	}

	registry := http.NewRegistry()
	metrics := http.NewMetrics(registry)
	sessions := iris.Factory(settings, iris.WithObserver(metrics), iris.WithLogger(logger))
	svc := service.New(sessions,
		service.WithLogger(logger),
		service.WithCallObserver(metrics),
		service.WithTracerProvider(providers.TracerProvider),
		service.WithMeterProvider(providers.MeterProvider),
	)

	srv, err := mcpserver.New(svc, policy, mcpserver.WithLogger(logger), mcpserver.WithVersion(Version))
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, err
	}
	return &app{
		server:    srv,
		registry:  registry,
		metrics:   metrics,
		providers: providers,
		settings:  settings,
	}, nil
}

// run wires the components and serves until ctx is done or the stdio
// client disconnects.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := wire(cfg, logger, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var transport inbound.Transport
	switch cfg.Server.Transport {
	case config.TransportHTTP:
		var opts []http.Option
		if cfg.RateLimit.Enabled {
			interval, maxTTL := cfg.RateLimit.Sweep()
			limiter := memory.NewRateLimiterWithConfig(logger, interval, maxTTL)
			limiter.StartCleanup(gctx)
			defer limiter.Stop()
			opts = append(opts, http.WithRateLimit(limiter, cfg.RateLimit.Limit()))
		}
		httpTransport, err := newHTTPTransport(cfg, a, logger, opts...)
		if err != nil {
			return err
		}
		transport = httpTransport
	default:
		transport = a.server.Stdio()
	}
	g.Go(func() error {
		// The other listeners stop with the transport.
		defer cancel()
		return transport.Start(gctx)
	})

	if cfg.Server.MetricsAddr != "" {
		mux := stdhttp.NewServeMux()
		mux.Handle("/metrics", http.MetricsHandler(a.registry))
		metricsServer := &stdhttp.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error { return http.Serve(gctx, metricsServer, logger) })
	}

	return g.Wait()
}

// newHTTPTransport builds the streamable HTTP transport for a.
func newHTTPTransport(cfg *config.Config, a *app, logger *slog.Logger, extra ...http.Option) (*http.HTTPTransport, error) {
	keys, err := auth.NewKeySet(cfg.Auth.APIKeyHashes)
	if err != nil {
		return nil, fmt.Errorf("auth.api_key_hashes: %w", err)
	}
	if !keys.Enabled() {
		logger.Warn("HTTP transport has no API keys configured, requests are not authenticated")
	}

	irisURL := ""
	if a.settings.Validate() == nil {
		irisURL = a.settings.BaseURL()
	}

	opts := []http.Option{
		http.WithAddr(cfg.Server.HTTPAddr),
		http.WithMCPPath(cfg.Server.MCPPath),
		http.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		http.WithKeys(keys),
		http.WithLogger(logger),
		http.WithMetrics(a.registry, a.metrics),
		http.WithHealthChecker(http.NewHealthChecker(irisURL, len(a.server.Tools()), Version)),
	}
	if cfg.Server.TLSCertFile != "" {
		opts = append(opts, http.WithTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile))
	}
	opts = append(opts, extra...)
	return http.NewHTTPTransport(a.server.Handler(), opts...), nil
}
