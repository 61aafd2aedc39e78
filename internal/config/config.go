// Package config provides the configuration schema of iris-gate.
//
// Configuration comes from an optional YAML file plus environment variables.
// The DFIR-IRIS connection keeps its well-known variable names
// (IRIS_API_KEY, IRIS_HOST, IRIS_VERIFY_SSL); everything else is overridden
// with the IRIS_GATE_ prefix, e.g. IRIS_GATE_SERVER_TRANSPORT=http.
// A .env file in the working directory fills in variables that are unset.
//
// Missing IRIS connection settings do not stop the server: every tool call
// reports the missing variable instead, and /health reports unhealthy.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sentinel-Gate/irisgate/internal/adapter/outbound/iris"
	"github.com/Sentinel-Gate/irisgate/internal/domain/ratelimit"
)

// Transports accepted by server.transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the top-level configuration for iris-gate.
type Config struct {
	// Server configures the MCP transport and process-level settings.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// IRIS configures the DFIR-IRIS connection used by every tool call.
	IRIS IRISConfig `yaml:"iris" mapstructure:"iris"`

	// Auth configures optional bearer authentication for the http transport.
	// Without hashes the endpoint is open; the default bind is localhost.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// RateLimit throttles callers of the http transport.
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`

	// Tools selects which tools are exposed.
	Tools ToolsConfig `yaml:"tools" mapstructure:"tools"`

	// Telemetry enables the OpenTelemetry stdout exporters.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	// DevMode forces debug logging.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the listener side.
type ServerConfig struct {
	// Transport is "stdio" (default) or "http".
	Transport string `yaml:"transport" mapstructure:"transport" validate:"oneof=stdio http"`
	// HTTPAddr is the listen address of the http transport.
	// Default: "127.0.0.1:9000".
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`
	// MCPPath is where the MCP endpoint is mounted. Default: "/mcp".
	MCPPath string `yaml:"mcp_path" mapstructure:"mcp_path" validate:"startswith=/"`
	// MetricsAddr optionally serves /metrics on a separate listener.
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	// LogLevel is debug, info, warn or error. Default: "info".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"oneof=debug info warn error"`
	// AllowedOrigins lists browser origins accepted by the http transport.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string `yaml:"tls_cert_file" mapstructure:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file" mapstructure:"tls_key_file"`
}

// IRISConfig holds the DFIR-IRIS connection parameters.
type IRISConfig struct {
	// Host is the IRIS server, with or without scheme.
	Host string `yaml:"host" mapstructure:"host"`
	// APIKey is the IRIS user API key.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// VerifySSL is compared case-insensitively with "true"; any other
	// value disables certificate verification. Default: "true".
	VerifySSL string `yaml:"verify_ssl" mapstructure:"verify_ssl"`
	// Timeout bounds each IRIS request (e.g. "30s"). Default: "30s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"duration"`
	// APIVersion selects the method table: "v2" (default) or "v1".
	APIVersion string `yaml:"api_version" mapstructure:"api_version" validate:"oneof=v1 v2"`
}

// AuthConfig configures bearer keys for the http transport.
type AuthConfig struct {
	// APIKeyHashes are argon2id (PHC) or sha256 hashes of accepted keys.
	APIKeyHashes []string `yaml:"api_key_hashes" mapstructure:"api_key_hashes" validate:"dive,api_key_hash"`
}

// RateLimitConfig configures per-caller throttling. Callers are keyed by
// API key label, or by client IP without auth.
type RateLimitConfig struct {
	// Enabled defaults to true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Rate is the number of requests allowed per Period. Default: 120.
	Rate int `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	// Burst is the number of back-to-back requests allowed. Default: Rate.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
	// Period is the window Rate applies to. Default: "1m".
	Period string `yaml:"period" mapstructure:"period" validate:"duration"`
	// CleanupInterval is how often idle callers are forgotten. Default: "5m".
	CleanupInterval string `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"duration"`
	// MaxTTL is how long an idle caller is remembered. Default: "1h".
	MaxTTL string `yaml:"max_ttl" mapstructure:"max_ttl" validate:"duration"`
}

// ToolsConfig configures tool exposure.
type ToolsConfig struct {
	// Expose is a CEL expression over tool.name, tool.category and
	// tool.read_only. Default: "true".
	Expose string `yaml:"expose" mapstructure:"expose"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`
	// ExportInterval is the metric export period. Default: "30s".
	ExportInterval string `yaml:"export_interval" mapstructure:"export_interval" validate:"duration"`
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	if c.Server.Transport == "" {
		c.Server.Transport = TransportStdio
	}
	// Localhost only unless configured otherwise.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:9000"
	}
	if c.Server.MCPPath == "" {
		c.Server.MCPPath = "/mcp"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.IRIS.VerifySSL == "" {
		c.IRIS.VerifySSL = "true"
	}
	if c.IRIS.Timeout == "" {
		c.IRIS.Timeout = "30s"
	}
	if c.IRIS.APIVersion == "" {
		c.IRIS.APIVersion = iris.APIVersionV2
	}

	// Only default Enabled when neither YAML nor env set it.
	if !viper.IsSet("rate_limit.enabled") {
		c.RateLimit.Enabled = true
	}
	if c.RateLimit.Rate == 0 {
		c.RateLimit.Rate = 120
	}
	if c.RateLimit.Period == "" {
		c.RateLimit.Period = "1m"
	}
	if c.RateLimit.CleanupInterval == "" {
		c.RateLimit.CleanupInterval = "5m"
	}
	if c.RateLimit.MaxTTL == "" {
		c.RateLimit.MaxTTL = "1h"
	}

	if strings.TrimSpace(c.Tools.Expose) == "" {
		c.Tools.Expose = "true"
	}

	if c.Telemetry.ExportInterval == "" {
		c.Telemetry.ExportInterval = "30s"
	}
}

// SetDevDefaults forces debug logging in dev mode.
func (c *Config) SetDevDefaults() {
	if c.DevMode {
		c.Server.LogLevel = "debug"
	}
}

// VerifyTLS reports whether IRIS certificates are verified. YAML booleans
// arrive here as "1" or "0".
func (c IRISConfig) VerifyTLS() bool {
	v := strings.ToLower(strings.TrimSpace(c.VerifySSL))
	return v == "true" || v == "1"
}

// Settings converts the IRIS section into session settings. Call after
// Validate so the timeout parses.
func (c IRISConfig) Settings() iris.Settings {
	timeout, _ := time.ParseDuration(c.Timeout)
	return iris.Settings{
		Host:       c.Host,
		APIKey:     c.APIKey,
		VerifySSL:  c.VerifyTLS(),
		Timeout:    timeout,
		APIVersion: c.APIVersion,
	}
}

// Configured reports whether both connection parameters are present.
func (c IRISConfig) Configured() bool {
	return c.Settings().Validate() == nil
}

// Interval returns the parsed telemetry export interval.
func (c TelemetryConfig) Interval() time.Duration {
	d, _ := time.ParseDuration(c.ExportInterval)
	return d
}

// Limit converts the section into a limiter setting. Call after Validate.
func (c RateLimitConfig) Limit() ratelimit.Limit {
	period, _ := time.ParseDuration(c.Period)
	return ratelimit.Limit{Rate: c.Rate, Burst: c.Burst, Period: period}
}

// Sweep returns the parsed cleanup interval and idle TTL.
func (c RateLimitConfig) Sweep() (interval, maxTTL time.Duration) {
	interval, _ = time.ParseDuration(c.CleanupInterval)
	maxTTL, _ = time.ParseDuration(c.MaxTTL)
	return interval, maxTTL
}
