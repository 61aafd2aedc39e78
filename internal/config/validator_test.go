package config

import (
	"strings"
	"testing"

	"github.com/Sentinel-Gate/irisgate/internal/domain/auth"
)

// minimalValidConfig returns a defaulted Config for testing.
func minimalValidConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	if err := minimalValidConfig().Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_MissingIRISSettingsAllowed(t *testing.T) {
	t.Parallel()

	// Tool calls report the missing variables; the server still starts.
	cfg := minimalValidConfig()
	if cfg.IRIS.Host != "" || cfg.IRIS.APIKey != "" {
		t.Fatal("defaults should not set host or key")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Server.Transport = "sse" },
			wantSub: "Config.Server.Transport must be one of: stdio http",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantSub: "Config.Server.LogLevel must be one of",
		},
		{
			name:    "bad http addr",
			mutate:  func(c *Config) { c.Server.HTTPAddr = "nope" },
			wantSub: "Config.Server.HTTPAddr must be a valid host:port",
		},
		{
			name:    "relative mcp path",
			mutate:  func(c *Config) { c.Server.MCPPath = "mcp" },
			wantSub: `Config.Server.MCPPath must start with "/"`,
		},
		{
			name:    "bad api version",
			mutate:  func(c *Config) { c.IRIS.APIVersion = "v3" },
			wantSub: "Config.IRIS.APIVersion must be one of: v1 v2",
		},
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.IRIS.Timeout = "soon" },
			wantSub: "Config.IRIS.Timeout must be a positive duration",
		},
		{
			name:    "zero export interval",
			mutate:  func(c *Config) { c.Telemetry.ExportInterval = "0s" },
			wantSub: "Config.Telemetry.ExportInterval must be a positive duration",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.RateLimit.Rate = -1 },
			wantSub: "Config.RateLimit.Rate must be at least 0",
		},
		{
			name:    "bad key hash",
			mutate:  func(c *Config) { c.Auth.APIKeyHashes = []string{"plaintext"} },
			wantSub: "must be an argon2id or sha256 hash",
		},
		{
			name: "metrics on http addr",
			mutate: func(c *Config) {
				c.Server.Transport = TransportHTTP
				c.Server.MetricsAddr = c.Server.HTTPAddr
			},
			wantSub: "server.metrics_addr must differ from server.http_addr",
		},
		{
			name:    "cert without key",
			mutate:  func(c *Config) { c.Server.TLSCertFile = "/tmp/cert.pem" },
			wantSub: "tls_cert_file and tls_key_file must be set together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := minimalValidConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate_AcceptsKeyHashes(t *testing.T) {
	t.Parallel()

	argon, err := auth.HashKeyArgon2id("secret")
	if err != nil {
		t.Fatal(err)
	}
	cfg := minimalValidConfig()
	cfg.Auth.APIKeyHashes = []string{argon, auth.HashKey("other"), "sha256:" + auth.HashKey("third")}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_ZeroConfig(t *testing.T) {
	t.Parallel()

	// Without defaults the enum fields are empty.
	var cfg Config
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() on zero config should fail")
	}
	if !strings.Contains(err.Error(), "Config.Server.Transport") {
		t.Errorf("error = %q, want transport mentioned", err)
	}
}
