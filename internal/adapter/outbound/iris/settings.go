// Package iris provides the HTTP client for the DFIR-IRIS REST API.
package iris

import (
	"strings"
	"time"
)

// API versions with distinct method tables.
const (
	APIVersionV2 = "v2"
	APIVersionV1 = "v1"
)

// DefaultTimeout bounds a single HTTP round trip.
const DefaultTimeout = 30 * time.Second

// Settings are the connection parameters of a session.
type Settings struct {
	// Host is the server address, with or without scheme.
	Host string
	// APIKey is sent as a bearer token.
	APIKey string
	// VerifySSL enables TLS certificate verification.
	VerifySSL bool
	// Timeout bounds each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration
	// APIVersion selects the method table. Empty means APIVersionV2.
	APIVersion string
}

// ConfigError reports a missing connection parameter.
type ConfigError struct {
	Variable string
}

func (e *ConfigError) Error() string {
	return e.Variable + " is not set"
}

// Validate checks that the required parameters are present. The API key is
// checked before the host.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return &ConfigError{Variable: "IRIS_API_KEY"}
	}
	if strings.TrimSpace(s.Host) == "" {
		return &ConfigError{Variable: "IRIS_HOST"}
	}
	return nil
}

// BaseURL returns the host with a scheme and without a trailing slash. A host
// given without a scheme is assumed to be served over https.
func (s Settings) BaseURL() string {
	host := strings.TrimSpace(s.Host)
	if !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/")
}
