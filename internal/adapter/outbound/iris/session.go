package iris

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// maxResponseBodySize caps how much of a response body is read.
const maxResponseBodySize = 10 * 1024 * 1024 // 10MB

// Request outcomes reported to an Observer.
const (
	OutcomeSuccess        = "success"
	OutcomeAPIError       = "api_error"
	OutcomeTransportError = "transport_error"
)

// Observer is notified after every HTTP round trip.
type Observer interface {
	ObserveRequest(method, outcome string, elapsed time.Duration)
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient replaces the HTTP client built from Settings.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		s.httpClient = client
	}
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}

// WithLogger sets the logger used for request debugging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session is an authenticated DFIR-IRIS client. It implements
// outbound.Session with the method table of its API version.
type Session struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	observer   Observer
	logger     *slog.Logger
	methods    map[string]outbound.Method

	// refs caches reference lists (types, statuses) fetched during this session.
	refs map[string][]any
}

var _ outbound.Session = (*Session)(nil)

// Factory returns a SessionFactory that builds a new session from settings
// on every call. Settings errors surface per call, not at startup.
func Factory(settings Settings, opts ...Option) outbound.SessionFactory {
	return func(context.Context) (outbound.Session, error) {
		s, err := NewSession(settings, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// NewSession validates settings and builds a session.
func NewSession(settings Settings, opts ...Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &Session{
		baseURL: settings.BaseURL(),
		apiKey:  settings.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS12,
					InsecureSkipVerify: !settings.VerifySSL, //nolint:gosec // operator opt-out for self-signed IRIS deployments
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		refs: make(map[string][]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	table, err := endpointsFor(settings.APIVersion)
	if err != nil {
		return nil, err
	}
	s.methods = make(map[string]outbound.Method, len(table))
	for _, ep := range table {
		s.methods[ep.name] = outbound.Method{
			Name:     ep.name,
			Params:   ep.params,
			Required: ep.required,
			Call: func(ctx context.Context, args outbound.Args) (outbound.Response, error) {
				return ep.call(ctx, s, args)
			},
		}
	}
	return s, nil
}

// Method looks up an operation by name.
func (s *Session) Method(name string) (outbound.Method, bool) {
	m, ok := s.methods[name]
	return m, ok
}

// Methods lists the available operation names, sorted.
func (s *Session) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close releases idle connections.
func (s *Session) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

// do performs one HTTP round trip and decodes the envelope. label names the
// operation for the observer.
func (s *Session) do(ctx context.Context, label, method, path string, query url.Values, body any) (*Response, error) {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.observe(label, OutcomeTransportError, start)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		s.observe(label, OutcomeTransportError, start)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	out := decodeResponse(resp.StatusCode, raw)
	outcome := OutcomeSuccess
	if out.IsError() {
		outcome = OutcomeAPIError
	}
	s.observe(label, outcome, start)
	s.logger.Debug("iris request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"outcome", outcome,
	)
	return out, nil
}

func (s *Session) observe(label, outcome string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveRequest(label, outcome, time.Since(start))
	}
}
