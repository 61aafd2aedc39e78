// Package integration runs iris-gate end to end: an MCP client over
// streamable HTTP, the HTTP transport, the tool service, the IRIS client
// and a fake IRIS server.
package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	httpin "github.com/Sentinel-Gate/irisgate/internal/adapter/inbound/http"
	"github.com/Sentinel-Gate/irisgate/internal/adapter/inbound/mcpserver"
	"github.com/Sentinel-Gate/irisgate/internal/adapter/outbound/iris"
	"github.com/Sentinel-Gate/irisgate/internal/domain/auth"
	"github.com/Sentinel-Gate/irisgate/internal/domain/exposure"
	"github.com/Sentinel-Gate/irisgate/internal/service"
)

const (
	irisKey   = "iris-secret"
	bearerKey = "gate-secret"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeIRIS answers a fixed set of routes with IRIS envelopes.
type fakeIRIS struct {
	mu     sync.Mutex
	routes map[string]string
	hits   []string
}

func newFakeIRIS() *fakeIRIS {
	return &fakeIRIS{routes: map[string]string{}}
}

func (f *fakeIRIS) on(method, path, data string) {
	f.routes[method+" "+path] = `{"status":"success","message":"","data":` + data + `}`
}

func (f *fakeIRIS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "Bearer "+irisKey {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"status":"error","message":"Permission denied","data":null}`)
		return
	}
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.hits = append(f.hits, key)
	body, ok := f.routes[key]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"status":"error","message":"Not found","data":null}`)
		return
	}
	_, _ = io.WriteString(w, body)
}

func (f *fakeIRIS) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hits...)
}

// gateway is a running iris-gate HTTP endpoint.
type gateway struct {
	url      string
	registry *prometheus.Registry
}

// startGateway wires iris-gate against settings and serves it over HTTP
// with bearer auth.
func startGateway(t *testing.T, settings iris.Settings, policy exposure.Policy) *gateway {
	t.Helper()
	logger := testLogger()

	registry := prometheus.NewRegistry()
	metrics := httpin.NewMetrics(registry)
	svc := service.New(
		iris.Factory(settings, iris.WithObserver(metrics), iris.WithLogger(logger)),
		service.WithLogger(logger),
		service.WithCallObserver(metrics),
	)
	srv, err := mcpserver.New(svc, policy, mcpserver.WithLogger(logger), mcpserver.WithVersion("test"))
	if err != nil {
		t.Fatalf("mcpserver.New: %v", err)
	}

	keys, err := auth.NewKeySet([]string{auth.HashKey(bearerKey)})
	if err != nil {
		t.Fatal(err)
	}
	transport := httpin.NewHTTPTransport(srv.Handler(),
		httpin.WithLogger(logger),
		httpin.WithKeys(keys),
		httpin.WithMetrics(registry, metrics),
		httpin.WithHealthChecker(httpin.NewHealthChecker(settings.BaseURL(), len(srv.Tools()), "test")),
	)
	ts := httptest.NewServer(transport.Handler())
	t.Cleanup(func() {
		ts.CloseClientConnections()
		ts.Close()
	})
	return &gateway{url: ts.URL, registry: registry}
}

// bearer adds the gateway key to every request.
type bearer struct {
	key  string
	next http.RoundTripper
}

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.key)
	return b.next.RoundTrip(r)
}

// connect opens an MCP client session to g over streamable HTTP.
func connect(t *testing.T, g *gateway, key string) (*mcp.ClientSession, error) {
	t.Helper()
	httpClient := &http.Client{Transport: bearer{key: key, next: http.DefaultTransport}}
	client := mcp.NewClient(&mcp.Implementation{Name: "integration", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(context.Background(), &mcp.StreamableClientTransport{
		Endpoint:   g.url + httpin.DefaultMCPPath,
		HTTPClient: httpClient,
	}, nil)
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs, nil
}

// callText calls a tool and returns its single text content.
func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("CallTool(%s) returned %d content items", name, len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s) content is %T", name, res.Content[0])
	}
	return text.Text, res.IsError
}
