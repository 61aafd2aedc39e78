// Package mcpserver publishes the IRIS tools over the Model Context Protocol.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sentinel-Gate/irisgate/internal/domain/exposure"
	"github.com/Sentinel-Gate/irisgate/internal/service"
)

// DefaultName is the implementation name announced to clients.
const DefaultName = "iris-gate"

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the implementation version announced to clients.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// Server is the MCP face of a service.Service. It registers the tools the
// exposure policy allows once, at construction.
type Server struct {
	svc     *service.Service
	logger  *slog.Logger
	version string
	tools   []service.Descriptor
	mcp     *mcp.Server
}

// New builds a Server exposing the tools policy allows. A nil policy
// exposes everything.
func New(svc *service.Service, policy exposure.Policy, opts ...Option) (*Server, error) {
	s := &Server{svc: svc, logger: slog.Default(), version: "dev"}
	for _, opt := range opts {
		opt(s)
	}

	tools, err := service.ExposedTools(policy)
	if err != nil {
		return nil, fmt.Errorf("evaluating tool exposure: %w", err)
	}
	s.tools = tools

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: DefaultName, Version: s.version}, nil)
	bindings := s.bindings()
	for _, d := range tools {
		bind, ok := bindings[d.Name]
		if !ok {
			return nil, fmt.Errorf("tool %q has no handler", d.Name)
		}
		bind(s.mcp, &mcp.Tool{
			Name:        d.Name,
			Description: d.Description,
			Annotations: &mcp.ToolAnnotations{ReadOnlyHint: d.ReadOnly},
		})
	}
	s.logger.Info("tools registered", "exposed", len(tools), "available", len(service.Tools()))
	return s, nil
}

// Tools returns the exposed tool descriptors in registration order.
func (s *Server) Tools() []service.Descriptor {
	out := make([]service.Descriptor, len(s.tools))
	copy(out, s.tools)
	return out
}

// MCP returns the underlying go-sdk server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// RunStdio serves a single client over stdin/stdout until ctx is done or
// the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
}
