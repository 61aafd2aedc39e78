package mcpserver

import (
	"context"
	"errors"
	"io"

	"github.com/Sentinel-Gate/irisgate/internal/port/inbound"
)

// StdioTransport serves a single client over stdin/stdout.
type StdioTransport struct {
	server *Server
}

// Stdio returns the stdio transport of s.
func (s *Server) Stdio() *StdioTransport {
	return &StdioTransport{server: s}
}

// Start serves until ctx is done or the client disconnects. Both count as
// a graceful shutdown.
func (t *StdioTransport) Start(ctx context.Context) error {
	err := t.server.RunStdio(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Close is a no-op; the session ends with Start's context.
func (t *StdioTransport) Close() error { return nil }

var _ inbound.Transport = (*StdioTransport)(nil)
