// Package inbound defines the inbound port interfaces.
// The stdio and HTTP adapters implement them.
package inbound

import (
	"context"
)

// Transport carries MCP sessions between clients and the tool server.
type Transport interface {
	// Start serves clients.
	// Blocks until ctx is cancelled, the client goes away, or an error occurs.
	// Returns nil on graceful shutdown, error on failure.
	Start(ctx context.Context) error

	// Close shuts the transport down and releases its resources.
	Close() error
}
