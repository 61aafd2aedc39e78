// Package ctxkey defines context key types shared by the HTTP transport and
// the service layer. It imports nothing internal.
package ctxkey

// LoggerKey is the context key type for the request-scoped logger carrying
// request_id and the caller's key label.
type LoggerKey struct{}
