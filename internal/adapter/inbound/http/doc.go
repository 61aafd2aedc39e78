// Package http serves the MCP tools over the Streamable HTTP transport.
//
// # Endpoints
//
//	<mcp path>  - MCP Streamable HTTP (POST, GET for the event stream, DELETE)
//	/health     - JSON health report
//	/metrics    - Prometheus metrics
//
// # Request Headers
//
//	Authorization: Bearer <api-key>  - required when API key hashes are configured
//	X-Request-ID: <id>               - optional correlation id, echoed back
//
// # Middleware Chain
//
// Requests to the MCP path pass through, outermost first:
//
//  1. MetricsMiddleware - request count and duration
//  2. RequestIDMiddleware - correlation id and enriched logger
//  3. RealIPMiddleware - client IP from proxy headers
//  4. DNSRebindingProtection - Origin allowlist
//  5. BearerAuth - API key check against argon2id or sha256 hashes
//  6. RateLimit - per key or per IP throttling, 429 with Retry-After
//
// TLS 1.2 is the minimum when WithTLS is set.
package http
