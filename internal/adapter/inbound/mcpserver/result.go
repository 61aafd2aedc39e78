package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// binding registers one tool handler on a go-sdk server.
type binding func(srv *mcp.Server, tool *mcp.Tool)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// errorResult renders a failed call. The error text is what the caller
// reads, so it is passed through unchanged.
func errorResult(err error) *mcp.CallToolResult {
	res := textResult(err.Error())
	res.IsError = true
	return res
}

// textTool binds a tool that answers with a rendered summary.
func textTool[In any](fn func(ctx context.Context, in In) (string, error)) binding {
	return func(srv *mcp.Server, tool *mcp.Tool) {
		mcp.AddTool(srv, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			out, err := fn(ctx, in)
			if err != nil {
				return errorResult(err), nil, nil
			}
			return textResult(out), nil, nil
		})
	}
}

// jsonTool binds a tool that answers with structured data rendered as JSON.
func jsonTool[In any](fn func(ctx context.Context, in In) (any, error)) binding {
	return func(srv *mcp.Server, tool *mcp.Tool) {
		mcp.AddTool(srv, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			data, err := fn(ctx, in)
			if err != nil {
				return errorResult(err), nil, nil
			}
			body, err := json.Marshal(data)
			if err != nil {
				return errorResult(err), nil, nil
			}
			return textResult(string(body)), nil, nil
		})
	}
}
