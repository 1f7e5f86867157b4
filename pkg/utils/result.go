// Package utils provides constructors for MCP tool call results.
package utils

import "github.com/modelcontextprotocol/go-sdk/mcp"

// NewToolResultText returns a successful result with one text content block.
func NewToolResultText(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
	}
}

// NewToolResultError returns a structured error result. Tool handlers return
// these instead of Go errors so a failing call never crashes the server.
func NewToolResultError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// NewToolResultErrorFromErr returns a structured error result combining a
// message with the underlying error.
func NewToolResultErrorFromErr(message string, err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message + ": " + err.Error()},
		},
		IsError: true,
	}
}
