// Package inventory holds the tool registry: a flat collection of MCP tools
// grouped into toolsets, with read-only and toolset filtering applied at
// build time so disabled tools are never registered with a server.
package inventory

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolsetID identifies a toolset. A distinct type keeps lookups type-safe.
type ToolsetID string

// ToolsetMetadata describes the toolset a tool belongs to.
type ToolsetMetadata struct {
	// ID is the unique identifier for the toolset (e.g. "repos", "issues").
	ID ToolsetID
	// Description is a human-readable summary of the toolset.
	Description string
	// Default marks the toolset as enabled when no explicit selection is made.
	Default bool
}

// ServerTool pairs a static MCP tool definition with its toolset membership
// and a handler generator. Handlers are produced on demand at registration
// time so tool lists can be built and filtered without any dependencies.
type ServerTool struct {
	// Tool is the MCP definition: name, description, input schema, annotations.
	Tool mcp.Tool

	// Toolset records which toolset the tool belongs to.
	Toolset ToolsetMetadata

	// HandlerFunc generates the handler when given dependencies. The deps
	// parameter is typed as any to avoid a dependency cycle; callers assert
	// to their own dependencies type.
	HandlerFunc func(deps any) mcp.ToolHandler
}

// IsReadOnly reports whether the tool is marked read-only via annotations.
// Write capability is declared here, not checked at call time: in read-only
// mode non-read-only tools are excluded from registration entirely.
func (st *ServerTool) IsReadOnly() bool {
	return st.Tool.Annotations != nil && st.Tool.Annotations.ReadOnlyHint
}

// Handler produces the tool handler for the given dependencies.
// Panics when HandlerFunc is nil, since every tool must have a handler.
func (st *ServerTool) Handler(deps any) mcp.ToolHandler {
	if st.HandlerFunc == nil {
		panic("HandlerFunc is nil for tool: " + st.Tool.Name)
	}
	return st.HandlerFunc(deps)
}

// Register adds the tool to the server with a handler bound to deps.
func (st *ServerTool) Register(s *mcp.Server, deps any) {
	handler := st.Handler(deps)
	toolCopy := st.Tool
	s.AddTool(&toolCopy, handler)
}

// NewServerToolWithContextHandler creates a ServerTool whose handler reads
// its dependencies from the request context at call time. Arguments are
// unmarshalled into In before the typed handler runs; a malformed payload
// fails before the handler sees it.
func NewServerToolWithContextHandler[In, Out any](tool mcp.Tool, toolset ToolsetMetadata, handler mcp.ToolHandlerFor[In, Out]) ServerTool {
	return ServerTool{
		Tool:    tool,
		Toolset: toolset,
		HandlerFunc: func(_ any) mcp.ToolHandler {
			return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				var arguments In
				if err := json.Unmarshal(req.Params.Arguments, &arguments); err != nil {
					return nil, err
				}
				resp, _, err := handler(ctx, req, arguments)
				return resp, err
			}
		},
	}
}

// NewServerToolFromHandler creates a ServerTool from a raw handler generator.
func NewServerToolFromHandler(tool mcp.Tool, toolset ToolsetMetadata, handlerFn func(deps any) mcp.ToolHandler) ServerTool {
	return ServerTool{Tool: tool, Toolset: toolset, HandlerFunc: handlerFn}
}
