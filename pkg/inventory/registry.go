package inventory

import (
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Inventory is an immutable, filtered collection of tools ready for
// registration. Construct one with a Builder.
type Inventory struct {
	tools []ServerTool

	readOnly        bool
	enabledToolsets map[ToolsetID]struct{}
	allToolsets     bool
	enabledTools    map[string]struct{}
	filters         []FilterFunc
}

// FilterFunc reports whether a tool should be part of the inventory.
type FilterFunc func(tool ServerTool) bool

// AvailableTools returns the tools that pass every active filter, sorted by
// name for deterministic listings.
func (inv *Inventory) AvailableTools() []ServerTool {
	available := make([]ServerTool, 0, len(inv.tools))
	for _, tool := range inv.tools {
		if inv.isAvailable(tool) {
			available = append(available, tool)
		}
	}
	sortTools(available)
	return available
}

// AllTools returns every registered tool regardless of filtering, sorted by
// name. Used by documentation generators and snapshot tests.
func (inv *Inventory) AllTools() []ServerTool {
	all := slices.Clone(inv.tools)
	sortTools(all)
	return all
}

// FindToolByName looks a tool up among the available tools.
func (inv *Inventory) FindToolByName(name string) (ServerTool, error) {
	for _, tool := range inv.tools {
		if tool.Tool.Name == name && inv.isAvailable(tool) {
			return tool, nil
		}
	}
	return ServerTool{}, NewToolDoesNotExistError(name)
}

// IsToolsetEnabled reports whether the toolset survives the current
// toolset selection.
func (inv *Inventory) IsToolsetEnabled(id ToolsetID) bool {
	if inv.allToolsets {
		return true
	}
	_, ok := inv.enabledToolsets[id]
	return ok
}

// RegisterTools adds every available tool to the server, binding handlers to
// deps. Tools excluded by read-only mode or toolset selection are never
// registered, so the server cannot route a call to them.
func (inv *Inventory) RegisterTools(s *mcp.Server, deps any) {
	for _, tool := range inv.AvailableTools() {
		tool.Register(s, deps)
	}
}

func (inv *Inventory) isAvailable(tool ServerTool) bool {
	if inv.readOnly && !tool.IsReadOnly() {
		return false
	}
	if !inv.IsToolsetEnabled(tool.Toolset.ID) {
		// Individually enabled tools bypass toolset selection.
		if _, ok := inv.enabledTools[tool.Tool.Name]; !ok {
			return false
		}
	}
	for _, filter := range inv.filters {
		if !filter(tool) {
			return false
		}
	}
	return true
}

func sortTools(tools []ServerTool) {
	slices.SortFunc(tools, func(a, b ServerTool) int {
		return strings.Compare(a.Tool.Name, b.Tool.Name)
	})
}
