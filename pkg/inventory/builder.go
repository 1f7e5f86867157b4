package inventory

// Builder assembles an Inventory from a tool list and filtering options.
// The zero value is not usable; start with NewBuilder.
type Builder struct {
	tools []ServerTool

	readOnly     bool
	toolsets     []string
	tools2Enable []string
	filters      []FilterFunc
}

// Toolset selection keywords accepted by WithToolsets.
const (
	// ToolsetsAll enables every registered toolset.
	ToolsetsAll = "all"
	// ToolsetsDefault enables the toolsets marked Default.
	ToolsetsDefault = "default"
)

func NewBuilder() *Builder {
	return &Builder{}
}

// SetTools replaces the builder's tool list.
func (b *Builder) SetTools(tools []ServerTool) *Builder {
	b.tools = tools
	return b
}

// AddTools appends tools to the builder's tool list.
func (b *Builder) AddTools(tools ...ServerTool) *Builder {
	b.tools = append(b.tools, tools...)
	return b
}

// WithReadOnly excludes tools that are not marked read-only.
func (b *Builder) WithReadOnly(readOnly bool) *Builder {
	b.readOnly = readOnly
	return b
}

// WithToolsets selects the enabled toolsets. Entries may be toolset IDs or
// the keywords "all" and "default". An empty or nil selection means default.
func (b *Builder) WithToolsets(toolsets []string) *Builder {
	b.toolsets = toolsets
	return b
}

// WithTools enables individual tools by name, regardless of whether their
// toolset is selected. Read-only filtering still applies.
func (b *Builder) WithTools(names []string) *Builder {
	b.tools2Enable = append(b.tools2Enable, names...)
	return b
}

// WithFilter adds an arbitrary availability filter.
func (b *Builder) WithFilter(f FilterFunc) *Builder {
	b.filters = append(b.filters, f)
	return b
}

// Build resolves the toolset selection and produces the Inventory.
func (b *Builder) Build() *Inventory {
	inv := &Inventory{
		tools:           b.tools,
		readOnly:        b.readOnly,
		enabledToolsets: make(map[ToolsetID]struct{}),
		enabledTools:    make(map[string]struct{}),
		filters:         b.filters,
	}

	selection := b.toolsets
	if len(selection) == 0 {
		selection = []string{ToolsetsDefault}
	}
	for _, entry := range selection {
		switch entry {
		case ToolsetsAll:
			inv.allToolsets = true
		case ToolsetsDefault:
			for _, tool := range b.tools {
				if tool.Toolset.Default {
					inv.enabledToolsets[tool.Toolset.ID] = struct{}{}
				}
			}
		default:
			inv.enabledToolsets[ToolsetID(entry)] = struct{}{}
		}
	}

	for _, name := range b.tools2Enable {
		inv.enabledTools[name] = struct{}{}
	}

	return inv
}
