package github

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quanticsoul4772/github-mcp-sub000/pkg/paginate"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/utils"
)

// NewServer creates the GitHub MCP server instance.
func NewServer(version string, opts *mcp.ServerOptions) *mcp.Server {
	if opts == nil {
		opts = &mcp.ServerOptions{}
	}
	return mcp.NewServer(&mcp.Implementation{
		Name:    "github-mcp-server",
		Title:   "GitHub MCP Server",
		Version: version,
	}, opts)
}

// RequiredParam fetches a required parameter from the arguments map.
// It fails when the parameter is absent, of the wrong type, or zero-valued.
func RequiredParam[T comparable](args map[string]any, p string) (T, error) {
	var zero T

	if _, ok := args[p]; !ok {
		return zero, fmt.Errorf("missing required parameter: %s", p)
	}

	val, ok := args[p].(T)
	if !ok {
		return zero, fmt.Errorf("parameter %s is not of type %T", p, zero)
	}

	if val == zero {
		return zero, fmt.Errorf("missing required parameter: %s", p)
	}

	return val, nil
}

// RequiredInt fetches a required integer parameter. JSON numbers arrive as
// float64, so the lookup goes through that type.
func RequiredInt(args map[string]any, p string) (int, error) {
	v, err := RequiredParam[float64](args, p)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// OptionalParam fetches an optional parameter, returning the zero value when
// absent and an error when present with the wrong type.
func OptionalParam[T any](args map[string]any, p string) (T, error) {
	var zero T

	if _, ok := args[p]; !ok {
		return zero, nil
	}

	val, ok := args[p].(T)
	if !ok {
		return zero, fmt.Errorf("parameter %s is not of type %T, is %T", p, zero, args[p])
	}

	return val, nil
}

// OptionalParamOK fetches an optional parameter along with whether it was
// present. A present-but-mistyped parameter reports ok=true with an error.
func OptionalParamOK[T any](args map[string]any, p string) (value T, ok bool, err error) {
	val, exists := args[p]
	if !exists {
		return
	}

	value, ok = val.(T)
	if !ok {
		err = fmt.Errorf("parameter %s is not of type %T, is %T", p, value, val)
		ok = true
		return
	}

	ok = true
	return
}

// OptionalIntParam fetches an optional integer parameter.
func OptionalIntParam(args map[string]any, p string) (int, error) {
	v, err := OptionalParam[float64](args, p)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// OptionalIntParamWithDefault fetches an optional integer parameter, falling
// back to d when absent or zero.
func OptionalIntParamWithDefault(args map[string]any, p string, d int) (int, error) {
	v, err := OptionalIntParam(args, p)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return d, nil
	}
	return v, nil
}

// OptionalBoolParamWithDefault fetches an optional bool parameter, falling
// back to d when absent.
func OptionalBoolParamWithDefault(args map[string]any, p string, d bool) (bool, error) {
	_, ok := args[p]
	v, err := OptionalParam[bool](args, p)
	if err != nil {
		return false, err
	}
	if !ok {
		return d, nil
	}
	return v, nil
}

// OptionalStringArrayParam fetches an optional string array parameter.
// JSON arrays arrive as []any; each element must be a string.
func OptionalStringArrayParam(args map[string]any, p string) ([]string, error) {
	if _, ok := args[p]; !ok {
		return []string{}, nil
	}

	switch v := args[p].(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		strSlice := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return []string{}, fmt.Errorf("parameter %s is not of type string, is %T", p, item)
			}
			strSlice[i] = s
		}
		return strSlice, nil
	default:
		return []string{}, fmt.Errorf("parameter %s could not be coerced to []string, is %T", p, args[p])
	}
}

// WithPagination adds REST API pagination parameters to a tool schema.
// https://docs.github.com/en/rest/using-the-rest-api/using-pagination-in-the-rest-api
func WithPagination(schema *jsonschema.Schema) *jsonschema.Schema {
	schema.Properties["page"] = &jsonschema.Schema{
		Type:        "number",
		Description: "Page number for pagination (min 1)",
		Minimum:     jsonschema.Ptr(1.0),
	}

	schema.Properties["perPage"] = &jsonschema.Schema{
		Type:        "number",
		Description: "Results per page for pagination (min 1, max 100)",
		Minimum:     jsonschema.Ptr(1.0),
		Maximum:     jsonschema.Ptr(100.0),
	}

	return schema
}

// WithCursorPagination adds GraphQL cursor pagination parameters to a tool
// schema: a page size, a resume cursor, and the auto-paging controls.
func WithCursorPagination(schema *jsonschema.Schema) *jsonschema.Schema {
	schema.Properties["perPage"] = &jsonschema.Schema{
		Type:        "number",
		Description: "Results per page for pagination (min 1, max 100)",
		Minimum:     jsonschema.Ptr(1.0),
		Maximum:     jsonschema.Ptr(100.0),
	}

	schema.Properties["after"] = &jsonschema.Schema{
		Type:        "string",
		Description: "Cursor for pagination. Use the endCursor from the previous page's PageInfo to resume.",
	}

	schema.Properties["autoPage"] = &jsonschema.Schema{
		Type:        "boolean",
		Description: "Automatically fetch consecutive pages until exhaustion or a configured cap.",
	}

	schema.Properties["maxPages"] = &jsonschema.Schema{
		Type:        "number",
		Description: fmt.Sprintf("Maximum number of pages fetched when autoPage is set (default %d)", paginate.DefaultMaxPages),
		Minimum:     jsonschema.Ptr(1.0),
	}

	schema.Properties["maxItems"] = &jsonschema.Schema{
		Type:        "number",
		Description: "Maximum total items collected when autoPage is set; excess items on the last page are trimmed.",
		Minimum:     jsonschema.Ptr(1.0),
	}

	return schema
}

// PaginationParams carries REST pagination arguments.
type PaginationParams struct {
	Page    int
	PerPage int
}

// OptionalPaginationParams extracts page and perPage with their defaults
// (page 1, perPage 30).
func OptionalPaginationParams(args map[string]any) (PaginationParams, error) {
	page, err := OptionalIntParamWithDefault(args, "page", 1)
	if err != nil {
		return PaginationParams{}, err
	}
	perPage, err := OptionalIntParamWithDefault(args, "perPage", paginate.DefaultPageSize)
	if err != nil {
		return PaginationParams{}, err
	}
	return PaginationParams{Page: page, PerPage: perPage}, nil
}

// CursorPaginationParams carries the GraphQL cursor pagination arguments for
// list tools backed by the pagination engine.
type CursorPaginationParams struct {
	PerPage  int
	After    string
	AutoPage bool
	MaxPages int
	MaxItems int
}

// OptionalCursorPaginationParams extracts perPage, after, autoPage, maxPages
// and maxItems from the arguments. Defaults beyond perPage are left to the
// engine so its validation reports out-of-range values uniformly.
func OptionalCursorPaginationParams(args map[string]any) (CursorPaginationParams, error) {
	perPage, err := OptionalIntParamWithDefault(args, "perPage", paginate.DefaultPageSize)
	if err != nil {
		return CursorPaginationParams{}, err
	}
	after, err := OptionalParam[string](args, "after")
	if err != nil {
		return CursorPaginationParams{}, err
	}
	autoPage, err := OptionalParam[bool](args, "autoPage")
	if err != nil {
		return CursorPaginationParams{}, err
	}
	maxPages, err := OptionalIntParam(args, "maxPages")
	if err != nil {
		return CursorPaginationParams{}, err
	}
	maxItems, err := OptionalIntParam(args, "maxItems")
	if err != nil {
		return CursorPaginationParams{}, err
	}
	return CursorPaginationParams{
		PerPage:  perPage,
		After:    after,
		AutoPage: autoPage,
		MaxPages: maxPages,
		MaxItems: maxItems,
	}, nil
}

// ToOptions converts the tool arguments into engine options.
func (p CursorPaginationParams) ToOptions() paginate.Options {
	return paginate.Options{
		First:    p.PerPage,
		After:    p.After,
		AutoPage: p.AutoPage,
		MaxPages: p.MaxPages,
		MaxItems: p.MaxItems,
	}
}

// MarshalledTextResult marshals v to JSON and wraps it in a text result.
func MarshalledTextResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return utils.NewToolResultErrorFromErr("failed to marshal text result to json", err)
	}
	return utils.NewToolResultText(string(data))
}

// PaginatedResult is the response envelope for list tools backed by the
// pagination engine.
type PaginatedResult[T any] struct {
	Items      []T               `json:"items"`
	TotalCount int               `json:"totalCount"`
	HasMore    bool              `json:"hasMore"`
	NextCursor string            `json:"nextCursor,omitempty"`
	PageInfo   paginate.PageInfo `json:"pageInfo"`
}

// NewPaginatedResult wraps shaped items with the pagination state of the
// engine result they came from.
func NewPaginatedResult[T, N any](items []T, res paginate.Result[N]) PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	return PaginatedResult[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		HasMore:    res.HasMore,
		NextCursor: res.NextCursor,
		PageInfo:   res.PageInfo,
	}
}
