package github

import (
	"context"
	"errors"

	gogithub "github.com/google/go-github/v79/github"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shurcooL/githubv4"

	"github.com/quanticsoul4772/github-mcp-sub000/pkg/inventory"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/ratecache"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
)

// depsContextKey is the context key for ToolDependencies. A private type
// prevents collisions with other packages.
type depsContextKey struct{}

// ErrDepsNotInContext is returned when ToolDependencies is not found in context.
var ErrDepsNotInContext = errors.New("ToolDependencies not found in context; use ContextWithDeps to inject")

// ContextWithDeps returns a new context with the ToolDependencies stored in
// it. Dependencies are injected at request time rather than at registration
// time, so tool lists can be built without any clients.
func ContextWithDeps(ctx context.Context, deps ToolDependencies) context.Context {
	return context.WithValue(ctx, depsContextKey{}, deps)
}

// DepsFromContext retrieves ToolDependencies from the context.
func DepsFromContext(ctx context.Context) (ToolDependencies, bool) {
	deps, ok := ctx.Value(depsContextKey{}).(ToolDependencies)
	return deps, ok
}

// MustDepsFromContext retrieves ToolDependencies from the context and panics
// when missing. Handlers cannot do anything useful without deps.
func MustDepsFromContext(ctx context.Context) ToolDependencies {
	deps, ok := DepsFromContext(ctx)
	if !ok {
		panic(ErrDepsNotInContext)
	}
	return deps
}

// ToolDependencies is what tool handlers need at call time. It is an
// interface so servers that build clients per request can supply their own
// implementation.
type ToolDependencies interface {
	// GetClient returns a GitHub REST API client.
	GetClient(ctx context.Context) (*gogithub.Client, error)

	// GetGQLClient returns a GitHub GraphQL client.
	GetGQLClient(ctx context.Context) (*githubv4.Client, error)

	// GetCategoryCache returns the shared discussion category cache.
	GetCategoryCache() *ratecache.Cache[[]DiscussionCategory]

	// GetRateTracker returns the REST rate limit tracker.
	GetRateTracker() *ratecache.Tracker

	// GetT returns the translation helper function.
	GetT() translations.TranslationHelperFunc

	// GetContentWindowSize returns the line window used when truncating logs.
	GetContentWindowSize() int
}

// BaseDeps is the standard ToolDependencies implementation for the local
// server: pre-created clients and static configuration.
type BaseDeps struct {
	Client    *gogithub.Client
	GQLClient *githubv4.Client

	CategoryCache     *ratecache.Cache[[]DiscussionCategory]
	RateTracker       *ratecache.Tracker
	T                 translations.TranslationHelperFunc
	ContentWindowSize int
}

// NewBaseDeps creates a BaseDeps with the provided clients and configuration.
func NewBaseDeps(
	client *gogithub.Client,
	gqlClient *githubv4.Client,
	t translations.TranslationHelperFunc,
	contentWindowSize int,
) *BaseDeps {
	return &BaseDeps{
		Client:            client,
		GQLClient:         gqlClient,
		CategoryCache:     ratecache.New[[]DiscussionCategory]("discussion-categories"),
		RateTracker:       ratecache.NewTracker(),
		T:                 t,
		ContentWindowSize: contentWindowSize,
	}
}

func (d BaseDeps) GetClient(_ context.Context) (*gogithub.Client, error) {
	return d.Client, nil
}

func (d BaseDeps) GetGQLClient(_ context.Context) (*githubv4.Client, error) {
	return d.GQLClient, nil
}

func (d BaseDeps) GetCategoryCache() *ratecache.Cache[[]DiscussionCategory] {
	return d.CategoryCache
}

func (d BaseDeps) GetRateTracker() *ratecache.Tracker { return d.RateTracker }

func (d BaseDeps) GetT() translations.TranslationHelperFunc { return d.T }

func (d BaseDeps) GetContentWindowSize() int { return d.ContentWindowSize }

// NewTool creates a ServerTool whose handler retrieves ToolDependencies from
// context at call time. ContextWithDeps must run before any tool handler is
// invoked.
func NewTool[In, Out any](toolset inventory.ToolsetMetadata, tool mcp.Tool, handler func(ctx context.Context, deps ToolDependencies, req *mcp.CallToolRequest, args In) (*mcp.CallToolResult, Out, error)) inventory.ServerTool {
	return inventory.NewServerToolWithContextHandler(tool, toolset, func(ctx context.Context, req *mcp.CallToolRequest, args In) (*mcp.CallToolResult, Out, error) {
		deps := MustDepsFromContext(ctx)
		return handler(ctx, deps, req, args)
	})
}
