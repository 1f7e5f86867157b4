package paginate

import (
	"context"
	"fmt"

	"github.com/shurcooL/githubv4"
)

// Connection is the standard shape of a paginated GraphQL connection field.
// Embed it in a githubv4 query struct with the connection's graphql tag:
//
//	var q struct {
//		Repository struct {
//			Issues paginate.Connection[issueNode] `graphql:"issues(first: $first, after: $after)"`
//		} `graphql:"repository(owner: $owner, name: $repo)"`
//	}
type Connection[T any] struct {
	Nodes      []T
	TotalCount int
	PageInfo   struct {
		HasNextPage bool
		EndCursor   string
	}
}

// Page converts the raw connection into the engine's page representation.
func (c Connection[T]) Page() Page[T] {
	return Page[T]{
		Nodes:      c.Nodes,
		TotalCount: c.TotalCount,
		PageInfo: PageInfo{
			HasNextPage: c.PageInfo.HasNextPage,
			EndCursor:   c.PageInfo.EndCursor,
		},
	}
}

// GQLQuerier is the subset of githubv4.Client the fetcher needs.
// Satisfied by *githubv4.Client and by test stubs.
type GQLQuerier interface {
	Query(ctx context.Context, q any, variables map[string]any) error
}

// QueryFetcher returns a PageFetcher that runs a fresh instance of query
// struct Q against client for each page, injecting the $first and $after
// variables into vars, and extracting the connection via conn.
//
// conn points the engine at the connection inside the query result; returning
// nil reports a *ConfigurationError, not a silent empty result. vars is
// mutated across calls and must not be shared between concurrent paginations.
func QueryFetcher[Q, T any](client GQLQuerier, vars map[string]any, conn func(*Q) *Connection[T]) PageFetcher[T] {
	return func(ctx context.Context, cursor *string, pageSize int) (Page[T], error) {
		q := new(Q)
		vars["first"] = githubv4.Int(pageSize)
		if cursor != nil {
			vars["after"] = githubv4.String(*cursor)
		} else {
			vars["after"] = (*githubv4.String)(nil)
		}
		if err := client.Query(ctx, q, vars); err != nil {
			return Page[T]{}, err
		}
		c := conn(q)
		if c == nil {
			return Page[T]{}, &ConfigurationError{Detail: fmt.Sprintf("query %T does not resolve to a connection", q)}
		}
		return c.Page(), nil
	}
}
