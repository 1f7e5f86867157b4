// Package paginate implements cursor pagination over GraphQL connections.
// It drives a caller-supplied page fetcher across one or more pages,
// accumulating nodes while honoring page, item, and round-trip limits.
package paginate

import (
	"context"
	"errors"
)

const (
	// DefaultPageSize is used when Options.First is not set.
	DefaultPageSize = 30
	// MaxPageSize is the largest page size the GitHub GraphQL API accepts.
	MaxPageSize = 100
	// DefaultMaxPages caps round trips when auto-paging without an explicit limit.
	DefaultMaxPages = 10
)

// PageInfo mirrors the GraphQL pageInfo object of a connection.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// Page is one fetched page of a connection.
type Page[T any] struct {
	Nodes      []T
	TotalCount int
	PageInfo   PageInfo
}

// Options controls how many pages and items Paginate fetches.
type Options struct {
	// First is the page size requested from the API (1..100).
	// Zero means DefaultPageSize.
	First int
	// After is an opaque cursor from a previous result to resume from.
	After string
	// AutoPage requests that subsequent pages be fetched internally until
	// the connection is exhausted or a limit is reached. When false,
	// exactly one round trip is made regardless of MaxPages and MaxItems.
	AutoPage bool
	// MaxPages caps round trips when AutoPage is set. Zero means DefaultMaxPages.
	MaxPages int
	// MaxItems caps the number of accumulated nodes. Zero means no cap.
	// A partial final page is trimmed rather than discarded.
	MaxItems int
}

// Result is the aggregation of all pages actually fetched.
type Result[T any] struct {
	// Data holds the concatenated nodes in API return order. No reordering
	// and no deduplication: if the connection mutates between round trips,
	// duplicate nodes are preserved.
	Data []T `json:"data"`
	// TotalCount is the connection-wide count reported by the API,
	// not the number of nodes fetched. Last-seen value wins if pages
	// disagree.
	TotalCount int `json:"totalCount"`
	// HasMore reports whether nodes remain beyond Data, either because the
	// connection has further pages or because MaxItems trimmed the tail.
	HasMore bool `json:"hasMore"`
	// NextCursor resumes pagination after the last fetched page.
	// Only set when HasMore is true.
	NextCursor string `json:"nextCursor,omitempty"`
	// PageInfo is the raw page info of the last page fetched.
	PageInfo PageInfo `json:"pageInfo"`
	// Pages is the number of round trips performed.
	Pages int `json:"-"`
}

// PageFetcher executes the page query for one cursor position. A nil cursor
// requests the first page. Implementations must not retry internally.
type PageFetcher[T any] func(ctx context.Context, cursor *string, pageSize int) (Page[T], error)

// Paginate fetches one or more pages of a connection via fetch.
//
// Pages are fetched strictly sequentially: each cursor depends on the
// previous response. On a fetch failure no partial result is returned; the
// error is a *TransportError recording the failing page index and the items
// accumulated so far, unless the fetcher already reported a typed
// pagination error.
func Paginate[T any](ctx context.Context, opts Options, fetch PageFetcher[T]) (Result[T], error) {
	first, err := normalize(&opts)
	if err != nil {
		return Result[T]{}, err
	}

	var cursor *string
	if opts.After != "" {
		after := opts.After
		cursor = &after
	}

	var collected []T
	var last Page[T]
	pages := 0
	for {
		page, err := fetch(ctx, cursor, first)
		if err != nil {
			var confErr *ConfigurationError
			var valErr *ValidationError
			if errors.As(err, &confErr) || errors.As(err, &valErr) {
				return Result[T]{}, err
			}
			return Result[T]{}, &TransportError{Page: pages, Collected: len(collected), Err: err}
		}
		pages++
		collected = append(collected, page.Nodes...)
		last = page

		if !opts.AutoPage || !page.PageInfo.HasNextPage {
			break
		}
		if pages >= opts.MaxPages {
			break
		}
		if opts.MaxItems > 0 && len(collected) >= opts.MaxItems {
			break
		}
		next := page.PageInfo.EndCursor
		cursor = &next
	}

	// The API cannot serve partial pages, so the item cap is enforced by
	// trimming the tail of the last page locally.
	trimmed := false
	if opts.MaxItems > 0 && len(collected) > opts.MaxItems {
		collected = collected[:opts.MaxItems]
		trimmed = true
	}

	result := Result[T]{
		Data:       collected,
		TotalCount: last.TotalCount,
		HasMore:    last.PageInfo.HasNextPage || trimmed,
		PageInfo:   last.PageInfo,
		Pages:      pages,
	}
	if result.HasMore {
		result.NextCursor = last.PageInfo.EndCursor
	}
	return result, nil
}

// normalize applies defaults and bounds-checks the options, returning the
// effective page size. Out-of-range values are rejected rather than clamped
// so schema-layer bugs surface instead of being papered over.
func normalize(opts *Options) (int, error) {
	first := opts.First
	switch {
	case first == 0:
		first = DefaultPageSize
	case first < 0:
		return 0, &ValidationError{Field: "first", Reason: "page size cannot be negative"}
	case first > MaxPageSize:
		return 0, &ValidationError{Field: "first", Reason: "page size cannot exceed 100"}
	}
	if opts.MaxPages < 0 {
		return 0, &ValidationError{Field: "maxPages", Reason: "page limit cannot be negative"}
	}
	if opts.MaxItems < 0 {
		return 0, &ValidationError{Field: "maxItems", Reason: "item limit cannot be negative"}
	}
	if opts.MaxPages == 0 {
		opts.MaxPages = DefaultMaxPages
	}
	return first, nil
}
