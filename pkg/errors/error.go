// Package errors carries typed GitHub API failures across tool handlers.
// Failures are converted into structured tool results and recorded on the
// request context so middleware can observe every upstream error of a call.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v79/github"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/utils"
)

// GitHubAPIError wraps a failed REST call with the response that produced it.
type GitHubAPIError struct {
	Message  string           `json:"message"`
	Response *github.Response `json:"-"`
	Err      error            `json:"-"`
}

func (e *GitHubAPIError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *GitHubAPIError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status of the failed call, or 0 when the
// request never produced a response.
func (e *GitHubAPIError) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// GitHubGraphQLError wraps a failed GraphQL call. The GraphQL transport does
// not surface HTTP status codes, so classification is error-value based.
type GitHubGraphQLError struct {
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *GitHubGraphQLError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *GitHubGraphQLError) Unwrap() error { return e.Err }

type ctxKey struct{}

type ctxErrors struct {
	api     []*GitHubAPIError
	graphQL []*GitHubGraphQLError
}

// ContextWithGitHubErrors returns a context that collects GitHub errors for
// the duration of one tool call. Calling it on a context that already
// collects errors resets the collection.
func ContextWithGitHubErrors(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if val, ok := ctx.Value(ctxKey{}).(*ctxErrors); ok {
		val.api = nil
		val.graphQL = nil
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, &ctxErrors{})
}

// GetGitHubAPIErrors returns the REST errors recorded on the context.
func GetGitHubAPIErrors(ctx context.Context) ([]*GitHubAPIError, error) {
	if val, ok := ctx.Value(ctxKey{}).(*ctxErrors); ok {
		return val.api, nil
	}
	return nil, fmt.Errorf("context does not collect GitHub errors")
}

// GetGitHubGraphQLErrors returns the GraphQL errors recorded on the context.
func GetGitHubGraphQLErrors(ctx context.Context) ([]*GitHubGraphQLError, error) {
	if val, ok := ctx.Value(ctxKey{}).(*ctxErrors); ok {
		return val.graphQL, nil
	}
	return nil, fmt.Errorf("context does not collect GitHub errors")
}

func record(ctx context.Context, apiErr *GitHubAPIError, gqlErr *GitHubGraphQLError) {
	val, ok := ctx.Value(ctxKey{}).(*ctxErrors)
	if !ok {
		return
	}
	if apiErr != nil {
		val.api = append(val.api, apiErr)
	}
	if gqlErr != nil {
		val.graphQL = append(val.graphQL, gqlErr)
	}
}

// NewGitHubAPIErrorResponse records a REST failure on the context and returns
// the structured error result for the tool call.
func NewGitHubAPIErrorResponse(ctx context.Context, message string, resp *github.Response, err error) *mcp.CallToolResult {
	record(ctx, &GitHubAPIError{Message: message, Response: resp, Err: err}, nil)
	return utils.NewToolResultErrorFromErr(message, err)
}

// NewGitHubGraphQLErrorResponse records a GraphQL failure on the context and
// returns the structured error result for the tool call.
func NewGitHubGraphQLErrorResponse(ctx context.Context, message string, err error) *mcp.CallToolResult {
	record(ctx, nil, &GitHubGraphQLError{Message: message, Err: err})
	return utils.NewToolResultErrorFromErr(message, err)
}

// NewGitHubAPIStatusErrorResponse handles calls that succeed at the transport
// level but return an unexpected HTTP status. A synthetic error is built from
// the status and body so it is recorded like any other API failure.
func NewGitHubAPIStatusErrorResponse(ctx context.Context, message string, resp *github.Response, body []byte) *mcp.CallToolResult {
	err := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	return NewGitHubAPIErrorResponse(ctx, message, resp, err)
}

// IsNotFound reports whether a REST response indicates the resource, or the
// feature backing it, does not exist. Tools reading optional features use
// this to degrade to an informative message instead of failing.
func IsNotFound(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether a REST error or response indicates an
// exhausted primary or secondary rate limit. Kept distinct from generic
// transport failure so callers can back off instead of retrying immediately.
func IsRateLimited(resp *github.Response, err error) bool {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return true
	}
	if resp == nil {
		return false
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && resp.Rate.Remaining == 0
}
