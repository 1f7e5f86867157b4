package github

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GitHub API endpoint patterns used in HTTP mocking for tests.
const (
	// User endpoints
	GetUser = "GET /user"

	// Repository endpoints
	GetReposBranchesByOwnerByRepo       = "GET /repos/{owner}/{repo}/branches"
	GetReposTagsByOwnerByRepo           = "GET /repos/{owner}/{repo}/tags"
	GetReposCommitsByOwnerByRepo        = "GET /repos/{owner}/{repo}/commits"
	GetReposContentsByOwnerByRepoByPath = "GET /repos/{owner}/{repo}/contents/{path:.*}"
	PutReposContentsByOwnerByRepoByPath = "PUT /repos/{owner}/{repo}/contents/{path:.*}"
	PostReposForksByOwnerByRepo         = "POST /repos/{owner}/{repo}/forks"
	PostUserRepos                       = "POST /user/repos"

	// Issues endpoints
	GetReposIssuesByOwnerByRepoByIssueNumber   = "GET /repos/{owner}/{repo}/issues/{issue_number}"
	PostReposIssuesByOwnerByRepo               = "POST /repos/{owner}/{repo}/issues"
	PostReposIssuesCommentsByOwnerByRepo       = "POST /repos/{owner}/{repo}/issues/{issue_number}/comments"
	PatchReposIssuesByOwnerByRepoByIssueNumber = "PATCH /repos/{owner}/{repo}/issues/{issue_number}"

	// Pull request endpoints
	GetReposPullsByOwnerByRepo                         = "GET /repos/{owner}/{repo}/pulls"
	GetReposPullsByOwnerByRepoByPullNumber             = "GET /repos/{owner}/{repo}/pulls/{pull_number}"
	GetReposPullsFilesByOwnerByRepoByPullNumber        = "GET /repos/{owner}/{repo}/pulls/{pull_number}/files"
	PostReposPullsByOwnerByRepo                        = "POST /repos/{owner}/{repo}/pulls"
	PutReposPullsMergeByOwnerByRepoByPullNumber        = "PUT /repos/{owner}/{repo}/pulls/{pull_number}/merge"
	PutReposPullsUpdateBranchByOwnerByRepoByPullNumber = "PUT /repos/{owner}/{repo}/pulls/{pull_number}/update-branch"

	// Notifications endpoints
	GetNotifications                     = "GET /notifications"
	GetReposNotificationsByOwnerByRepo   = "GET /repos/{owner}/{repo}/notifications"
	PatchNotificationsThreadsByThreadID  = "PATCH /notifications/threads/{thread_id}"
	DeleteNotificationsThreadsByThreadID = "DELETE /notifications/threads/{thread_id}"

	// Code scanning endpoints
	GetReposCodeScanningAlertsByOwnerByRepo              = "GET /repos/{owner}/{repo}/code-scanning/alerts"
	GetReposCodeScanningAlertsByOwnerByRepoByAlertNumber = "GET /repos/{owner}/{repo}/code-scanning/alerts/{alert_number}"

	// Secret scanning endpoints
	GetReposSecretScanningAlertsByOwnerByRepo              = "GET /repos/{owner}/{repo}/secret-scanning/alerts"                //nolint:gosec // API endpoint pattern, not a credential
	GetReposSecretScanningAlertsByOwnerByRepoByAlertNumber = "GET /repos/{owner}/{repo}/secret-scanning/alerts/{alert_number}" //nolint:gosec // API endpoint pattern, not a credential

	// Dependabot endpoints
	GetReposDependabotAlertsByOwnerByRepo              = "GET /repos/{owner}/{repo}/dependabot/alerts"
	GetReposDependabotAlertsByOwnerByRepoByAlertNumber = "GET /repos/{owner}/{repo}/dependabot/alerts/{alert_number}"

	// Actions endpoints
	GetReposActionsWorkflowsByOwnerByRepo                        = "GET /repos/{owner}/{repo}/actions/workflows"
	GetReposActionsWorkflowsRunsByOwnerByRepoByWorkflowID        = "GET /repos/{owner}/{repo}/actions/workflows/{workflow_id}/runs"
	PostReposActionsWorkflowsDispatchesByOwnerByRepoByWorkflowID = "POST /repos/{owner}/{repo}/actions/workflows/{workflow_id}/dispatches"
	GetReposActionsJobsLogsByOwnerByRepoByJobID                  = "GET /repos/{owner}/{repo}/actions/jobs/{job_id}/logs"
	GetReposActionsRunsJobsByOwnerByRepoByRunID                  = "GET /repos/{owner}/{repo}/actions/runs/{run_id}/jobs"
	PostReposActionsRunsCancelByOwnerByRepoByRunID               = "POST /repos/{owner}/{repo}/actions/runs/{run_id}/cancel"
	PostReposActionsRunsRerunFailedJobsByOwnerByRepoByRunID      = "POST /repos/{owner}/{repo}/actions/runs/{run_id}/rerun-failed-jobs"

	// Search endpoints
	GetSearchCode         = "GET /search/code"
	GetSearchIssues       = "GET /search/issues"
	GetSearchRepositories = "GET /search/repositories"
	GetSearchUsers        = "GET /search/users"

	// GraphQL endpoint
	PostGraphQL = "POST /graphql"
)

type expectations struct {
	path        string
	queryParams map[string]string
	requestBody any
}

// expect creates a partial mock that asserts path, query parameters, and
// request body before delegating to a response handler.
func expect(t *testing.T, e expectations) *partialMock {
	return &partialMock{
		t:                   t,
		expectedPath:        e.path,
		expectedQueryParams: e.queryParams,
		expectedRequestBody: e.requestBody,
	}
}

// expectQueryParams creates a partial mock that asserts the given query
// parameters, with the ability to chain a response handler.
func expectQueryParams(t *testing.T, expectedQueryParams map[string]string) *partialMock {
	return &partialMock{
		t:                   t,
		expectedQueryParams: expectedQueryParams,
	}
}

// expectRequestBody creates a partial mock that asserts the given request
// body, with the ability to chain a response handler.
func expectRequestBody(t *testing.T, expectedRequestBody any) *partialMock {
	return &partialMock{
		t:                   t,
		expectedRequestBody: expectedRequestBody,
	}
}

type partialMock struct {
	t *testing.T

	expectedPath        string
	expectedQueryParams map[string]string
	expectedRequestBody any
}

func (p *partialMock) andThen(responseHandler http.HandlerFunc) http.HandlerFunc {
	p.t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if p.expectedPath != "" {
			require.Equal(p.t, p.expectedPath, r.URL.Path)
		}

		if p.expectedQueryParams != nil {
			require.Equal(p.t, len(p.expectedQueryParams), len(r.URL.Query()))
			for k, v := range p.expectedQueryParams {
				require.Equal(p.t, v, r.URL.Query().Get(k))
			}
		}

		if p.expectedRequestBody != nil {
			var unmarshaledRequestBody any
			err := json.NewDecoder(r.Body).Decode(&unmarshaledRequestBody)
			require.NoError(p.t, err)

			require.Equal(p.t, p.expectedRequestBody, unmarshaledRequestBody)
		}

		responseHandler(w, r)
	}
}

// mockResponse creates a handler returning a status code and marshaled body.
func mockResponse(t *testing.T, code int, body any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		s, ok := body.(string)
		if ok {
			_, _ = w.Write([]byte(s))
			return
		}

		b, err := json.Marshal(body)
		require.NoError(t, err)
		_, _ = w.Write(b)
	}
}

// gqlResponse creates a handler that wraps data in a GraphQL response
// envelope, the shape the githubv4 client unmarshals from POST /graphql.
func gqlResponse(t *testing.T, data map[string]any) http.HandlerFunc {
	t.Helper()
	return mockResponse(t, http.StatusOK, map[string]any{"data": data})
}

// gqlPagedResponse creates a handler that serves a different GraphQL data
// payload for each successive request, failing the test when more requests
// arrive than payloads were supplied.
func gqlPagedResponse(t *testing.T, pages ...map[string]any) http.HandlerFunc {
	t.Helper()
	call := 0
	return func(w http.ResponseWriter, r *http.Request) {
		require.Less(t, call, len(pages), "unexpected extra GraphQL round trip")
		page := pages[call]
		call++
		gqlResponse(t, page)(w, r)
	}
}

// createMCPRequest creates an MCP tool call request with the given arguments.
func createMCPRequest(args any) mcp.CallToolRequest {
	argsMap, ok := args.(map[string]any)
	if !ok {
		argsMap = make(map[string]any)
	}

	argsJSON, err := json.Marshal(argsMap)
	if err != nil {
		return mcp.CallToolRequest{}
	}

	return mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Arguments: json.RawMessage(argsJSON),
		},
	}
}

// inputSchema asserts the concrete type of a tool's input schema so tests
// can inspect its properties.
func inputSchema(t *testing.T, tool mcp.Tool) *jsonschema.Schema {
	t.Helper()
	schema, ok := tool.InputSchema.(*jsonschema.Schema)
	require.True(t, ok, "expected input schema to be a *jsonschema.Schema")
	return schema
}

// getTextResult returns the single text content of a tool call result.
func getTextResult(t *testing.T, result *mcp.CallToolResult) *mcp.TextContent {
	t.Helper()
	assert.NotNil(t, result)
	require.Len(t, result.Content, 1)
	textContent, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected content to be of type TextContent")
	return textContent
}

func getErrorResult(t *testing.T, result *mcp.CallToolResult) *mcp.TextContent {
	res := getTextResult(t, result)
	require.True(t, result.IsError, "expected tool call result to be an error")
	return res
}

// MockHTTPClientWithHandlers creates an HTTP client routing requests to
// handlers keyed by "METHOD /path/{param}" patterns. Unmatched requests
// receive a 404 from the mock backend.
func MockHTTPClientWithHandlers(handlers map[string]http.HandlerFunc) *http.Client {
	opts := make([]mock.MockBackendOption, 0, len(handlers))
	for endpoint, handler := range handlers {
		method, pattern, ok := strings.Cut(endpoint, " ")
		if !ok {
			continue
		}
		opts = append(opts, mock.WithRequestMatchHandler(
			mock.EndpointPattern{Pattern: pattern, Method: method},
			handler,
		))
	}
	return mock.NewMockedHTTPClient(opts...)
}
