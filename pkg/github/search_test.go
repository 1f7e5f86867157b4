package github

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-github/v79/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/github-mcp-sub000/internal/toolsnaps"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
)

func Test_SearchCode(t *testing.T) {
	toolDef := SearchCode(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "search_code", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	t.Run("query, sort and order forwarded as params", func(t *testing.T) {
		mockResult := &github.CodeSearchResult{
			Total:             github.Ptr(1),
			IncompleteResults: github.Ptr(false),
			CodeResults: []*github.CodeResult{
				{
					Name: github.Ptr("server.go"),
					Path: github.Ptr("pkg/github/server.go"),
					Repository: &github.Repository{
						FullName: github.Ptr("owner/repo"),
					},
				},
			},
		}
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchCode: expectQueryParams(t, map[string]string{
				"q":        "addOptions language:go",
				"sort":     "indexed",
				"order":    "desc",
				"page":     "1",
				"per_page": "30",
			}).andThen(
				mockResponse(t, http.StatusOK, mockResult),
			),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query": "addOptions language:go",
			"sort":  "indexed",
			"order": "desc",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out github.CodeSearchResult
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
		assert.Equal(t, 1, out.GetTotal())
		require.Len(t, out.CodeResults, 1)
		assert.Equal(t, "pkg/github/server.go", out.CodeResults[0].GetPath())
		assert.Equal(t, "owner/repo", out.CodeResults[0].Repository.GetFullName())
	})

	t.Run("missing query", func(t *testing.T) {
		deps := BaseDeps{Client: github.NewClient(nil)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "missing required parameter: query")
	})

	t.Run("search fails", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchCode: mockResponse(t, http.StatusUnprocessableEntity, `{"message": "Validation Failed"}`),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query": "bad:::query",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "failed to search code with query 'bad:::query'")
	})
}

func Test_SearchIssues(t *testing.T) {
	toolDef := SearchIssues(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "search_issues", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	mockResult := &github.IssuesSearchResult{
		Total:             github.Ptr(1),
		IncompleteResults: github.Ptr(false),
		Issues: []*github.Issue{
			{
				Number:  github.Ptr(42),
				Title:   github.Ptr("Crash on empty config"),
				State:   github.Ptr("open"),
				HTMLURL: github.Ptr("https://github.com/owner/repo/issues/42"),
			},
		},
	}

	t.Run("owner and repo scope the query", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchIssues: expectQueryParams(t, map[string]string{
				"q":        "repo:owner/repo is:issue crash",
				"page":     "1",
				"per_page": "30",
			}).andThen(
				mockResponse(t, http.StatusOK, mockResult),
			),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query": "crash",
			"owner": "owner",
			"repo":  "repo",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out github.IssuesSearchResult
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
		assert.Equal(t, 1, out.GetTotal())
		require.Len(t, out.Issues, 1)
		assert.Equal(t, 42, out.Issues[0].GetNumber())
		assert.Equal(t, "Crash on empty config", out.Issues[0].GetTitle())
	})

	t.Run("existing filters are not duplicated", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchIssues: expectQueryParams(t, map[string]string{
				"q":        "is:issue repo:owner/repo crash",
				"page":     "1",
				"per_page": "30",
			}).andThen(
				mockResponse(t, http.StatusOK, mockResult),
			),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query": "is:issue repo:owner/repo crash",
			"owner": "owner",
			"repo":  "repo",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)
	})

	t.Run("search fails", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchIssues: mockResponse(t, http.StatusBadGateway, `{"message": "Server Error"}`),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query": "crash",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "failed to search issues")
	})
}

func Test_SearchUsers(t *testing.T) {
	toolDef := SearchUsers(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "search_users", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	t.Run("query is scoped to user accounts", func(t *testing.T) {
		mockResult := &github.UsersSearchResult{
			Total:             github.Ptr(1),
			IncompleteResults: github.Ptr(false),
			Users: []*github.User{
				{
					Login:     github.Ptr("octocat"),
					ID:        github.Ptr(int64(583231)),
					HTMLURL:   github.Ptr("https://github.com/octocat"),
					AvatarURL: github.Ptr("https://avatars.githubusercontent.com/u/583231"),
				},
			},
		}
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchUsers: expectQueryParams(t, map[string]string{
				"q":        "type:user location:seattle",
				"page":     "1",
				"per_page": "30",
			}).andThen(
				mockResponse(t, http.StatusOK, mockResult),
			),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query": "location:seattle",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out MinimalSearchUsersResult
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
		assert.Equal(t, 1, out.TotalCount)
		require.Len(t, out.Items, 1)
		assert.Equal(t, "octocat", out.Items[0].Login)
		assert.Equal(t, int64(583231), out.Items[0].ID)
		assert.Equal(t, "https://github.com/octocat", out.Items[0].ProfileURL)
	})

	t.Run("search fails", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchUsers: mockResponse(t, http.StatusUnauthorized, `{"message": "Requires authentication"}`),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query": "location:seattle",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "failed to search users")
	})
}
