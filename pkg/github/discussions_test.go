package github

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/github-mcp-sub000/internal/toolsnaps"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/ratecache"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
)

func discussionPage(nodes []map[string]any, totalCount int, hasNextPage bool, endCursor string) map[string]any {
	return map[string]any{
		"repository": map[string]any{
			"discussions": map[string]any{
				"nodes":      nodes,
				"totalCount": totalCount,
				"pageInfo": map[string]any{
					"hasNextPage": hasNextPage,
					"endCursor":   endCursor,
				},
			},
		},
	}
}

func discussionNode(number int, title, category string) map[string]any {
	return map[string]any{
		"number":     number,
		"title":      title,
		"createdAt":  "2024-03-01T10:00:00Z",
		"updatedAt":  "2024-03-02T10:00:00Z",
		"closed":     false,
		"isAnswered": true,
		"author":     map[string]any{"login": "octocat"},
		"category":   map[string]any{"name": category},
		"url":        "https://github.com/owner/repo/discussions/1",
	}
}

func Test_ListDiscussions(t *testing.T) {
	toolDef := ListDiscussions(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "list_discussions", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())
	assert.Contains(t, inputSchema(t, toolDef.Tool).Properties, "after")
	assert.Contains(t, inputSchema(t, toolDef.Tool).Properties, "autoPage")

	t.Run("single page", func(t *testing.T) {
		gqlHTTPClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			PostGraphQL: gqlResponse(t, discussionPage(
				[]map[string]any{
					discussionNode(1, "How do I configure X", "Q&A"),
					discussionNode(2, "Release planning", "General"),
				},
				10, true, "disc-cursor-2",
			)),
		})
		deps := BaseDeps{GQLClient: githubv4.NewClient(gqlHTTPClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"owner": "owner",
			"repo":  "repo",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out PaginatedResult[ListedDiscussion]
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
		require.Len(t, out.Items, 2)
		assert.Equal(t, 1, out.Items[0].Number)
		assert.Equal(t, "How do I configure X", out.Items[0].Title)
		assert.Equal(t, "Q&A", out.Items[0].Category)
		assert.True(t, out.Items[0].IsAnswered)
		assert.Equal(t, 10, out.TotalCount)
		assert.True(t, out.HasMore)
		assert.Equal(t, "disc-cursor-2", out.NextCursor)
	})

	t.Run("autoPage walks all pages", func(t *testing.T) {
		gqlHTTPClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			PostGraphQL: gqlPagedResponse(t,
				discussionPage([]map[string]any{discussionNode(1, "first", "General")}, 2, true, "c1"),
				discussionPage([]map[string]any{discussionNode(2, "second", "General")}, 2, false, ""),
			),
		})
		deps := BaseDeps{GQLClient: githubv4.NewClient(gqlHTTPClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"owner":    "owner",
			"repo":     "repo",
			"autoPage": true,
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out PaginatedResult[ListedDiscussion]
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
		require.Len(t, out.Items, 2)
		assert.False(t, out.HasMore)
	})

	t.Run("GraphQL failure becomes a tool error", func(t *testing.T) {
		gqlHTTPClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			PostGraphQL: mockResponse(t, http.StatusBadGateway, `{"message":"bad gateway"}`),
		})
		deps := BaseDeps{GQLClient: githubv4.NewClient(gqlHTTPClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"owner": "owner",
			"repo":  "repo",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "failed to list discussions")
	})
}

func Test_GetDiscussion(t *testing.T) {
	toolDef := GetDiscussion(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "get_discussion", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	gqlHTTPClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		PostGraphQL: gqlResponse(t, map[string]any{
			"repository": map[string]any{
				"discussion": map[string]any{
					"number":         5,
					"title":          "Roadmap",
					"body":           "Where are we going",
					"createdAt":      "2024-03-01T10:00:00Z",
					"closed":         false,
					"isAnswered":     true,
					"answerChosenAt": "2024-03-03T10:00:00Z",
					"url":            "https://github.com/owner/repo/discussions/5",
					"category":       map[string]any{"name": "General"},
				},
			},
		}),
	})
	deps := BaseDeps{GQLClient: githubv4.NewClient(gqlHTTPClient)}
	handler := toolDef.Handler(deps)

	request := createMCPRequest(map[string]any{
		"owner":            "owner",
		"repo":             "repo",
		"discussionNumber": float64(5),
	})
	result, err := handler(ContextWithDeps(context.Background(), deps), &request)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
	assert.Equal(t, float64(5), out["number"])
	assert.Equal(t, "Roadmap", out["title"])
	assert.Equal(t, "General", out["category"])
	assert.Equal(t, "2024-03-03T10:00:00Z", out["answer_chosen_at"])
}

func Test_ListDiscussionCategories(t *testing.T) {
	toolDef := ListDiscussionCategories(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "list_discussion_categories", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	fetchCount := 0
	gqlHTTPClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		PostGraphQL: func(w http.ResponseWriter, r *http.Request) {
			fetchCount++
			gqlResponse(t, map[string]any{
				"repository": map[string]any{
					"discussionCategories": map[string]any{
						"nodes": []map[string]any{
							{"id": "DIC_1", "name": "General"},
							{"id": "DIC_2", "name": "Q&A"},
						},
					},
				},
			})(w, r)
		},
	})
	deps := BaseDeps{
		GQLClient:     githubv4.NewClient(gqlHTTPClient),
		CategoryCache: ratecache.New[[]DiscussionCategory]("discussion-categories-test"),
	}
	handler := toolDef.Handler(deps)

	request := createMCPRequest(map[string]any{
		"owner": "owner",
		"repo":  "repo",
	})

	result, err := handler(ContextWithDeps(context.Background(), deps), &request)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var categories []DiscussionCategory
	require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &categories))
	require.Len(t, categories, 2)
	assert.Equal(t, "DIC_1", categories[0].ID)
	assert.Equal(t, "General", categories[0].Name)

	// A second call for the same repository is served from the cache.
	result, err = handler(ContextWithDeps(context.Background(), deps), &request)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, 1, fetchCount)
}
