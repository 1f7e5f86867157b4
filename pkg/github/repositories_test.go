package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-github/v79/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/github-mcp-sub000/internal/toolsnaps"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
)

func Test_SearchRepositories(t *testing.T) {
	toolDef := SearchRepositories(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "search_repositories", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	mockSearchResult := &github.RepositoriesSearchResult{
		Total:             github.Ptr(1),
		IncompleteResults: github.Ptr(false),
		Repositories: []*github.Repository{
			{
				ID:              github.Ptr(int64(1)),
				Name:            github.Ptr("repo"),
				FullName:        github.Ptr("owner/repo"),
				HTMLURL:         github.Ptr("https://github.com/owner/repo"),
				Description:     github.Ptr("A test repository"),
				StargazersCount: github.Ptr(100),
			},
		},
	}

	t.Run("minimal output by default", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchRepositories: expectQueryParams(t, map[string]string{
				"q":        "machine learning",
				"page":     "1",
				"per_page": "30",
			}).andThen(
				mockResponse(t, http.StatusOK, mockSearchResult),
			),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query": "machine learning",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out MinimalSearchRepositoriesResult
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
		assert.Equal(t, 1, out.TotalCount)
		require.Len(t, out.Items, 1)
		assert.Equal(t, "owner/repo", out.Items[0].FullName)
	})

	t.Run("full output when minimal_output is false", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchRepositories: mockResponse(t, http.StatusOK, mockSearchResult),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query":          "machine learning",
			"minimal_output": false,
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out github.RepositoriesSearchResult
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
		require.Len(t, out.Repositories, 1)
		assert.Equal(t, 100, out.Repositories[0].GetStargazersCount())
	})

	t.Run("search fails", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetSearchRepositories: mockResponse(t, http.StatusUnprocessableEntity, `{"message": "Validation Failed"}`),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"query": "bad:::query",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "failed to search repositories with query 'bad:::query'")
	})
}

func Test_GetFileContents(t *testing.T) {
	toolDef := GetFileContents(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "get_file_contents", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	t.Run("file content is decoded", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte("package main\n"))
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetReposContentsByOwnerByRepoByPath: mockResponse(t, http.StatusOK, &github.RepositoryContent{
				Type:     github.Ptr("file"),
				Path:     github.Ptr("main.go"),
				SHA:      github.Ptr("abc123"),
				Size:     github.Ptr(13),
				Encoding: github.Ptr("base64"),
				Content:  github.Ptr(encoded),
				HTMLURL:  github.Ptr("https://github.com/owner/repo/blob/main/main.go"),
			}),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"owner": "owner",
			"repo":  "repo",
			"path":  "main.go",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
		assert.Equal(t, "main.go", out["path"])
		assert.Equal(t, "package main\n", out["content"])
		assert.Equal(t, "abc123", out["sha"])
	})

	t.Run("directory listing", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetReposContentsByOwnerByRepoByPath: mockResponse(t, http.StatusOK, []*github.RepositoryContent{
				{Type: github.Ptr("file"), Name: github.Ptr("main.go"), Path: github.Ptr("src/main.go")},
				{Type: github.Ptr("dir"), Name: github.Ptr("internal"), Path: github.Ptr("src/internal")},
			}),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"owner": "owner",
			"repo":  "repo",
			"path":  "src/",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)

		var entries []*github.RepositoryContent
		require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, "main.go", entries[0].GetName())
	})

	t.Run("missing path fails", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetReposContentsByOwnerByRepoByPath: mockResponse(t, http.StatusNotFound, `{"message": "Not Found"}`),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"owner": "owner",
			"repo":  "repo",
			"path":  "nope.txt",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "failed to get contents of nope.txt")
	})
}

func Test_ListBranches(t *testing.T) {
	toolDef := ListBranches(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "list_branches", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		GetReposBranchesByOwnerByRepo: mockResponse(t, http.StatusOK, []*github.Branch{
			{Name: github.Ptr("main"), Commit: &github.RepositoryCommit{SHA: github.Ptr("abc123")}, Protected: github.Ptr(true)},
			{Name: github.Ptr("develop"), Commit: &github.RepositoryCommit{SHA: github.Ptr("def456")}},
		}),
	})
	deps := BaseDeps{Client: github.NewClient(mockedClient)}
	handler := toolDef.Handler(deps)

	request := createMCPRequest(map[string]any{
		"owner": "owner",
		"repo":  "repo",
	})
	result, err := handler(ContextWithDeps(context.Background(), deps), &request)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var branches []MinimalBranch
	require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &branches))
	require.Len(t, branches, 2)
	assert.Equal(t, "main", branches[0].Name)
	assert.True(t, branches[0].Protected)
}

func Test_ListCommits(t *testing.T) {
	toolDef := ListCommits(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "list_commits", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		GetReposCommitsByOwnerByRepo: expectQueryParams(t, map[string]string{
			"sha":      "main",
			"author":   "octocat",
			"page":     "1",
			"per_page": "30",
		}).andThen(
			mockResponse(t, http.StatusOK, []*github.RepositoryCommit{
				{
					SHA: github.Ptr("abc123"),
					Commit: &github.Commit{
						Message: github.Ptr("Fix all the bugs"),
						Author:  &github.CommitAuthor{Name: github.Ptr("octocat")},
					},
					HTMLURL: github.Ptr("https://github.com/owner/repo/commit/abc123"),
				},
			}),
		),
	})
	deps := BaseDeps{Client: github.NewClient(mockedClient)}
	handler := toolDef.Handler(deps)

	request := createMCPRequest(map[string]any{
		"owner":  "owner",
		"repo":   "repo",
		"sha":    "main",
		"author": "octocat",
	})
	result, err := handler(ContextWithDeps(context.Background(), deps), &request)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var commits []MinimalCommit
	require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &commits))
	require.Len(t, commits, 1)
	assert.Equal(t, "abc123", commits[0].SHA)
}

func Test_ListTags(t *testing.T) {
	toolDef := ListTags(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "list_tags", toolDef.Tool.Name)
	assert.True(t, toolDef.IsReadOnly())

	mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		GetReposTagsByOwnerByRepo: mockResponse(t, http.StatusOK, []*github.RepositoryTag{
			{Name: github.Ptr("v1.0.0"), Commit: &github.Commit{SHA: github.Ptr("abc123")}},
		}),
	})
	deps := BaseDeps{Client: github.NewClient(mockedClient)}
	handler := toolDef.Handler(deps)

	request := createMCPRequest(map[string]any{
		"owner": "owner",
		"repo":  "repo",
	})
	result, err := handler(ContextWithDeps(context.Background(), deps), &request)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var tags []MinimalTag
	require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &tags))
	require.Len(t, tags, 1)
	assert.Equal(t, "v1.0.0", tags[0].Name)
}

func Test_CreateRepository(t *testing.T) {
	toolDef := CreateRepository(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "create_repository", toolDef.Tool.Name)
	assert.False(t, toolDef.IsReadOnly())

	mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		PostUserRepos: expectRequestBody(t, map[string]any{
			"name":        "new-repo",
			"description": "A new repository",
			"private":     true,
			"auto_init":   true,
		}).andThen(
			mockResponse(t, http.StatusCreated, &github.Repository{
				Name:     github.Ptr("new-repo"),
				FullName: github.Ptr("octocat/new-repo"),
				HTMLURL:  github.Ptr("https://github.com/octocat/new-repo"),
				CloneURL: github.Ptr("https://github.com/octocat/new-repo.git"),
			}),
		),
	})
	deps := BaseDeps{Client: github.NewClient(mockedClient)}
	handler := toolDef.Handler(deps)

	request := createMCPRequest(map[string]any{
		"name":        "new-repo",
		"description": "A new repository",
		"private":     true,
		"autoInit":    true,
	})
	result, err := handler(ContextWithDeps(context.Background(), deps), &request)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out MinimalRepositoryResponse
	require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
	assert.Equal(t, "octocat/new-repo", out.FullName)
	assert.Equal(t, "https://github.com/octocat/new-repo.git", out.CloneURL)
}

func Test_ForkRepository(t *testing.T) {
	toolDef := ForkRepository(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "fork_repository", toolDef.Tool.Name)
	assert.False(t, toolDef.IsReadOnly())

	t.Run("queued fork reports progress", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			PostReposForksByOwnerByRepo: mockResponse(t, http.StatusAccepted, `{"name": "repo"}`),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"owner": "owner",
			"repo":  "repo",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Equal(t, "Fork is in progress", getTextResult(t, result).Text)
	})

	t.Run("forbidden fork fails", func(t *testing.T) {
		mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			PostReposForksByOwnerByRepo: mockResponse(t, http.StatusForbidden, `{"message": "Forbidden"}`),
		})
		deps := BaseDeps{Client: github.NewClient(mockedClient)}
		handler := toolDef.Handler(deps)

		request := createMCPRequest(map[string]any{
			"owner": "owner",
			"repo":  "repo",
		})
		result, err := handler(ContextWithDeps(context.Background(), deps), &request)
		require.NoError(t, err)
		errorContent := getErrorResult(t, result)
		assert.Contains(t, errorContent.Text, "failed to fork repository")
	})
}

func Test_CreateOrUpdateFile(t *testing.T) {
	toolDef := CreateOrUpdateFile(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(toolDef.Tool.Name, toolDef.Tool))

	assert.Equal(t, "create_or_update_file", toolDef.Tool.Name)
	assert.False(t, toolDef.IsReadOnly())

	mockedClient := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		PutReposContentsByOwnerByRepoByPath: func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Add docs", body["message"])
			assert.Equal(t, "main", body["branch"])
			decoded, err := base64.StdEncoding.DecodeString(body["content"].(string))
			require.NoError(t, err)
			assert.Equal(t, "hello", string(decoded))
			mockResponse(t, http.StatusCreated, &github.RepositoryContentResponse{
				Content: &github.RepositoryContent{
					Path:    github.Ptr("docs/hello.md"),
					SHA:     github.Ptr("blob123"),
					HTMLURL: github.Ptr("https://github.com/owner/repo/blob/main/docs/hello.md"),
				},
				Commit: github.Commit{SHA: github.Ptr("commit456")},
			})(w, r)
		},
	})
	deps := BaseDeps{Client: github.NewClient(mockedClient)}
	handler := toolDef.Handler(deps)

	request := createMCPRequest(map[string]any{
		"owner":   "owner",
		"repo":    "repo",
		"path":    "docs/hello.md",
		"content": "hello",
		"message": "Add docs",
		"branch":  "main",
	})
	result, err := handler(ContextWithDeps(context.Background(), deps), &request)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(getTextResult(t, result).Text), &out))
	assert.Equal(t, "docs/hello.md", out["path"])
	assert.Equal(t, "commit456", out["commit_sha"])
}
