package github

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shurcooL/githubv4"

	ghErrors "github.com/quanticsoul4772/github-mcp-sub000/pkg/errors"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/inventory"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/paginate"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/sanitize"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/utils"
)

// DiscussionCategory is one category configured for a repository's
// discussions. Category lists are stable enough to cache per repository.
type DiscussionCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DiscussionNode is the GraphQL fragment fetched for each discussion in a
// list query.
type DiscussionNode struct {
	Number     githubv4.Int
	Title      githubv4.String
	CreatedAt  githubv4.DateTime
	UpdatedAt  githubv4.DateTime
	Closed     githubv4.Boolean
	IsAnswered githubv4.Boolean
	Author     struct {
		Login githubv4.String
	}
	Category struct {
		Name githubv4.String
	} `graphql:"category"`
	URL githubv4.String `graphql:"url"`
}

// ListedDiscussion is the shaped output row for list_discussions.
type ListedDiscussion struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	Author     string `json:"author,omitempty"`
	Category   string `json:"category,omitempty"`
	Closed     bool   `json:"closed"`
	IsAnswered bool   `json:"is_answered"`
	URL        string `json:"url"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type listDiscussionsQuery struct {
	Repository struct {
		Discussions paginate.Connection[DiscussionNode] `graphql:"discussions(first: $first, after: $after, categoryId: $categoryId, orderBy: {field: $orderByField, direction: $orderByDirection})"`
	} `graphql:"repository(owner: $owner, name: $repo)"`
}

func convertToListedDiscussion(node DiscussionNode) ListedDiscussion {
	return ListedDiscussion{
		Number:     int(node.Number),
		Title:      sanitize.Content(string(node.Title)),
		Author:     string(node.Author.Login),
		Category:   string(node.Category.Name),
		Closed:     bool(node.Closed),
		IsAnswered: bool(node.IsAnswered),
		URL:        string(node.URL),
		CreatedAt:  node.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:  node.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ListDiscussions creates a tool to list discussions in a repository.
func ListDiscussions(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataDiscussions,
		mcp.Tool{
			Name:        "list_discussions",
			Description: t("TOOL_LIST_DISCUSSIONS_DESCRIPTION", "List discussions for a repository"),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_LIST_DISCUSSIONS_USER_TITLE", "List discussions"),
				ReadOnlyHint: true,
			},
			InputSchema: WithCursorPagination(&jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"owner": {
						Type:        "string",
						Description: "Repository owner",
					},
					"repo": {
						Type:        "string",
						Description: "Repository name",
					},
					"category": {
						Type:        "string",
						Description: "Optional filter by discussion category ID. If provided, only discussions with this category are listed.",
					},
					"orderBy": {
						Type:        "string",
						Description: "Order discussions by field. Defaults to UPDATED_AT.",
						Enum:        []any{"CREATED_AT", "UPDATED_AT"},
					},
					"direction": {
						Type:        "string",
						Description: "Order direction. Defaults to DESC.",
						Enum:        []any{"ASC", "DESC"},
					},
				},
				Required: []string{"owner", "repo"},
			}),
		},
		func(ctx context.Context, deps ToolDependencies, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
			owner, err := RequiredParam[string](args, "owner")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			repo, err := RequiredParam[string](args, "repo")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			category, err := OptionalParam[string](args, "category")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			orderBy, err := OptionalParam[string](args, "orderBy")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			direction, err := OptionalParam[string](args, "direction")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			pagination, err := OptionalCursorPaginationParams(args)
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			if orderBy == "" {
				orderBy = "UPDATED_AT"
			}
			if direction == "" {
				direction = "DESC"
			}

			gqlClient, err := deps.GetGQLClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub GQL client", err), nil, nil
			}

			vars := map[string]any{
				"owner":            githubv4.String(owner),
				"repo":             githubv4.String(repo),
				"orderByField":     githubv4.DiscussionOrderField(orderBy),
				"orderByDirection": githubv4.OrderDirection(direction),
			}
			if category != "" {
				vars["categoryId"] = githubv4.ID(category)
			} else {
				vars["categoryId"] = (*githubv4.ID)(nil)
			}

			fetch := paginate.QueryFetcher(gqlClient, vars, func(q *listDiscussionsQuery) *paginate.Connection[DiscussionNode] {
				return &q.Repository.Discussions
			})

			result, err := paginate.Paginate(ctx, pagination.ToOptions(), fetch)
			if err != nil {
				return paginationErrorResult(ctx, "failed to list discussions", err), nil, nil
			}

			listed := make([]ListedDiscussion, 0, len(result.Data))
			for _, node := range result.Data {
				listed = append(listed, convertToListedDiscussion(node))
			}

			return MarshalledTextResult(NewPaginatedResult(listed, result)), nil, nil
		},
	)
}

// GetDiscussion creates a tool to get a single discussion by number.
func GetDiscussion(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataDiscussions,
		mcp.Tool{
			Name:        "get_discussion",
			Description: t("TOOL_GET_DISCUSSION_DESCRIPTION", "Get a specific discussion by ID"),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_GET_DISCUSSION_USER_TITLE", "Get discussion"),
				ReadOnlyHint: true,
			},
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"owner": {
						Type:        "string",
						Description: "Repository owner",
					},
					"repo": {
						Type:        "string",
						Description: "Repository name",
					},
					"discussionNumber": {
						Type:        "number",
						Description: "Discussion Number",
					},
				},
				Required: []string{"owner", "repo", "discussionNumber"},
			},
		},
		func(ctx context.Context, deps ToolDependencies, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
			owner, err := RequiredParam[string](args, "owner")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			repo, err := RequiredParam[string](args, "repo")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			discussionNumber, err := RequiredInt(args, "discussionNumber")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			gqlClient, err := deps.GetGQLClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub GQL client", err), nil, nil
			}

			var q struct {
				Repository struct {
					Discussion struct {
						Number         githubv4.Int
						Title          githubv4.String
						Body           githubv4.String
						CreatedAt      githubv4.DateTime
						Closed         githubv4.Boolean
						IsAnswered     githubv4.Boolean
						AnswerChosenAt *githubv4.DateTime
						URL            githubv4.String `graphql:"url"`
						Category       struct {
							Name githubv4.String
						} `graphql:"category"`
					} `graphql:"discussion(number: $discussionNumber)"`
				} `graphql:"repository(owner: $owner, name: $repo)"`
			}
			vars := map[string]any{
				"owner":            githubv4.String(owner),
				"repo":             githubv4.String(repo),
				"discussionNumber": githubv4.Int(discussionNumber),
			}
			if err := gqlClient.Query(ctx, &q, vars); err != nil {
				return ghErrors.NewGitHubGraphQLErrorResponse(ctx, "failed to get discussion", err), nil, nil
			}

			d := q.Repository.Discussion
			out := map[string]any{
				"number":      int(d.Number),
				"title":       sanitize.Content(string(d.Title)),
				"body":        sanitize.Content(string(d.Body)),
				"category":    string(d.Category.Name),
				"closed":      bool(d.Closed),
				"is_answered": bool(d.IsAnswered),
				"url":         string(d.URL),
				"created_at":  d.CreatedAt.Format("2006-01-02T15:04:05Z"),
			}
			if d.AnswerChosenAt != nil {
				out["answer_chosen_at"] = d.AnswerChosenAt.Format("2006-01-02T15:04:05Z")
			}

			return MarshalledTextResult(out), nil, nil
		},
	)
}

// ListDiscussionCategories creates a tool to list discussion categories for
// a repository. Results are cached since categories rarely change.
func ListDiscussionCategories(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataDiscussions,
		mcp.Tool{
			Name:        "list_discussion_categories",
			Description: t("TOOL_LIST_DISCUSSION_CATEGORIES_DESCRIPTION", "List discussion categories with their id and name, for a repository"),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_LIST_DISCUSSION_CATEGORIES_USER_TITLE", "List discussion categories"),
				ReadOnlyHint: true,
			},
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"owner": {
						Type:        "string",
						Description: "Repository owner",
					},
					"repo": {
						Type:        "string",
						Description: "Repository name",
					},
				},
				Required: []string{"owner", "repo"},
			},
		},
		func(ctx context.Context, deps ToolDependencies, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
			owner, err := RequiredParam[string](args, "owner")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			repo, err := RequiredParam[string](args, "repo")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			gqlClient, err := deps.GetGQLClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub GQL client", err), nil, nil
			}

			cacheKey := fmt.Sprintf("%s/%s", owner, repo)
			categories, err := deps.GetCategoryCache().GetOrFetch(ctx, cacheKey, func(ctx context.Context) ([]DiscussionCategory, error) {
				var q struct {
					Repository struct {
						DiscussionCategories struct {
							Nodes []struct {
								ID   githubv4.ID
								Name githubv4.String
							}
						} `graphql:"discussionCategories(first: $first)"`
					} `graphql:"repository(owner: $owner, name: $repo)"`
				}
				vars := map[string]any{
					"owner": githubv4.String(owner),
					"repo":  githubv4.String(repo),
					"first": githubv4.Int(25),
				}
				if err := gqlClient.Query(ctx, &q, vars); err != nil {
					return nil, err
				}
				categories := make([]DiscussionCategory, 0, len(q.Repository.DiscussionCategories.Nodes))
				for _, node := range q.Repository.DiscussionCategories.Nodes {
					categories = append(categories, DiscussionCategory{
						ID:   fmt.Sprintf("%v", node.ID),
						Name: string(node.Name),
					})
				}
				return categories, nil
			})
			if err != nil {
				return ghErrors.NewGitHubGraphQLErrorResponse(ctx, "failed to list discussion categories", err), nil, nil
			}

			return MarshalledTextResult(categories), nil, nil
		},
	)
}
