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
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/utils"
)

// LabelNode is the GraphQL fragment fetched for each repository label.
type LabelNode struct {
	ID          githubv4.ID
	Name        githubv4.String
	Color       githubv4.String
	Description githubv4.String
}

type listLabelsQuery struct {
	Repository struct {
		Labels paginate.Connection[LabelNode] `graphql:"labels(first: $first, after: $after)"`
	} `graphql:"repository(owner: $owner, name: $repo)"`
}

// ListLabels creates a tool to list labels in a repository.
func ListLabels(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataLabels,
		mcp.Tool{
			Name:        "list_labels",
			Description: t("TOOL_LIST_LABELS_DESCRIPTION", "List labels from a repository"),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_LIST_LABELS_USER_TITLE", "List labels"),
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
			pagination, err := OptionalCursorPaginationParams(args)
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			gqlClient, err := deps.GetGQLClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub GQL client", err), nil, nil
			}

			vars := map[string]any{
				"owner": githubv4.String(owner),
				"repo":  githubv4.String(repo),
			}

			fetch := paginate.QueryFetcher(gqlClient, vars, func(q *listLabelsQuery) *paginate.Connection[LabelNode] {
				return &q.Repository.Labels
			})

			result, err := paginate.Paginate(ctx, pagination.ToOptions(), fetch)
			if err != nil {
				return paginationErrorResult(ctx, "failed to list labels", err), nil, nil
			}

			type listedLabel struct {
				ID          string `json:"id"`
				Name        string `json:"name"`
				Color       string `json:"color"`
				Description string `json:"description,omitempty"`
			}
			listed := make([]listedLabel, 0, len(result.Data))
			for _, node := range result.Data {
				listed = append(listed, listedLabel{
					ID:          fmt.Sprintf("%v", node.ID),
					Name:        string(node.Name),
					Color:       string(node.Color),
					Description: string(node.Description),
				})
			}

			return MarshalledTextResult(NewPaginatedResult(listed, result)), nil, nil
		},
	)
}

// GetLabel creates a tool to get a specific label from a repository.
func GetLabel(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataLabels,
		mcp.Tool{
			Name:        "get_label",
			Description: t("TOOL_GET_LABEL_DESCRIPTION", "Get a specific label from a repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_GET_LABEL_USER_TITLE", "Get label"),
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
					"name": {
						Type:        "string",
						Description: "Label name.",
					},
				},
				Required: []string{"owner", "repo", "name"},
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
			name, err := RequiredParam[string](args, "name")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			gqlClient, err := deps.GetGQLClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub GQL client", err), nil, nil
			}

			var q struct {
				Repository struct {
					Label struct {
						ID          githubv4.ID
						Name        githubv4.String
						Color       githubv4.String
						Description githubv4.String
					} `graphql:"label(name: $name)"`
				} `graphql:"repository(owner: $owner, name: $repo)"`
			}
			vars := map[string]any{
				"owner": githubv4.String(owner),
				"repo":  githubv4.String(repo),
				"name":  githubv4.String(name),
			}
			if err := gqlClient.Query(ctx, &q, vars); err != nil {
				return ghErrors.NewGitHubGraphQLErrorResponse(ctx, "failed to get label", err), nil, nil
			}

			label := q.Repository.Label
			if label.Name == "" {
				return utils.NewToolResultError(fmt.Sprintf("label '%s' not found in %s/%s", name, owner, repo)), nil, nil
			}

			return MarshalledTextResult(map[string]any{
				"id":          fmt.Sprintf("%v", label.ID),
				"name":        string(label.Name),
				"color":       string(label.Color),
				"description": string(label.Description),
			}), nil, nil
		},
	)
}
