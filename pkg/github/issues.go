package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v79/github"
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

// IssueNode is the GraphQL issue fragment returned by list_issues.
type IssueNode struct {
	Number    githubv4.Int
	Title     githubv4.String
	State     githubv4.String
	URL       githubv4.String
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	Author    struct {
		Login githubv4.String
	}
	Labels struct {
		Nodes []struct {
			Name githubv4.String
		}
	} `graphql:"labels(first: 10)"`
	Comments struct {
		TotalCount githubv4.Int
	}
}

// ListedIssue is the shaped output for one issue in list_issues results.
type ListedIssue struct {
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	State        string    `json:"state"`
	URL          string    `json:"url"`
	Author       string    `json:"author,omitempty"`
	Labels       []string  `json:"labels,omitempty"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func convertToListedIssue(node IssueNode) ListedIssue {
	labels := make([]string, 0, len(node.Labels.Nodes))
	for _, label := range node.Labels.Nodes {
		labels = append(labels, string(label.Name))
	}
	return ListedIssue{
		Number:       int(node.Number),
		Title:        sanitize.Content(string(node.Title)),
		State:        string(node.State),
		URL:          string(node.URL),
		Author:       string(node.Author.Login),
		Labels:       labels,
		CommentCount: int(node.Comments.TotalCount),
		CreatedAt:    node.CreatedAt.Time,
		UpdatedAt:    node.UpdatedAt.Time,
	}
}

// listIssuesQuery is the paged query for list_issues. The filterBy variables
// are declared even when null so a single query type serves every filter
// combination.
type listIssuesQuery struct {
	Repository struct {
		Issues paginate.Connection[IssueNode] `graphql:"issues(first: $first, after: $after, states: $states, orderBy: {field: $orderBy, direction: $direction}, filterBy: {labels: $labels, since: $since})"`
	} `graphql:"repository(owner: $owner, name: $repo)"`
}

// ListIssues creates a tool to list issues via the GraphQL API with cursor
// pagination.
func ListIssues(t translations.TranslationHelperFunc) inventory.ServerTool {
	schema := &jsonschema.Schema{
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
			"state": {
				Type:        "string",
				Description: "Filter by state, by default both open and closed issues are returned when not provided",
				Enum:        []any{"OPEN", "CLOSED"},
			},
			"labels": {
				Type:        "array",
				Description: "Filter by labels",
				Items: &jsonschema.Schema{
					Type: "string",
				},
			},
			"orderBy": {
				Type:        "string",
				Description: "Order issues by field. If provided, the 'direction' also needs to be provided.",
				Enum:        []any{"CREATED_AT", "UPDATED_AT", "COMMENTS"},
			},
			"direction": {
				Type:        "string",
				Description: "Order direction. If provided, the 'orderBy' also needs to be provided.",
				Enum:        []any{"ASC", "DESC"},
			},
			"since": {
				Type:        "string",
				Description: "Filter by date (ISO 8601 timestamp)",
			},
		},
		Required: []string{"owner", "repo"},
	}
	WithCursorPagination(schema)

	return NewTool(
		ToolsetMetadataIssues,
		mcp.Tool{
			Name:        "list_issues",
			Description: t("TOOL_LIST_ISSUES_DESCRIPTION", "List issues in a GitHub repository. For pagination, use the 'nextCursor' from the previous response in the 'after' parameter, or set 'autoPage' to collect multiple pages in one call."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_LIST_ISSUES_USER_TITLE", "List issues"),
				ReadOnlyHint: true,
			},
			InputSchema: schema,
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

			state, err := OptionalParam[string](args, "state")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			var states []githubv4.IssueState
			switch strings.ToUpper(state) {
			case "OPEN", "CLOSED":
				states = []githubv4.IssueState{githubv4.IssueState(strings.ToUpper(state))}
			default:
				states = []githubv4.IssueState{githubv4.IssueStateOpen, githubv4.IssueStateClosed}
			}

			labels, err := OptionalStringArrayParam(args, "labels")
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

			orderBy = strings.ToUpper(orderBy)
			switch orderBy {
			case "CREATED_AT", "UPDATED_AT", "COMMENTS":
			default:
				orderBy = "CREATED_AT"
			}
			direction = strings.ToUpper(direction)
			switch direction {
			case "ASC", "DESC":
			default:
				direction = "DESC"
			}

			since, err := OptionalParam[string](args, "since")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			var sinceVar any = (*githubv4.DateTime)(nil)
			if since != "" {
				sinceTime, err := parseISOTimestamp(since)
				if err != nil {
					return utils.NewToolResultError(fmt.Sprintf("failed to list issues: %s", err.Error())), nil, nil
				}
				sinceVar = githubv4.DateTime{Time: sinceTime}
			}

			var labelsVar any = (*[]githubv4.String)(nil)
			if len(labels) > 0 {
				labelStrings := make([]githubv4.String, len(labels))
				for i, label := range labels {
					labelStrings[i] = githubv4.String(label)
				}
				labelsVar = labelStrings
			}

			pagination, err := OptionalCursorPaginationParams(args)
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			client, err := deps.GetGQLClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub GQL client", err), nil, nil
			}

			vars := map[string]any{
				"owner":     githubv4.String(owner),
				"repo":      githubv4.String(repo),
				"states":    states,
				"orderBy":   githubv4.IssueOrderField(orderBy),
				"direction": githubv4.OrderDirection(direction),
				"labels":    labelsVar,
				"since":     sinceVar,
			}

			fetch := paginate.QueryFetcher(client, vars, func(q *listIssuesQuery) *paginate.Connection[IssueNode] {
				return &q.Repository.Issues
			})

			result, err := paginate.Paginate(ctx, pagination.ToOptions(), fetch)
			if err != nil {
				return paginationErrorResult(ctx, "failed to list issues", err), nil, nil
			}

			listed := make([]ListedIssue, 0, len(result.Data))
			for _, node := range result.Data {
				listed = append(listed, convertToListedIssue(node))
			}

			return MarshalledTextResult(NewPaginatedResult(listed, result)), nil, nil
		},
	)
}

// GetIssue creates a tool to get details of a specific issue.
func GetIssue(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataIssues,
		mcp.Tool{
			Name:        "get_issue",
			Description: t("TOOL_GET_ISSUE_DESCRIPTION", "Get details of a specific issue in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_GET_ISSUE_USER_TITLE", "Get issue details"),
				ReadOnlyHint: true,
			},
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"owner": {
						Type:        "string",
						Description: "The owner of the repository",
					},
					"repo": {
						Type:        "string",
						Description: "The name of the repository",
					},
					"issue_number": {
						Type:        "number",
						Description: "The number of the issue",
					},
				},
				Required: []string{"owner", "repo", "issue_number"},
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
			issueNumber, err := RequiredInt(args, "issue_number")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			client, err := deps.GetClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub client", err), nil, nil
			}

			issue, resp, err := client.Issues.Get(ctx, owner, repo, issueNumber)
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					"failed to get issue",
					resp,
					err,
				), nil, nil
			}
			defer func() { _ = resp.Body.Close() }()
			deps.GetRateTracker().Record(resp)

			if issue.Title != nil {
				issue.Title = github.Ptr(sanitize.Content(issue.GetTitle()))
			}
			if issue.Body != nil {
				issue.Body = github.Ptr(sanitize.Content(issue.GetBody()))
			}

			return MarshalledTextResult(issue), nil, nil
		},
	)
}

// SearchIssues creates a tool to search for issues.
func SearchIssues(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataIssues,
		mcp.Tool{
			Name:        "search_issues",
			Description: t("TOOL_SEARCH_ISSUES_DESCRIPTION", "Search for issues in GitHub repositories using issues search syntax already scoped to is:issue"),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_SEARCH_ISSUES_USER_TITLE", "Search issues"),
				ReadOnlyHint: true,
			},
			InputSchema: WithPagination(&jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {
						Type:        "string",
						Description: "Search query using GitHub issues search syntax",
					},
					"owner": {
						Type:        "string",
						Description: "Optional repository owner. If provided with repo, only issues for this repository are listed.",
					},
					"repo": {
						Type:        "string",
						Description: "Optional repository name. If provided with owner, only issues for this repository are listed.",
					},
					"sort": {
						Type:        "string",
						Description: "Sort field by number of matches of categories, defaults to best match",
						Enum: []any{
							"comments", "reactions", "created", "updated",
						},
					},
					"order": {
						Type:        "string",
						Description: "Sort order",
						Enum:        []any{"asc", "desc"},
					},
				},
				Required: []string{"query"},
			}),
		},
		func(ctx context.Context, deps ToolDependencies, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
			return searchHandler(ctx, deps, args, "issue", "failed to search issues")
		},
	)
}

// CreateIssue creates a tool to open a new issue.
func CreateIssue(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataIssues,
		mcp.Tool{
			Name:        "create_issue",
			Description: t("TOOL_CREATE_ISSUE_DESCRIPTION", "Create a new issue in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_CREATE_ISSUE_USER_TITLE", "Open new issue"),
				ReadOnlyHint: false,
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
					"title": {
						Type:        "string",
						Description: "Issue title",
					},
					"body": {
						Type:        "string",
						Description: "Issue body content",
					},
					"assignees": {
						Type:        "array",
						Description: "Usernames to assign to this issue",
						Items:       &jsonschema.Schema{Type: "string"},
					},
					"labels": {
						Type:        "array",
						Description: "Labels to apply to this issue",
						Items:       &jsonschema.Schema{Type: "string"},
					},
				},
				Required: []string{"owner", "repo", "title"},
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
			title, err := RequiredParam[string](args, "title")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			body, err := OptionalParam[string](args, "body")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			assignees, err := OptionalStringArrayParam(args, "assignees")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			labels, err := OptionalStringArrayParam(args, "labels")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			client, err := deps.GetClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub client", err), nil, nil
			}

			issueRequest := &github.IssueRequest{
				Title:     github.Ptr(title),
				Body:      github.Ptr(body),
				Assignees: &assignees,
				Labels:    &labels,
			}

			issue, resp, err := client.Issues.Create(ctx, owner, repo, issueRequest)
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					"failed to create issue",
					resp,
					err,
				), nil, nil
			}
			defer func() { _ = resp.Body.Close() }()

			minimalResponse := MinimalIssueResponse{
				URL:    issue.GetHTMLURL(),
				Number: issue.GetNumber(),
				State:  issue.GetState(),
				Title:  issue.GetTitle(),
			}

			return MarshalledTextResult(minimalResponse), nil, nil
		},
	)
}

// AddIssueComment creates a tool to comment on an issue.
func AddIssueComment(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataIssues,
		mcp.Tool{
			Name:        "add_issue_comment",
			Description: t("TOOL_ADD_ISSUE_COMMENT_DESCRIPTION", "Add a comment to a specific issue in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_ADD_ISSUE_COMMENT_USER_TITLE", "Add comment to issue"),
				ReadOnlyHint: false,
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
					"issue_number": {
						Type:        "number",
						Description: "Issue number to comment on",
					},
					"body": {
						Type:        "string",
						Description: "Comment content",
					},
				},
				Required: []string{"owner", "repo", "issue_number", "body"},
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
			issueNumber, err := RequiredInt(args, "issue_number")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			body, err := RequiredParam[string](args, "body")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			client, err := deps.GetClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub client", err), nil, nil
			}

			comment := &github.IssueComment{Body: github.Ptr(body)}

			createdComment, resp, err := client.Issues.CreateComment(ctx, owner, repo, issueNumber, comment)
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					"failed to create comment",
					resp,
					err,
				), nil, nil
			}
			defer func() { _ = resp.Body.Close() }()

			result := map[string]any{
				"id":       createdComment.GetID(),
				"html_url": createdComment.GetHTMLURL(),
			}

			return MarshalledTextResult(result), nil, nil
		},
	)
}

// UpdateIssue creates a tool to update an existing issue.
func UpdateIssue(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataIssues,
		mcp.Tool{
			Name:        "update_issue",
			Description: t("TOOL_UPDATE_ISSUE_DESCRIPTION", "Update an existing issue in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_UPDATE_ISSUE_USER_TITLE", "Edit issue"),
				ReadOnlyHint: false,
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
					"issue_number": {
						Type:        "number",
						Description: "Issue number to update",
					},
					"title": {
						Type:        "string",
						Description: "New title",
					},
					"body": {
						Type:        "string",
						Description: "New description",
					},
					"state": {
						Type:        "string",
						Description: "New state",
						Enum:        []any{"open", "closed"},
					},
					"labels": {
						Type:        "array",
						Description: "New labels",
						Items:       &jsonschema.Schema{Type: "string"},
					},
				},
				Required: []string{"owner", "repo", "issue_number"},
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
			issueNumber, err := RequiredInt(args, "issue_number")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			issueRequest := &github.IssueRequest{}

			title, titleProvided, err := OptionalParamOK[string](args, "title")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			if titleProvided {
				issueRequest.Title = github.Ptr(title)
			}
			body, bodyProvided, err := OptionalParamOK[string](args, "body")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			if bodyProvided {
				issueRequest.Body = github.Ptr(body)
			}
			state, stateProvided, err := OptionalParamOK[string](args, "state")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			if stateProvided {
				issueRequest.State = github.Ptr(state)
			}
			if _, ok := args["labels"]; ok {
				labels, err := OptionalStringArrayParam(args, "labels")
				if err != nil {
					return utils.NewToolResultError(err.Error()), nil, nil
				}
				issueRequest.Labels = &labels
			}

			client, err := deps.GetClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub client", err), nil, nil
			}

			updatedIssue, resp, err := client.Issues.Edit(ctx, owner, repo, issueNumber, issueRequest)
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					"failed to update issue",
					resp,
					err,
				), nil, nil
			}
			defer func() { _ = resp.Body.Close() }()

			minimalResponse := MinimalIssueResponse{
				URL:    updatedIssue.GetHTMLURL(),
				Number: updatedIssue.GetNumber(),
				State:  updatedIssue.GetState(),
				Title:  updatedIssue.GetTitle(),
			}

			return MarshalledTextResult(minimalResponse), nil, nil
		},
	)
}

// parseISOTimestamp accepts RFC 3339 timestamps and bare dates.
func parseISOTimestamp(timestamp string) (time.Time, error) {
	if timestamp == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", timestamp); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid ISO 8601 timestamp: %s (supported formats: YYYY-MM-DDThh:mm:ssZ or YYYY-MM-DD)", timestamp)
}

// paginationErrorResult maps engine errors onto tool results: validation and
// configuration problems surface as error results without touching the
// network again, transport failures are recorded in context like any other
// GraphQL error.
func paginationErrorResult(ctx context.Context, message string, err error) *mcp.CallToolResult {
	var validationErr *paginate.ValidationError
	if errors.As(err, &validationErr) {
		return utils.NewToolResultError(validationErr.Error())
	}
	var configErr *paginate.ConfigurationError
	if errors.As(err, &configErr) {
		return utils.NewToolResultError(configErr.Error())
	}
	return ghErrors.NewGitHubGraphQLErrorResponse(ctx, message, err)
}
