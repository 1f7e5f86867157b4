package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v79/github"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	ghErrors "github.com/quanticsoul4772/github-mcp-sub000/pkg/errors"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/inventory"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/report"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/utils"
)

// ListDependabotAlerts creates a tool to list Dependabot alerts in a
// repository.
func ListDependabotAlerts(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataDependabot,
		mcp.Tool{
			Name:        "list_dependabot_alerts",
			Description: t("TOOL_LIST_DEPENDABOT_ALERTS_DESCRIPTION", "List dependabot alerts in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_LIST_DEPENDABOT_ALERTS_USER_TITLE", "List dependabot alerts"),
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
					"state": {
						Type:        "string",
						Description: "Filter dependabot alerts by state. Defaults to open",
						Enum:        []any{"open", "fixed", "dismissed", "auto_dismissed"},
					},
					"severity": {
						Type:        "string",
						Description: "Filter dependabot alerts by severity",
						Enum:        []any{"low", "medium", "high", "critical"},
					},
					"format": {
						Type:        "string",
						Description: "Output format for the alert report",
						Enum:        []any{"json", "markdown", "csv", "text"},
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
			state, err := OptionalParam[string](args, "state")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			severity, err := OptionalParam[string](args, "severity")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			formatArg, err := OptionalParam[string](args, "format")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			format, err := report.ParseFormat(formatArg)
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			client, err := deps.GetClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub client", err), nil, nil
			}

			opts := &github.ListAlertsOptions{}
			if state != "" {
				opts.State = github.Ptr(state)
			}
			if severity != "" {
				opts.Severity = github.Ptr(severity)
			}

			alerts, resp, err := client.Dependabot.ListRepoAlerts(ctx, owner, repo, opts)
			if err != nil {
				if ghErrors.IsNotFound(resp) {
					return utils.NewToolResultText("Dependabot alerts are not enabled for this repository."), nil, nil
				}
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					"failed to list dependabot alerts",
					resp,
					err,
				), nil, nil
			}
			defer func() { _ = resp.Body.Close() }()
			deps.GetRateTracker().Record(resp)

			if format == report.FormatJSON {
				return MarshalledTextResult(alerts), nil, nil
			}

			summary := report.Summary{
				Repository:  fmt.Sprintf("%s/%s", owner, repo),
				Kind:        "dependabot",
				GeneratedAt: time.Now().UTC(),
				Findings:    make([]report.Finding, 0, len(alerts)),
			}
			for _, alert := range alerts {
				finding := report.Finding{
					Number:      alert.GetNumber(),
					Severity:    alert.GetSecurityAdvisory().GetSeverity(),
					State:       alert.GetState(),
					Title:       alert.GetSecurityAdvisory().GetSummary(),
					Description: alert.GetSecurityAdvisory().GetDescription(),
					URL:         alert.GetHTMLURL(),
				}
				if alert.CreatedAt != nil {
					finding.CreatedAt = alert.CreatedAt.Time
				}
				summary.Findings = append(summary.Findings, finding)
			}

			rendered, err := report.Render(summary, format)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to render alert report", err), nil, nil
			}

			return utils.NewToolResultText(rendered), nil, nil
		},
	)
}

// GetDependabotAlert creates a tool to get details of a specific Dependabot
// alert.
func GetDependabotAlert(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataDependabot,
		mcp.Tool{
			Name:        "get_dependabot_alert",
			Description: t("TOOL_GET_DEPENDABOT_ALERT_DESCRIPTION", "Get details of a specific dependabot alert in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_GET_DEPENDABOT_ALERT_USER_TITLE", "Get dependabot alert"),
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
					"alertNumber": {
						Type:        "number",
						Description: "The number of the alert.",
					},
				},
				Required: []string{"owner", "repo", "alertNumber"},
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
			alertNumber, err := RequiredInt(args, "alertNumber")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}

			client, err := deps.GetClient(ctx)
			if err != nil {
				return utils.NewToolResultErrorFromErr("failed to get GitHub client", err), nil, nil
			}

			alert, resp, err := client.Dependabot.GetRepoAlert(ctx, owner, repo, alertNumber)
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					fmt.Sprintf("failed to get alert with number '%d'", alertNumber),
					resp,
					err,
				), nil, nil
			}
			defer func() { _ = resp.Body.Close() }()
			deps.GetRateTracker().Record(resp)

			return MarshalledTextResult(alert), nil, nil
		},
	)
}
