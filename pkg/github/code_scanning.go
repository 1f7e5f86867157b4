package github

import (
	"context"
	"encoding/json"
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

// ListCodeScanningAlerts creates a tool to list code scanning alerts in a
// repository.
func ListCodeScanningAlerts(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataCodeSecurity,
		mcp.Tool{
			Name:        "list_code_scanning_alerts",
			Description: t("TOOL_LIST_CODE_SCANNING_ALERTS_DESCRIPTION", "List code scanning alerts in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_LIST_CODE_SCANNING_ALERTS_USER_TITLE", "List code scanning alerts"),
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
					"ref": {
						Type:        "string",
						Description: "The Git reference for the results you want to list.",
					},
					"state": {
						Type:        "string",
						Description: "Filter code scanning alerts by state. Defaults to open",
						Enum:        []any{"open", "closed", "dismissed", "fixed"},
						Default:     json.RawMessage(`"open"`),
					},
					"severity": {
						Type:        "string",
						Description: "Filter code scanning alerts by severity",
						Enum:        []any{"critical", "high", "medium", "low", "warning", "note", "error"},
					},
					"tool_name": {
						Type:        "string",
						Description: "The name of the tool used for code scanning.",
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
			ref, err := OptionalParam[string](args, "ref")
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
			toolName, err := OptionalParam[string](args, "tool_name")
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

			alerts, resp, err := client.CodeScanning.ListAlertsForRepo(ctx, owner, repo, &github.AlertListOptions{Ref: ref, State: state, Severity: severity, ToolName: toolName})
			if err != nil {
				if ghErrors.IsNotFound(resp) {
					return utils.NewToolResultText("Code scanning is not enabled for this repository, or no analysis has been uploaded yet."), nil, nil
				}
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					"failed to list code scanning alerts",
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
				Kind:        "code scanning",
				GeneratedAt: time.Now().UTC(),
				Findings:    make([]report.Finding, 0, len(alerts)),
			}
			for _, alert := range alerts {
				finding := report.Finding{
					Number:      alert.GetNumber(),
					Severity:    alert.GetRule().GetSeverity(),
					State:       alert.GetState(),
					Title:       alert.GetRule().GetDescription(),
					Description: alert.GetRule().GetFullDescription(),
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

// GetCodeScanningAlert creates a tool to get details of a specific code
// scanning alert.
func GetCodeScanningAlert(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataCodeSecurity,
		mcp.Tool{
			Name:        "get_code_scanning_alert",
			Description: t("TOOL_GET_CODE_SCANNING_ALERT_DESCRIPTION", "Get details of a specific code scanning alert in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_GET_CODE_SCANNING_ALERT_USER_TITLE", "Get code scanning alert"),
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

			alert, resp, err := client.CodeScanning.GetAlert(ctx, owner, repo, int64(alertNumber))
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					"failed to get code scanning alert",
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
