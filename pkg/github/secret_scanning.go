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

// ListSecretScanningAlerts creates a tool to list secret scanning alerts in
// a repository.
func ListSecretScanningAlerts(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataSecretProtection,
		mcp.Tool{
			Name:        "list_secret_scanning_alerts",
			Description: t("TOOL_LIST_SECRET_SCANNING_ALERTS_DESCRIPTION", "List secret scanning alerts in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_LIST_SECRET_SCANNING_ALERTS_USER_TITLE", "List secret scanning alerts"),
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
						Description: "Filter by state",
						Enum:        []any{"open", "resolved"},
					},
					"secret_type": {
						Type:        "string",
						Description: "A comma-separated list of secret types to return. All default secret patterns are returned.",
					},
					"resolution": {
						Type:        "string",
						Description: "Filter by resolution",
						Enum:        []any{"false_positive", "wont_fix", "revoked", "pattern_edited", "pattern_deleted", "used_in_tests"},
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
			secretType, err := OptionalParam[string](args, "secret_type")
			if err != nil {
				return utils.NewToolResultError(err.Error()), nil, nil
			}
			resolution, err := OptionalParam[string](args, "resolution")
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

			alerts, resp, err := client.SecretScanning.ListAlertsForRepo(ctx, owner, repo, &github.SecretScanningAlertListOptions{State: state, SecretType: secretType, Resolution: resolution})
			if err != nil {
				if ghErrors.IsNotFound(resp) {
					return utils.NewToolResultText("Secret scanning is not enabled for this repository."), nil, nil
				}
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					"failed to list secret scanning alerts",
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
				Kind:        "secret scanning",
				GeneratedAt: time.Now().UTC(),
				Findings:    make([]report.Finding, 0, len(alerts)),
			}
			for _, alert := range alerts {
				finding := report.Finding{
					Number: alert.GetNumber(),
					State:  alert.GetState(),
					Title:  alert.GetSecretTypeDisplayName(),
					URL:    alert.GetHTMLURL(),
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

// GetSecretScanningAlert creates a tool to get details of a specific secret
// scanning alert.
func GetSecretScanningAlert(t translations.TranslationHelperFunc) inventory.ServerTool {
	return NewTool(
		ToolsetMetadataSecretProtection,
		mcp.Tool{
			Name:        "get_secret_scanning_alert",
			Description: t("TOOL_GET_SECRET_SCANNING_ALERT_DESCRIPTION", "Get details of a specific secret scanning alert in a GitHub repository."),
			Annotations: &mcp.ToolAnnotations{
				Title:        t("TOOL_GET_SECRET_SCANNING_ALERT_USER_TITLE", "Get secret scanning alert"),
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

			alert, resp, err := client.SecretScanning.GetAlert(ctx, owner, repo, int64(alertNumber))
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx,
					"failed to get secret scanning alert",
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
