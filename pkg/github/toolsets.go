package github

import (
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/inventory"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
)

// Toolset metadata for every toolset this server ships. The Default flag
// selects what an unconfigured server exposes.
var (
	ToolsetMetadataContext = inventory.ToolsetMetadata{
		ID:          "context",
		Description: "Tools describing the authenticated user's context",
		Default:     true,
	}
	ToolsetMetadataRepos = inventory.ToolsetMetadata{
		ID:          "repos",
		Description: "GitHub repository related tools",
		Default:     true,
	}
	ToolsetMetadataIssues = inventory.ToolsetMetadata{
		ID:          "issues",
		Description: "GitHub issue related tools",
		Default:     true,
	}
	ToolsetMetadataPullRequests = inventory.ToolsetMetadata{
		ID:          "pull_requests",
		Description: "GitHub pull request related tools",
		Default:     true,
	}
	ToolsetMetadataActions = inventory.ToolsetMetadata{
		ID:          "actions",
		Description: "GitHub Actions workflow and CI/CD tools",
	}
	ToolsetMetadataCodeSecurity = inventory.ToolsetMetadata{
		ID:          "code_security",
		Description: "Code scanning alert tools",
	}
	ToolsetMetadataSecretProtection = inventory.ToolsetMetadata{
		ID:          "secret_protection",
		Description: "Secret scanning alert tools",
	}
	ToolsetMetadataDependabot = inventory.ToolsetMetadata{
		ID:          "dependabot",
		Description: "Dependabot alert tools",
	}
	ToolsetMetadataDiscussions = inventory.ToolsetMetadata{
		ID:          "discussions",
		Description: "GitHub discussion related tools",
	}
	ToolsetMetadataNotifications = inventory.ToolsetMetadata{
		ID:          "notifications",
		Description: "GitHub notification tools",
	}
	ToolsetMetadataLabels = inventory.ToolsetMetadata{
		ID:          "labels",
		Description: "GitHub label related tools",
	}
	ToolsetMetadataSearch = inventory.ToolsetMetadata{
		ID:          "search",
		Description: "Code and user search tools",
		Default:     true,
	}
)

// AllToolsets lists the toolset metadata in display order.
func AllToolsets() []inventory.ToolsetMetadata {
	return []inventory.ToolsetMetadata{
		ToolsetMetadataContext,
		ToolsetMetadataRepos,
		ToolsetMetadataIssues,
		ToolsetMetadataPullRequests,
		ToolsetMetadataActions,
		ToolsetMetadataCodeSecurity,
		ToolsetMetadataSecretProtection,
		ToolsetMetadataDependabot,
		ToolsetMetadataDiscussions,
		ToolsetMetadataNotifications,
		ToolsetMetadataLabels,
		ToolsetMetadataSearch,
	}
}

// DefaultTools returns every tool this server ships, before any filtering.
func DefaultTools(t translations.TranslationHelperFunc) []inventory.ServerTool {
	return []inventory.ServerTool{
		// context
		GetMe(t),

		// repos
		SearchRepositories(t),
		GetFileContents(t),
		ListBranches(t),
		ListCommits(t),
		ListTags(t),
		CreateRepository(t),
		ForkRepository(t),
		CreateOrUpdateFile(t),

		// issues
		ListIssues(t),
		GetIssue(t),
		SearchIssues(t),
		CreateIssue(t),
		AddIssueComment(t),
		UpdateIssue(t),

		// pull requests
		ListPullRequests(t),
		GetPullRequest(t),
		GetPullRequestFiles(t),
		CreatePullRequest(t),
		MergePullRequest(t),
		UpdatePullRequestBranch(t),

		// actions
		ListWorkflows(t),
		ListWorkflowRuns(t),
		GetJobLogs(t),
		RunWorkflow(t),
		CancelWorkflowRun(t),
		RerunFailedJobs(t),

		// security
		ListCodeScanningAlerts(t),
		GetCodeScanningAlert(t),
		ListSecretScanningAlerts(t),
		GetSecretScanningAlert(t),
		ListDependabotAlerts(t),
		GetDependabotAlert(t),

		// discussions
		ListDiscussions(t),
		GetDiscussion(t),
		ListDiscussionCategories(t),

		// notifications
		ListNotifications(t),
		DismissNotification(t),

		// labels
		ListLabels(t),
		GetLabel(t),

		// search
		SearchCode(t),
		SearchUsers(t),
	}
}
