package github

import (
	"github.com/google/go-github/v79/github"
)

// Trimmed output types. GitHub API objects are verbose; tool results carry
// only the fields an MCP host can act on.

// MinimalUser is the output type for user and organization results.
type MinimalUser struct {
	Login      string       `json:"login"`
	ID         int64        `json:"id,omitempty"`
	ProfileURL string       `json:"profile_url,omitempty"`
	AvatarURL  string       `json:"avatar_url,omitempty"`
	Details    *UserDetails `json:"details,omitempty"`
}

// MinimalRepository is the trimmed output type for repository objects.
type MinimalRepository struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description,omitempty"`
	HTMLURL       string   `json:"html_url"`
	Language      string   `json:"language,omitempty"`
	Stars         int      `json:"stargazers_count"`
	Forks         int      `json:"forks_count"`
	OpenIssues    int      `json:"open_issues_count"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	Topics        []string `json:"topics,omitempty"`
	Private       bool     `json:"private"`
	Fork          bool     `json:"fork"`
	Archived      bool     `json:"archived"`
	DefaultBranch string   `json:"default_branch,omitempty"`
}

// MinimalSearchRepositoriesResult is the trimmed output type for repository
// search results.
type MinimalSearchRepositoriesResult struct {
	TotalCount        int                 `json:"total_count"`
	IncompleteResults bool                `json:"incomplete_results"`
	Items             []MinimalRepository `json:"items"`
}

// MinimalSearchUsersResult is the trimmed output type for user search results.
type MinimalSearchUsersResult struct {
	TotalCount        int           `json:"total_count"`
	IncompleteResults bool          `json:"incomplete_results"`
	Items             []MinimalUser `json:"items"`
}

// MinimalCommitAuthor represents commit author information.
type MinimalCommitAuthor struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Date  string `json:"date,omitempty"`
}

// MinimalCommitInfo represents core commit information.
type MinimalCommitInfo struct {
	Message   string               `json:"message"`
	Author    *MinimalCommitAuthor `json:"author,omitempty"`
	Committer *MinimalCommitAuthor `json:"committer,omitempty"`
}

// MinimalCommit is the trimmed output type for commit objects.
type MinimalCommit struct {
	SHA     string             `json:"sha"`
	HTMLURL string             `json:"html_url"`
	Commit  *MinimalCommitInfo `json:"commit,omitempty"`
	Author  *MinimalUser       `json:"author,omitempty"`
}

// MinimalBranch is the trimmed output type for branch objects.
type MinimalBranch struct {
	Name      string `json:"name"`
	SHA       string `json:"sha"`
	Protected bool   `json:"protected"`
}

// MinimalTag is the trimmed output type for tag objects.
type MinimalTag struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

// MinimalRepositoryResponse is the response shape for repository write
// operations.
type MinimalRepositoryResponse struct {
	URL      string `json:"url"`
	CloneURL string `json:"clone_url,omitempty"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// MinimalIssueResponse is the response shape for issue write operations.
type MinimalIssueResponse struct {
	URL    string `json:"url"`
	Number int    `json:"number"`
	State  string `json:"state,omitempty"`
	Title  string `json:"title,omitempty"`
}

// MinimalPullRequestResponse is the response shape for pull request write
// operations.
type MinimalPullRequestResponse struct {
	URL    string `json:"url"`
	Number int    `json:"number"`
	State  string `json:"state,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Conversion functions. All tolerate nil input and nil nested fields; the
// REST API omits fields freely depending on endpoint and auth scope.

func convertToMinimalUser(user *github.User) MinimalUser {
	if user == nil {
		return MinimalUser{}
	}
	return MinimalUser{
		Login:      user.GetLogin(),
		ID:         user.GetID(),
		ProfileURL: user.GetHTMLURL(),
		AvatarURL:  user.GetAvatarURL(),
	}
}

func convertToMinimalRepository(repo *github.Repository) MinimalRepository {
	if repo == nil {
		return MinimalRepository{}
	}
	minimal := MinimalRepository{
		ID:            repo.GetID(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		HTMLURL:       repo.GetHTMLURL(),
		Language:      repo.GetLanguage(),
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		Topics:        repo.Topics,
		Private:       repo.GetPrivate(),
		Fork:          repo.GetFork(),
		Archived:      repo.GetArchived(),
		DefaultBranch: repo.GetDefaultBranch(),
	}
	if repo.UpdatedAt != nil {
		minimal.UpdatedAt = repo.UpdatedAt.Format("2006-01-02T15:04:05Z")
	}
	if repo.CreatedAt != nil {
		minimal.CreatedAt = repo.CreatedAt.Format("2006-01-02T15:04:05Z")
	}
	return minimal
}

func convertToMinimalCommit(commit *github.RepositoryCommit) MinimalCommit {
	if commit == nil {
		return MinimalCommit{}
	}
	minimal := MinimalCommit{
		SHA:     commit.GetSHA(),
		HTMLURL: commit.GetHTMLURL(),
	}
	if commit.Commit != nil {
		info := &MinimalCommitInfo{Message: commit.Commit.GetMessage()}
		if author := commit.Commit.Author; author != nil {
			info.Author = &MinimalCommitAuthor{
				Name:  author.GetName(),
				Email: author.GetEmail(),
			}
			if author.Date != nil {
				info.Author.Date = author.Date.Format("2006-01-02T15:04:05Z")
			}
		}
		if committer := commit.Commit.Committer; committer != nil {
			info.Committer = &MinimalCommitAuthor{
				Name:  committer.GetName(),
				Email: committer.GetEmail(),
			}
			if committer.Date != nil {
				info.Committer.Date = committer.Date.Format("2006-01-02T15:04:05Z")
			}
		}
		minimal.Commit = info
	}
	if commit.Author != nil {
		author := convertToMinimalUser(commit.Author)
		minimal.Author = &author
	}
	return minimal
}

func convertToMinimalBranch(branch *github.Branch) MinimalBranch {
	if branch == nil {
		return MinimalBranch{}
	}
	return MinimalBranch{
		Name:      branch.GetName(),
		SHA:       branch.GetCommit().GetSHA(),
		Protected: branch.GetProtected(),
	}
}

func convertToMinimalTag(tag *github.RepositoryTag) MinimalTag {
	if tag == nil {
		return MinimalTag{}
	}
	return MinimalTag{
		Name: tag.GetName(),
		SHA:  tag.GetCommit().GetSHA(),
	}
}
