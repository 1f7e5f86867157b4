package ghmcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	gogithub "github.com/google/go-github/v79/github"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	ghErrors "github.com/quanticsoul4772/github-mcp-sub000/pkg/errors"
	mcpgithub "github.com/quanticsoul4772/github-mcp-sub000/pkg/github"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/inventory"
	"github.com/quanticsoul4772/github-mcp-sub000/pkg/translations"
)

// rateWarnThreshold is the remaining-request floor below which each tool
// call logs a warning.
const rateWarnThreshold = 100

// MCPServerConfig is everything needed to assemble the MCP server.
type MCPServerConfig struct {
	// Version of the server, reported in the MCP handshake and User-Agent.
	Version string

	// Host is the GitHub instance to target. Empty means github.com;
	// GHES and ghe.com hosts are recognized by their URL shape.
	Host string

	// Token is the GitHub personal access token used for all API calls.
	Token string

	// EnabledToolsets is the toolset selection. Nil means defaults.
	EnabledToolsets []string

	// EnabledTools enables individual tools regardless of toolset selection.
	EnabledTools []string

	// ReadOnly restricts the server to tools that do not modify anything.
	ReadOnly bool

	// Translator overrides tool descriptions.
	Translator translations.TranslationHelperFunc

	// ContentWindowSize is the line window used when truncating log output.
	ContentWindowSize int

	// Logger receives structured server logs. Nil means slog.Default().
	Logger *slog.Logger
}

// NewMCPServer builds the MCP server with all available tools registered and
// per-request dependency injection wired in.
func NewMCPServer(cfg MCPServerConfig) (*mcp.Server, error) {
	apiHost, err := parseAPIHost(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API host: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), tokenSource)
	httpClient.Transport = &userAgentTransport{
		transport: httpClient.Transport,
		agent:     fmt.Sprintf("github-mcp-server/%s", cfg.Version),
	}

	restClient := gogithub.NewClient(httpClient)
	restClient.BaseURL = apiHost.baseRESTURL
	restClient.UploadURL = apiHost.uploadURL

	gqlClient := githubv4.NewEnterpriseClient(apiHost.graphqlURL.String(), httpClient)

	t := cfg.Translator
	if t == nil {
		t = translations.NullTranslationHelper
	}

	deps := mcpgithub.NewBaseDeps(restClient, gqlClient, t, cfg.ContentWindowSize)

	server := mcpgithub.NewServer(cfg.Version, nil)

	// Every request gets the deps and a fresh API error collector in its
	// context before any tool handler runs.
	server.AddReceivingMiddleware(func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			ctx = mcpgithub.ContextWithDeps(ctx, deps)
			ctx = ghErrors.ContextWithGitHubErrors(ctx)
			res, err := next(ctx, method, req)
			if method == "tools/call" {
				warnOnLowRateLimit(ctx, logger, deps)
			}
			return res, err
		}
	})

	inv := inventory.NewBuilder().
		SetTools(mcpgithub.DefaultTools(t)).
		WithReadOnly(cfg.ReadOnly).
		WithToolsets(resolveEnabledToolsets(cfg)).
		WithTools(cfg.EnabledTools).
		Build()

	inv.RegisterTools(server, deps)

	return server, nil
}

// resolveEnabledToolsets maps the raw config to a toolset selection for the
// inventory builder. Nil means "use defaults"; an empty slice means no
// toolsets at all, which is what individually enabled tools want.
func resolveEnabledToolsets(cfg MCPServerConfig) []string {
	if cfg.EnabledToolsets == nil && len(cfg.EnabledTools) > 0 {
		return []string{}
	}
	return cfg.EnabledToolsets
}

func warnOnLowRateLimit(ctx context.Context, logger *slog.Logger, deps *mcpgithub.BaseDeps) {
	snapshot, ok := deps.RateTracker.Snapshot()
	if !ok || !deps.RateTracker.Low(rateWarnThreshold) {
		return
	}
	logger.WarnContext(ctx, "GitHub API rate limit is low",
		"remaining", snapshot.Remaining,
		"limit", snapshot.Limit,
		"reset", snapshot.Reset,
	)
}

// StdioServerConfig runs the MCP server over stdin/stdout.
type StdioServerConfig struct {
	Version string

	Host  string
	Token string

	EnabledToolsets []string
	EnabledTools    []string
	ReadOnly        bool

	// LogFilePath routes logs to a file instead of stderr.
	LogFilePath string

	Translator translations.TranslationHelperFunc

	ContentWindowSize int
}

// RunStdioServer blocks until the client disconnects or the process receives
// a termination signal.
func RunStdioServer(cfg StdioServerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, closeLog, err := newLogger(cfg.LogFilePath)
	if err != nil {
		return err
	}
	defer closeLog()

	server, err := NewMCPServer(MCPServerConfig{
		Version:           cfg.Version,
		Host:              cfg.Host,
		Token:             cfg.Token,
		EnabledToolsets:   cfg.EnabledToolsets,
		EnabledTools:      cfg.EnabledTools,
		ReadOnly:          cfg.ReadOnly,
		Translator:        cfg.Translator,
		ContentWindowSize: cfg.ContentWindowSize,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger.Info("starting server", "host", cfg.Host, "read_only", cfg.ReadOnly)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		if ctx.Err() != nil {
			logger.Info("server stopped", "reason", ctx.Err())
			return nil
		}
		return fmt.Errorf("server run error: %w", err)
	}
	return nil
}

func newLogger(path string) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeLog := func() {}
	if path != "" {
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = file
		closeLog = func() { _ = file.Close() }
	}
	return slog.New(slog.NewTextHandler(w, nil)), closeLog, nil
}

// apiHost holds the resolved endpoint URLs for a GitHub deployment.
type apiHost struct {
	baseRESTURL *url.URL
	graphqlURL  *url.URL
	uploadURL   *url.URL
}

func newDotcomHost() (apiHost, error) {
	baseRestURL, _ := url.Parse("https://api.github.com/")
	gqlURL, _ := url.Parse("https://api.github.com/graphql")
	uploadURL, _ := url.Parse("https://uploads.github.com")
	return apiHost{
		baseRESTURL: baseRestURL,
		graphqlURL:  gqlURL,
		uploadURL:   uploadURL,
	}, nil
}

func newGHECHost(hostname string) (apiHost, error) {
	u, err := url.Parse(hostname)
	if err != nil {
		return apiHost{}, fmt.Errorf("failed to parse ghe.com URL: %w", err)
	}

	restURL, err := url.Parse(fmt.Sprintf("%s://api.%s/", u.Scheme, u.Hostname()))
	if err != nil {
		return apiHost{}, fmt.Errorf("failed to parse ghe.com REST URL: %w", err)
	}
	gqlURL, err := url.Parse(fmt.Sprintf("%s://api.%s/graphql", u.Scheme, u.Hostname()))
	if err != nil {
		return apiHost{}, fmt.Errorf("failed to parse ghe.com GraphQL URL: %w", err)
	}
	uploadURL, err := url.Parse(fmt.Sprintf("%s://uploads.%s", u.Scheme, u.Hostname()))
	if err != nil {
		return apiHost{}, fmt.Errorf("failed to parse ghe.com upload URL: %w", err)
	}
	return apiHost{
		baseRESTURL: restURL,
		graphqlURL:  gqlURL,
		uploadURL:   uploadURL,
	}, nil
}

func newGHESHost(hostname string) (apiHost, error) {
	u, err := url.Parse(hostname)
	if err != nil {
		return apiHost{}, fmt.Errorf("failed to parse GHES URL: %w", err)
	}

	restURL, err := url.Parse(fmt.Sprintf("%s://%s/api/v3/", u.Scheme, u.Hostname()))
	if err != nil {
		return apiHost{}, fmt.Errorf("failed to parse GHES REST URL: %w", err)
	}
	gqlURL, err := url.Parse(fmt.Sprintf("%s://%s/api/graphql", u.Scheme, u.Hostname()))
	if err != nil {
		return apiHost{}, fmt.Errorf("failed to parse GHES GraphQL URL: %w", err)
	}
	uploadURL, err := url.Parse(fmt.Sprintf("%s://%s/api/uploads/", u.Scheme, u.Hostname()))
	if err != nil {
		return apiHost{}, fmt.Errorf("failed to parse GHES upload URL: %w", err)
	}
	return apiHost{
		baseRESTURL: restURL,
		graphqlURL:  gqlURL,
		uploadURL:   uploadURL,
	}, nil
}

// parseAPIHost resolves the endpoint set for the given host string. Three
// deployment shapes exist: github.com, GHEC data residency (*.ghe.com), and
// GHES under any other hostname.
func parseAPIHost(s string) (apiHost, error) {
	if s == "" {
		return newDotcomHost()
	}

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return apiHost{}, fmt.Errorf("could not parse host as URL: %s", s)
	}
	if u.Scheme == "" {
		return apiHost{}, fmt.Errorf("host must have a scheme (http or https): %s", s)
	}

	switch {
	case strings.HasSuffix(u.Hostname(), "github.com"):
		return newDotcomHost()
	case strings.HasSuffix(u.Hostname(), "ghe.com"):
		return newGHECHost(s)
	default:
		return newGHESHost(s)
	}
}

// userAgentTransport sets the User-Agent header on every request.
type userAgentTransport struct {
	transport http.RoundTripper
	agent     string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.transport.RoundTrip(req)
}
