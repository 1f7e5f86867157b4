// Package report renders security findings into the formats tool callers
// ask for. Rendering is pure: a Summary in, a string out. User-controlled
// fields are scrubbed and, for HTML output, additionally escaped.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/quanticsoul4772/github-mcp-sub000/pkg/sanitize"
)

// Format selects the rendering of a Summary.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
	FormatText     Format = "text"
)

// ParseFormat validates a caller-supplied format string. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, FormatHTML, FormatCSV, FormatText:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown report format %q: expected json, markdown, html, csv or text", s)
}

// Finding is one alert in a report. Title and Description come from alert
// content and are treated as untrusted.
type Finding struct {
	Number      int       `json:"number"`
	Severity    string    `json:"severity,omitempty"`
	State       string    `json:"state,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// Summary is a full findings report for one repository scan.
type Summary struct {
	Repository  string    `json:"repository"`
	Kind        string    `json:"kind"`
	GeneratedAt time.Time `json:"generated_at,omitzero"`
	Findings    []Finding `json:"findings"`
}

// Render produces the summary in the requested format.
func Render(s Summary, format Format) (string, error) {
	switch format {
	case FormatJSON, "":
		return RenderJSON(s)
	case FormatMarkdown:
		return RenderMarkdown(s), nil
	case FormatHTML:
		return RenderHTML(s), nil
	case FormatCSV:
		return RenderCSV(s)
	case FormatText:
		return RenderText(s), nil
	}
	return "", fmt.Errorf("unknown report format %q", format)
}

func RenderJSON(s Summary) (string, error) {
	clean := s
	clean.Findings = make([]Finding, len(s.Findings))
	for i, f := range s.Findings {
		clean.Findings[i] = scrub(f)
	}
	out, err := json.MarshalIndent(clean, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(out), nil
}

func RenderMarkdown(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s findings for %s\n\n", s.Kind, s.Repository)
	if len(s.Findings) == 0 {
		b.WriteString("No findings.\n")
		return b.String()
	}
	b.WriteString("| # | Severity | State | Title |\n")
	b.WriteString("|---|----------|-------|-------|\n")
	for _, f := range s.Findings {
		f = scrub(f)
		// Keep table rows intact regardless of what the title contains.
		title := strings.NewReplacer("|", "\\|", "\n", " ").Replace(f.Title)
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", f.Number, f.Severity, f.State, title)
	}
	return b.String()
}

func RenderHTML(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s findings for %s</h1>\n", html.EscapeString(s.Kind), html.EscapeString(s.Repository))
	if len(s.Findings) == 0 {
		b.WriteString("<p>No findings.</p>\n")
		return b.String()
	}
	b.WriteString("<table>\n<thead><tr><th>#</th><th>Severity</th><th>State</th><th>Title</th></tr></thead>\n<tbody>\n")
	for _, f := range s.Findings {
		f = scrub(f)
		fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			f.Number,
			html.EscapeString(f.Severity),
			html.EscapeString(f.State),
			html.EscapeString(f.Title),
		)
	}
	b.WriteString("</tbody>\n</table>\n")
	return b.String()
}

func RenderCSV(s Summary) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write([]string{"number", "severity", "state", "title", "url"}); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, f := range s.Findings {
		f = scrub(f)
		record := []string{fmt.Sprintf("%d", f.Number), f.Severity, f.State, f.Title, f.URL}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return b.String(), nil
}

func RenderText(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s findings for %s (%d)\n", s.Kind, s.Repository, len(s.Findings))
	for _, f := range s.Findings {
		f = scrub(f)
		fmt.Fprintf(&b, "  #%d [%s/%s] %s\n", f.Number, f.Severity, f.State, f.Title)
	}
	return b.String()
}

// scrub cleans the untrusted fields of a finding. Severity and state come
// from fixed API enums but go through the same path.
func scrub(f Finding) Finding {
	f.Severity = sanitize.Content(f.Severity)
	f.State = sanitize.Content(f.State)
	f.Title = sanitize.Content(f.Title)
	f.Description = sanitize.Content(f.Description)
	return f
}
