// Package sanitize scrubs user-controlled text before it is embedded in
// tool results. GitHub titles and bodies can carry HTML and invisible
// Unicode that would otherwise pass straight through to the MCP host.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Content applies the full scrub: invisible characters first, then HTML.
func Content(input string) string {
	return StripHTML(StripInvisible(input))
}

// StripHTML removes HTML outside a small markdown-compatible allowlist.
// Links keep their href but gain nofollow/noreferrer.
func StripHTML(input string) string {
	if input == "" {
		return input
	}
	return markdownPolicy().Sanitize(input)
}

// StripInvisible removes zero-width, BiDi control, and Unicode tag
// characters. These are the vehicles for hidden-text prompt injection and
// never belong in titles or bodies.
func StripInvisible(input string) string {
	if input == "" {
		return input
	}
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if !invisibleRune(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

var markdownPolicy = sync.OnceValue(func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()

	p.AllowElements(
		"b", "blockquote", "br", "code", "em",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"hr", "i", "li", "ol", "p", "pre",
		"strong", "sub", "sup", "table", "tbody",
		"td", "th", "thead", "tr", "ul",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowImages()
	p.AllowAttrs("src", "alt", "title").OnElements("img")

	return p
})

var invisibleRanges = [...][2]rune{
	{0x202A, 0x202E}, // BiDi embedding and override controls
	{0x2060, 0x2064}, // word joiner and invisible operators
	{0x2066, 0x2069}, // BiDi isolates
	{0xE0020, 0xE007F}, // Unicode tag characters
}

func invisibleRune(r rune) bool {
	switch r {
	case 0x00AD, // soft hyphen
		0x180E, // Mongolian vowel separator
		0x200B, // zero width space
		0x200C, // zero width non-joiner
		0x200E, // left-to-right mark
		0x200F, // right-to-left mark
		0xFEFF, // zero width no-break space
		0xE0001: // deprecated language tag
		return true
	}
	for _, rng := range invisibleRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}
