// Package sanitize turns exported Skype markup into a small, safe HTML subset.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// rule is one step of the rewrite pipeline. rewrite receives the submatches
// of pattern for each match.
type rule struct {
	name    string
	pattern *regexp.Regexp
	rewrite func(m []string) string
}

// metadataTags are wrapper elements carrying no displayable text.
var metadataTags = []string{"location", "context", "e_m", "legacyquote", "meta"}

var hrefAttr = regexp.MustCompile(`(?is)\bhref\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// pipeline runs in order. Changing the order changes output.
var pipeline = []rule{
	{
		name:    "emoji",
		pattern: regexp.MustCompile(`(?is)<ss\b[^>]*>(.*?)</ss>`),
		rewrite: func(m []string) string { return m[1] },
	},
	{
		name:    "anchor",
		pattern: regexp.MustCompile(`(?is)<a\b([^>]*)>(.*?)</a>`),
		rewrite: rewriteAnchor,
	},
	{
		name:    "bold",
		pattern: regexp.MustCompile(`(?is)<b\b[^>]*>(.*?)</b>`),
		rewrite: func(m []string) string { return "<strong>" + m[1] + "</strong>" },
	},
	{
		name:    "mention",
		pattern: regexp.MustCompile(`(?is)<at\b[^>]*>(.*?)</at>`),
		rewrite: func(m []string) string { return "<strong>@" + m[1] + "</strong>" },
	},
	{
		name:    "metadata",
		pattern: metadataPattern(metadataTags),
		rewrite: func([]string) string { return "" },
	},
	{
		name:    "emoji-placeholder",
		pattern: regexp.MustCompile(`(?is)<emoji\b[^>]*/>|<img\b[^>]*\bitemtype="[^"]*Emoji"[^>]*/>`),
		rewrite: func([]string) string { return "" },
	},
	{
		name:    "bing-response",
		pattern: regexp.MustCompile(`(?is)<bing-response\b[^>]*>(.*?)</bing-response>`),
		rewrite: func(m []string) string { return m[1] },
	},
	{
		name:    "attribution",
		pattern: regexp.MustCompile(`(?is)<attribution\b[^>]*>.*?</attribution>`),
		rewrite: func([]string) string { return "" },
	},
}

// metadataPattern matches each tag either self-closing or with its content.
func metadataPattern(tags []string) *regexp.Regexp {
	alts := make([]string, 0, len(tags)*2)
	for _, t := range tags {
		alts = append(alts, `<`+t+`\b[^>]*/>`, `<`+t+`\b[^>]*>.*?</`+t+`>`)
	}
	return regexp.MustCompile(`(?is)` + strings.Join(alts, "|"))
}

func rewriteAnchor(m []string) string {
	attrs, inner := m[1], m[2]
	h := hrefAttr.FindStringSubmatch(attrs)
	if h == nil {
		return inner
	}
	href := h[1]
	if href == "" {
		href = h[2]
	}
	return `<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + inner + `</a>`
}

// policy is the allow-list applied after the rewrite pipeline.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "br", "sup", "em")
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	return p
}

// Rules returns the rewrite step names in the order they run.
func Rules() []string {
	names := make([]string, len(pipeline))
	for i, r := range pipeline {
		names[i] = r.name
	}
	return names
}

// Rewrite applies the ordered rewrite pipeline without the allow-list filter.
func Rewrite(s string) string {
	for _, r := range pipeline {
		re, fn := r.pattern, r.rewrite
		s = re.ReplaceAllStringFunc(s, func(match string) string {
			return fn(re.FindStringSubmatch(match))
		})
	}
	return s
}

// HTML rewrites raw export markup and filters it down to
// strong, a, br, sup and em with href/target/rel attributes.
func HTML(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(Rewrite(s))
}

// Unescape decodes entities in attribute or element values pulled out of
// raw markup by pattern matching.
func Unescape(s string) string {
	return html.UnescapeString(s)
}
