package search

import (
	"html"
	"regexp"
	"strings"

	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
	"github.com/Zuo-Peng/skype-export-viewer/internal/sanitize"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"

	// maxEntity bounds the search for the ';' closing a character reference.
	maxEntity = 32
)

// Matches reports whether msg contains query, case-insensitively, in the
// plain text of its content or in its display name. A blank query matches
// every message.
func Matches(msg parse.Message, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(sanitize.StripTags(msg.Content)), q) {
		return true
	}
	return strings.Contains(strings.ToLower(msg.Name()), q)
}

// MatchIndices returns the positions of the messages matching query.
func MatchIndices(msgs []parse.Message, query string) []int {
	var idx []int
	for i, m := range msgs {
		if Matches(m, query) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Highlight wraps each case-insensitive occurrence of query found in the
// text runs of content in <mark>...</mark>. Tags are copied through
// untouched, so markup is never altered or duplicated. Matching runs on
// the decoded text, the same text Matches sees, and a mark never splits a
// character reference such as &amp;.
func Highlight(content, query string) string {
	q := strings.TrimSpace(query)
	if q == "" || content == "" {
		return content
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(q))
	if err != nil {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	for _, tok := range sanitize.Tokenize(content) {
		if tok.Kind == sanitize.TagToken {
			b.WriteString(tok.Raw)
			continue
		}
		b.WriteString(highlightText(tok.Raw, re))
	}
	return b.String()
}

// highlightText marks matches of re in one escaped text run. Each decoded
// byte remembers the raw span it came from, so a match is widened to whole
// character references before the marks are inserted.
func highlightText(raw string, re *regexp.Regexp) string {
	var decoded strings.Builder
	var starts, ends []int
	for i := 0; i < len(raw); {
		j := i + 1
		unit := raw[i:j]
		if raw[i] == '&' {
			if k := strings.IndexByte(raw[i:min(len(raw), i+maxEntity)], ';'); k > 0 {
				ref := raw[i : i+k+1]
				if dec := html.UnescapeString(ref); dec != ref {
					j = i + k + 1
					unit = dec
				}
			}
		}
		for range len(unit) {
			starts = append(starts, i)
			ends = append(ends, j)
		}
		decoded.WriteString(unit)
		i = j
	}

	locs := re.FindAllStringIndex(decoded.String(), -1)
	if len(locs) == 0 {
		return raw
	}
	var b strings.Builder
	b.Grow(len(raw) + len(locs)*(len(markOpen)+len(markClose)))
	last := 0
	for _, loc := range locs {
		if loc[0] == loc[1] {
			continue
		}
		from, to := starts[loc[0]], ends[loc[1]-1]
		if from < last {
			continue
		}
		b.WriteString(raw[last:from])
		b.WriteString(markOpen)
		b.WriteString(raw[from:to])
		b.WriteString(markClose)
		last = to
	}
	b.WriteString(raw[last:])
	return b.String()
}

// Navigator steps through match positions with wrap-around.
type Navigator struct {
	indices []int
	pos     int
}

func NewNavigator(indices []int) *Navigator {
	return &Navigator{indices: indices, pos: -1}
}

func (n *Navigator) Len() int { return len(n.indices) }

// Current returns the selected message index, or -1 before the first move.
func (n *Navigator) Current() int {
	if n.pos < 0 || len(n.indices) == 0 {
		return -1
	}
	return n.indices[n.pos]
}

// Position returns the 1-based ordinal of the current match, 0 when none.
func (n *Navigator) Position() int {
	if n.Current() < 0 {
		return 0
	}
	return n.pos + 1
}

func (n *Navigator) Next() int {
	if len(n.indices) == 0 {
		return -1
	}
	n.pos = (n.pos + 1) % len(n.indices)
	return n.indices[n.pos]
}

func (n *Navigator) Prev() int {
	if len(n.indices) == 0 {
		return -1
	}
	if n.pos <= 0 {
		n.pos = len(n.indices) - 1
	} else {
		n.pos--
	}
	return n.indices[n.pos]
}
