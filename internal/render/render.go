package render

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/skype-export-viewer/internal/group"
	"github.com/Zuo-Peng/skype-export-viewer/internal/index"
	"github.com/Zuo-Peng/skype-export-viewer/internal/media"
	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
	"github.com/Zuo-Peng/skype-export-viewer/internal/sanitize"
	"github.com/Zuo-Peng/skype-export-viewer/internal/search"
)

const (
	colorReset     = "\033[0m"
	colorOwner     = "\033[1;34m" // bold blue
	colorOther     = "\033[1;32m" // bold green
	colorDim       = "\033[2m"
	colorHit       = "\033[43m"   // yellow background
	colorBoldRed   = "\033[1;31m" // bold red for keyword highlights
	colorBold      = "\033[1m"
	colorItalic    = "\033[3m"
	colorUnderline = "\033[4m"
)

type Options struct {
	Width        int    // wrap width (0 = no wrap)
	Query        string // highlighted in message bodies
	HitMessageID string // message whose header line is reported back
	Swapped      bool
	Location     *time.Location
	GroupWindow  time.Duration
	Media        *media.Store
	Plain        bool // no ANSI escapes, for pipes
}

var hrefPattern = regexp.MustCompile(`(?i)\bhref\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// style tracks nested inline formatting while converting markup.
type style struct {
	bold, italic, mark, link int
}

func (s style) codes() string {
	var b strings.Builder
	if s.bold > 0 {
		b.WriteString(colorBold)
	}
	if s.italic > 0 {
		b.WriteString(colorItalic)
	}
	if s.link > 0 {
		b.WriteString(colorUnderline)
	}
	if s.mark > 0 {
		b.WriteString(colorBoldRed)
	}
	return b.String()
}

func bump(n *int, closing bool) {
	if closing {
		if *n > 0 {
			*n--
		}
		return
	}
	*n++
}

// HTMLToANSI converts sanitized message HTML into terminal text: strong and
// em become bold and italic, mark becomes a keyword highlight, links are
// underlined and followed by their target, br is a newline.
func HTMLToANSI(s string) string {
	return convert(s, false)
}

// HTMLToPlain is HTMLToANSI without escapes; highlights become >>> and <<<.
func HTMLToPlain(s string) string {
	return convert(s, true)
}

func convert(s string, plain bool) string {
	var (
		b    strings.Builder
		st   style
		href []string
	)
	for _, tok := range sanitize.Tokenize(s) {
		if tok.Kind == sanitize.TextToken {
			b.WriteString(html.UnescapeString(tok.Raw))
			continue
		}

		switch tok.Name {
		case "br":
			b.WriteByte('\n')
			continue
		case "strong", "b":
			bump(&st.bold, tok.Closing)
		case "em", "i":
			bump(&st.italic, tok.Closing)
		case "mark":
			bump(&st.mark, tok.Closing)
			if plain {
				if tok.Closing {
					b.WriteString("<<<")
				} else {
					b.WriteString(">>>")
				}
			}
		case "a":
			bump(&st.link, tok.Closing)
			if !tok.Closing {
				href = append(href, hrefOf(tok.Raw))
			} else if n := len(href); n > 0 {
				target := href[n-1]
				href = href[:n-1]
				if target != "" {
					if plain {
						b.WriteString(" <" + target + ">")
					} else {
						b.WriteString(colorReset + colorDim + " <" + target + ">" + colorReset)
					}
				}
			}
		default:
			continue
		}
		if !plain {
			b.WriteString(colorReset + st.codes())
		}
	}
	if !plain && st != (style{}) {
		b.WriteString(colorReset)
	}
	return b.String()
}

func hrefOf(raw string) string {
	m := hrefPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return html.UnescapeString(m[1])
	}
	return html.UnescapeString(m[2])
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth && visW > 0 {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

type writer struct {
	b     strings.Builder
	lines int
	width int
	plain bool
}

func (w *writer) line(s string) {
	for _, wl := range wrapLine(s, w.width) {
		w.b.WriteString(wl)
		w.b.WriteString("\n")
		w.lines++
	}
}

func (w *writer) paint(code, s string) string {
	if w.plain {
		return s
	}
	return code + s + colorReset
}

func senderLabel(m parse.Message) string {
	if name := m.Name(); name != "" {
		return name
	}
	if m.IsOwner {
		return "You"
	}
	if m.SenderID != "" {
		return m.SenderID
	}
	return "Unknown"
}

// RenderMessages lays msgs out by date with continuation grouping. It
// returns the text and the 0-based line of the hit message (-1 if none).
func RenderMessages(msgs []parse.Message, opts Options) (string, int) {
	w := &writer{width: opts.Width, plain: opts.Plain}
	hitLine := -1

	for gi, g := range group.ByDate(msgs, opts.Location, opts.GroupWindow) {
		if gi > 0 {
			w.line("")
		}
		w.line(w.paint(colorDim, "── "+g.Label+" ──"))

		for _, e := range g.Entries {
			m := e.Message
			isHit := opts.HitMessageID != "" && m.ID == opts.HitMessageID
			if isHit {
				hitLine = w.lines
			}

			if m.Kind == parse.KindSystem {
				w.line(w.paint(colorDim, "  * "+flatten(m.Content, opts)))
				continue
			}

			if !e.Continued {
				ts := ""
				if !m.Timestamp.IsZero() {
					ts = m.Timestamp.In(location(opts)).Format("15:04")
				}
				name := senderLabel(m)
				switch {
				case isHit:
					w.line(w.paint(colorHit, ">> "+name+"  "+ts+" <<"))
				case m.IsOwner:
					w.line(w.paint(colorOwner, name) + "  " + w.paint(colorDim, ts))
				default:
					w.line(w.paint(colorOther, name) + "  " + w.paint(colorDim, ts))
				}
			}

			body := convertBody(m.Content, opts)
			switch m.Kind {
			case parse.KindCall, parse.KindNotice:
				body = w.paint(colorDim, body)
			case parse.KindMedia:
				body += w.mediaSuffix(m, opts.Media)
			}
			for _, tl := range strings.Split(indentLines(body, "  "), "\n") {
				w.line(tl)
			}
		}
	}
	return w.b.String(), hitLine
}

func (w *writer) mediaSuffix(m parse.Message, store *media.Store) string {
	if m.MediaRef == nil {
		return ""
	}
	asset, err := store.Resolve(*m.MediaRef)
	if err != nil || asset == nil {
		return " " + w.paint(colorDim, "[media "+*m.MediaRef+" not in export]")
	}
	label := asset.Filename()
	if p := store.Path(asset.Primary); p != "" {
		label = p
	}
	return " " + w.paint(colorDim, "["+label+"]")
}

func convertBody(content string, opts Options) string {
	return convert(search.Highlight(content, opts.Query), opts.Plain)
}

func flatten(content string, opts Options) string {
	return strings.ReplaceAll(convertBody(content, opts), "\n", " ")
}

func location(opts Options) *time.Location {
	if opts.Location == nil {
		return time.Local
	}
	return opts.Location
}

// RenderConversation renders one conversation from the library, classifying
// it first if this perspective has not been seen yet. It returns the content,
// the 0-based line of the hit message (-1 if no hit), and any error.
func RenderConversation(ctx context.Context, lib *index.Library, conversationID string, opts Options) (string, int, error) {
	conv, err := lib.DB.GetConversation(conversationID)
	if err != nil {
		return "", -1, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return "", -1, fmt.Errorf("conversation not found: %s", conversationID)
	}

	msgs, err := lib.Conversation(ctx, conversationID, opts.Swapped)
	if err != nil {
		return "", -1, err
	}

	header := fmt.Sprintf("--- %s [%s] %d messages ---", conv.DisplayName, conv.ConversationID, len(msgs))
	if opts.Swapped {
		header += " (swapped)"
	}
	if !opts.Plain {
		header = colorDim + header + colorReset
	}
	if len(msgs) == 0 {
		return header + "\n(empty conversation)\n", -1, nil
	}

	body, hitLine := RenderMessages(msgs, opts)
	headerLines := wrapLine(header, opts.Width)
	if hitLine >= 0 {
		hitLine += len(headerLines)
	}
	var b strings.Builder
	for _, l := range headerLines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString(body)
	return b.String(), hitLine, nil
}
