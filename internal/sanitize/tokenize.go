package sanitize

import (
	"html"
	"strings"
)

type TokenKind int

const (
	TextToken TokenKind = iota
	TagToken
)

// Token is one span of markup: either a run of text or a complete <...> tag.
type Token struct {
	Kind    TokenKind
	Raw     string
	Name    string // lower-cased element name, tags only
	Closing bool   // </name>
}

// Tokenize splits s into text runs and tag spans in a single pass.
// A '<' opens a tag only when followed by a letter, '/', '!' or '?';
// quoted attribute values may contain '>'. An unterminated tag is text.
// Concatenating every Token.Raw reproduces s exactly.
func Tokenize(s string) []Token {
	var tokens []Token
	textStart := 0
	i := 0
	for i < len(s) {
		if s[i] != '<' || !opensTag(s, i) {
			i++
			continue
		}
		end := tagEnd(s, i)
		if end < 0 {
			break
		}
		if textStart < i {
			tokens = append(tokens, Token{Kind: TextToken, Raw: s[textStart:i]})
		}
		raw := s[i:end]
		name, closing := tagName(raw)
		tokens = append(tokens, Token{Kind: TagToken, Raw: raw, Name: name, Closing: closing})
		i = end
		textStart = end
	}
	if textStart < len(s) {
		tokens = append(tokens, Token{Kind: TextToken, Raw: s[textStart:]})
	}
	return tokens
}

func opensTag(s string, i int) bool {
	if i+1 >= len(s) {
		return false
	}
	c := s[i+1]
	return isLetter(c) || c == '/' || c == '!' || c == '?'
}

// tagEnd returns the index just past the '>' closing the tag at s[start], or -1.
func tagEnd(s string, start int) int {
	if strings.HasPrefix(s[start:], "<!--") {
		if j := strings.Index(s[start+4:], "-->"); j >= 0 {
			return start + 4 + j + 3
		}
		return -1
	}
	var quote byte
	for j := start + 1; j < len(s); j++ {
		c := s[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return j + 1
		}
	}
	return -1
}

func tagName(raw string) (string, bool) {
	body := strings.TrimPrefix(raw, "<")
	closing := strings.HasPrefix(body, "/")
	body = strings.TrimPrefix(body, "/")
	n := 0
	for n < len(body) && isNameChar(body[n]) {
		n++
	}
	return strings.ToLower(body[:n]), closing
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == ':'
}

// skipContent lists elements whose text is not user-visible.
var skipContent = map[string]bool{
	"script": true,
	"style":  true,
}

// StripTags returns the plain text of an HTML fragment: tags removed,
// entities decoded, <br> turned into a newline.
func StripTags(s string) string {
	var b strings.Builder
	skipping := ""
	for _, t := range Tokenize(s) {
		if t.Kind == TagToken {
			switch {
			case skipping != "":
				if t.Closing && t.Name == skipping {
					skipping = ""
				}
			case skipContent[t.Name] && !t.Closing:
				skipping = t.Name
			case t.Name == "br":
				b.WriteByte('\n')
			}
			continue
		}
		if skipping != "" {
			continue
		}
		b.WriteString(html.UnescapeString(t.Raw))
	}
	return b.String()
}

// Text escapes generated plain text so it can be stored as message HTML.
func Text(s string) string {
	return html.EscapeString(s)
}
