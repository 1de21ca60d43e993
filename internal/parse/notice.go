package parse

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	noticeFallback  = "System Notice"
	popCardFallback = "System Message"
)

// ParseNotice reads the title and text of the first attachment of a
// Notice or PopCard payload. Malformed payloads yield fallback.
func ParseNotice(raw, fallback string) string {
	if !gjson.Valid(raw) {
		return fallback
	}
	root := gjson.Parse(raw)
	if !root.IsArray() {
		return fallback
	}
	content := root.Get("0.attachments.0.content")
	if !content.IsObject() {
		return fallback
	}
	title := strings.TrimSpace(content.Get("title").String())
	text := strings.TrimSpace(content.Get("text").String())
	switch {
	case title != "" && text != "":
		return title + ": " + text
	case title != "":
		return title
	case text != "":
		return text
	}
	return fallback
}

// translationText returns the first translation carried by a Translation
// payload, or "" when the payload does not have one.
func translationText(raw string) string {
	if !gjson.Valid(raw) {
		return ""
	}
	return gjson.Get(raw, "translations.0.translation").String()
}
