package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulesOrder(t *testing.T) {
	assert.Equal(t, []string{
		"emoji",
		"anchor",
		"bold",
		"mention",
		"metadata",
		"emoji-placeholder",
		"bing-response",
		"attribution",
	}, Rules())
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"emoji", `hi <ss type="smile">:)</ss>`, "hi :)"},
		{"anchor", `<a href="https://example.com">site</a>`, `<a href="https://example.com" target="_blank" rel="noopener noreferrer">site</a>`},
		{"anchor single quotes", `<a title="t" href='https://x.io'>x</a>`, `<a href="https://x.io" target="_blank" rel="noopener noreferrer">x</a>`},
		{"anchor without href", `<a name="top">top</a>`, "top"},
		{"bold", `<b raw_pre="*" raw_post="*">loud</b>`, "<strong>loud</strong>"},
		{"mention", `<at id="8:bob">Bob</at> look`, "<strong>@Bob</strong> look"},
		{"location", `here<location isUserLocation="0" latitude="1" longitude="2"/>`, "here"},
		{"context", `<context>x</context>text`, "text"},
		{"edit marker", `fixed<e_m ts="1" a="8:bob" t="61"/>`, "fixed"},
		{"legacy quote", `<legacyquote>[1/1/2020] Bob: </legacyquote>quoted`, "quoted"},
		{"emoji placeholder", `ok<emoji id="smile"/>`, "ok"},
		{"img emoji", `ok<img itemtype="http://schema.skype.com/Emoji" src="x"/>`, "ok"},
		{"bing response multiline", "<bing-response>line one\nline two</bing-response>", "line one\nline two"},
		{"attribution", "answer<attribution id=\"1\">source\ntext</attribution>", "answer"},
		{"untouched", "plain text", "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rewrite(tt.in))
		})
	}
}

func TestRewriteOrderMatters(t *testing.T) {
	// The mention rule runs before metadata stripping, so a mention wrapped in
	// context metadata is removed along with the wrapper's text.
	got := Rewrite(`<context><at id="8:bob">Bob</at></context>hey`)
	assert.Equal(t, "hey", got)

	// Emoji extraction runs before bold rewriting.
	got = Rewrite(`<b><ss type="cool">(cool)</ss></b>`)
	assert.Equal(t, "<strong>(cool)</strong>", got)
}

func TestHTMLAllowList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold survives", "<b>hi</b> there", "<strong>hi</strong> there"},
		{"mention survives", `<at id="8:bob">Bob</at>`, "<strong>@Bob</strong>"},
		{"link survives", `<a href="https://example.com">site</a>`, `<a href="https://example.com" target="_blank" rel="noopener noreferrer">site</a>`},
		{"script removed", "<script>alert(1)</script>hello", "hello"},
		{"style removed", "<style>body{}</style>hello", "hello"},
		{"unknown tag unwrapped", "<span>hi</span>", "hi"},
		{"event handler removed", `<em onclick="steal()">hi</em>`, "<em>hi</em>"},
		{"sup kept", "x<sup>2</sup>", "x<sup>2</sup>"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTML(tt.in))
		})
	}
}

func TestHTMLDropsUnsafeHref(t *testing.T) {
	got := HTML(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, got, "javascript")
	assert.Contains(t, got, "x")
}

func TestHTMLNeverEmitsDisallowedTags(t *testing.T) {
	in := `<div><iframe src="https://evil"></iframe><b>a</b><img src=x onerror=alert(1)><quote author="bob">q</quote></div>`
	got := HTML(in)
	for _, tag := range []string{"<div", "<iframe", "<img", "<quote", "onerror"} {
		assert.False(t, strings.Contains(got, tag), "unexpected %s in %q", tag, got)
	}
	assert.Contains(t, got, "<strong>a</strong>")
}
