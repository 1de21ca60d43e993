package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/skype-export-viewer/internal/index"
	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
	"github.com/Zuo-Peng/skype-export-viewer/internal/render"
	"github.com/Zuo-Peng/skype-export-viewer/internal/search"
)

// previewLoadedMsg is sent when a conversation's messages are ready.
type previewLoadedMsg struct {
	key       string
	messageID string // search hit to focus, "" for none
	msgs      []parse.Message
	err       error
}

// indexedMsg reports that a perspective has been classified for search.
type indexedMsg struct {
	swapped bool
	stats   index.Stats
	err     error
}

func previewCacheKey(conversationID string, swapped bool, query string) string {
	return fmt.Sprintf("%s:%t:%s", conversationID, swapped, query)
}

// loadPreviewCmd loads (classifying on first use) the conversation async.
func loadPreviewCmd(lib *index.Library, r search.Result, swapped bool, key string) tea.Cmd {
	return func() tea.Msg {
		msgs, err := lib.Conversation(context.Background(), r.ConversationID, swapped)
		return previewLoadedMsg{key: key, messageID: r.MessageID, msgs: msgs, err: err}
	}
}

func indexCmd(lib *index.Library, swapped bool) tea.Cmd {
	return func() tea.Msg {
		stats, err := lib.IndexAll(context.Background(), swapped)
		return indexedMsg{swapped: swapped, stats: stats, err: err}
	}
}

// focusMessage moves the navigator onto the match for messageID, if any.
func focusMessage(nav *search.Navigator, msgs []parse.Message, messageID string) {
	if messageID == "" {
		return
	}
	for range nav.Len() {
		i := nav.Next()
		if msgs[i].ID == messageID {
			return
		}
	}
}

// renderPreview draws the loaded conversation with the current match focused.
func (m *model) renderPreview() {
	hitID := ""
	if m.nav != nil {
		if i := m.nav.Current(); i >= 0 {
			hitID = m.previewMsgs[i].ID
		}
	}
	opts := m.renderOpts
	opts.Width = m.previewWidth()
	opts.Query = m.query
	opts.HitMessageID = hitID

	content, hitLine := render.RenderMessages(m.previewMsgs, opts)
	if len(m.previewMsgs) == 0 {
		content = "(empty conversation)"
	}
	m.preview.SetContent(content)
	if hitLine > 0 {
		m.preview.SetYOffset(hitLine)
	} else {
		m.preview.GotoTop()
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
