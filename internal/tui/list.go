package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/skype-export-viewer/internal/search"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

// renderList renders the left panel: conversations or search hits with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		label := "No results"
		if m.loading {
			label = "Loading..."
		}
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(label)
	}

	var lines []string
	for i, r := range m.results {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatResultLine(r, width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func kindLabel(conversationID string) string {
	if strings.HasPrefix(conversationID, "19:") {
		return styleKindGroup.Render("grp")
	}
	return styleKindDirect.Render("1:1")
}

// formatResultLine formats a single result as two lines:
//
//	line 1: [>] kind  date  conversation title
//	line 2:    sender: snippet (dimmed)
func formatResultLine(r search.Result, width int, selected bool) []string {
	// "2023-06-01T10:00:00Z" -> "06-01"
	date := r.Timestamp
	if len(date) >= 10 {
		date = date[5:10]
	} else {
		date = "     "
	}

	title := strings.ReplaceAll(r.DisplayName, "\n", " ")
	titleMax := max(width-2-3-1-5-2, 0)
	if runewidth.StringWidth(title) > titleMax {
		title = runewidth.Truncate(title, titleMax, "…")
	}

	line1 := fmt.Sprintf("%s %s %s", kindLabel(r.ConversationID), date, title)
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	snippet := strings.NewReplacer("\n", " ", "\t", " ", ">>>", "", "<<<", "").Replace(r.Snippet)
	if r.Sender != "" && snippet != "" {
		snippet = r.Sender + ": " + snippet
	}
	snippetMax := max(width-4, 0)
	if runewidth.StringWidth(snippet) > snippetMax {
		snippet = runewidth.Truncate(snippet, snippetMax, "")
	}
	line2 := "    " + styleSnippet.Render(snippet)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := max(listHeight/linesPerItem, 1)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
