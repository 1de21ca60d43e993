// Package tui is the interactive conversation browser: a filterable list on
// the left, the rendered conversation on the right.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/skype-export-viewer/internal/index"
	"github.com/Zuo-Peng/skype-export-viewer/internal/parse"
	"github.com/Zuo-Peng/skype-export-viewer/internal/render"
	"github.com/Zuo-Peng/skype-export-viewer/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type tuiMode int

const (
	modeSearch tuiMode = iota
	modeList
)

type searchResultMsg struct {
	query   string
	swapped bool
	results []search.Result
	err     error
}

type debounceTickMsg struct {
	query string
}

type model struct {
	lib         *index.Library
	searchOpts  search.Options
	renderOpts  render.Options
	mode        tuiMode
	query       string
	results     []search.Result
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string
	previewMsgs []parse.Message
	nav         *search.Navigator
	indexed     map[bool]bool
	loading     bool
	width       int
	height      int
	ready       bool
	quitting    bool
	selected    *search.Result
}

func newModel(lib *index.Library, mode tuiMode, query string, opts search.Options, ropts render.Options) model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	if mode == modeList {
		ti.Placeholder = "Filter..."
	}
	ti.Focus()
	ti.SetValue(query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		lib:         lib,
		searchOpts:  opts,
		renderOpts:  ropts,
		mode:        mode,
		query:       query,
		filterInput: ti,
		preview:     viewport.New(0, 0),
		indexed:     make(map[bool]bool),
		loading:     mode == modeList || query != "",
	}
}

// Run starts the TUI in search mode and blocks until it exits. The
// perspective in opts must already be indexed.
// If the user selects a result, its conversation id is copied to the clipboard.
func Run(lib *index.Library, query string, opts search.Options, ropts render.Options) error {
	m := newModel(lib, modeSearch, query, opts, ropts)
	m.indexed[opts.Swapped] = true
	return run(m)
}

// RunList starts the TUI in list mode, showing every conversation by last activity.
func RunList(lib *index.Library, opts search.Options, ropts render.Options) error {
	return run(newModel(lib, modeList, "", opts, ropts))
}

func run(m model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.selected != nil {
		copyConversationID(fm.selected.ConversationID)
	}
	return nil
}

func copyConversationID(id string) {
	if err := clipboard.WriteAll(id); err != nil {
		fmt.Printf("%s\n", id)
		return
	}
	fmt.Printf("Copied to clipboard: %s\n", id)
}

// Init triggers the initial search/list load.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	switch {
	case m.mode == modeList:
		// list mode indexes in the background so filtering can search text
		cmds = append(cmds, m.doListAll(""), indexCmd(m.lib, m.searchOpts.Swapped))
	case m.query != "":
		cmds = append(cmds, m.doSearch(m.query))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		if m.previewMsgs != nil {
			m.renderPreview()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Enter):
			if len(m.results) > 0 && m.cursor < len(m.results) {
				r := m.results[m.cursor]
				m.selected = &r
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.NextMatch):
			if m.nav != nil && m.nav.Len() > 0 {
				m.nav.Next()
				m.renderPreview()
			}
			return m, nil

		case key.Matches(msg, keys.PrevMatch):
			if m.nav != nil && m.nav.Len() > 0 {
				m.nav.Prev()
				m.renderPreview()
			}
			return m, nil

		case key.Matches(msg, keys.Swap):
			m.searchOpts.Swapped = !m.searchOpts.Swapped
			m.renderOpts.Swapped = m.searchOpts.Swapped
			m.previewKey = ""
			m.loading = true
			if !m.indexed[m.searchOpts.Swapped] {
				return m, indexCmd(m.lib, m.searchOpts.Swapped)
			}
			return m, m.refresh(m.query)

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		// Pass remaining keys to text input
		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if newQuery := m.filterInput.Value(); newQuery != m.query {
			m.query = newQuery
			cmds = append(cmds, m.scheduleDebouncedSearch(newQuery))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready || len(m.results) == 0 {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			maxOffset := max(len(m.results)-m.panelHeight()/linesPerItem, 0)
			if m.listOffset < maxOffset {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.results) && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			return m, vpCmd
		}
		return m, nil

	case debounceTickMsg:
		// Only fire search if query hasn't changed since debounce was scheduled
		if msg.query == m.query {
			cmds = append(cmds, m.refresh(msg.query))
		}
		return m, tea.Batch(cmds...)

	case indexedMsg:
		if msg.err != nil {
			m.preview.SetContent("Index error: " + msg.err.Error())
			return m, nil
		}
		m.indexed[msg.swapped] = true
		if msg.swapped != m.searchOpts.Swapped {
			return m, nil
		}
		return m, m.refresh(m.query)

	case searchResultMsg:
		// Only apply if this result matches current query and perspective
		if msg.query != m.query || msg.swapped != m.searchOpts.Swapped {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.results = nil
			m.cursor = 0
			m.listOffset = 0
			m.preview.SetContent("Error: " + msg.err.Error())
			m.previewKey = ""
			return m, nil
		}
		m.results = msg.results
		m.cursor = 0
		m.listOffset = 0
		if len(m.results) > 0 {
			cmds = append(cmds, m.loadCurrentPreview())
		} else {
			m.preview.SetContent("")
			m.previewKey = ""
			m.previewMsgs = nil
			m.nav = nil
		}
		return m, tea.Batch(cmds...)

	case previewLoadedMsg:
		if msg.key != m.wantPreviewKey() {
			return m, nil // stale preview
		}
		m.previewKey = msg.key
		if msg.err != nil {
			m.previewMsgs = nil
			m.nav = nil
			m.preview.SetContent("Preview error: " + msg.err.Error())
			return m, nil
		}
		m.previewMsgs = msg.msgs
		var matches []int
		if strings.TrimSpace(m.query) != "" {
			matches = search.MatchIndices(msg.msgs, m.query)
		}
		m.nav = search.NewNavigator(matches)
		focusMessage(m.nav, msg.msgs, msg.messageID)
		m.renderPreview()
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	inputRow := m.filterInput.View()
	if m.searchOpts.Swapped {
		inputRow = lipgloss.JoinHorizontal(lipgloss.Top, inputRow, "  ", styleSwapped.Render("[swapped]"))
	}

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, inputRow, panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	// 40% for list, minus border padding
	return max(m.width*40/100-4, 20)
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	// 60% for preview, minus border padding
	return max(m.width*60/100-4, 20)
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// Subtract input row (1) + status bar (1) + borders (4)
	return max(m.height-6, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // input row (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1 // col 0=border, 1..lw=content, lw+1=border

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + (relY / linesPerItem)
	}
	if x > listBoxRight+1 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	noun := "results"
	if m.mode == modeList {
		noun = "conversations"
	}
	parts := []string{fmt.Sprintf("%d %s", len(m.results), noun)}
	if m.nav != nil && m.nav.Len() > 0 {
		parts = append(parts, fmt.Sprintf("match %d/%d", m.nav.Position(), m.nav.Len()))
	}
	parts = append(parts,
		"up/dn navigate",
		"C-n/C-p match",
		"C-s swap",
		"C-u/C-d preview",
		"Enter copy id",
		"Esc quit",
	)
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// refresh reruns the list or search for query in the current perspective.
func (m model) refresh(query string) tea.Cmd {
	if m.mode == modeList {
		return m.doListAll(query)
	}
	return m.doSearch(query)
}

func (m model) doSearch(query string) tea.Cmd {
	db := m.lib.DB
	opts := m.searchOpts
	opts.Query = query
	return func() tea.Msg {
		if strings.TrimSpace(query) == "" {
			return searchResultMsg{query: query, swapped: opts.Swapped}
		}
		results, err := search.Search(db, opts)
		return searchResultMsg{query: query, swapped: opts.Swapped, results: results, err: err}
	}
}

func (m model) doListAll(filter string) tea.Cmd {
	db := m.lib.DB
	opts := m.searchOpts
	opts.Query = filter
	return func() tea.Msg {
		if strings.TrimSpace(filter) == "" {
			results, err := search.ListAll(db, opts)
			return searchResultMsg{query: filter, swapped: opts.Swapped, results: results, err: err}
		}
		// When there's input, do full-text search across all conversation content
		results, err := search.Search(db, opts)
		return searchResultMsg{query: filter, swapped: opts.Swapped, results: results, err: err}
	}
}

func (m model) scheduleDebouncedSearch(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) wantPreviewKey() string {
	if len(m.results) == 0 || m.cursor >= len(m.results) {
		return ""
	}
	return previewCacheKey(m.results[m.cursor].ConversationID, m.searchOpts.Swapped, m.query)
}

func (m model) loadCurrentPreview() tea.Cmd {
	key := m.wantPreviewKey()
	if key == "" || key == m.previewKey {
		return nil // already showing this preview
	}
	return loadPreviewCmd(m.lib, m.results[m.cursor], m.searchOpts.Swapped, key)
}
