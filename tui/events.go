package tui

import (
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

// handleKey turns one input event into cursor/focus updates and, for the
// actions that do I/O, a write to the pending-action slot.
func (m *Model) handleKey(key tea.KeyMsg) tea.Cmd {
	// First interrupt asks for a graceful quit, the second forces it.
	if key.String() == "ctrl+c" {
		if m.quitRequested {
			os.Exit(1)
		}
		m.quitRequested = true
		m.notice = "Interrupted. Ctrl+C again to force quit."
		return nil
	}

	if m.settings != nil {
		return m.handleSettingsKey(key)
	}

	switch m.mode {
	case modeHelp:
		switch key.String() {
		case "esc", "h", "q":
			m.mode = modeBrowse
		}
		return nil
	case modeLyrics:
		switch key.String() {
		case "esc", "L", "q":
			m.mode = modeBrowse
		}
		return nil
	}

	switch key.String() {
	case "tab":
		m.cycleFocus(1)
		return nil
	case "shift+tab":
		m.cycleFocus(-1)
		return nil
	}

	if m.focus == focusSearch {
		return m.handleSearchKey(key)
	}

	switch key.String() {
	case "q", "esc":
		m.shouldQuit = true
		return nil
	case "S", "f2":
		m.openSettings()
		return nil
	}

	if m.engine != nil {
		if cmd, handled := m.handlePlaybackKey(key); handled {
			return cmd
		}
	}

	switch m.focus {
	case focusResults:
		return m.handleResultsKey(key)
	case focusQueue:
		return m.handleQueueKey(key)
	}
	return nil
}

func (m *Model) cycleFocus(dir int) {
	order := []focusArea{focusSearch, focusResults, focusQueue}
	for i, f := range order {
		if f == m.focus {
			m.focus = order[(i+dir+len(order))%len(order)]
			return
		}
	}
}

// handlePlaybackKey covers the controls that work from any panel while a
// background player is active.
func (m *Model) handlePlaybackKey(key tea.KeyMsg) (tea.Cmd, bool) {
	st := m.engine.Status()
	switch key.String() {
	case " ":
		if err := m.engine.TogglePause(); err != nil {
			m.log.WithError(err).Debug("toggle pause failed")
		}
		return nil, true
	case "<":
		_ = m.engine.Seek(-10)
		return nil, true
	case ">":
		_ = m.engine.Seek(10)
		return nil, true
	case "=", "+":
		_ = m.engine.SetVolume(st.Volume + 5)
		return nil, true
	case "-":
		_ = m.engine.SetVolume(st.Volume - 5)
		return nil, true
	case "m":
		if st.Volume > 0 {
			_ = m.engine.SetVolume(0)
		} else {
			_ = m.engine.SetVolume(100)
		}
		return nil, true
	case "L":
		m.mode = modeLyrics
		m.lyricsLoading = true
		m.lyricsText = ""
		artist := ""
		if head, ok := m.q.Get(0); ok {
			artist = head.Channel
		}
		return m.lyricsCmd(st.Title, artist), true
	}
	return nil, false
}

func (m *Model) handleSearchKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "enter":
		var value string
		m.boxer.EditLeaf("search", func(model tea.Model) (tea.Model, error) {
			sb := model.(searchBarModel)
			value = sb.textInput.Value()
			sb.textInput.SetValue("")
			return sb, nil
		})
		if value != "" {
			m.pending = pendingAction{kind: actionNewSearch, query: value}
			m.focus = focusResults
		}
		return nil
	case "esc":
		m.boxer.EditLeaf("search", func(model tea.Model) (tea.Model, error) {
			sb := model.(searchBarModel)
			sb.textInput.SetValue("")
			return sb, nil
		})
		m.focus = focusResults
		return nil
	default:
		var cmd tea.Cmd
		m.boxer.EditLeaf("search", func(model tea.Model) (tea.Model, error) {
			sb := model.(searchBarModel)
			sb.textInput.Focus()
			sb.textInput, cmd = sb.textInput.Update(key)
			return sb, nil
		})
		return cmd
	}
}

func (m *Model) handleResultsKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case "down", "j":
		if n := len(m.pageResults()); m.selectedIndex < n-1 {
			m.selectedIndex++
		}
	case "n":
		if m.hasNextPage() {
			m.page++
			m.selectedIndex = 0
			if (m.page+1)*m.cfg.ResultsPerPage > len(m.results) && !m.exhausted {
				m.pending = pendingAction{kind: actionFetchNextPage}
			}
		}
	case "p":
		if m.hasPrevPage() {
			m.page--
			m.selectedIndex = 0
		}
	case "h":
		m.mode = modeHelp
	case "s", "/":
		m.focus = focusSearch
	case "enter":
		idx, ok := m.quickPickIndex()
		if ok {
			m.pending = pendingAction{kind: actionPlay, index: idx}
		}
	case "backspace":
		if n := len(m.numberInput); n > 0 {
			m.numberInput = m.numberInput[:n-1]
		}
	default:
		if len(key.String()) == 1 && key.String() >= "0" && key.String() <= "9" {
			m.numberInput += key.String()
		}
	}
	return nil
}

// quickPickIndex resolves Enter to a result index: a typed number picks
// across all loaded results, otherwise the highlighted row wins.
func (m *Model) quickPickIndex() (int, bool) {
	if m.numberInput != "" {
		num, err := strconv.Atoi(m.numberInput)
		m.numberInput = ""
		if err != nil || num < 1 || num > len(m.results) {
			return 0, false
		}
		return num - 1, true
	}
	idx := m.page*m.cfg.ResultsPerPage + m.selectedIndex
	if idx >= len(m.results) {
		return 0, false
	}
	return idx, true
}

func (m *Model) handleQueueKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		if m.q.SelectedIndex > 0 {
			m.q.SelectedIndex--
		}
	case "down", "j":
		if m.q.SelectedIndex < m.q.Len()-1 {
			m.q.SelectedIndex++
		}
	case "enter":
		if m.q.Empty() || m.q.SelectedIndex >= m.q.Len() {
			return nil
		}
		if !m.playerKind.BackgroundCapable() || m.backgroundBroken {
			m.notice = "Jumping inside the queue needs a background-capable player"
			return nil
		}
		if m.q.SelectedIndex > 0 {
			m.q.MoveToFront(m.q.SelectedIndex)
		}
		if head, ok := m.q.Get(0); ok {
			return m.startBackgroundCmd(head, false)
		}
	case "delete", "backspace":
		m.q.Remove(m.q.SelectedIndex)
	case "c":
		m.q.Clear()
	case "n":
		// Skip: the head is done, move on to whatever is next.
		if m.engine == nil {
			return nil
		}
		m.q.PopFront()
		if head, ok := m.q.Get(0); ok {
			return m.startBackgroundCmd(head, false)
		}
		_ = m.engine.Stop()
	case "h":
		m.mode = modeHelp
	}
	return nil
}
