package tui

import (
	"fmt"
	"strings"

	"yttui/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type settingsField int

const (
	fieldAudioOnly settingsField = iota
	fieldLimitBandwidth
	fieldKeepTemp
	fieldIncludeShorts
	fieldAutoplayNext
	fieldDownloadMode
	fieldDownloadDir
	fieldResultsPerPage
	fieldCustomFormat
	fieldSave
	fieldCount
)

// settingsState is the open settings modal. Edits land in the draft and
// only reach the config (and disk) when Save commits.
type settingsState struct {
	draft   *config.Draft
	cursor  settingsField
	editing bool
	errText string
}

func (m *Model) openSettings() {
	m.settings = &settingsState{draft: config.NewDraft(m.cfg)}
}

func (f settingsField) isText() bool {
	return f == fieldDownloadDir || f == fieldResultsPerPage || f == fieldCustomFormat
}

func (s *settingsState) textField(f settingsField) *string {
	switch f {
	case fieldDownloadDir:
		return &s.draft.DownloadDir
	case fieldResultsPerPage:
		return &s.draft.ResultsPerPage
	default:
		return &s.draft.CustomFormat
	}
}

func (s *settingsState) toggle(f settingsField) {
	d := s.draft
	switch f {
	case fieldAudioOnly:
		d.AudioOnly = !d.AudioOnly
	case fieldLimitBandwidth:
		d.LimitBandwidth = !d.LimitBandwidth
	case fieldKeepTemp:
		d.KeepTemp = !d.KeepTemp
	case fieldIncludeShorts:
		d.IncludeShorts = !d.IncludeShorts
	case fieldAutoplayNext:
		d.AutoplayNext = !d.AutoplayNext
	case fieldDownloadMode:
		d.DownloadMode = !d.DownloadMode
	}
}

func (m *Model) handleSettingsKey(key tea.KeyMsg) tea.Cmd {
	s := m.settings

	if s.editing {
		field := s.textField(s.cursor)
		switch key.String() {
		case "enter", "esc":
			s.editing = false
		case "backspace":
			if n := len(*field); n > 0 {
				*field = (*field)[:n-1]
			}
		default:
			if key.Type == tea.KeyRunes {
				*field += string(key.Runes)
			}
		}
		return nil
	}

	switch key.String() {
	case "esc", "q":
		// Discard the draft.
		m.settings = nil
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < fieldCount-1 {
			s.cursor++
		}
	case "enter", " ":
		switch {
		case s.cursor == fieldSave:
			if err := s.draft.Commit(m.cfg); err != nil {
				s.errText = err.Error()
				return nil
			}
			m.settings = nil
			m.notice = "Settings saved"
		case s.cursor.isText():
			s.editing = true
			s.errText = ""
		default:
			s.toggle(s.cursor)
		}
	}
	return nil
}

func checkbox(label string, checked, selected bool) string {
	mark := " "
	if checked {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] %s", mark, label)
	if selected {
		return selectedItemStyle.Render(line)
	}
	return line
}

func textField(label, value string, selected, editing bool) string {
	if editing {
		value += "_"
	}
	line := fmt.Sprintf("%s: %s", label, value)
	if selected {
		return selectedItemStyle.Render(line)
	}
	return line
}

func (m Model) settingsView() string {
	s := m.settings
	d := s.draft
	cur := s.cursor

	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings") + "\n\n")
	b.WriteString(checkbox("Audio only", d.AudioOnly, cur == fieldAudioOnly) + "\n")
	b.WriteString(checkbox("Limit bandwidth", d.LimitBandwidth, cur == fieldLimitBandwidth) + "\n")
	b.WriteString(checkbox("Keep temp files", d.KeepTemp, cur == fieldKeepTemp) + "\n")
	b.WriteString(checkbox("Include shorts", d.IncludeShorts, cur == fieldIncludeShorts) + "\n")
	b.WriteString(checkbox("Autoplay next", d.AutoplayNext, cur == fieldAutoplayNext) + "\n")
	b.WriteString(checkbox("Download mode", d.DownloadMode, cur == fieldDownloadMode) + "\n\n")
	b.WriteString(textField("Download dir", d.DownloadDir, cur == fieldDownloadDir, s.editing && cur == fieldDownloadDir) + "\n")
	b.WriteString(textField("Results per page", d.ResultsPerPage, cur == fieldResultsPerPage, s.editing && cur == fieldResultsPerPage) + "\n")
	b.WriteString(textField("Custom format", d.CustomFormat, cur == fieldCustomFormat, s.editing && cur == fieldCustomFormat) + "\n\n")

	save := "Save"
	if cur == fieldSave {
		save = selectedItemStyle.Render(save)
	}
	b.WriteString(save + "\n")

	if s.errText != "" {
		b.WriteString("\n" + noticeStyle.Render(s.errText) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("Enter toggle/edit • Esc discard"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
