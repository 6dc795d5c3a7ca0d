package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) helpView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Help") + "\n\n")
	b.WriteString("Navigation\n")
	b.WriteString("  Tab / Shift+Tab   cycle panels (search, results, queue)\n")
	b.WriteString("  Up/Down, k/j      move selection\n")
	b.WriteString("  n / p             next / previous results page\n")
	b.WriteString("  1-9 then Enter    play a result by number\n\n")
	b.WriteString("Playback\n")
	b.WriteString("  Enter             play selection / add to queue\n")
	b.WriteString("  Space             pause / resume\n")
	b.WriteString("  < / >             seek back / forward 10s\n")
	b.WriteString("  - / = / m         volume down / up / mute\n")
	b.WriteString("  L                 lyrics for the current track\n\n")
	b.WriteString("Queue panel\n")
	b.WriteString("  Enter             play the selected track next\n")
	b.WriteString("  Delete            remove the selected track\n")
	b.WriteString("  n / c             skip current / clear queue\n\n")
	b.WriteString("Other\n")
	b.WriteString("  S or F2           settings\n")
	b.WriteString("  q / Esc           quit\n\n")
	b.WriteString(dimStyle.Render("Press Esc, h or q to close"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) lyricsView() string {
	var b strings.Builder
	title := "Lyrics"
	if m.engine != nil {
		if t := m.engine.Status().Title; t != "" {
			title = "Lyrics - " + t
		}
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")
	if m.lyricsLoading {
		b.WriteString(dimStyle.Render("Looking up lyrics..."))
	} else {
		b.WriteString(m.lyricsText)
	}
	b.WriteString("\n\n" + dimStyle.Render("Press Esc to close"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
