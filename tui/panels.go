package tui

import (
	"fmt"
	"strings"

	"yttui/player"
	"yttui/search"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/treilik/bubbleboxer"
)

// Styles
var (
	accentColor = lipgloss.Color("#00B7C3")
	mutedColor  = lipgloss.Color("#6C6C6C")
	textColor   = lipgloss.Color("#FFFFFF")
	warnColor   = lipgloss.Color("#E3B341")

	titleStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	focusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(accentColor)

	unfocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(mutedColor)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#000000")).
				Background(warnColor)

	nowPlayingStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	noticeStyle = lipgloss.NewStyle().
			Foreground(warnColor)
)

// truncate limits a line to the panel width, cell-aware.
func truncate(line string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(line) > width {
		if width > 3 {
			return runewidth.Truncate(line, width-3, "...")
		}
		return runewidth.Truncate(line, width, "")
	}
	return line
}

// fitLines renders up to height lines, each clipped to width.
func fitLines(lines []string, width, height int) string {
	if height <= 0 || width <= 0 {
		return ""
	}
	maxLines := height
	if maxLines > len(lines) {
		maxLines = len(lines)
	}
	if maxLines < 1 {
		maxLines = 1
	}
	var content strings.Builder
	for i := 0; i < maxLines; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		content.WriteString(truncate(line, width))
		if i < maxLines-1 {
			content.WriteString("\n")
		}
	}
	return content.String()
}

// searchBarModel is the query input leaf.
type searchBarModel struct {
	width, height int
	textInput     textinput.Model
	focused       bool
	query         string
}

func (m searchBarModel) Init() tea.Cmd { return nil }

func (m searchBarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m searchBarModel) View() string {
	if m.height <= 0 || m.width <= 0 {
		return ""
	}
	var body string
	if m.focused {
		body = m.textInput.View()
	} else if m.query != "" {
		body = m.query
	} else {
		body = dimStyle.Render("Press s or / to search")
	}

	lines := []string{
		titleStyle.Render("Search"),
		body,
	}
	return fitLines(lines, m.width, m.height)
}

// resultsModel is the paged search results leaf.
type resultsModel struct {
	width, height int
	focused       bool
	loading       bool
	query         string
	results       []search.Result
	pageStart     int
	selected      int
	pageInfo      string
	numberInput   string
}

func (m resultsModel) Init() tea.Cmd { return nil }

func (m resultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m resultsModel) View() string {
	if m.height <= 0 || m.width <= 0 {
		return ""
	}

	var lines []string
	header := "Results"
	if m.pageInfo != "" {
		header = fmt.Sprintf("Results (%s)", m.pageInfo)
	}
	lines = append(lines, titleStyle.Render(header))

	if m.loading {
		lines = append(lines, "", "  Searching for: "+m.query, "", dimStyle.Render("  Loading results..."))
		return fitLines(lines, m.width, m.height)
	}

	if len(m.results) == 0 {
		lines = append(lines, "", dimStyle.Render("  No results. Search for something."))
		return fitLines(lines, m.width, m.height)
	}

	for i, res := range m.results {
		num := m.pageStart + i + 1
		title := fmt.Sprintf("%3d. %s", num, res.Title)
		meta := fmt.Sprintf("     %s | %s | %s", res.Duration, res.Channel, res.Views)
		if i == m.selected && m.focused {
			lines = append(lines, selectedItemStyle.Render(truncate(title, m.width)), meta)
		} else {
			lines = append(lines, title, dimStyle.Render(truncate(meta, m.width)))
		}
	}

	if m.numberInput != "" {
		lines = append(lines, "", "Jump to: "+m.numberInput)
	}

	return fitLines(lines, m.width, m.height)
}

// queuePanelModel is the playback queue leaf.
type queuePanelModel struct {
	width, height int
	focused       bool
	playing       bool
	tracks        []search.Result
	selected      int
}

func (m queuePanelModel) Init() tea.Cmd { return nil }

func (m queuePanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m queuePanelModel) View() string {
	if m.height <= 0 || m.width <= 0 {
		return ""
	}

	lines := []string{titleStyle.Render("Queue")}
	if len(m.tracks) == 0 {
		lines = append(lines,
			dimStyle.Render("Queue is empty"),
			"",
			dimStyle.Render("Press Enter on a result"),
			dimStyle.Render("to add tracks"),
		)
		return fitLines(lines, m.width, m.height)
	}

	for i, track := range m.tracks {
		prefix := "  "
		if i == 0 && m.playing {
			prefix = "> "
		}
		line := prefix + track.Title
		switch {
		case m.focused && i == m.selected:
			line = selectedItemStyle.Render(truncate(line, m.width))
		case i == 0 && m.playing:
			line = nowPlayingStyle.Render(truncate(line, m.width))
		}
		lines = append(lines, line)
	}
	return fitLines(lines, m.width, m.height)
}

// footerModel shows playback status, notices and key hints.
type footerModel struct {
	width, height int
	hasPlayer     bool
	status        player.Status
	notice        string
	focus         focusArea
}

func (m footerModel) Init() tea.Cmd { return nil }

func (m footerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m footerModel) View() string {
	if m.height <= 0 || m.width <= 0 {
		return ""
	}

	var lines []string
	if m.hasPlayer {
		icon := "playing"
		if m.status.Paused {
			icon = "paused"
		}
		lines = append(lines, truncate(fmt.Sprintf(
			"[%s] %s  %s / %s  vol %d%%",
			icon,
			m.status.Title,
			formatDuration(int(m.status.TimePos)),
			formatDuration(int(m.status.Duration)),
			m.status.Volume,
		), m.width))
	}
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(truncate(m.notice, m.width)))
	}
	lines = append(lines, dimStyle.Render(
		"Tab cycle • Enter play • n/p page • Space pause • </> seek • h help • S settings • q quit",
	))
	return fitLines(lines, m.width, m.height)
}

func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// newLayout builds the bubbleboxer tree: search bar on top, results and
// queue side by side, footer at the bottom.
func newLayout() bubbleboxer.Boxer {
	boxer := bubbleboxer.Boxer{
		ModelMap: make(map[string]tea.Model),
	}

	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 156
	ti.Width = 40

	searchLeaf, _ := boxer.CreateLeaf("search", searchBarModel{width: 80, height: 2, textInput: ti})
	resultsLeaf, _ := boxer.CreateLeaf("results", resultsModel{width: 56, height: 20})
	queueLeaf, _ := boxer.CreateLeaf("queue", queuePanelModel{width: 24, height: 20})
	footerLeaf, _ := boxer.CreateLeaf("footer", footerModel{width: 80, height: 3})

	mainContent := bubbleboxer.Node{
		Children:        []bubbleboxer.Node{resultsLeaf, queueLeaf},
		VerticalStacked: false,
		SizeFunc: func(node bubbleboxer.Node, widthOrHeight int) []int {
			queueWidth := widthOrHeight * 3 / 10
			if queueWidth < 20 {
				queueWidth = 20
			}
			return []int{widthOrHeight - queueWidth, queueWidth}
		},
	}

	root := bubbleboxer.Node{
		Children:        []bubbleboxer.Node{searchLeaf, mainContent, footerLeaf},
		VerticalStacked: true,
		SizeFunc: func(node bubbleboxer.Node, widthOrHeight int) []int {
			remaining := widthOrHeight - 2 - 3
			if remaining < 4 {
				remaining = 4
			}
			return []int{2, remaining, 3}
		},
	}

	boxer.LayoutTree = root
	return boxer
}

// syncPanels pushes the session state into the leaf models before the
// next render.
func (m *Model) syncPanels() {
	m.boxer.EditLeaf("search", func(model tea.Model) (tea.Model, error) {
		sb := model.(searchBarModel)
		sb.focused = m.focus == focusSearch
		sb.query = m.query()
		if sb.focused {
			sb.textInput.Focus()
		} else {
			sb.textInput.Blur()
		}
		return sb, nil
	})

	m.boxer.EditLeaf("results", func(model tea.Model) (tea.Model, error) {
		rs := model.(resultsModel)
		rs.focused = m.focus == focusResults
		rs.loading = m.loading
		rs.query = m.query()
		rs.results = m.pageResults()
		rs.pageStart = m.page * m.cfg.ResultsPerPage
		rs.selected = m.selectedIndex
		rs.numberInput = m.numberInput
		if m.exhausted {
			total := len(m.results)
			totalPages := (total + m.cfg.ResultsPerPage - 1) / m.cfg.ResultsPerPage
			if totalPages == 0 {
				totalPages = 1
			}
			rs.pageInfo = fmt.Sprintf("page %d/%d | %d total", m.page+1, totalPages, total)
		} else {
			rs.pageInfo = fmt.Sprintf("page %d | %d+ loaded", m.page+1, len(m.results))
		}
		return rs, nil
	})

	m.boxer.EditLeaf("queue", func(model tea.Model) (tea.Model, error) {
		qp := model.(queuePanelModel)
		qp.focused = m.focus == focusQueue
		qp.playing = m.engine != nil
		qp.tracks = m.q.Tracks()
		qp.selected = m.q.SelectedIndex
		return qp, nil
	})

	m.boxer.EditLeaf("footer", func(model tea.Model) (tea.Model, error) {
		ft := model.(footerModel)
		ft.hasPlayer = m.engine != nil
		if m.engine != nil {
			ft.status = m.engine.Status()
		}
		ft.notice = m.notice
		ft.focus = m.focus
		return ft, nil
	})
}
