package tui

import (
	"context"
	"time"

	"yttui/player"
	"yttui/search"

	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

type statusMsg player.Status

type searchDoneMsg struct {
	query     string
	results   []search.Result
	exhausted bool
	err       error
}

type playStartedMsg struct {
	ctrl playbackController
	err  error
}

type downloadDoneMsg struct {
	track     search.Result
	path      string
	permanent bool
	err       error
}

type playerExitMsg struct {
	err error
}

type lyricsMsg struct {
	text string
	err  error
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd grows the cache until page is backed, off the UI goroutine.
func (m *Model) fetchCmd(page int) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.searchCancel = cancel
	cache := m.cache
	query := cache.Query()
	return func() tea.Msg {
		defer cancel()
		_, err := cache.EnsurePage(ctx, page)
		return searchDoneMsg{
			query:     query,
			results:   cache.Results(),
			exhausted: cache.Exhausted(),
			err:       err,
		}
	}
}

func pollCmd(ctrl playbackController) tea.Cmd {
	return func() tea.Msg {
		ctrl.PollStatus()
		return statusMsg(ctrl.Status())
	}
}

func (m *Model) tempDownloadCmd(track search.Result) tea.Cmd {
	ctx := m.ctx
	format := m.cfg.Format()
	audioOnly := m.cfg.AudioOnly
	tempDir := m.tempDir
	return func() tea.Msg {
		path, err := player.TempDownload(ctx, format, audioOnly, track.URL(), track.SafeTitle(), tempDir)
		return downloadDoneMsg{track: track, path: path, err: err}
	}
}

func (m *Model) permanentDownloadCmd(track search.Result) tea.Cmd {
	ctx := m.ctx
	format := m.cfg.Format()
	audioOnly := m.cfg.AudioOnly
	dir := m.cfg.DownloadDir
	return func() tea.Msg {
		err := player.DownloadPermanently(ctx, format, audioOnly, track.URL(), dir)
		return downloadDoneMsg{track: track, permanent: true, err: err}
	}
}

func (m *Model) lyricsCmd(track, artist string) tea.Cmd {
	client := m.lyricsc
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, 10*time.Second)
		defer cancel()
		res, err := client.Lookup(ctx, track, artist)
		if err != nil {
			return lyricsMsg{err: err}
		}
		text := res.Plain
		if text == "" {
			text = res.Synced
		}
		return lyricsMsg{text: text}
	}
}
