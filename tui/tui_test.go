package tui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yttui/config"
	"yttui/player"
	"yttui/search"
)

// stubRunner serves deterministic search batches.
type stubRunner struct {
	fetch func(query string, start, end int) ([]string, error)
}

func (s *stubRunner) Fetch(_ context.Context, query string, start, end int) ([]string, error) {
	if s.fetch == nil {
		var lines []string
		for i := start; i <= end; i++ {
			lines = append(lines, fmt.Sprintf("Track %d|3:45|Channel %d|1K views|vid%d|300", i, i, i))
		}
		return lines, nil
	}
	return s.fetch(query, start, end)
}

// fakeController stands in for the background player.
type fakeController struct {
	st           player.Status
	played       []string
	loadedPaused []string
	stopped      bool
	closed       bool
	polls        int
}

func (f *fakeController) Play(url, title string) error {
	f.played = append(f.played, url)
	f.st.Playing = true
	f.st.Paused = false
	f.st.Title = title
	f.st.EOFReached = false
	return nil
}

func (f *fakeController) LoadPaused(url, title string) error {
	f.loadedPaused = append(f.loadedPaused, url)
	f.st.Playing = true
	f.st.Paused = true
	f.st.Title = title
	f.st.EOFReached = false
	return nil
}

func (f *fakeController) TogglePause() error { f.st.Paused = !f.st.Paused; return nil }
func (f *fakeController) Seek(float64) error { return nil }

func (f *fakeController) SetVolume(percent int) error {
	f.st.Volume = percent
	return nil
}

func (f *fakeController) Stop() error {
	f.stopped = true
	f.st = player.DefaultStatus()
	return nil
}

func (f *fakeController) PollStatus()           { f.polls++ }
func (f *fakeController) Status() player.Status { return f.st }
func (f *fakeController) EndOfStream() bool     { return f.st.EOFReached }
func (f *fakeController) Close()                { f.closed = true }

func testConfig() *config.Config {
	return &config.Config{ResultsPerPage: 10, AutoplayNext: true}
}

func newTestModel(t *testing.T, cfg *config.Config) *Model {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	m := NewModel(Options{
		Config:     cfg,
		PlayerKind: player.KindMPV,
		TempDir:    t.TempDir(),
		Runner:     &stubRunner{},
	})
	t.Cleanup(m.teardown)
	return &m
}

func loadedResults(n int) []search.Result {
	out := make([]search.Result, n)
	for i := range out {
		out[i] = search.Result{
			ID:      fmt.Sprintf("vid%d", i+1),
			Title:   fmt.Sprintf("Track %d", i+1),
			Channel: fmt.Sprintf("Channel %d", i+1),
		}
	}
	return out
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "delete":
		return tea.KeyMsg{Type: tea.KeyDelete}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		panic("unknown test key " + s)
	}
}

func TestCycleFocus(t *testing.T) {
	m := newTestModel(t, nil)
	require.Equal(t, focusSearch, m.focus)

	m.handleKey(key("tab"))
	assert.Equal(t, focusResults, m.focus)
	m.handleKey(key("tab"))
	assert.Equal(t, focusQueue, m.focus)
	m.handleKey(key("tab"))
	assert.Equal(t, focusSearch, m.focus)

	m.handleKey(key("shift+tab"))
	assert.Equal(t, focusQueue, m.focus)
}

func TestPendingActionLastWriterWins(t *testing.T) {
	m := newTestModel(t, nil)
	m.results = loadedResults(5)

	m.pending = pendingAction{kind: actionPlay, index: 2}
	m.pending = pendingAction{kind: actionNewSearch, query: "newer"}
	assert.Equal(t, actionNewSearch, m.pending.kind)

	cmd := m.drainPending()
	assert.NotNil(t, cmd)
	assert.Equal(t, actionNone, m.pending.kind)

	// The slot is drained; a second pass finds nothing.
	assert.Nil(t, m.drainPending())
}

func TestDrainNewSearchResetsView(t *testing.T) {
	m := newTestModel(t, nil)
	m.results = loadedResults(30)
	m.page = 2
	m.selectedIndex = 7
	m.notice = "stale"
	m.pending = pendingAction{kind: actionNewSearch, query: "lofi"}

	cmd := m.drainPending()
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Equal(t, 0, m.page)
	assert.Equal(t, 0, m.selectedIndex)
	assert.Empty(t, m.results)
	assert.Equal(t, "lofi", m.cache.Query())

	msg, ok := cmd().(searchDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "lofi", msg.query)
	assert.NotEmpty(t, msg.results)

	m.applySearchDone(msg)
	assert.False(t, m.loading)
	assert.Equal(t, msg.results, m.results)
}

func TestStaleSearchResultIgnored(t *testing.T) {
	m := newTestModel(t, nil)
	m.cache.Reset("current")
	m.loading = true

	m.applySearchDone(searchDoneMsg{query: "old", results: loadedResults(10)})
	assert.True(t, m.loading)
	assert.Empty(t, m.results)
}

func TestApplySearchDoneClampsPage(t *testing.T) {
	m := newTestModel(t, nil)
	m.cache.Reset("lofi")
	m.page = 2

	m.applySearchDone(searchDoneMsg{query: "lofi", results: loadedResults(15), exhausted: true})
	assert.Equal(t, 1, m.page)
	assert.Equal(t, "No more results", m.notice)
}

func TestApplySearchDoneEmptyResults(t *testing.T) {
	m := newTestModel(t, nil)
	m.cache.Reset("garble")

	m.applySearchDone(searchDoneMsg{query: "garble", exhausted: true})
	assert.Equal(t, "No results for: garble", m.notice)
}

func TestQuickPickIndex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		page     int
		selected int
		loaded   int
		want     int
		wantOK   bool
	}{
		{name: "typed number", input: "3", loaded: 10, want: 2, wantOK: true},
		{name: "typed number beyond loaded", input: "11", loaded: 10, wantOK: false},
		{name: "typed zero", input: "0", loaded: 10, wantOK: false},
		{name: "highlighted row", selected: 4, loaded: 10, want: 4, wantOK: true},
		{name: "highlighted row later page", page: 1, selected: 2, loaded: 30, want: 12, wantOK: true},
		{name: "highlight past loaded", page: 1, selected: 5, loaded: 12, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, nil)
			m.results = loadedResults(tt.loaded)
			m.numberInput = tt.input
			m.page = tt.page
			m.selectedIndex = tt.selected

			idx, ok := m.quickPickIndex()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, idx)
			}
			assert.Empty(t, m.numberInput)
		})
	}
}

func TestResultsKeyNavigation(t *testing.T) {
	m := newTestModel(t, nil)
	m.focus = focusResults
	m.results = loadedResults(25)

	m.handleResultsKey(key("j"))
	m.handleResultsKey(key("j"))
	assert.Equal(t, 2, m.selectedIndex)
	m.handleResultsKey(key("k"))
	assert.Equal(t, 1, m.selectedIndex)

	// Paging forward within loaded results queues no fetch.
	m.handleResultsKey(key("n"))
	assert.Equal(t, 1, m.page)
	assert.Equal(t, 0, m.selectedIndex)
	assert.Equal(t, actionNone, m.pending.kind)

	// Paging past the loaded tail asks for more.
	m.handleResultsKey(key("n"))
	assert.Equal(t, 2, m.page)
	assert.Equal(t, actionFetchNextPage, m.pending.kind)

	m.handleResultsKey(key("p"))
	assert.Equal(t, 1, m.page)
}

func TestResultsKeyNoNextPageWhenExhausted(t *testing.T) {
	m := newTestModel(t, nil)
	m.results = loadedResults(5)
	m.exhausted = true

	m.handleResultsKey(key("n"))
	assert.Equal(t, 0, m.page)
}

func TestNumberInputEditing(t *testing.T) {
	m := newTestModel(t, nil)
	m.results = loadedResults(25)

	m.handleResultsKey(key("1"))
	m.handleResultsKey(key("2"))
	assert.Equal(t, "12", m.numberInput)
	m.handleResultsKey(key("backspace"))
	assert.Equal(t, "1", m.numberInput)

	m.handleResultsKey(key("enter"))
	assert.Equal(t, actionPlay, m.pending.kind)
	assert.Equal(t, 0, m.pending.index)
}

func TestEndOfStreamStartsNextTrack(t *testing.T) {
	m := newTestModel(t, nil)
	fc := &fakeController{st: player.DefaultStatus()}
	m.engine = fc
	m.results = loadedResults(5)
	m.q.Push(m.results[0])
	m.q.Push(m.results[1])

	cmd := m.handleStatus(player.Status{EOFReached: true})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.q.Len())

	msg, ok := cmd().(playStartedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	require.Len(t, fc.played, 1)
	assert.Equal(t, m.results[1].URL(), fc.played[0])
	assert.Empty(t, fc.loadedPaused)
}

func TestEndOfStreamLoadsPausedWithoutAutoplay(t *testing.T) {
	cfg := testConfig()
	cfg.AutoplayNext = false
	m := newTestModel(t, cfg)
	fc := &fakeController{st: player.DefaultStatus()}
	m.engine = fc
	m.results = loadedResults(5)
	m.q.Push(m.results[0])
	m.q.Push(m.results[1])

	cmd := m.handleStatus(player.Status{EOFReached: true})
	require.NotNil(t, cmd)

	msg, ok := cmd().(playStartedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	require.Len(t, fc.loadedPaused, 1)
	assert.Equal(t, m.results[1].URL(), fc.loadedPaused[0])
	assert.Empty(t, fc.played)
}

func TestEndOfStreamIgnoredWhileStartInFlight(t *testing.T) {
	m := newTestModel(t, nil)
	fc := &fakeController{st: player.DefaultStatus()}
	m.engine = fc
	m.results = loadedResults(3)
	m.q.Push(m.results[0])
	m.q.Push(m.results[1])
	m.startingPlay = true

	cmd := m.handleStatus(player.Status{EOFReached: true})
	assert.Nil(t, cmd)
	assert.Equal(t, 2, m.q.Len())
	assert.Empty(t, fc.played)
	assert.Empty(t, fc.loadedPaused)
}

func TestEndOfStreamWithEmptyQueueClosesEngine(t *testing.T) {
	m := newTestModel(t, nil)
	fc := &fakeController{st: player.DefaultStatus()}
	m.engine = fc
	m.results = loadedResults(2)
	m.q.Push(m.results[0])

	cmd := m.handleStatus(player.Status{EOFReached: true})
	assert.Nil(t, cmd)
	assert.True(t, m.q.Empty())
	assert.True(t, fc.closed)
	assert.Nil(t, m.engine)
}

func TestStatusWithoutEOFIsANoop(t *testing.T) {
	m := newTestModel(t, nil)
	fc := &fakeController{st: player.DefaultStatus()}
	m.engine = fc
	m.q.Push(search.Result{ID: "a"})

	cmd := m.handleStatus(player.Status{Playing: true, TimePos: 10})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.q.Len())
}

func TestPlayActionQueuesWhilePlaying(t *testing.T) {
	m := newTestModel(t, nil)
	fc := &fakeController{st: player.Status{Playing: true, Volume: 100}}
	m.engine = fc
	m.results = loadedResults(5)
	m.q.Push(m.results[0])

	cmd := m.playAction(3)
	assert.Nil(t, cmd)
	assert.Equal(t, 2, m.q.Len())
	assert.Equal(t, "Queued: Track 4", m.notice)
}

func TestPlayActionStartsHeadWhenIdle(t *testing.T) {
	m := newTestModel(t, nil)
	m.results = loadedResults(5)

	cmd := m.playAction(1)
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.q.Len())
	assert.True(t, m.startingPlay)
}

func TestPlayActionOutOfRange(t *testing.T) {
	m := newTestModel(t, nil)
	m.results = loadedResults(3)

	assert.Nil(t, m.playAction(7))
	assert.True(t, m.q.Empty())
}

func TestPlayActionDownloadMode(t *testing.T) {
	cfg := testConfig()
	cfg.DownloadMode = true
	m := newTestModel(t, cfg)
	m.results = loadedResults(3)

	cmd := m.playAction(0)
	assert.NotNil(t, cmd)
	assert.Equal(t, "Downloading: Track 1", m.notice)
}

func TestPlaybackKeys(t *testing.T) {
	m := newTestModel(t, nil)
	fc := &fakeController{st: player.Status{Playing: true, Volume: 50}}
	m.engine = fc

	_, handled := m.handlePlaybackKey(key(" "))
	assert.True(t, handled)
	assert.True(t, fc.st.Paused)

	m.handlePlaybackKey(key("+"))
	assert.Equal(t, 55, fc.st.Volume)
	m.handlePlaybackKey(key("-"))
	assert.Equal(t, 50, fc.st.Volume)

	m.handlePlaybackKey(key("m"))
	assert.Equal(t, 0, fc.st.Volume)
	m.handlePlaybackKey(key("m"))
	assert.Equal(t, 100, fc.st.Volume)

	_, handled = m.handlePlaybackKey(key("x"))
	assert.False(t, handled)
}

func TestQueueKeySkip(t *testing.T) {
	m := newTestModel(t, nil)
	fc := &fakeController{st: player.Status{Playing: true, Volume: 100}}
	m.engine = fc
	m.focus = focusQueue
	m.results = loadedResults(3)
	m.q.Push(m.results[0])
	m.q.Push(m.results[1])

	cmd := m.handleQueueKey(key("n"))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.q.Len())

	head, ok := m.q.Get(0)
	require.True(t, ok)
	assert.Equal(t, m.results[1].ID, head.ID)
}

func TestQueueKeySkipLastTrackStopsPlayback(t *testing.T) {
	m := newTestModel(t, nil)
	fc := &fakeController{st: player.Status{Playing: true, Volume: 100}}
	m.engine = fc
	m.q.Push(search.Result{ID: "only"})

	cmd := m.handleQueueKey(key("n"))
	assert.Nil(t, cmd)
	assert.True(t, m.q.Empty())
	assert.True(t, fc.stopped)
}

func TestQueueKeyRemoveClampsCursor(t *testing.T) {
	m := newTestModel(t, nil)
	m.q.Push(search.Result{ID: "a"})
	m.q.Push(search.Result{ID: "b"})
	m.q.SelectedIndex = 1

	m.handleQueueKey(key("delete"))
	assert.Equal(t, 1, m.q.Len())
	assert.Equal(t, 0, m.q.SelectedIndex)
}

func TestQueueKeyClear(t *testing.T) {
	m := newTestModel(t, nil)
	m.q.Push(search.Result{ID: "a"})
	m.q.Push(search.Result{ID: "b"})

	m.handleQueueKey(key("c"))
	assert.True(t, m.q.Empty())
}

func TestInterruptRequestsGracefulQuit(t *testing.T) {
	m := newTestModel(t, nil)

	m.handleKey(key("ctrl+c"))
	assert.True(t, m.quitRequested)
	assert.Contains(t, m.notice, "Ctrl+C again")
}

func TestHelpOverlayToggles(t *testing.T) {
	m := newTestModel(t, nil)
	m.focus = focusResults

	m.handleKey(key("h"))
	assert.Equal(t, modeHelp, m.mode)
	m.handleKey(key("esc"))
	assert.Equal(t, modeBrowse, m.mode)
}

func TestPageResults(t *testing.T) {
	m := newTestModel(t, nil)
	m.results = loadedResults(25)

	assert.Len(t, m.pageResults(), 10)
	m.page = 2
	assert.Len(t, m.pageResults(), 5)
	m.page = 3
	assert.Empty(t, m.pageResults())
}

func TestHasNextPage(t *testing.T) {
	m := newTestModel(t, nil)
	m.results = loadedResults(10)

	assert.True(t, m.hasNextPage())
	m.exhausted = true
	assert.False(t, m.hasNextPage())

	m.results = loadedResults(20)
	assert.True(t, m.hasNextPage())
}
