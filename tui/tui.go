// Package tui is the interactive session: one bubbletea model that
// serializes user input, search refresh and player-status polling into a
// deterministic per-tick update cycle.
package tui

import (
	"context"
	"os"
	"time"

	"yttui/config"
	"yttui/lyrics"
	"yttui/player"
	"yttui/queue"
	"yttui/search"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/treilik/bubbleboxer"
)

const tickRate = 250 * time.Millisecond

// Focus areas
type focusArea int

const (
	focusSearch focusArea = iota
	focusResults
	focusQueue
)

type viewMode int

const (
	modeBrowse viewMode = iota
	modeHelp
	modeLyrics
)

// actionKind tags the single pending-action slot. A newly issued action
// overwrites an unconsumed one; the slot is drained once per tick.
type actionKind int

const (
	actionNone actionKind = iota
	actionPlay
	actionNewSearch
	actionFetchNextPage
)

type pendingAction struct {
	kind  actionKind
	index int
	query string
}

// playbackController is the control surface the session needs from the
// background player.
type playbackController interface {
	Play(url, title string) error
	LoadPaused(url, title string) error
	TogglePause() error
	Seek(seconds float64) error
	SetVolume(percent int) error
	Stop() error
	PollStatus()
	Status() player.Status
	EndOfStream() bool
	Close()
}

// Model is the application state.
type Model struct {
	boxer bubbleboxer.Boxer

	cfg        *config.Config
	log        *logrus.Logger
	playerKind player.Kind
	tempDir    string

	cache   *search.Paginated
	q       *queue.Queue
	engine  playbackController
	lyricsc *lyrics.Client

	// Visible snapshot of the cache, refreshed when a fetch lands.
	results   []search.Result
	exhausted bool

	focus         focusArea
	mode          viewMode
	page          int
	selectedIndex int
	numberInput   string
	pending       pendingAction
	loading       bool
	notice        string

	settings *settingsState

	lyricsText    string
	lyricsLoading bool

	// In-flight bookkeeping so workers never stack up.
	pollInFlight bool
	startingPlay bool
	pendingTemp  string

	// Background playback broke (connect timeout); fall back to the
	// blocking foreground path for the rest of the session.
	backgroundBroken bool

	quitRequested bool
	shouldQuit    bool

	ctx          context.Context
	cancel       context.CancelFunc
	searchCancel context.CancelFunc

	spawnPlayer func() (playbackController, error)
	width       int
	height      int
}

// Options carries the collaborators the session is wired with.
type Options struct {
	Config     *config.Config
	Log        *logrus.Logger
	PlayerKind player.Kind
	TempDir    string
	Runner     search.Runner
}

// NewModel builds the session model.
func NewModel(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = logrus.New()
	}
	runner := opts.Runner
	if runner == nil {
		runner = &search.YtdlpRunner{Log: log}
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		cfg:        opts.Config,
		log:        log,
		playerKind: opts.PlayerKind,
		tempDir:    opts.TempDir,
		cache:      search.NewPaginated("", opts.Config.ResultsPerPage, !opts.Config.IncludeShorts, runner, log),
		q:          queue.New(),
		lyricsc:    lyrics.NewClient(),
		focus:      focusSearch,
		ctx:        ctx,
		cancel:     cancel,
	}
	m.spawnPlayer = func() (playbackController, error) {
		return player.Spawn(log)
	}
	m.boxer = newLayout()
	m.syncPanels()
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		updated, cmd := m.boxer.Update(msg)
		m.boxer = updated.(bubbleboxer.Boxer)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if m.shouldQuit {
			m.teardown()
			return m, tea.Quit
		}

	case tickMsg:
		cmds = append(cmds, tick())
		if m.quitRequested {
			m.teardown()
			return m, tea.Quit
		}
		if cmd := m.drainPending(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		// Polls run only after this tick's actions were applied.
		if m.engine != nil && !m.pollInFlight {
			m.pollInFlight = true
			cmds = append(cmds, pollCmd(m.engine))
		}

	case statusMsg:
		m.pollInFlight = false
		if cmd := m.handleStatus(player.Status(msg)); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case searchDoneMsg:
		m.applySearchDone(msg)

	case playStartedMsg:
		m.startingPlay = false
		if msg.err != nil {
			m.backgroundBroken = true
			m.engine = nil
			m.notice = "Player connection failed; falling back to blocking playback"
			m.log.WithError(msg.err).Warn("background playback unavailable")
		} else {
			m.engine = msg.ctrl
		}

	case downloadDoneMsg:
		if cmd := m.handleDownloadDone(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case playerExitMsg:
		m.handlePlayerExit(msg)

	case lyricsMsg:
		m.lyricsLoading = false
		if msg.err != nil {
			m.lyricsText = "No lyrics found."
		} else {
			m.lyricsText = msg.text
		}
	}

	m.syncPanels()
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	switch {
	case m.settings != nil:
		return m.settingsView()
	case m.mode == modeHelp:
		return m.helpView()
	case m.mode == modeLyrics:
		return m.lyricsView()
	default:
		return m.boxer.View()
	}
}

// teardown releases everything the session owns. Best effort on every
// path; nothing here may block quitting.
func (m *Model) teardown() {
	if m.searchCancel != nil {
		m.searchCancel()
	}
	m.cancel()
	if m.engine != nil {
		m.engine.Close()
		m.engine = nil
	}
}

// drainPending consumes the pending-action slot, at most once per tick.
func (m *Model) drainPending() tea.Cmd {
	action := m.pending
	m.pending = pendingAction{}

	switch action.kind {
	case actionNewSearch:
		if m.searchCancel != nil {
			m.searchCancel()
		}
		m.cache.Reset(action.query)
		m.results = nil
		m.exhausted = false
		m.page = 0
		m.selectedIndex = 0
		m.loading = true
		m.notice = ""
		return m.fetchCmd(0)

	case actionFetchNextPage:
		m.loading = true
		return m.fetchCmd(m.page)

	case actionPlay:
		return m.playAction(action.index)
	}
	return nil
}

// playAction enqueues the selected result and starts playback over
// whichever control path the detected player supports.
func (m *Model) playAction(index int) tea.Cmd {
	if index < 0 || index >= len(m.results) {
		return nil
	}
	track := m.results[index]
	m.q.Push(track)

	if m.cfg.DownloadMode {
		m.notice = "Downloading: " + track.Title
		return m.permanentDownloadCmd(track)
	}

	if m.playerKind.BackgroundCapable() && !m.backgroundBroken {
		if m.engine != nil && m.engine.Status().Playing {
			m.notice = "Queued: " + track.Title
			return nil
		}
		head, ok := m.q.Get(0)
		if !ok {
			return nil
		}
		return m.startBackgroundCmd(head, false)
	}

	return m.startForeground(track)
}

// startForeground hands the terminal to a blocking player invocation.
func (m *Model) startForeground(track search.Result) tea.Cmd {
	if m.playerKind == player.KindMPV {
		// mpv streams the URL directly even in blocking mode.
		cmd, err := player.MPVForegroundCommand(track.URL(), m.cfg.Format(), m.cfg.AudioOnly, m.tempDir)
		if err != nil {
			m.notice = "Playback failed: " + err.Error()
			return nil
		}
		return tea.ExecProcess(cmd, func(err error) tea.Msg {
			return playerExitMsg{err: err}
		})
	}
	m.notice = "Downloading: " + track.Title
	return m.tempDownloadCmd(track)
}

// startBackgroundCmd spawns the engine if needed and loads the track.
func (m *Model) startBackgroundCmd(track search.Result, paused bool) tea.Cmd {
	if m.startingPlay {
		return nil
	}
	m.startingPlay = true
	ctrl := m.engine
	spawn := m.spawnPlayer
	url, title := track.URL(), track.Title
	return func() tea.Msg {
		if ctrl == nil {
			var err error
			ctrl, err = spawn()
			if err != nil {
				return playStartedMsg{err: err}
			}
		}
		var err error
		if paused {
			err = ctrl.LoadPaused(url, title)
		} else {
			err = ctrl.Play(url, title)
		}
		if err != nil {
			// The attempt is dead; the session is not.
			ctrl.Close()
			return playStartedMsg{err: err}
		}
		return playStartedMsg{ctrl: ctrl}
	}
}

// handleStatus reconciles a fresh poll against the queue: an end of
// stream means the head track finished.
func (m *Model) handleStatus(st player.Status) tea.Cmd {
	if m.engine == nil || !st.EOFReached {
		return nil
	}
	if m.startingPlay {
		// A load is already in flight; this eof flag is stale. The next
		// poll after the load lands reconciles the queue.
		return nil
	}

	finished, _ := m.q.PopFront()
	m.log.WithField("title", finished.Title).Debug("track finished")

	next, ok := m.q.Get(0)
	if !ok {
		m.engine.Close()
		m.engine = nil
		return nil
	}
	return m.startBackgroundCmd(next, !m.cfg.AutoplayNext)
}

// applySearchDone folds a finished batch fetch into the visible state.
func (m *Model) applySearchDone(msg searchDoneMsg) {
	if msg.query != m.cache.Query() {
		// A newer query reset the cache while this fetch was in flight.
		return
	}
	m.loading = false
	m.results = msg.results
	m.exhausted = msg.exhausted

	if msg.err != nil {
		m.log.WithError(msg.err).Warn("search fetch failed")
	}

	pageSize := m.cfg.ResultsPerPage
	if m.page > 0 && m.page*pageSize >= len(m.results) {
		// The requested page never filled up; clamp back instead of
		// showing a partially-empty page.
		maxPage := 0
		if len(m.results) > 0 {
			maxPage = (len(m.results) - 1) / pageSize
		}
		m.page = maxPage
		m.notice = "No more results"
	}
	if len(m.results) == 0 && m.query() != "" {
		m.notice = "No results for: " + m.query()
	}
	if m.selectedIndex >= len(m.pageResults()) {
		m.selectedIndex = 0
	}
}

func (m *Model) handleDownloadDone(msg downloadDoneMsg) tea.Cmd {
	if msg.err != nil {
		m.notice = "Download failed: " + msg.track.Title
		m.log.WithError(msg.err).WithField("title", msg.track.Title).Error("download failed")
		m.q.PopFront()
		return nil
	}
	if msg.permanent {
		m.notice = "Downloaded to: " + m.cfg.DownloadDir
		m.q.PopFront()
		return nil
	}
	m.pendingTemp = msg.path
	cmd := player.ForegroundCommand(m.playerKind, msg.path)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return playerExitMsg{err: err}
	})
}

func (m *Model) handlePlayerExit(msg playerExitMsg) {
	if m.pendingTemp != "" && !m.cfg.KeepTemp {
		_ = os.Remove(m.pendingTemp)
	}
	m.pendingTemp = ""
	m.q.PopFront()

	switch player.InterpretExit(msg.err) {
	case player.OutcomeFinished, player.OutcomeReturnToMenu:
		m.notice = "Playback finished"
	default:
		m.notice = "Player exited with an error"
		m.log.WithError(msg.err).Warn("foreground player failed")
	}
}

// query returns the query currently shown in the search bar header.
func (m *Model) query() string {
	return m.cache.Query()
}

// pageResults returns the slice of results visible on the current page.
func (m *Model) pageResults() []search.Result {
	pageSize := m.cfg.ResultsPerPage
	start := m.page * pageSize
	if start >= len(m.results) {
		return nil
	}
	end := start + pageSize
	if end > len(m.results) {
		end = len(m.results)
	}
	return m.results[start:end]
}

func (m *Model) hasNextPage() bool {
	end := (m.page + 1) * m.cfg.ResultsPerPage
	return end < len(m.results) || !m.exhausted
}

func (m *Model) hasPrevPage() bool {
	return m.page > 0
}

// Run starts the session and blocks until it quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
