// Package player owns the external media player: spawning it, talking to
// it over its socket protocol, and tracking last-known playback status.
package player

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Kind identifies the detected media player binary.
type Kind int

const (
	KindMPV Kind = iota
	KindVLC
	KindMplayer
)

func (k Kind) String() string {
	switch k {
	case KindMPV:
		return "mpv"
	case KindVLC:
		return "vlc"
	case KindMplayer:
		return "mplayer"
	default:
		return "unknown"
	}
}

// BackgroundCapable reports whether the player can be driven over the
// socket protocol while the interactive view stays on screen. Resolved
// once at detection time; it picks which control path the session takes.
func (k Kind) BackgroundCapable() bool {
	return k == KindMPV
}

// ErrConnectTimeout means the spawned player never exposed its socket in
// time. Fatal to the play attempt, not to the session.
var ErrConnectTimeout = errors.New("player socket not created in time")

const connectTimeout = 2 * time.Second

// Status is the last polled playback state.
type Status struct {
	Playing    bool
	Paused     bool
	TimePos    float64
	Duration   float64
	Volume     int
	Title      string
	EOFReached bool
}

// DefaultStatus is the state before anything has played.
func DefaultStatus() Status {
	return Status{Volume: 100}
}

// Engine spawns one mpv instance in idle mode and controls it over its
// socket. One engine owns one process and its socket file.
type Engine struct {
	mu sync.Mutex

	cmd        *exec.Cmd
	socketPath string
	ipc        *Channel
	status     Status
	log        *logrus.Logger

	// Overridable for tests.
	binary     string
	waitSocket time.Duration
}

// Spawn launches the player headless with a process-unique socket path.
func Spawn(log *logrus.Logger) (*Engine, error) {
	if log == nil {
		log = logrus.New()
	}
	e := &Engine{
		socketPath: fmt.Sprintf("/tmp/yttui-%d.sock", os.Getpid()),
		status:     DefaultStatus(),
		log:        log,
		binary:     "mpv",
		waitSocket: connectTimeout,
	}
	if err := e.start(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) start() error {
	cmd := exec.Command(e.binary,
		"--idle",
		"--input-ipc-server="+e.socketPath,
		"--no-video",
	)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", e.binary, err)
	}
	e.cmd = cmd
	e.log.WithFields(logrus.Fields{
		"pid":    cmd.Process.Pid,
		"socket": e.socketPath,
	}).Info("player spawned")
	return nil
}

// Connect waits for the socket to appear and opens the channel.
func (e *Engine) Connect() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connectLocked()
}

func (e *Engine) connectLocked() error {
	if e.ipc != nil {
		return nil
	}
	deadline := time.Now().Add(e.waitSocket)
	for {
		if _, err := os.Stat(e.socketPath); err == nil {
			break
		}
		if time.Now().After(deadline) {
			return ErrConnectTimeout
		}
		time.Sleep(100 * time.Millisecond)
	}
	ch, err := DialChannel(e.socketPath)
	if err != nil {
		return err
	}
	e.ipc = ch
	return nil
}

// Play loads url and starts playback, connecting first if needed.
func (e *Engine) Play(url, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.connectLocked(); err != nil {
		return err
	}
	if err := e.ipc.Send("loadfile", url); err != nil {
		return err
	}
	e.status.Title = title
	e.status.Playing = true
	e.status.Paused = false
	e.status.EOFReached = false
	return nil
}

// LoadPaused loads url ready to play but immediately paused. Used when
// the autoplay policy is off.
func (e *Engine) LoadPaused(url, title string) error {
	if err := e.Play(url, title); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ipc.Send("set_property", "pause", true); err != nil {
		return err
	}
	e.status.Paused = true
	return nil
}

// TogglePause cycles pause and flips the local flag optimistically; the
// next poll reconciles it against the player.
func (e *Engine) TogglePause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ipc == nil {
		return nil
	}
	if err := e.ipc.Send("cycle", "pause"); err != nil {
		return err
	}
	e.status.Paused = !e.status.Paused
	return nil
}

// Seek moves playback position relative to the current one.
func (e *Engine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ipc == nil {
		return nil
	}
	return e.ipc.Send("seek", fmt.Sprintf("%g", seconds), "relative")
}

// SetVolume clamps percent to [0,100], sends it and records it locally.
func (e *Engine) SetVolume(percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ipc == nil {
		return nil
	}
	if err := e.ipc.Send("set_property", "volume", percent); err != nil {
		return err
	}
	e.status.Volume = percent
	return nil
}

// Stop halts playback and resets status to defaults.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ipc == nil {
		return nil
	}
	if err := e.ipc.Send("stop"); err != nil {
		return err
	}
	e.status = DefaultStatus()
	return nil
}

// PollStatus refreshes the local status from the player. Each property
// read that fails is skipped for this poll; the player being mid
// transition between files must not abort the refresh of the others.
func (e *Engine) PollStatus() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ipc == nil {
		return
	}

	if v, ok := getFloat(e.ipc, "time-pos"); ok {
		e.status.TimePos = v
	}
	if v, ok := getFloat(e.ipc, "duration"); ok {
		e.status.Duration = v
	}
	if v, ok := getBool(e.ipc, "pause"); ok {
		e.status.Paused = v
	}
	if v, ok := getFloat(e.ipc, "volume"); ok {
		e.status.Volume = int(v)
	}
	if v, ok := getBool(e.ipc, "eof-reached"); ok {
		e.status.EOFReached = v
	}
}

func getFloat(c *Channel, name string) (float64, bool) {
	raw, err := c.GetProperty(name)
	if err != nil {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func getBool(c *Channel, name string) (bool, bool) {
	raw, err := c.GetProperty(name)
	if err != nil {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, false
	}
	return v, true
}

// Status returns the last-known playback status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// EndOfStream reports the last polled end-of-stream flag.
func (e *Engine) EndOfStream() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status.EOFReached
}

// Close tears the engine down: kill the process and remove the socket
// file. Best effort on every path; a stuck process never blocks quit.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ipc != nil {
		_ = e.ipc.Close()
		e.ipc = nil
	}
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
		_ = e.cmd.Wait()
	}
	_ = os.Remove(e.socketPath)
	e.status = DefaultStatus()
}
