package player

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretExit(t *testing.T) {
	returnErr := exec.Command("sh", "-c", "exit 42").Run()
	require.Error(t, returnErr)
	failErr := exec.Command("sh", "-c", "exit 1").Run()
	require.Error(t, failErr)

	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{name: "clean exit", err: nil, want: OutcomeFinished},
		{name: "return-to-menu code", err: returnErr, want: OutcomeReturnToMenu},
		{name: "other exit code", err: failErr, want: OutcomeFailed},
		{name: "non-exit error", err: errors.New("spawn failed"), want: OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterpretExit(tt.err))
		})
	}
}

func TestMPVForegroundCommand(t *testing.T) {
	dir := t.TempDir()

	cmd, err := MPVForegroundCommand("https://www.youtube.com/watch?v=abc", "best", false, dir)
	require.NoError(t, err)

	conf, err := os.ReadFile(filepath.Join(dir, "mpv-input.conf"))
	require.NoError(t, err)
	assert.Equal(t, "r quit 42\n", string(conf))

	assert.Contains(t, cmd.Args, "--ytdl-format=best")
	assert.Contains(t, cmd.Args, "--input-conf="+filepath.Join(dir, "mpv-input.conf"))
	assert.NotContains(t, cmd.Args, "--no-video")
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", cmd.Args[len(cmd.Args)-1])
}

func TestMPVForegroundCommandAudioOnly(t *testing.T) {
	cmd, err := MPVForegroundCommand("url", "bestaudio", true, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, cmd.Args, "--no-video")
}

func TestForegroundCommand(t *testing.T) {
	vlc := ForegroundCommand(KindVLC, "/tmp/file.mp4")
	assert.Equal(t, []string{"vlc", "--play-and-exit", "--no-video-title-show", "/tmp/file.mp4"}, vlc.Args)

	mplayer := ForegroundCommand(KindMplayer, "/tmp/file.mp4")
	assert.Equal(t, []string{"mplayer", "-quiet", "/tmp/file.mp4"}, mplayer.Args)
}

func TestFindDownloaded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leftover.part"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mpv-input.conf"), nil, 0o644))

	_, ok := findDownloaded(dir)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Track.webm"), nil, 0o644))
	found, ok := findDownloaded(dir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Track.webm"), found)
}
