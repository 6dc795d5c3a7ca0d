// Package deps checks that the external tools this program drives are
// actually installed.
package deps

import (
	"errors"
	"os/exec"

	"yttui/player"
)

// ErrNoPlayer means none of the supported media players is installed.
var ErrNoPlayer = errors.New("no supported media player found (mpv, vlc, mplayer)")

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// CheckYtdlp verifies the search/download tool is on PATH.
func CheckYtdlp() error {
	if _, err := lookPath("yt-dlp"); err != nil {
		return errors.New("yt-dlp is not installed; install it with: pip install yt-dlp")
	}
	return nil
}

// DetectPlayer picks the best installed player, preferring the one that
// can be driven in the background.
func DetectPlayer() (player.Kind, error) {
	candidates := []struct {
		binary string
		kind   player.Kind
	}{
		{"mpv", player.KindMPV},
		{"vlc", player.KindVLC},
		{"mplayer", player.KindMplayer},
	}
	for _, c := range candidates {
		if _, err := lookPath(c.binary); err == nil {
			return c.kind, nil
		}
	}
	return 0, ErrNoPlayer
}
