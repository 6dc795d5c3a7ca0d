package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ExitReturnToMenu is the player exit code bound to "go back to the
// results view" (an input-conf binding written at launch).
const ExitReturnToMenu = 42

// Outcome classifies how a blocking player invocation ended.
type Outcome int

const (
	OutcomeFinished Outcome = iota
	OutcomeReturnToMenu
	OutcomeFailed
)

// InterpretExit maps the error from a finished blocking player process to
// an Outcome. Nothing here is fatal to the session.
func InterpretExit(err error) Outcome {
	if err == nil {
		return OutcomeFinished
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == ExitReturnToMenu {
			return OutcomeReturnToMenu
		}
	}
	return OutcomeFailed
}

// MPVForegroundCommand builds a blocking mpv invocation that streams url
// directly, with "r" bound to the return-to-menu exit code.
func MPVForegroundCommand(url, format string, audioOnly bool, tempDir string) (*exec.Cmd, error) {
	inputConf := filepath.Join(tempDir, "mpv-input.conf")
	binding := fmt.Sprintf("r quit %d\n", ExitReturnToMenu)
	if err := os.WriteFile(inputConf, []byte(binding), 0o644); err != nil {
		return nil, fmt.Errorf("write mpv input conf: %w", err)
	}

	args := []string{
		"--ytdl-format=" + format,
		"--input-conf=" + inputConf,
	}
	if audioOnly {
		args = append([]string{"--no-video"}, args...)
	}
	args = append(args, url)
	return exec.Command("mpv", args...), nil
}

// ForegroundCommand builds the blocking invocation for a player that can
// only play a local file.
func ForegroundCommand(kind Kind, path string) *exec.Cmd {
	switch kind {
	case KindVLC:
		cmd := exec.Command("vlc", "--play-and-exit", "--no-video-title-show", path)
		cmd.Stdout = nil
		cmd.Stderr = nil
		return cmd
	default:
		return exec.Command("mplayer", "-quiet", path)
	}
}

// TempDownload fetches url into tempDir for a foreground-only player and
// returns the downloaded file path.
func TempDownload(ctx context.Context, format string, audioOnly bool, url, safeTitle, tempDir string) (string, error) {
	ext := "mp4"
	if audioOnly {
		ext = "mp3"
	}
	outPath := filepath.Join(tempDir, safeTitle+"."+ext)

	if err := runYtdlp(ctx, format, audioOnly, outPath, url); err != nil {
		return "", err
	}

	if _, err := os.Stat(outPath); err == nil {
		return outPath, nil
	}
	// yt-dlp may pick a different extension.
	if found, ok := findDownloaded(tempDir); ok {
		return found, nil
	}
	return "", errors.New("downloaded file not found")
}

// DownloadPermanently saves url into downloadDir under the video title.
func DownloadPermanently(ctx context.Context, format string, audioOnly bool, url, downloadDir string) error {
	template := filepath.Join(downloadDir, "%(title)s.%(ext)s")
	return runYtdlp(ctx, format, audioOnly, template, url)
}

func runYtdlp(ctx context.Context, format string, audioOnly bool, output, url string) error {
	args := []string{"-f", format}
	if audioOnly {
		args = append(args, "-x", "--audio-format", "mp3", "--audio-quality", "0")
	}
	args = append(args, "-o", output, url)

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp download failed: %w", err)
	}
	return nil
}

func findDownloaded(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".part" || ext == ".conf" {
			continue
		}
		return filepath.Join(dir, entry.Name()), true
	}
	return "", false
}
