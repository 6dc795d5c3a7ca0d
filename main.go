package main

import (
	"fmt"
	"os"

	"yttui/config"
	"yttui/deps"
	"yttui/logging"
	"yttui/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logging.New(cfg.LogLevel, cfg.Dir())

	if err := deps.CheckYtdlp(); err != nil {
		return err
	}
	kind, err := deps.DetectPlayer()
	if err != nil {
		return err
	}
	log.WithField("player", kind.String()).Info("starting session")

	tempDir, err := os.MkdirTemp("", "yttui-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	// Released on every exit path; keep-temp only skips the deletion.
	defer func() {
		if cfg.KeepTemp {
			fmt.Println("Temporary files kept at:", tempDir)
			return
		}
		_ = os.RemoveAll(tempDir)
	}()

	return tui.Run(tui.Options{
		Config:     cfg,
		Log:        log,
		PlayerKind: kind,
		TempDir:    tempDir,
	})
}
