// Package config loads and persists the tool's settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every resolved setting the session needs.
type Config struct {
	// Search
	ResultsPerPage int
	IncludeShorts  bool

	// Playback
	AudioOnly      bool
	LimitBandwidth bool
	AutoplayNext   bool

	// Download
	DownloadMode bool
	DownloadDir  string
	KeepTemp     bool

	// Custom yt-dlp format; empty means derive from the flags above.
	CustomFormat string

	// Logging
	LogLevel string

	path string
}

// Load reads the config file under the user config dir, creating it with
// defaults on first run.
func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return LoadFrom(filepath.Join(configDir, "yttui"))
}

// LoadFrom reads config.yaml inside dir.
func LoadFrom(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	home, _ := os.UserHomeDir()
	v.SetDefault("results_per_page", 10)
	v.SetDefault("include_shorts", false)
	v.SetDefault("audio_only", false)
	v.SetDefault("limit_bandwidth", false)
	v.SetDefault("autoplay_next", true)
	v.SetDefault("download_mode", false)
	v.SetDefault("download_dir", filepath.Join(home, "Downloads"))
	v.SetDefault("keep_temp", false)
	v.SetDefault("custom_format", "")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := v.SafeWriteConfigAs(filepath.Join(dir, "config.yaml")); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	cfg := &Config{
		ResultsPerPage: v.GetInt("results_per_page"),
		IncludeShorts:  v.GetBool("include_shorts"),
		AudioOnly:      v.GetBool("audio_only"),
		LimitBandwidth: v.GetBool("limit_bandwidth"),
		AutoplayNext:   v.GetBool("autoplay_next"),
		DownloadMode:   v.GetBool("download_mode"),
		DownloadDir:    v.GetString("download_dir"),
		KeepTemp:       v.GetBool("keep_temp"),
		CustomFormat:   v.GetString("custom_format"),
		LogLevel:       v.GetString("log_level"),
		path:           filepath.Join(dir, "config.yaml"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ResultsPerPage < 1 || c.ResultsPerPage > 100 {
		return fmt.Errorf("results_per_page must be between 1 and 100, got %d", c.ResultsPerPage)
	}
	return nil
}

// Dir returns the directory the config file lives in.
func (c *Config) Dir() string {
	return filepath.Dir(c.path)
}

// Format returns the yt-dlp format selector in effect.
func (c *Config) Format() string {
	if s := strings.TrimSpace(c.CustomFormat); s != "" {
		return s
	}
	switch {
	case c.AudioOnly && c.LimitBandwidth:
		return "bestaudio[abr<=128]/bestaudio/best"
	case c.AudioOnly:
		return "bestaudio/best"
	case c.LimitBandwidth:
		return "bestvideo[height<=360]+bestaudio/best[height<=360]/best"
	default:
		return "bestvideo+bestaudio/best"
	}
}

// Save writes the current settings back to the config file.
func (c *Config) Save() error {
	if c.path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("results_per_page", c.ResultsPerPage)
	v.Set("include_shorts", c.IncludeShorts)
	v.Set("audio_only", c.AudioOnly)
	v.Set("limit_bandwidth", c.LimitBandwidth)
	v.Set("autoplay_next", c.AutoplayNext)
	v.Set("download_mode", c.DownloadMode)
	v.Set("download_dir", c.DownloadDir)
	v.Set("keep_temp", c.KeepTemp)
	v.Set("custom_format", c.CustomFormat)
	v.Set("log_level", c.LogLevel)
	if err := v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Draft is an editable copy of the settings. Edits accumulate in the
// draft and only reach the config (and disk) on Commit, so half-typed
// values are never persisted.
type Draft struct {
	ResultsPerPage string
	IncludeShorts  bool
	AudioOnly      bool
	LimitBandwidth bool
	AutoplayNext   bool
	DownloadMode   bool
	DownloadDir    string
	KeepTemp       bool
	CustomFormat   string
}

// NewDraft copies the live settings into a draft.
func NewDraft(c *Config) *Draft {
	return &Draft{
		ResultsPerPage: fmt.Sprintf("%d", c.ResultsPerPage),
		IncludeShorts:  c.IncludeShorts,
		AudioOnly:      c.AudioOnly,
		LimitBandwidth: c.LimitBandwidth,
		AutoplayNext:   c.AutoplayNext,
		DownloadMode:   c.DownloadMode,
		DownloadDir:    c.DownloadDir,
		KeepTemp:       c.KeepTemp,
		CustomFormat:   c.CustomFormat,
	}
}

// Commit validates the draft, applies it to cfg and saves. The config is
// untouched when validation fails.
func (d *Draft) Commit(cfg *Config) error {
	perPage, err := parsePageSize(d.ResultsPerPage)
	if err != nil {
		return err
	}
	cfg.ResultsPerPage = perPage
	cfg.IncludeShorts = d.IncludeShorts
	cfg.AudioOnly = d.AudioOnly
	cfg.LimitBandwidth = d.LimitBandwidth
	cfg.AutoplayNext = d.AutoplayNext
	cfg.DownloadMode = d.DownloadMode
	cfg.DownloadDir = d.DownloadDir
	cfg.KeepTemp = d.KeepTemp
	cfg.CustomFormat = d.CustomFormat
	return cfg.Save()
}

func parsePageSize(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return 0, fmt.Errorf("results per page must be a number, got %q", s)
	}
	if n < 1 || n > 100 {
		return 0, fmt.Errorf("results per page must be between 1 and 100, got %d", n)
	}
	return n, nil
}
