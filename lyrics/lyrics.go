// Package lyrics looks up lyrics for the now-playing track.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is one lyrics lookup outcome.
type Result struct {
	Plain  string
	Synced string // LRC format with timestamps
	Source string
	Found  bool
}

// Provider is one lyrics source.
type Provider interface {
	Lookup(ctx context.Context, track, artist string) (Result, error)
	Name() string
}

// Client tries each provider in order until one finds lyrics.
type Client struct {
	providers []Provider
}

// NewClient builds a client with the default provider chain.
func NewClient() *Client {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &Client{
		providers: []Provider{
			&lrclib{client: httpClient},
		},
	}
}

// Lookup fetches lyrics for a track, falling through the provider chain.
func (c *Client) Lookup(ctx context.Context, track, artist string) (Result, error) {
	var lastErr error
	for _, p := range c.providers {
		res, err := p.Lookup(ctx, track, artist)
		if err == nil && res.Found {
			return res, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return Result{}, fmt.Errorf("no lyrics found: %w", lastErr)
	}
	return Result{}, errors.New("no lyrics found")
}

type lrclib struct {
	client  *http.Client
	baseURL string
}

func (p *lrclib) Name() string { return "LRCLIB" }

type lrclibResponse struct {
	Instrumental bool   `json:"instrumental"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

func (p *lrclib) Lookup(ctx context.Context, track, artist string) (Result, error) {
	params := url.Values{}
	params.Add("artist_name", cleanQuery(artist))
	params.Add("track_name", cleanQuery(track))

	base := p.baseURL
	if base == "" {
		base = "https://lrclib.net/api/get"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		base+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("lrclib request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Result{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("lrclib returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	var lr lrclibResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return Result{}, fmt.Errorf("parse lrclib response: %w", err)
	}

	if lr.Instrumental {
		return Result{Plain: "[Instrumental]", Source: p.Name(), Found: true}, nil
	}
	if lr.PlainLyrics == "" && lr.SyncedLyrics == "" {
		return Result{}, nil
	}
	return Result{
		Plain:  lr.PlainLyrics,
		Synced: lr.SyncedLyrics,
		Source: p.Name(),
		Found:  true,
	}, nil
}

// cleanQuery strips featuring credits and bracketed qualifiers that make
// exact-match lookups miss.
func cleanQuery(q string) string {
	q = strings.TrimSpace(q)
	lower := strings.ToLower(q)
	if idx := strings.Index(lower, " feat"); idx != -1 {
		q = q[:idx]
	}
	if idx := strings.Index(strings.ToLower(q), " ft."); idx != -1 {
		q = q[:idx]
	}
	if idx := strings.Index(q, "("); idx != -1 {
		q = q[:idx]
	}
	if idx := strings.Index(q, "["); idx != -1 {
		q = q[:idx]
	}
	return strings.TrimSpace(q)
}
