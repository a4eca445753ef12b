package model

import (
	"strings"
	"time"
)

// Settings bounds and defaults
const (
	DefaultMaxWords     = 1000
	MinSyncIntervalMs   = 60_000
	DefaultSyncInterval = 300_000
)

// Settings holds the user-facing sync configuration. It is persisted by the
// store, not read from the process config file.
type Settings struct {
	ServerURL       string `json:"server_url" validate:"omitempty,url,startswith=http"`
	APIKey          string `json:"api_key"`
	AutoSyncEnabled bool   `json:"auto_sync_enabled"`
	SyncIntervalMs  int    `json:"sync_interval_ms" validate:"gte=0"`
	MaxWords        int    `json:"max_words" validate:"gte=0"`
}

// DefaultSettings returns settings for a fresh install: no server configured,
// autosync off until the user opts in.
func DefaultSettings() Settings {
	return Settings{
		ServerURL:       "",
		APIKey:          "",
		AutoSyncEnabled: false,
		SyncIntervalMs:  DefaultSyncInterval,
		MaxWords:        DefaultMaxWords,
	}
}

// Normalize clamps out-of-range values instead of rejecting them.
func (s *Settings) Normalize() {
	s.ServerURL = strings.TrimRight(strings.TrimSpace(s.ServerURL), "/")
	s.APIKey = strings.TrimSpace(s.APIKey)
	if s.MaxWords <= 0 {
		s.MaxWords = DefaultMaxWords
	}
	if s.SyncIntervalMs < MinSyncIntervalMs {
		s.SyncIntervalMs = MinSyncIntervalMs
	}
}

// SyncInterval returns the autosync period as a duration.
func (s Settings) SyncInterval() time.Duration {
	return time.Duration(s.SyncIntervalMs) * time.Millisecond
}

// ServerConfigured reports whether both the URL and the key are present.
func (s Settings) ServerConfigured() bool {
	return s.ServerURL != "" && s.APIKey != ""
}

// Redacted returns a copy safe for logging and display: the API key is
// replaced with a fixed mask and never leaves the process in clear.
func (s Settings) Redacted() Settings {
	out := s
	if out.APIKey != "" {
		out.APIKey = "********"
	}
	return out
}
