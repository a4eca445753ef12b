package router

import (
	"encoding/json"

	"github.com/mfedotov/wortschatz/internal/model"
)

// Message types understood by the router. Anything else yields an
// unknown-message envelope.
const (
	TypeCollectWord        = "collectWord"
	TypeCollectWithContext = "collectWithContext"
	TypeSyncToServer       = "syncToServer"
	TypeGetStats           = "getStats"
	TypeGetWords           = "getWords"
	TypeDeleteWord         = "deleteWord"
	TypeClearAll           = "clearAll"
	TypeUpdateSettings     = "updateSettings"
	TypeTestConnection     = "testConnection"
	TypeGetUsage           = "getUsage"
	TypeCleanup            = "cleanup"
)

// Message is the inbound envelope: a type tag plus a payload decoded per
// variant below.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the outbound envelope. Exactly one of Data and Error is set.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CollectPayload is the body of collectWord and collectWithContext.
type CollectPayload struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"` // collectWithContext only
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
}

// GetWordsPayload is the body of getWords.
type GetWordsPayload struct {
	Limit  int    `json:"limit,omitempty"`
	Search string `json:"search,omitempty"`
}

// DeleteWordPayload is the body of deleteWord.
type DeleteWordPayload struct {
	WordID string `json:"wordId"`
}

// SettingsPayload is the body of updateSettings. Absent fields leave the
// current value untouched.
type SettingsPayload struct {
	ServerURL       *string `json:"server_url,omitempty"`
	APIKey          *string `json:"api_key,omitempty"`
	AutoSyncEnabled *bool   `json:"auto_sync_enabled,omitempty"`
	SyncIntervalMs  *int    `json:"sync_interval_ms,omitempty"`
	MaxWords        *int    `json:"max_words,omitempty"`
}

// Apply merges the payload over existing settings.
func (p SettingsPayload) Apply(s model.Settings) model.Settings {
	if p.ServerURL != nil {
		s.ServerURL = *p.ServerURL
	}
	if p.APIKey != nil {
		s.APIKey = *p.APIKey
	}
	if p.AutoSyncEnabled != nil {
		s.AutoSyncEnabled = *p.AutoSyncEnabled
	}
	if p.SyncIntervalMs != nil {
		s.SyncIntervalMs = *p.SyncIntervalMs
	}
	if p.MaxWords != nil {
		s.MaxWords = *p.MaxWords
	}
	return s
}

// TestConnectionPayload is the body of testConnection.
type TestConnectionPayload struct {
	ServerURL string `json:"serverUrl"`
	APIKey    string `json:"apiKey"`
}

// CollectedWord is the data of a successful collect response.
type CollectedWord struct {
	Word   *model.Word `json:"word"`
	Tokens []string    `json:"tokens,omitempty"` // learnable tokens found in the selection
}

// StatusMessage is the data of delete/clear/cleanup responses.
type StatusMessage struct {
	Message string `json:"message"`
	Removed int    `json:"removed,omitempty"`
}
