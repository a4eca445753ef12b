package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// WordKind categorizes how a word was captured
type WordKind string

const (
	KindDirect  WordKind = "direct"  // Bare selection, no surrounding sentence
	KindContext WordKind = "context" // Selection with a containing sentence attached
)

// Word text bounds, measured after trimming
const (
	MinTextLen = 1
	MaxTextLen = 500
)

// Word represents a single captured vocabulary item.
// Identity (ID, CreatedAt) is immutable; only Synced may change after creation.
type Word struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Kind        WordKind  `json:"kind"`
	Context     string    `json:"context,omitempty"` // Present iff Kind == KindContext
	SourceURL   string    `json:"source_url,omitempty"`
	SourceTitle string    `json:"source_title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Synced      bool      `json:"synced"`
}

// WordDraft is the caller-supplied portion of a Word, before the store
// assigns identity and sync state.
type WordDraft struct {
	Text        string   `json:"text"`
	Kind        WordKind `json:"kind"`
	Context     string   `json:"context,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	SourceTitle string   `json:"source_title,omitempty"`
}

// ValidText reports whether the draft text is acceptable after trimming.
func ValidText(text string) bool {
	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)
	return n >= MinTextLen && n <= MaxTextLen
}

// WireWord is the record shape the remote add-list endpoint accepts
type WireWord struct {
	Word            string  `json:"word"`
	Date            string  `json:"date"` // YYYY-MM-DD
	ContextSentence *string `json:"context_sentence"`
	NeedsArticle    bool    `json:"needs_article"`
}

// ToWire maps a Word to its wire record.
func ToWire(w Word) WireWord {
	rec := WireWord{
		Word:         w.Text,
		Date:         w.CreatedAt.Format("2006-01-02"),
		NeedsArticle: w.Kind == KindContext,
	}
	if w.Context != "" {
		ctx := w.Context
		rec.ContextSentence = &ctx
	}
	return rec
}

// WirePayload is the request body for the add-list endpoint
type WirePayload struct {
	Words []WireWord `json:"words"`
}
