package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfedotov/wortschatz/internal/apperr"
	"github.com/mfedotov/wortschatz/internal/model"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return NewStore(NewMemoryBackend(), opts...)
}

func TestSaveWordAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	word, err := store.SaveWord(ctx, model.WordDraft{Text: "  Hund  "})
	require.NoError(t, err)

	assert.NotEmpty(t, word.ID)
	assert.Equal(t, "Hund", word.Text)
	assert.Equal(t, model.KindDirect, word.Kind)
	assert.False(t, word.Synced)
	assert.False(t, word.CreatedAt.IsZero())
}

func TestSaveWordDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		word, err := store.SaveWord(ctx, model.WordDraft{Text: "Wort"})
		require.NoError(t, err)
		assert.False(t, seen[word.ID], "duplicate id %s", word.ID)
		seen[word.ID] = true
	}
}

func TestSaveWordValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \t\n "},
		{"over 500 characters", strings.Repeat("x", 501)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.SaveWord(ctx, model.WordDraft{Text: tt.text})
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}

	// Exactly 500 characters is still fine.
	_, err := store.SaveWord(ctx, model.WordDraft{Text: strings.Repeat("x", 500)})
	require.NoError(t, err)
}

func TestSaveWordThenGetOne(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	saved, err := store.SaveWord(ctx, model.WordDraft{Text: "Katze"})
	require.NoError(t, err)

	words, err := store.Words(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, saved.ID, words[0].ID)
	assert.False(t, words[0].Synced)
}

func TestSaveWordContextKind(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	word, err := store.SaveWord(ctx, model.WordDraft{
		Text:    "Hund",
		Kind:    model.KindContext,
		Context: "Der große Hund rennt schnell.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.KindContext, word.Kind)
	assert.Equal(t, "Der große Hund rennt schnell.", word.Context)

	// A context kind without a context degrades to direct.
	word, err = store.SaveWord(ctx, model.WordDraft{Text: "Katze", Kind: model.KindContext})
	require.NoError(t, err)
	assert.Equal(t, model.KindDirect, word.Kind)
	assert.Empty(t, word.Context)
}

func TestCapEviction(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	settings := model.DefaultSettings()
	settings.MaxWords = 3
	_, err := store.SaveSettings(ctx, settings)
	require.NoError(t, err)

	for _, text := range []string{"eins", "zwei", "drei", "vier", "fünf"} {
		_, err := store.SaveWord(ctx, model.WordDraft{Text: text})
		require.NoError(t, err)
	}

	words, err := store.Words(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, words, 3)

	// Newest first; the two oldest were evicted.
	assert.Equal(t, "fünf", words[0].Text)
	assert.Equal(t, "vier", words[1].Text)
	assert.Equal(t, "drei", words[2].Text)
}

func TestWordsNewestFirstAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)
	_, err = store.SaveWord(ctx, model.WordDraft{
		Text:    "Katze",
		Kind:    model.KindContext,
		Context: "Die Katze jagt den Hund durch den Garten.",
	})
	require.NoError(t, err)
	_, err = store.SaveWord(ctx, model.WordDraft{Text: "Vogel"})
	require.NoError(t, err)

	words, err := store.Words(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, words, 3)
	assert.Equal(t, "Vogel", words[0].Text)
	assert.Equal(t, "Hund", words[2].Text)

	// Search matches text and context, case-insensitive.
	matches, err := store.Words(ctx, 0, "hund")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Limit truncates after filtering.
	matches, err = store.Words(ctx, 1, "hund")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Katze", matches[0].Text)
}

func TestDeleteWord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	word, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	removed, err := store.DeleteWord(ctx, word.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	// Absent id: false, not an error, collection unchanged.
	removed, err = store.DeleteWord(ctx, "no-such-id")
	require.NoError(t, err)
	assert.False(t, removed)

	words, err := store.Words(ctx, 0, "")
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestClearAllPreservesSettingsAndSyncHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	settings := model.DefaultSettings()
	settings.ServerURL = "https://words.example.de"
	settings.APIKey = "secret"
	_, err := store.SaveSettings(ctx, settings)
	require.NoError(t, err)

	_, err = store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)
	require.NoError(t, store.RecordSync(ctx, time.Now()))

	require.NoError(t, store.ClearAll(ctx))

	words, err := store.Words(ctx, 0, "")
	require.NoError(t, err)
	assert.Empty(t, words)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalWords)
	assert.Equal(t, 1, stats.SyncCount)
	assert.NotNil(t, stats.LastSync)

	got, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://words.example.de", got.ServerURL)
	assert.Equal(t, "secret", got.APIKey)
}

func TestMarkSynced(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)
	second, err := store.SaveWord(ctx, model.WordDraft{Text: "Katze"})
	require.NoError(t, err)

	// Absent ids are silently ignored.
	require.NoError(t, store.MarkSynced(ctx, []string{first.ID, "gone"}))

	unsynced, err := store.Unsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, second.ID, unsynced[0].ID)

	// Marking again is a no-op; synced never reverts.
	require.NoError(t, store.MarkSynced(ctx, []string{first.ID}))
	words, err := store.Words(ctx, 0, "")
	require.NoError(t, err)
	for _, w := range words {
		if w.ID == first.ID {
			assert.True(t, w.Synced)
		}
	}
}

func TestCleanupRetention(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	current := now.Add(-60 * 24 * time.Hour)
	store := newTestStore(t, WithClock(func() time.Time { return current }))

	oldSynced, err := store.SaveWord(ctx, model.WordDraft{Text: "alt-synced"})
	require.NoError(t, err)
	oldUnsynced, err := store.SaveWord(ctx, model.WordDraft{Text: "alt-pending"})
	require.NoError(t, err)
	require.NoError(t, store.MarkSynced(ctx, []string{oldSynced.ID}))

	current = now
	fresh, err := store.SaveWord(ctx, model.WordDraft{Text: "neu"})
	require.NoError(t, err)
	require.NoError(t, store.MarkSynced(ctx, []string{fresh.ID}))

	removed, err := store.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	words, err := store.Words(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, words, 2)

	ids := []string{words[0].ID, words[1].ID}
	assert.Contains(t, ids, oldUnsynced.ID, "unsynced words survive the window")
	assert.Contains(t, ids, fresh.ID)
	assert.NotContains(t, ids, oldSynced.ID)
}

func TestStatsRecompute(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)
	_, err = store.SaveWord(ctx, model.WordDraft{
		Text:    "Katze",
		Kind:    model.KindContext,
		Context: "Die Katze schläft auf dem Sofa.",
	})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalWords)
	assert.Equal(t, 1, stats.DirectWords)
	assert.Equal(t, 1, stats.ContextWords)
}

func TestUsageAccounting(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	usage, err := store.Usage(ctx)
	require.NoError(t, err)
	assert.Positive(t, usage.WordsBytes)
	assert.Positive(t, usage.SettingsBytes)
	assert.Equal(t, usage.WordsBytes+usage.SettingsBytes, usage.TotalBytes)
}

func TestSaveSettingsValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bad := model.DefaultSettings()
	bad.ServerURL = "not a url"
	_, err := store.SaveSettings(ctx, bad)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	good := model.DefaultSettings()
	good.ServerURL = "https://words.example.de/"
	good.SyncIntervalMs = 5 // clamped, not rejected
	saved, err := store.SaveSettings(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, "https://words.example.de", saved.ServerURL)
	assert.Equal(t, model.MinSyncIntervalMs, saved.SyncIntervalMs)
}

func TestEventsPublished(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	events, cancel := store.Subscribe(8)
	defer cancel()

	word, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, EventWordAdded, ev.Kind)
		assert.Equal(t, word.ID, ev.WordID)
		assert.Equal(t, 1, ev.Stats.TotalWords)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}
