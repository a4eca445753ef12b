package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mfedotov/wortschatz/internal/apperr"
	"github.com/mfedotov/wortschatz/internal/model"
	"github.com/mfedotov/wortschatz/internal/storage"
)

func newTestEngine(store *storage.Store) *Engine {
	return New(store, model.HTTPConfig{
		SyncTimeout: 5 * time.Second,
		TestTimeout: 2 * time.Second,
		MinGap:      time.Nanosecond,
	}, zap.NewNop())
}

func newTestStore() *storage.Store {
	return storage.NewStore(storage.NewMemoryBackend())
}

func configureServer(t *testing.T, store *storage.Store, serverURL string) {
	t.Helper()
	settings := model.DefaultSettings()
	settings.ServerURL = serverURL
	settings.APIKey = "test-key"
	_, err := store.SaveSettings(context.Background(), settings)
	require.NoError(t, err)
}

func TestSyncSuccessMarksSubmittedBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	var gotPayload model.WirePayload
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/words/add_list", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message":     "words queued for processing",
			"total_words": len(gotPayload.Words),
		})
	}))
	defer server.Close()
	configureServer(t, store, server.URL)

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)
	_, err = store.SaveWord(ctx, model.WordDraft{
		Text:    "Katze",
		Kind:    model.KindContext,
		Context: "Die Katze schläft auf dem Sofa.",
	})
	require.NoError(t, err)

	result, err := newTestEngine(store).SyncToServer(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.SyncedCount)
	assert.Equal(t, "words queued for processing", result.Message)

	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, gotPayload.Words, 2)

	// Newest first: the context word was saved second.
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, "Katze", gotPayload.Words[0].Word)
	assert.Equal(t, today, gotPayload.Words[0].Date)
	assert.True(t, gotPayload.Words[0].NeedsArticle)
	require.NotNil(t, gotPayload.Words[0].ContextSentence)
	assert.Equal(t, "Die Katze schläft auf dem Sofa.", *gotPayload.Words[0].ContextSentence)

	assert.Equal(t, "Hund", gotPayload.Words[1].Word)
	assert.False(t, gotPayload.Words[1].NeedsArticle)
	assert.Nil(t, gotPayload.Words[1].ContextSentence)

	unsynced, err := store.Unsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SyncCount)
	assert.NotNil(t, stats.LastSync)
}

func TestSyncSnapshotExcludesMidFlightInserts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A word arriving while the batch is on the wire.
		_, err := store.SaveWord(ctx, model.WordDraft{Text: "Nachzügler"})
		assert.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	configureServer(t, store, server.URL)

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	result, err := newTestEngine(store).SyncToServer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SyncedCount)

	unsynced, err := store.Unsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "Nachzügler", unsynced[0].Text)
}

func TestSyncSingleFlight(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		time.Sleep(150 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	configureServer(t, store, server.URL)

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	engine := newTestEngine(store)

	var wg sync.WaitGroup
	results := make([]*Result, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.SyncToServer(ctx)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.Equal(t, int32(1), requests.Load(), "concurrent callers must share one cycle")
	assert.Same(t, results[0], results[1], "both callers receive the in-flight outcome")
}

func TestSyncNothingToSyncSkipsNetwork(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()
	configureServer(t, store, server.URL)

	result, err := newTestEngine(store).SyncToServer(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.SyncedCount)
	assert.Zero(t, requests.Load())
}

func TestSyncMissingConfig(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	_, err = newTestEngine(store).SyncToServer(ctx)
	var cerr *apperr.ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestSyncHTTPErrorLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "words list cannot be empty"})
	}))
	defer server.Close()
	configureServer(t, store, server.URL)

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	_, err = newTestEngine(store).SyncToServer(ctx)
	var herr *apperr.HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusUnprocessableEntity, herr.Status)
	assert.Contains(t, herr.Body, "words list cannot be empty")

	unsynced, err := store.Unsynced(ctx)
	require.NoError(t, err)
	assert.Len(t, unsynced, 1, "failed sync must not mark anything")

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.SyncCount)
}

func TestSyncTimeout(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)
	configureServer(t, store, server.URL)

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	engine := newTestEngine(store)
	engine.syncTimeout = 50 * time.Millisecond

	_, err = engine.SyncToServer(ctx)
	var terr *apperr.TimeoutError
	require.ErrorAs(t, err, &terr)

	unsynced, err := store.Unsynced(ctx)
	require.NoError(t, err)
	assert.Len(t, unsynced, 1)
}

func TestSyncNetworkError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	configureServer(t, store, server.URL)
	server.Close() // connection refused from here on

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	_, err = newTestEngine(store).SyncToServer(ctx)
	var nerr *apperr.NetworkError
	require.ErrorAs(t, err, &nerr)
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	engine := newTestEngine(store)

	result := engine.TestConnection(ctx, server.URL, "probe-key")
	assert.True(t, result.Success)
	assert.Equal(t, "Bearer probe-key", gotAuth)

	result = engine.TestConnection(ctx, "", "probe-key")
	assert.False(t, result.Success)

	result = engine.TestConnection(ctx, server.URL, " ")
	assert.False(t, result.Success)
}

func TestTestConnectionBadStatus(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	result := newTestEngine(newTestStore()).TestConnection(ctx, server.URL, "wrong-key")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "401")
}

func TestAutoSyncDisabled(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()
	configureServer(t, store, server.URL) // AutoSyncEnabled stays false

	_, err := store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	newTestEngine(store).AutoSync(ctx)
	assert.Zero(t, requests.Load(), "disabled autosync must never touch the network")
}

func TestAutoSyncEnabled(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	settings := model.DefaultSettings()
	settings.ServerURL = server.URL
	settings.APIKey = "test-key"
	settings.AutoSyncEnabled = true
	_, err := store.SaveSettings(ctx, settings)
	require.NoError(t, err)

	_, err = store.SaveWord(ctx, model.WordDraft{Text: "Hund"})
	require.NoError(t, err)

	newTestEngine(store).AutoSync(ctx)

	unsynced, err := store.Unsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestEnsureProtocol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"localhost:8000", "http://localhost:8000"},
		{"http://localhost:8000", "http://localhost:8000"},
		{"https://words.example.de", "https://words.example.de"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EnsureProtocol(tt.in))
	}
}
