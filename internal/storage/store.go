package storage

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mfedotov/wortschatz/internal/apperr"
	"github.com/mfedotov/wortschatz/internal/model"
)

// DefaultRetention is how long synced words are kept before cleanup.
const DefaultRetention = 30 * 24 * time.Hour

// Store is the typed persistence layer over a Backend. It exclusively owns
// the persisted words, settings, and stats; every operation is one serialized
// read-modify-write, so no caller ever observes a partial update.
type Store struct {
	mu        sync.Mutex
	backend   Backend
	validate  *validator.Validate
	stats     *gocache.Cache // display mirror of the persisted stats
	bus       *eventBus
	retention time.Duration

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithRetention overrides the cleanup window.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

// WithClock injects a time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc injects an id generator, for tests.
func WithIDFunc(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// NewStore creates a store over the given backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		validate:  validator.New(),
		stats:     gocache.New(time.Minute, 5*time.Minute),
		bus:       newEventBus(),
		retention: DefaultRetention,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a mutation-event listener.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	return s.bus.Subscribe(buffer)
}

// SaveWord validates the draft, assigns identity, inserts at the head of the
// collection and enforces the cap by trimming the tail. The committed state
// always includes recomputed stats.
func (s *Store) SaveWord(ctx context.Context, draft model.WordDraft) (*model.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(draft.Text)
	if text == "" {
		return nil, &apperr.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(text) > model.MaxTextLen {
		return nil, &apperr.ValidationError{Field: "text", Reason: "exceeds 500 characters"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	words, err := s.loadWords()
	if err != nil {
		return nil, err
	}
	settings, err := s.loadSettings()
	if err != nil {
		return nil, err
	}

	word := model.Word{
		ID:          s.newID(),
		Text:        text,
		Kind:        draft.Kind,
		Context:     strings.TrimSpace(draft.Context),
		SourceURL:   draft.SourceURL,
		SourceTitle: draft.SourceTitle,
		CreatedAt:   s.now(),
		Synced:      false,
	}
	// Context is present iff the word is a context capture.
	if word.Context == "" {
		word.Kind = model.KindDirect
	}
	if word.Kind != model.KindContext {
		word.Kind = model.KindDirect
		word.Context = ""
	}
	// Insertion order stays non-decreasing even if the wall clock steps back.
	if len(words) > 0 && word.CreatedAt.Before(words[0].CreatedAt) {
		word.CreatedAt = words[0].CreatedAt
	}

	// Newest first; evict the oldest beyond the cap.
	words = append([]model.Word{word}, words...)
	if max := settings.MaxWords; max > 0 && len(words) > max {
		words = words[:max]
	}

	stats, err := s.commitWords(words)
	if err != nil {
		return nil, err
	}

	s.bus.publish(Event{Kind: EventWordAdded, WordID: word.ID, Stats: stats})
	return &word, nil
}

// Words returns the collection newest-first. A non-empty search filters by
// case-insensitive substring match on text or context; limit truncates after
// filtering (0 means no limit).
func (s *Store) Words(ctx context.Context, limit int, search string) ([]model.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	words, err := s.loadWords()
	if err != nil {
		return nil, err
	}

	if search != "" {
		needle := strings.ToLower(search)
		filtered := words[:0:0]
		for _, w := range words {
			if strings.Contains(strings.ToLower(w.Text), needle) ||
				strings.Contains(strings.ToLower(w.Context), needle) {
				filtered = append(filtered, w)
			}
		}
		words = filtered
	}

	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words, nil
}

// DeleteWord removes a word by id. Returns false, not an error, when the id
// is absent.
func (s *Store) DeleteWord(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	words, err := s.loadWords()
	if err != nil {
		return false, err
	}

	idx := -1
	for i, w := range words {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	words = append(words[:idx], words[idx+1:]...)
	stats, err := s.commitWords(words)
	if err != nil {
		return false, err
	}

	s.bus.publish(Event{Kind: EventWordDeleted, WordID: id, Stats: stats})
	return true, nil
}

// ClearAll empties the collection. Settings survive, as does sync history
// (lastSync, syncCount); count stats reset to zero.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.commitWords(nil)
	if err != nil {
		return err
	}

	s.bus.publish(Event{Kind: EventCleared, Stats: stats})
	return nil
}

// MarkSynced flips synced=true for every listed id still present. Absent ids
// are ignored: the word may have been deleted while the batch was in flight.
func (s *Store) MarkSynced(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	words, err := s.loadWords()
	if err != nil {
		return err
	}

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	changed := false
	for i := range words {
		if _, ok := want[words[i].ID]; ok && !words[i].Synced {
			words[i].Synced = true
			changed = true
		}
	}
	if !changed {
		return nil
	}

	stats, err := s.commitWords(words)
	if err != nil {
		return err
	}

	s.bus.publish(Event{Kind: EventSynced, Stats: stats})
	return nil
}

// Unsynced returns all words with synced=false, newest-first.
func (s *Store) Unsynced(ctx context.Context) ([]model.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	words, err := s.loadWords()
	if err != nil {
		return nil, err
	}

	var out []model.Word
	for _, w := range words {
		if !w.Synced {
			out = append(out, w)
		}
	}
	return out, nil
}

// RecordSync updates sync history after a confirmed server acknowledgment.
func (s *Store) RecordSync(ctx context.Context, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.loadStats()
	if err != nil {
		return err
	}
	stats.LastSync = &at
	stats.SyncCount++
	return s.saveStats(stats)
}

// Stats returns the current aggregate snapshot. Served from the in-memory
// mirror when warm, otherwise from the persisted cache.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	if err := ctx.Err(); err != nil {
		return model.Stats{}, err
	}

	if cached, found := s.stats.Get(KeyStats); found {
		return cached.(model.Stats), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStats()
}

// Usage reports serialized sizes of the persisted keys.
func (s *Store) Usage(ctx context.Context) (model.StorageUsage, error) {
	if err := ctx.Err(); err != nil {
		return model.StorageUsage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	words, err := s.loadWords()
	if err != nil {
		return model.StorageUsage{}, err
	}
	settings, err := s.loadSettings()
	if err != nil {
		return model.StorageUsage{}, err
	}

	wordsJSON, err := json.Marshal(words)
	if err != nil {
		return model.StorageUsage{}, &apperr.StorageError{Op: "marshal words", Err: err}
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return model.StorageUsage{}, &apperr.StorageError{Op: "marshal settings", Err: err}
	}

	return model.StorageUsage{
		TotalBytes:    len(wordsJSON) + len(settingsJSON),
		WordsBytes:    len(wordsJSON),
		SettingsBytes: len(settingsJSON),
	}, nil
}

// Cleanup removes synced words older than the retention window and returns
// how many were dropped. Unsynced words survive regardless of age: they still
// owe the server a trip.
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	words, err := s.loadWords()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.retention)
	kept := words[:0:0]
	for _, w := range words {
		if w.Synced && w.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, w)
	}

	removed := len(words) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if _, err := s.commitWords(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Settings returns the persisted settings, falling back to defaults.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	if err := ctx.Err(); err != nil {
		return model.Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSettings()
}

// SaveSettings validates, normalizes and persists the settings, then notifies
// subscribers so the autosync scheduler can re-arm.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) (model.Settings, error) {
	if err := ctx.Err(); err != nil {
		return model.Settings{}, err
	}

	settings.Normalize()
	if err := s.validate.Struct(settings); err != nil {
		return model.Settings{}, &apperr.ValidationError{Field: "server_url", Reason: "must be an absolute http or https URL"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(settings)
	if err != nil {
		return model.Settings{}, &apperr.StorageError{Op: "marshal settings", Err: err}
	}
	if err := s.backend.Set(KeySettings, data); err != nil {
		return model.Settings{}, &apperr.StorageError{Op: "write settings", Err: err}
	}

	stats, _ := s.loadStats()
	s.bus.publish(Event{Kind: EventSettingsChanged, Stats: stats})
	return settings, nil
}

// commitWords persists the collection and its recomputed stats. Callers hold
// the mutex. Stats is a derived cache: if its write fails after the words
// committed, the next mutation recomputes and heals it.
func (s *Store) commitWords(words []model.Word) (model.Stats, error) {
	data, err := json.Marshal(words)
	if err != nil {
		return model.Stats{}, &apperr.StorageError{Op: "marshal words", Err: err}
	}
	if err := s.backend.Set(KeyWords, data); err != nil {
		return model.Stats{}, &apperr.StorageError{Op: "write words", Err: err}
	}

	prev, _ := s.loadStats()
	stats := model.ComputeStats(words, prev)
	if err := s.saveStats(stats); err != nil {
		return model.Stats{}, err
	}
	return stats, nil
}

func (s *Store) loadWords() ([]model.Word, error) {
	data, found, err := s.backend.Get(KeyWords)
	if err != nil {
		return nil, &apperr.StorageError{Op: "read words", Err: err}
	}
	if !found {
		return nil, nil
	}
	var words []model.Word
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, &apperr.StorageError{Op: "decode words", Err: err}
	}
	return words, nil
}

func (s *Store) loadSettings() (model.Settings, error) {
	data, found, err := s.backend.Get(KeySettings)
	if err != nil {
		return model.Settings{}, &apperr.StorageError{Op: "read settings", Err: err}
	}
	if !found {
		return model.DefaultSettings(), nil
	}
	var settings model.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.Settings{}, &apperr.StorageError{Op: "decode settings", Err: err}
	}
	settings.Normalize()
	return settings, nil
}

func (s *Store) loadStats() (model.Stats, error) {
	data, found, err := s.backend.Get(KeyStats)
	if err != nil {
		return model.Stats{}, &apperr.StorageError{Op: "read stats", Err: err}
	}
	if !found {
		return model.Stats{}, nil
	}
	var stats model.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return model.Stats{}, &apperr.StorageError{Op: "decode stats", Err: err}
	}
	return stats, nil
}

func (s *Store) saveStats(stats model.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return &apperr.StorageError{Op: "marshal stats", Err: err}
	}
	if err := s.backend.Set(KeyStats, data); err != nil {
		return &apperr.StorageError{Op: "write stats", Err: err}
	}
	s.stats.Set(KeyStats, stats, gocache.DefaultExpiration)
	return nil
}
