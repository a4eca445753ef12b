// Package router dispatches inbound command messages to the store, the
// extractor, and the sync engine. It holds no business logic: every case
// delegates to one component and translates the outcome into an envelope.
package router

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mfedotov/wortschatz/internal/apperr"
	"github.com/mfedotov/wortschatz/internal/extract"
	"github.com/mfedotov/wortschatz/internal/model"
	"github.com/mfedotov/wortschatz/internal/storage"
	"github.com/mfedotov/wortschatz/internal/syncer"
)

// Router is the dispatch table over the core components.
type Router struct {
	store  *storage.Store
	engine *syncer.Engine
	log    *zap.Logger
}

// New creates a router. A nil logger is replaced with a no-op one.
func New(store *storage.Store, engine *syncer.Engine, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{store: store, engine: engine, log: log}
}

// Handle processes one message. It is total: every component failure and
// every malformed payload comes back as an envelope, never a panic.
func (r *Router) Handle(ctx context.Context, msg Message) (resp Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic", zap.String("type", msg.Type), zap.Any("panic", rec))
			resp = fail(fmt.Errorf("internal error: %v", rec))
		}
	}()

	switch msg.Type {
	case TypeCollectWord:
		return r.collectWord(ctx, msg.Payload)
	case TypeCollectWithContext:
		return r.collectWithContext(ctx, msg.Payload)
	case TypeSyncToServer:
		return r.syncToServer(ctx)
	case TypeGetStats:
		return r.getStats(ctx)
	case TypeGetWords:
		return r.getWords(ctx, msg.Payload)
	case TypeDeleteWord:
		return r.deleteWord(ctx, msg.Payload)
	case TypeClearAll:
		return r.clearAll(ctx)
	case TypeUpdateSettings:
		return r.updateSettings(ctx, msg.Payload)
	case TypeTestConnection:
		return r.testConnection(ctx, msg.Payload)
	case TypeGetUsage:
		return r.getUsage(ctx)
	case TypeCleanup:
		return r.cleanup(ctx)
	default:
		return fail(apperr.ErrUnknownMessage)
	}
}

func (r *Router) collectWord(ctx context.Context, raw json.RawMessage) Response {
	var p CollectPayload
	if err := decode(raw, &p); err != nil {
		return fail(err)
	}

	word, err := r.store.SaveWord(ctx, model.WordDraft{
		Text:        p.Text,
		Kind:        model.KindDirect,
		SourceURL:   p.URL,
		SourceTitle: p.Title,
	})
	if err != nil {
		return fail(err)
	}
	return ok(CollectedWord{Word: word, Tokens: extract.Words(p.Text)})
}

func (r *Router) collectWithContext(ctx context.Context, raw json.RawMessage) Response {
	var p CollectPayload
	if err := decode(raw, &p); err != nil {
		return fail(err)
	}

	draft := model.WordDraft{
		Text:        p.Text,
		Kind:        model.KindDirect,
		SourceURL:   p.URL,
		SourceTitle: p.Title,
	}
	// Keep the capture only when the surrounding text yields a usable
	// sentence; otherwise it degrades to a plain collect.
	if sentence, found := extract.ContextSentence(p.Context, p.Text); found {
		draft.Kind = model.KindContext
		draft.Context = sentence
	}

	word, err := r.store.SaveWord(ctx, draft)
	if err != nil {
		return fail(err)
	}
	return ok(CollectedWord{Word: word, Tokens: extract.Words(p.Text)})
}

func (r *Router) syncToServer(ctx context.Context) Response {
	result, err := r.engine.SyncToServer(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(result)
}

func (r *Router) getStats(ctx context.Context) Response {
	stats, err := r.store.Stats(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(stats)
}

func (r *Router) getWords(ctx context.Context, raw json.RawMessage) Response {
	var p GetWordsPayload
	if err := decode(raw, &p); err != nil {
		return fail(err)
	}

	words, err := r.store.Words(ctx, p.Limit, p.Search)
	if err != nil {
		return fail(err)
	}
	if words == nil {
		words = []model.Word{}
	}
	return ok(words)
}

func (r *Router) deleteWord(ctx context.Context, raw json.RawMessage) Response {
	var p DeleteWordPayload
	if err := decode(raw, &p); err != nil {
		return fail(err)
	}

	removed, err := r.store.DeleteWord(ctx, p.WordID)
	if err != nil {
		return fail(err)
	}
	if !removed {
		return ok(StatusMessage{Message: "word not found"})
	}
	return ok(StatusMessage{Message: "word deleted"})
}

func (r *Router) clearAll(ctx context.Context) Response {
	if err := r.store.ClearAll(ctx); err != nil {
		return fail(err)
	}
	return ok(StatusMessage{Message: "all words cleared"})
}

func (r *Router) updateSettings(ctx context.Context, raw json.RawMessage) Response {
	var p SettingsPayload
	if err := decode(raw, &p); err != nil {
		return fail(err)
	}

	current, err := r.store.Settings(ctx)
	if err != nil {
		return fail(err)
	}
	saved, err := r.store.SaveSettings(ctx, p.Apply(current))
	if err != nil {
		return fail(err)
	}
	return ok(saved.Redacted())
}

func (r *Router) testConnection(ctx context.Context, raw json.RawMessage) Response {
	var p TestConnectionPayload
	if err := decode(raw, &p); err != nil {
		return fail(err)
	}

	result := r.engine.TestConnection(ctx, p.ServerURL, p.APIKey)
	return Response{Success: result.Success, Data: result}
}

func (r *Router) getUsage(ctx context.Context) Response {
	usage, err := r.store.Usage(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(usage)
}

func (r *Router) cleanup(ctx context.Context) Response {
	removed, err := r.store.Cleanup(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(StatusMessage{Message: "cleanup complete", Removed: removed})
}

func decode(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return &apperr.ValidationError{Field: "payload", Reason: "missing"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &apperr.ValidationError{Field: "payload", Reason: "malformed JSON"}
	}
	return nil
}

func ok(data interface{}) Response {
	return Response{Success: true, Data: data}
}

func fail(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
