// Package syncer reconciles the local word collection with the remote API.
// One network exchange is in flight at any time; local state changes only
// after a confirmed server acknowledgment.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/mfedotov/wortschatz/internal/apperr"
	"github.com/mfedotov/wortschatz/internal/model"
	"github.com/mfedotov/wortschatz/internal/storage"
)

const (
	addListPath  = "/api/v1/words/add_list"
	maxErrorBody = 64 << 10
)

// Result is the outcome of one sync cycle or connection test.
type Result struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	SyncedCount int    `json:"synced_count"`
}

// Engine pushes unsynced words to the remote add-list endpoint. Concurrent
// SyncToServer calls collapse onto the in-flight cycle instead of queuing.
type Engine struct {
	store   *storage.Store
	client  *http.Client
	group   singleflight.Group
	limiter *rate.Limiter
	log     *zap.Logger

	syncTimeout time.Duration
	testTimeout time.Duration
	userAgent   string

	now func() time.Time
}

// New creates an engine over the given store. A nil logger is replaced with
// a no-op one.
func New(store *storage.Store, cfg model.HTTPConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	syncTimeout := cfg.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = 30 * time.Second
	}
	testTimeout := cfg.TestTimeout
	if testTimeout <= 0 {
		testTimeout = 10 * time.Second
	}
	minGap := cfg.MinGap
	if minGap <= 0 {
		minGap = time.Second
	}
	return &Engine{
		store:       store,
		client:      &http.Client{},
		limiter:     rate.NewLimiter(rate.Every(minGap), 1),
		log:         log,
		syncTimeout: syncTimeout,
		testTimeout: testTimeout,
		userAgent:   cfg.UserAgent,
		now:         time.Now,
	}
}

// SyncToServer runs one sync cycle, or joins the one already running. Every
// caller of a shared cycle receives that cycle's outcome.
func (e *Engine) SyncToServer(ctx context.Context) (*Result, error) {
	v, err, _ := e.group.Do("sync", func() (interface{}, error) {
		return e.syncOnce(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (e *Engine) syncOnce(ctx context.Context) (*Result, error) {
	settings, err := e.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case settings.ServerURL == "" && settings.APIKey == "":
		return nil, &apperr.ConfigError{Missing: "server URL and API key"}
	case settings.ServerURL == "":
		return nil, &apperr.ConfigError{Missing: "server URL"}
	case settings.APIKey == "":
		return nil, &apperr.ConfigError{Missing: "API key"}
	}

	// Snapshot the batch before the network call. Success marks exactly
	// these ids: words inserted while the request is in flight stay
	// unsynced and ride the next cycle.
	batch, err := e.store.Unsynced(ctx)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return &Result{Success: true, Message: "Nothing to sync", SyncedCount: 0}, nil
	}

	payload := model.WirePayload{Words: make([]model.WireWord, 0, len(batch))}
	ids := make([]string, 0, len(batch))
	for _, w := range batch {
		payload.Words = append(payload.Words, model.ToWire(w))
		ids = append(ids, w.ID)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, &apperr.NetworkError{Err: err}
	}

	body, err := e.post(ctx, settings, addListPath, payload)
	if err != nil {
		return nil, err
	}

	if err := e.store.MarkSynced(ctx, ids); err != nil {
		return nil, err
	}
	if err := e.store.RecordSync(ctx, e.now()); err != nil {
		return nil, err
	}

	message := serverMessage(body)
	if message == "" {
		message = fmt.Sprintf("Synced %d words", len(ids))
	}
	e.log.Info("sync cycle complete", zap.Int("words", len(ids)))

	return &Result{Success: true, Message: message, SyncedCount: len(ids)}, nil
}

// TestConnection probes the health endpoint with the given credentials.
// Purely diagnostic: shorter timeout, no local state touched.
func (e *Engine) TestConnection(ctx context.Context, serverURL, apiKey string) *Result {
	serverURL = strings.TrimRight(strings.TrimSpace(EnsureProtocol(serverURL)), "/")
	if serverURL == "" || strings.TrimSpace(apiKey) == "" {
		return &Result{Success: false, Message: "Server URL and API key are required"}
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.testTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, serverURL+"/", nil)
	if err != nil {
		return &Result{Success: false, Message: "Invalid server URL"}
	}
	e.setHeaders(req, apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return &Result{Success: false, Message: "Connection failed: " + connectMessage(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Result{Success: false, Message: fmt.Sprintf("Connection failed: HTTP %d", resp.StatusCode)}
	}
	return &Result{Success: true, Message: "Connection successful"}
}

// AutoSync runs a scheduled cycle. It is a no-op unless autosync is enabled
// and at least one word is unsynced; failures are logged, never surfaced.
func (e *Engine) AutoSync(ctx context.Context) {
	settings, err := e.store.Settings(ctx)
	if err != nil {
		e.log.Warn("autosync: settings unavailable", zap.Error(err))
		return
	}
	if !settings.AutoSyncEnabled {
		return
	}

	unsynced, err := e.store.Unsynced(ctx)
	if err != nil {
		e.log.Warn("autosync: store unavailable", zap.Error(err))
		return
	}
	if len(unsynced) == 0 {
		return
	}

	result, err := e.SyncToServer(ctx)
	if err != nil {
		e.log.Warn("autosync failed", zap.Error(err), zap.Bool("retryable", apperr.IsRetryable(err)))
		return
	}
	e.log.Info("autosync complete", zap.Int("synced", result.SyncedCount))
}

// post sends one JSON request and classifies the failure modes: deadline →
// TimeoutError, transport → NetworkError, non-2xx → HTTPError with the
// response body attached.
func (e *Engine) post(ctx context.Context, settings model.Settings, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.syncTimeout)
	defer cancel()

	url := EnsureProtocol(settings.ServerURL) + path
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, &apperr.ConfigError{Missing: "valid server URL"}
	}
	e.setHeaders(req, settings.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &apperr.TimeoutError{Err: err}
		}
		return nil, &apperr.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.HTTPError{Status: resp.StatusCode, Body: errorDetail(body)}
	}
	return body, nil
}

func (e *Engine) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
}

// EnsureProtocol prefixes bare host[:port] values with http://.
func EnsureProtocol(rawURL string) string {
	if rawURL == "" {
		return rawURL
	}
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}
	return "http://" + rawURL
}

// errorDetail extracts the server's detail field from an error body, falling
// back to the raw text.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return strings.TrimSpace(string(body))
}

// serverMessage pulls the human-readable message out of a successful
// add-list response.
func serverMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		return parsed.Message
	}
	return ""
}

// connectMessage maps transport errors to actionable text.
func connectMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "server took too long to respond"
	}
	return "cannot reach server, check URL and network"
}
