package syncer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mfedotov/wortschatz/internal/storage"
)

// Scheduler fires AutoSync on the persisted interval. It re-arms whenever
// the settings change and stops when its context is canceled.
type Scheduler struct {
	engine *Engine
	store  *storage.Store
	log    *zap.Logger
}

// NewScheduler creates a scheduler bound to the engine's store.
func NewScheduler(engine *Engine, store *storage.Store, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{engine: engine, store: store, log: log}
}

// Run blocks until ctx is done, firing AutoSync every sync interval. The
// interval is re-read from persisted settings on startup and after every
// settings change, so a restart always re-arms from durable state.
func (s *Scheduler) Run(ctx context.Context) {
	events, cancel := s.store.Subscribe(8)
	defer cancel()

	interval := s.currentInterval(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.log.Info("autosync scheduler armed", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.engine.AutoSync(ctx)
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind != storage.EventSettingsChanged {
				continue
			}
			next := s.currentInterval(ctx)
			if next != interval {
				interval = next
				ticker.Reset(interval)
				s.log.Info("autosync scheduler re-armed", zap.Duration("interval", interval))
			}
		}
	}
}

func (s *Scheduler) currentInterval(ctx context.Context) time.Duration {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		s.log.Warn("scheduler: settings unavailable, using default interval", zap.Error(err))
		return 5 * time.Minute
	}
	return settings.SyncInterval()
}
