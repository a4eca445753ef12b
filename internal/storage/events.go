package storage

import (
	"sync"

	"github.com/mfedotov/wortschatz/internal/model"
)

// EventKind classifies store mutations
type EventKind string

const (
	EventWordAdded       EventKind = "word_added"
	EventWordDeleted     EventKind = "word_deleted"
	EventCleared         EventKind = "cleared"
	EventSynced          EventKind = "synced"
	EventSettingsChanged EventKind = "settings_changed"
)

// Event describes one committed mutation. Stats is the aggregate snapshot
// after the mutation, so subscribers never need to read back.
type Event struct {
	Kind   EventKind
	WordID string
	Stats  model.Stats
}

// eventBus fans mutation events out to subscribers. Sends never block: a
// subscriber that falls behind misses events rather than stalling a write.
type eventBus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func closes the
// channel and must be called exactly once.
func (b *eventBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default: // slow consumer, drop
		}
	}
}
