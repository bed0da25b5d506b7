package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/terra-clan/hiresense/internal/models"
)

const subscriberBuffer = 16

// Broadcaster is an in-process fan-out of analysis entries.
// Slow subscribers miss entries instead of blocking publishers.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[chan models.HistoryEntry]struct{}
	closed bool
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan models.HistoryEntry]struct{})}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it and
// closes the channel; calling it more than once is safe.
func (b *Broadcaster) Subscribe() (<-chan models.HistoryEntry, func()) {
	ch := make(chan models.HistoryEntry, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

// Publish implements Publisher
func (b *Broadcaster) Publish(_ context.Context, entry models.HistoryEntry) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- entry:
		default:
			slog.Debug("dropping event for slow subscriber", "id", entry.ID)
		}
	}
	return nil
}

// Subscribers returns the number of active subscribers
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
