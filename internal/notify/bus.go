// Package notify fans out payload-free "projects changed" signals to
// in-process subscribers and to other processes sharing the same slot.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier announces that the stored project list changed.
type Notifier interface {
	Notify(ctx context.Context)
}

// Publisher forwards a change signal outside the process.
type Publisher interface {
	Publish(ctx context.Context) error
}

// Bus delivers change signals to subscribers. Each subscriber has a one-slot
// buffer, so bursts of signals coalesce into one pending wake-up.
type Bus struct {
	mu         sync.Mutex
	subs       map[int]chan struct{}
	next       int
	publishers []Publisher
	logger     *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subs: make(map[int]chan struct{}), logger: logger}
}

// AddPublisher registers an outbound relay.
func (b *Bus) AddPublisher(p Publisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishers = append(b.publishers, p)
}

// Subscribe returns a channel that receives a value after every change, and a
// function that cancels the subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Notify delivers a change locally and forwards it to every publisher.
// Publish failures are logged; local delivery has already happened.
func (b *Bus) Notify(ctx context.Context) {
	b.Deliver()

	b.mu.Lock()
	publishers := append([]Publisher(nil), b.publishers...)
	b.mu.Unlock()

	for _, p := range publishers {
		if err := p.Publish(ctx); err != nil {
			b.logger.Warn("change notification not forwarded", "error", err)
		}
	}
}

// Deliver wakes local subscribers without forwarding. Relays call it for
// signals that arrived from another process.
func (b *Bus) Deliver() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
