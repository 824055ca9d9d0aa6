// ABOUTME: In-memory fan-out of "log changed" signals to renderers
// ABOUTME: Signals coalesce, so subscribers re-read the log snapshot instead of receiving events

package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ChangeBroadcaster notifies subscribers that the conversation log changed.
// Each subscriber channel holds at most one pending signal; a signal sent while
// one is pending is merged into it. Subscribers read the current snapshot when
// woken, so no append is ever missed.
type ChangeBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan struct{}
	logger      *slog.Logger
}

// NewChangeBroadcaster creates a broadcaster. Pass nil logger for default.
func NewChangeBroadcaster(logger *slog.Logger) *ChangeBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeBroadcaster{
		subscribers: make(map[string]chan struct{}),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber and returns its signal channel and id.
// The subscription is removed and the channel closed when ctx is cancelled.
func (b *ChangeBroadcaster) Subscribe(ctx context.Context) (<-chan struct{}, string) {
	subID := uuid.New().String()
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish wakes every subscriber. It never blocks.
func (b *ChangeBroadcaster) Publish() {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending for this subscriber
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *ChangeBroadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close removes all subscribers and closes their channels.
func (b *ChangeBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}

	b.logger.Debug("broadcaster closed")
}
