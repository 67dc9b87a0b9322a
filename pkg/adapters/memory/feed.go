package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/pkg/domain"
)

// Feed implements ports.MessageFeed and ports.MessageHistory in memory.
// Published events are fanned out to every live subscriber.
type Feed struct {
	mu      sync.RWMutex
	subs    map[chan domain.MessageEvent]struct{}
	history map[string][]domain.Message
	buffer  int
	closed  bool
	logger  *slog.Logger
}

// NewFeed creates a feed whose subscriber channels hold up to buffer events.
func NewFeed(buffer int) *Feed {
	return &Feed{
		subs:    make(map[chan domain.MessageEvent]struct{}),
		history: make(map[string][]domain.Message),
		buffer:  buffer,
		logger:  logging.NewNop(),
	}
}

// SetLogger configures a logger for dropped events.
func (f *Feed) SetLogger(logger *slog.Logger) {
	f.logger = logger
}

// Subscribe registers a subscriber until ctx is done.
func (f *Feed) Subscribe(ctx context.Context) (<-chan domain.MessageEvent, error) {
	ch := make(chan domain.MessageEvent, f.buffer)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch, nil
	}
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
	}()
	return ch, nil
}

// Publish delivers an event to every subscriber.
// message_new and message_updated events are also recorded in the history.
func (f *Feed) Publish(ev domain.MessageEvent) {
	f.mu.Lock()
	if ev.Type == domain.EventMessageNew || ev.Type == domain.EventMessageUpdated {
		f.record(ev.Message)
	}
	f.mu.Unlock()

	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
			// Drop event if channel is full (slow consumer)
			f.logger.Warn("feed: subscriber buffer full, dropping event", "event", ev.Type, "message_id", ev.Message.ID)
		}
	}
}

func (f *Feed) record(m domain.Message) {
	msgs := f.history[m.ConversationID]
	if i := slices.IndexFunc(msgs, func(x domain.Message) bool { return x.ID == m.ID }); i >= 0 {
		msgs[i] = m
		return
	}
	f.history[m.ConversationID] = append(msgs, m)
}

// Messages returns the recorded messages of a conversation.
func (f *Feed) Messages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.history[conversationID]), nil
}

// Close ends every subscription.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for ch := range f.subs {
		close(ch)
		delete(f.subs, ch)
	}
}
