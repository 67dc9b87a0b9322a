package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/ports"
)

var (
	// ErrUnknownEvent is returned by Apply for an event type it does not handle.
	ErrUnknownEvent = errors.New("unknown message event")
	// ErrMissingIdentity is returned when a message has no id or conversation.
	ErrMissingIdentity = errors.New("message without id or conversation")
)

// thread is the timeline of a single conversation.
type thread struct {
	messages []domain.Message
	index    map[string]int
	unread   int
}

func newThread() *thread {
	return &thread{index: make(map[string]int)}
}

// upsert inserts m, or replaces the stored copy when replace is set.
// It reports whether the timeline changed.
func (t *thread) upsert(m domain.Message, replace bool) bool {
	if i, ok := t.index[m.ID]; ok {
		if !replace || t.messages[i] == m {
			return false
		}
		t.messages[i] = m
		return true
	}
	t.index[m.ID] = len(t.messages)
	t.messages = append(t.messages, m)
	return true
}

// Observer is notified of every event the Inbox applies.
type Observer func(ctx context.Context, ev domain.MessageEvent)

// Inbox is the in-memory state of every open conversation.
type Inbox struct {
	mu       sync.RWMutex
	threads  map[string]*thread
	logger   *slog.Logger
	observer Observer
}

// Option configures the Inbox.
type Option func(*Inbox)

// WithLogger configures a logger for the Inbox.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inbox) {
		i.logger = logger
	}
}

// WithObserver registers a callback run after each applied event.
func WithObserver(fn Observer) Option {
	return func(i *Inbox) {
		i.observer = fn
	}
}

// NewInbox creates an empty Inbox.
func NewInbox(opts ...Option) *Inbox {
	i := &Inbox{
		threads: make(map[string]*thread),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// thread returns the timeline of a conversation, creating it if needed.
// The caller MUST hold the write lock.
func (i *Inbox) thread(conversationID string) *thread {
	t, ok := i.threads[conversationID]
	if !ok {
		t = newThread()
		i.threads[conversationID] = t
	}
	return t
}

// Seed loads the REST history of a conversation.
// Messages already present are skipped. It returns the number inserted.
func (i *Inbox) Seed(conversationID string, messages []domain.Message) (int, error) {
	added, err := i.seed(conversationID, messages)
	return len(added), err
}

func (i *Inbox) seed(conversationID string, messages []domain.Message) ([]domain.Message, error) {
	if conversationID == "" {
		return nil, ErrMissingIdentity
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	t := i.thread(conversationID)
	var added []domain.Message
	for _, m := range messages {
		if m.ID == "" {
			return added, fmt.Errorf("seeding %s: %w", conversationID, ErrMissingIdentity)
		}
		if m.ConversationID == "" {
			m.ConversationID = conversationID
		}
		if t.upsert(m, false) {
			added = append(added, m)
		}
	}
	i.logger.Debug("conversation seeded", "conversation_id", conversationID, "inserted", len(added), "total", len(t.messages))
	return added, nil
}

// Load seeds a conversation from the message history.
func (i *Inbox) Load(ctx context.Context, history ports.MessageHistory, conversationID string) (int, error) {
	messages, err := history.Messages(ctx, conversationID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch messages of %s: %w", conversationID, err)
	}
	return i.Seed(conversationID, messages)
}

// Resync reloads conversations from the message history after a gap in the
// live feed, such as a socket reconnect. Without ids every known conversation
// is reloaded. It returns the messages the Inbox was missing.
func (i *Inbox) Resync(ctx context.Context, history ports.MessageHistory, ids ...string) ([]domain.Message, error) {
	if len(ids) == 0 {
		ids = i.Conversations()
	}
	var missing []domain.Message
	var errs []error
	for _, id := range ids {
		messages, err := history.Messages(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to fetch messages of %s: %w", id, err))
			continue
		}
		added, err := i.seed(id, messages)
		missing = append(missing, added...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(missing) > 0 {
		i.logger.Info("conversations resynced", "conversations", len(ids), "missing", len(missing))
	}
	return missing, errors.Join(errs...)
}

// Apply folds one pushed event into the Inbox.
// It reports whether the timeline or the unread count changed.
func (i *Inbox) Apply(ctx context.Context, ev domain.MessageEvent) (bool, error) {
	m := ev.Message
	if m.ConversationID == "" {
		return false, ErrMissingIdentity
	}

	i.mu.Lock()
	t := i.thread(m.ConversationID)
	var changed bool
	switch ev.Type {
	case domain.EventMessageNew:
		if m.ID == "" {
			i.mu.Unlock()
			return false, ErrMissingIdentity
		}
		changed = t.upsert(m, false)
	case domain.EventMessageUpdated:
		if m.ID == "" {
			i.mu.Unlock()
			return false, ErrMissingIdentity
		}
		changed = t.upsert(m, true)
	case domain.EventMessageNotification:
		t.unread++
		changed = true
	default:
		i.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	i.mu.Unlock()

	if !changed {
		i.logger.Debug("duplicate message event", "event", ev.Type, "message_id", m.ID)
	}
	if i.observer != nil {
		i.observer(ctx, ev)
	}
	return changed, nil
}

// Messages returns a copy of the conversation timeline in arrival order.
func (i *Inbox) Messages(conversationID string) []domain.Message {
	i.mu.RLock()
	defer i.mu.RUnlock()
	t, ok := i.threads[conversationID]
	if !ok {
		return []domain.Message{}
	}
	return slices.Clone(t.messages)
}

// Unread returns the number of notifications received since the last MarkRead.
func (i *Inbox) Unread(conversationID string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if t, ok := i.threads[conversationID]; ok {
		return t.unread
	}
	return 0
}

// MarkRead resets the unread count of a conversation.
func (i *Inbox) MarkRead(conversationID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if t, ok := i.threads[conversationID]; ok {
		t.unread = 0
	}
}

// Conversations lists the known conversation ids, sorted.
func (i *Inbox) Conversations() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ids := make([]string, 0, len(i.threads))
	for id := range i.threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Pump applies feed events until ctx is done or the feed closes.
// Events that cannot be applied are logged and skipped.
func (i *Inbox) Pump(ctx context.Context, feed ports.MessageFeed) error {
	events, err := feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				i.logger.Debug("message feed closed")
				return nil
			}
			if _, err := i.Apply(ctx, ev); err != nil {
				i.logger.Warn("dropping message event", "event", ev.Type, "err", err)
			}
		}
	}
}
