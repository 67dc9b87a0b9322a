package flowdeck

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/ports"
)

// DefaultStreamBuffer is used by Subscribe when buffer is not positive.
const DefaultStreamBuffer = 16

// diffHub fans graph diffs out to subscribers.
// Slow subscribers lose diffs instead of stalling the editor.
type diffHub struct {
	mu     sync.RWMutex
	subs   map[chan *domain.GraphDiff]struct{}
	closed bool
	logger *slog.Logger
}

func newDiffHub(logger *slog.Logger) *diffHub {
	return &diffHub{
		subs:   make(map[chan *domain.GraphDiff]struct{}),
		logger: logger,
	}
}

func (h *diffHub) subscribe(buffer int) (<-chan *domain.GraphDiff, func()) {
	if buffer <= 0 {
		buffer = DefaultStreamBuffer
	}
	ch := make(chan *domain.GraphDiff, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *diffHub) publish(d *domain.GraphDiff) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- d:
		default:
			h.logger.Warn("diff subscriber buffer full, dropping diff", "flow_id", d.FlowID)
		}
	}
}

func (h *diffHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		close(ch)
	}
	clear(h.subs)
	h.closed = true
}

// mediaKinds are prefetched on mount.
var mediaKinds = []domain.NodeType{
	domain.NodeTypeImage,
	domain.NodeTypeAudio,
	domain.NodeTypeVideo,
	domain.NodeTypeDocument,
}

// mediaCache serves media listings from the mount prefetch.
// A miss goes to the library and fills the cache.
type mediaCache struct {
	lib ports.MediaLibrary

	mu    sync.RWMutex
	items map[domain.NodeType][]domain.MediaItem
}

func newMediaCache(lib ports.MediaLibrary) *mediaCache {
	return &mediaCache{lib: lib, items: make(map[domain.NodeType][]domain.MediaItem)}
}

func (c *mediaCache) prefetch(ctx context.Context, kind domain.NodeType) error {
	_, err := c.fetch(ctx, kind)
	return err
}

func (c *mediaCache) fetch(ctx context.Context, kind domain.NodeType) ([]domain.MediaItem, error) {
	if c.lib == nil {
		return []domain.MediaItem{}, nil
	}
	items, err := c.lib.ListMedia(ctx, kind)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.items[kind] = slices.Clone(items)
	c.mu.Unlock()
	return items, nil
}

// ListMedia implements ports.MediaLibrary.
func (c *mediaCache) ListMedia(ctx context.Context, kind domain.NodeType) ([]domain.MediaItem, error) {
	c.mu.RLock()
	items, ok := c.items[kind]
	c.mu.RUnlock()
	if ok {
		return slices.Clone(items), nil
	}
	return c.fetch(ctx, kind)
}

// forget drops the cached listing so the next call hits the library.
func (c *mediaCache) forget(kind domain.NodeType) {
	c.mu.Lock()
	delete(c.items, kind)
	c.mu.Unlock()
}
