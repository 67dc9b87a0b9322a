package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// MediaLibrary implements ports.MediaLibrary over a fixed list.
// It returns every item regardless of kind, like the platform endpoint.
type MediaLibrary struct {
	mu    sync.RWMutex
	items []domain.MediaItem
}

// NewMediaLibrary creates a library seeded with items.
func NewMediaLibrary(items ...domain.MediaItem) *MediaLibrary {
	return &MediaLibrary{items: slices.Clone(items)}
}

// Add uploads an item.
func (m *MediaLibrary) Add(item domain.MediaItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
}

// ListMedia returns a copy of the items.
func (m *MediaLibrary) ListMedia(ctx context.Context, _ domain.NodeType) ([]domain.MediaItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.items), nil
}
