package palette

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/ports"
)

// AttachmentSelector lists previously uploaded media of one kind and holds the pick.
type AttachmentSelector struct {
	kind    domain.NodeType
	library ports.MediaLibrary

	mu       sync.Mutex
	items    []domain.MediaItem
	loaded   bool
	selected string
}

// NewAttachmentSelector creates a selector for a media kind.
func NewAttachmentSelector(library ports.MediaLibrary, kind domain.NodeType) *AttachmentSelector {
	return &AttachmentSelector{kind: kind, library: library}
}

// Kind returns the media kind the selector filters for.
func (s *AttachmentSelector) Kind() domain.NodeType {
	return s.kind
}

// Refresh fetches the media list and keeps the items matching the kind's MIME prefix.
// DOCUMENT keeps everything.
func (s *AttachmentSelector) Refresh(ctx context.Context) ([]domain.MediaItem, error) {
	items, err := s.library.ListMedia(ctx, s.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s media: %w", s.kind, err)
	}
	filtered := domain.FilterMedia(items, s.kind)

	s.mu.Lock()
	s.items = filtered
	s.loaded = true
	s.mu.Unlock()

	return slices.Clone(filtered), nil
}

// Items returns the last fetched list.
func (s *AttachmentSelector) Items() []domain.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Select picks an attachment by id, fetching the list first if needed.
func (s *AttachmentSelector) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()

	if !loaded {
		if _, err := s.Refresh(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.ContainsFunc(s.items, func(it domain.MediaItem) bool { return it.ID == id }) {
		return fmt.Errorf("%w: %q is not a listed %s", ErrUnknownAttachment, id, s.kind)
	}
	s.selected = id
	return nil
}

// Selected returns the picked attachment id, or "".
func (s *AttachmentSelector) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *AttachmentSelector) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}
