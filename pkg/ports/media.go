package ports

import (
	"context"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// MediaLibrary lists previously uploaded attachments.
type MediaLibrary interface {
	// ListMedia returns the attachments the platform holds for a media kind.
	// Implementations may return a superset; callers filter by MIME prefix.
	ListMedia(ctx context.Context, kind domain.NodeType) ([]domain.MediaItem, error)
}
