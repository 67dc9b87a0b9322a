package ports

import (
	"context"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// MessageHistory is the pull side of a conversation: the REST seed.
type MessageHistory interface {
	// Messages returns the stored messages of a conversation, oldest first.
	Messages(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// MessageFeed is the push side of a conversation.
type MessageFeed interface {
	// Subscribe returns a channel of message events.
	// The channel is closed when the context is canceled or the feed ends.
	Subscribe(ctx context.Context) (<-chan domain.MessageEvent, error)
}
