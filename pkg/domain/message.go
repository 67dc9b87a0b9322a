package domain

import "time"

// Message is a WhatsApp message in a conversation timeline.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	From           string    `json:"from"`
	Body           string    `json:"body"`
	Type           string    `json:"type,omitempty"`   // e.g. "text", "image", "interactive"
	Status         string    `json:"status,omitempty"` // e.g. "sent", "delivered", "read"
	Timestamp      time.Time `json:"timestamp"`
}

// MessageEventType names the socket events pushed by the platform.
type MessageEventType string

const (
	EventMessageNew          MessageEventType = "message_new"
	EventMessageUpdated      MessageEventType = "message_updated"
	EventMessageNotification MessageEventType = "new_message_notification"
)

// MessageEvent is a single push notification about a message.
type MessageEvent struct {
	Type    MessageEventType `json:"event"`
	Message Message          `json:"data"`
}
