// Package event defines the realtime events pushed to connected clients.
// Events are a liveness optimization on top of persisted state: dropping
// one is always safe because the store remains the source of truth.
package event

import (
	"time"

	"github.com/google/uuid"

	"pingme/domain/chat"
)

type Name string

const (
	UserStatus          Name = "user_status"
	ReceiveMessage      Name = "receive_message"
	MessageStatusUpdate Name = "message_status_update"
	MessageRead         Name = "message_read"
	UserTyping          Name = "user_typing"
	ReactionUpdate      Name = "reaction_update"
	MessageDeleted      Name = "message_deleted"
	NewStatus           Name = "new_status"
	StatusViewed        Name = "status_viewed"
	StatusDeleted       Name = "status_deleted"
)

// Event is the envelope written to a client session.
type Event struct {
	Name    Name `json:"event"`
	Payload any  `json:"data,omitempty"`
}

type UserStatusPayload struct {
	UserID   string     `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type TypingPayload struct {
	UserID         string    `json:"userId"`
	ConversationID uuid.UUID `json:"conversationId"`
	IsTyping       bool      `json:"isTyping"`
}

// MessageStatusPayload is shared by message_status_update and message_read,
// both report a batch of messages reaching a new delivery stage.
type MessageStatusPayload struct {
	MessageIDs []uuid.UUID        `json:"messageIds"`
	Status     chat.MessageStatus `json:"messageStatus"`
}

type ReactionUpdatePayload struct {
	MessageID uuid.UUID       `json:"messageId"`
	Reactions []chat.Reaction `json:"reactions"`
}

type MessageDeletedPayload struct {
	MessageID uuid.UUID `json:"messageId"`
}

type StatusViewedPayload struct {
	StatusID     uuid.UUID `json:"statusId"`
	ViewerID     string    `json:"viewerId"`
	TotalViewers int       `json:"totalViewers"`
	Viewers      []string  `json:"viewers"`
}

type StatusDeletedPayload struct {
	StatusID uuid.UUID `json:"statusId"`
}
