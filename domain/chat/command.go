package chat

import (
	"time"

	"github.com/google/uuid"
)

// Commands are the inbound intents handled by the service layer.
// They carry caller identity explicitly so authorization stays testable.

type SendMessageCommand struct {
	SenderID   string
	ReceiverID string
	Content    string
	Media      []byte
	At         time.Time
}

type MarkAsReadCommand struct {
	ReaderID   string
	MessageIDs []uuid.UUID
}

type DeleteMessageCommand struct {
	CallerID  string
	MessageID uuid.UUID
}

type ReactCommand struct {
	ReactorID string
	MessageID uuid.UUID
	Emoji     string
}

type CreateStatusCommand struct {
	OwnerID string
	Content string
	Media   []byte
	At      time.Time
}

type SearchCommand struct {
	CallerID string
	Terms    string
	Limit    int
}
