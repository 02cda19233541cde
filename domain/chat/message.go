// Package chat contains core concepts of the messaging system.
// This file defines Message entities and their mutation rules.
// No runtime, network, or UI logic should be added here.
package chat

import (
	"time"

	"github.com/google/uuid"
)

type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
)

// MessageStatus follows a one-way ladder: sent -> delivered -> read.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// rank orders statuses so that promotions can never regress.
func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// Reaction is a single emoji left by a user on a message.
// A message holds at most one Reaction per user.
type Reaction struct {
	UserID string `json:"userId"`
	Emoji  string `json:"emoji"`
}

type Message struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID uuid.UUID     `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	ReceiverID     string        `json:"receiverId"`
	Content        string        `json:"content,omitempty"`
	MediaURL       string        `json:"mediaUrl,omitempty"`
	ContentType    ContentType   `json:"contentType"`
	Status         MessageStatus `json:"status"`
	Language       string        `json:"language,omitempty"`
	Reactions      []Reaction    `json:"reactions,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Promote moves the delivery status forward and reports whether anything
// changed. Promotions are monotonic: asking to go back to an earlier status
// leaves the message untouched.
func (m *Message) Promote(next MessageStatus) bool {
	if next.rank() <= m.Status.rank() {
		return false
	}
	m.Status = next
	return true
}

// ApplyReaction applies toggle semantics:
//   - no prior reaction from the user: append a new one
//   - same emoji again: remove it (toggle off)
//   - different emoji: replace the previous one
//
// The invariant "at most one reaction entry per user" holds after every call.
func (m *Message) ApplyReaction(userID, emoji string) {
	for i, r := range m.Reactions {
		if r.UserID != userID {
			continue
		}
		if r.Emoji == emoji {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
		} else {
			m.Reactions[i].Emoji = emoji
		}
		return
	}
	m.Reactions = append(m.Reactions, Reaction{UserID: userID, Emoji: emoji})
}
