package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation is the single thread between two users.
// Participants are stored in sorted order so that lookups for (A,B) and
// (B,A) resolve to the same record.
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	Participants  [2]string `json:"participants"`
	LastMessageID uuid.UUID `json:"lastMessageId,omitempty"`
	UnreadCount   int       `json:"unreadCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CanonicalPair returns the two user IDs in their canonical (sorted) order.
func CanonicalPair(a, b string) [2]string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return [2]string{a, b}
}

// ParticipantKey builds the symmetric lookup key for a participant pair.
func ParticipantKey(a, b string) string {
	pair := CanonicalPair(a, b)
	return pair[0] + ":" + pair[1]
}

func NewConversation(a, b string, now time.Time) Conversation {
	return Conversation{
		ID:           uuid.New(),
		Participants: CanonicalPair(a, b),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (c Conversation) Key() string {
	return c.Participants[0] + ":" + c.Participants[1]
}

func (c Conversation) Has(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// PeerOf returns the other participant, or "" if userID is not a member.
func (c Conversation) PeerOf(userID string) string {
	switch userID {
	case c.Participants[0]:
		return c.Participants[1]
	case c.Participants[1]:
		return c.Participants[0]
	}
	return ""
}
