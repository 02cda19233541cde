package chat

import (
	"time"

	"github.com/google/uuid"
)

// StatusLifetime is how long a status post stays visible after creation.
const StatusLifetime = 24 * time.Hour

// Status is a short-lived broadcast post, visible to all users until expiry.
type Status struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     string      `json:"ownerId"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"contentType"`
	Viewers     []string    `json:"viewers,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

func NewStatus(ownerID, content string, contentType ContentType, now time.Time) Status {
	return Status{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Content:     content,
		ContentType: contentType,
		CreatedAt:   now,
		ExpiresAt:   now.Add(StatusLifetime),
	}
}

// AddViewer records a view and reports whether it was the first one from
// this user. Repeated views never add duplicate entries.
func (s *Status) AddViewer(userID string) bool {
	for _, v := range s.Viewers {
		if v == userID {
			return false
		}
	}
	s.Viewers = append(s.Viewers, userID)
	return true
}

func (s Status) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
