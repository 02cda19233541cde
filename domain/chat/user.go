package chat

import "time"

// User is the persisted profile plus the last known presence snapshot.
// IsOnline/LastSeen are best-effort: the in-memory registry is the source
// of truth while the process is alive.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	About        string    `json:"about,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	IsOnline     bool      `json:"isOnline"`
	LastSeen     time.Time `json:"lastSeen,omitzero"`
	CreatedAt    time.Time `json:"createdAt"`
}
