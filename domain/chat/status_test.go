package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewStatus_SetsLifetime(t *testing.T) {
	req := require.New(t)
	now := time.Now()

	status := NewStatus("alice", "on vacation", ContentTypeText, now)

	req.Equal("alice", status.OwnerID)
	req.Equal(now.Add(StatusLifetime), status.ExpiresAt)
	req.False(status.Expired(now))
	req.False(status.Expired(now.Add(StatusLifetime - time.Second)))
	req.True(status.Expired(now.Add(StatusLifetime + time.Second)))
}

func TestStatus_AddViewer_IsIdempotent(t *testing.T) {
	req := require.New(t)
	status := NewStatus("alice", "hello", ContentTypeText, time.Now())

	// First view counts
	req.True(status.AddViewer("bob"))
	req.Equal([]string{"bob"}, status.Viewers)

	// Replays do not
	req.False(status.AddViewer("bob"))
	req.Equal([]string{"bob"}, status.Viewers)

	// Another viewer still counts
	req.True(status.AddViewer("carol"))
	req.Len(status.Viewers, 2)
}
