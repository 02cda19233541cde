package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pingme/errors"
)

func TestConversationRepository_FindOrCreate_IsSymmetric(t *testing.T) {
	req := require.New(t)
	repo := NewConversationRepository(setupDB(t), testLogger())
	now := time.Now().UTC()

	// Given a conversation created in one direction
	first, err := repo.FindOrCreate("alice", "bob", now)
	req.NoError(err)

	// When looked up in the opposite direction
	second, err := repo.FindOrCreate("bob", "alice", now.Add(time.Minute))
	req.NoError(err)

	// Then both calls resolve to the same conversation
	req.Equal(first.ID, second.ID)
	req.Equal([2]string{"alice", "bob"}, second.Participants)
	req.Equal(first.CreatedAt, second.CreatedAt)
}

func TestConversationRepository_GetByID(t *testing.T) {
	req := require.New(t)
	repo := NewConversationRepository(setupDB(t), testLogger())
	created, err := repo.FindOrCreate("alice", "bob", time.Now().UTC())
	req.NoError(err)

	got, err := repo.Get(created.ID)
	req.NoError(err)
	req.Equal(created.ID, got.ID)

	_, err = repo.Get(uuid.New())
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestConversationRepository_ListForUser_SortedByActivity(t *testing.T) {
	req := require.New(t)
	repo := NewConversationRepository(setupDB(t), testLogger())
	base := time.Now().UTC()

	// Given alice talks to bob and carol, carol more recently
	withBob, err := repo.FindOrCreate("alice", "bob", base)
	req.NoError(err)
	withCarol, err := repo.FindOrCreate("alice", "carol", base.Add(time.Hour))
	req.NoError(err)

	// And a conversation alice is not part of
	_, err = repo.FindOrCreate("bob", "carol", base)
	req.NoError(err)

	// When listing alice's conversations
	conversations, err := repo.ListForUser("alice")
	req.NoError(err)

	// Then only hers come back, most recently active first
	req.Len(conversations, 2)
	req.Equal(withCarol.ID, conversations[0].ID)
	req.Equal(withBob.ID, conversations[1].ID)
}

func TestConversationRepository_Save_Updates(t *testing.T) {
	req := require.New(t)
	repo := NewConversationRepository(setupDB(t), testLogger())
	conversation, err := repo.FindOrCreate("alice", "bob", time.Now().UTC())
	req.NoError(err)

	conversation.UnreadCount = 3
	conversation.LastMessageID = uuid.New()
	req.NoError(repo.Save(conversation))

	got, err := repo.Get(conversation.ID)
	req.NoError(err)
	req.Equal(3, got.UnreadCount)
	req.Equal(conversation.LastMessageID, got.LastMessageID)
}
