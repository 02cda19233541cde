package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"pingme/domain/chat"
	"pingme/errors"
)

func setupDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

func newMessage(conversationID uuid.UUID, at time.Time) chat.Message {
	return chat.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       "alice",
		ReceiverID:     "bob",
		Content:        "hello",
		ContentType:    chat.ContentTypeText,
		Status:         chat.StatusSent,
		CreatedAt:      at,
	}
}

func TestMessageRepository_StoreAndGet(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupDB(t), testLogger())
	msg := newMessage(uuid.New(), time.Now().UTC().Truncate(time.Millisecond))

	// When storing then loading by ID
	req.NoError(repo.Store(msg))
	got, err := repo.Get(msg.ID)

	// Then the message round-trips
	req.NoError(err)
	req.Equal(msg.ID, got.ID)
	req.Equal(msg.Content, got.Content)
	req.Equal(msg.Status, got.Status)
}

func TestMessageRepository_Get_Unknown(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupDB(t), testLogger())

	_, err := repo.Get(uuid.New())

	req.ErrorIs(err, errors.ErrNotFound)
}

func TestMessageRepository_ListByConversation_ChronologicalOrder(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupDB(t), testLogger())
	conversationID := uuid.New()
	base := time.Now().UTC()

	// Given three messages stored out of order
	second := newMessage(conversationID, base.Add(time.Second))
	first := newMessage(conversationID, base)
	third := newMessage(conversationID, base.Add(2*time.Second))
	req.NoError(repo.Store(second))
	req.NoError(repo.Store(third))
	req.NoError(repo.Store(first))

	// And one message in another conversation
	req.NoError(repo.Store(newMessage(uuid.New(), base)))

	// When listing the conversation
	messages, err := repo.ListByConversation(conversationID)

	// Then only its messages come back, oldest first
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal(first.ID, messages[0].ID)
	req.Equal(second.ID, messages[1].ID)
	req.Equal(third.ID, messages[2].ID)
}

func TestMessageRepository_Save_UpdatesInPlace(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupDB(t), testLogger())
	conversationID := uuid.New()
	msg := newMessage(conversationID, time.Now().UTC())
	req.NoError(repo.Store(msg))

	// When promoting and saving
	msg.Promote(chat.StatusRead)
	req.NoError(repo.Save(msg))

	// Then the update is visible without duplicating the entry
	got, err := repo.Get(msg.ID)
	req.NoError(err)
	req.Equal(chat.StatusRead, got.Status)

	messages, err := repo.ListByConversation(conversationID)
	req.NoError(err)
	req.Len(messages, 1)
}

func TestMessageRepository_Delete(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupDB(t), testLogger())
	msg := newMessage(uuid.New(), time.Now().UTC())
	req.NoError(repo.Store(msg))

	// When deleting
	deleted, err := repo.Delete(msg.ID)
	req.NoError(err)
	req.Equal(msg.ID, deleted.ID)

	// Then it is gone from both the index and the conversation
	_, err = repo.Get(msg.ID)
	req.ErrorIs(err, errors.ErrNotFound)
	messages, err := repo.ListByConversation(msg.ConversationID)
	req.NoError(err)
	req.Empty(messages)
}
