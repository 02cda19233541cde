//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"pingme/domain/chat"
	"pingme/errors"
)

type IConversationRepository interface {
	FindOrCreate(a, b string, now time.Time) (chat.Conversation, error)
	Get(id uuid.UUID) (chat.Conversation, error)
	Save(conv chat.Conversation) error
	ListForUser(userID string) ([]chat.Conversation, error)
}

// ConversationRepository keys each conversation on its canonical
// participant pair ("conv:{a}:{b}" with a < b), which makes the lookup
// symmetric by construction: [A,B] and [B,A] hit the same record.
// A second key "convix:{id}" serves lookups by conversation ID.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) ConversationRepository {
	return ConversationRepository{db: db, log: log}
}

func convKey(participantKey string) []byte {
	return []byte("conv:" + participantKey)
}

func convIndexKey(id uuid.UUID) []byte {
	return []byte("convix:" + id.String())
}

func (c ConversationRepository) FindOrCreate(a, b string, now time.Time) (chat.Conversation, error) {
	var conv chat.Conversation
	key := convKey(chat.ParticipantKey(a, b))

	err := c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &conv)
			})
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		conv = chat.NewConversation(a, b, now)
		data, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(convIndexKey(conv.ID), key)
	})
	if err != nil {
		return chat.Conversation{}, err
	}
	return conv, nil
}

func (c ConversationRepository) Get(id uuid.UUID) (chat.Conversation, error) {
	var conv chat.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(convIndexKey(id))
		if err != nil {
			return notFound(err)
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return notFound(err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &conv)
		})
	})
	if err != nil {
		return chat.Conversation{}, err
	}
	return conv, nil
}

func (c ConversationRepository) Save(conv chat.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(convKey(conv.Key()), data)
	})
}

// ListForUser scans the conversation prefix and keeps the ones the user is
// part of, most recently updated first.
func (c ConversationRepository) ListForUser(userID string) ([]chat.Conversation, error) {
	var conversations []chat.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte("conv:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var conv chat.Conversation
				if err := json.Unmarshal(val, &conv); err != nil {
					return err
				}
				if conv.Has(userID) {
					conversations = append(conversations, conv)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

func notFound(err error) error {
	if err == badger.ErrKeyNotFound {
		return errors.ErrNotFound
	}
	return err
}
