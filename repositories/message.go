//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"pingme/domain/chat"
)

type IMessageRepository interface {
	Store(msg chat.Message) error
	Get(id uuid.UUID) (chat.Message, error)
	Save(msg chat.Message) error
	Delete(id uuid.UUID) (chat.Message, error)
	ListByConversation(conversationID uuid.UUID) ([]chat.Message, error)
}

// MessageRepository persists messages as JSON documents in BadgerDB.
//
// Two keys exist per message:
//   - "msg:{conversation}:{timestamp_padded}:{id}" holds the document; the
//     19-digit zero padding makes a prefix scan return chronological order.
//   - "msgix:{id}" points at the primary key so lookups by message ID
//     don't need the conversation or the timestamp.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

func primaryKey(msg chat.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s",
		msg.ConversationID,
		msg.CreatedAt.UnixNano(),
		msg.ID,
	))
}

func indexKey(id uuid.UUID) []byte {
	return []byte("msgix:" + id.String())
}

func (m MessageRepository) Store(msg chat.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	key := primaryKey(msg)
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(indexKey(msg.ID), key)
	})
}

func (m MessageRepository) Get(id uuid.UUID) (chat.Message, error) {
	var msg chat.Message
	err := m.db.View(func(txn *badger.Txn) error {
		data, err := m.resolve(txn, id)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &msg)
	})
	if err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

// Save rewrites an existing message document in place. The timestamp and
// conversation never change after Store, so the primary key is stable.
func (m MessageRepository) Save(msg chat.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(indexKey(msg.ID)); err != nil {
			return notFound(err)
		}
		return txn.Set(primaryKey(msg), data)
	})
}

// Delete removes both keys and returns the deleted document so callers can
// notify the receiver.
func (m MessageRepository) Delete(id uuid.UUID) (chat.Message, error) {
	var msg chat.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		data, err := m.resolve(txn, id)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		if err := txn.Delete(primaryKey(msg)); err != nil {
			return err
		}
		return txn.Delete(indexKey(id))
	})
	if err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

// ListByConversation returns the conversation's messages oldest first,
// courtesy of the padded timestamp in the key.
func (m MessageRepository) ListByConversation(conversationID uuid.UUID) ([]chat.Message, error) {
	var messages []chat.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:" + conversationID.String() + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var msg chat.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
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
	return messages, nil
}

// resolve follows the ID index to the primary document.
func (m MessageRepository) resolve(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(indexKey(id))
	if err != nil {
		return nil, notFound(err)
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	item, err = txn.Get(key)
	if err != nil {
		return nil, notFound(err)
	}
	return item.ValueCopy(nil)
}
