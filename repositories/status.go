//go:generate go run go.uber.org/mock/mockgen -source=status.go -destination=../mocks/mock_status_repository.go -package=mocks
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

type IStatusRepository interface {
	Store(status chat.Status) error
	Get(id uuid.UUID) (chat.Status, error)
	Save(status chat.Status) error
	Delete(id uuid.UUID) error
	ListActive(now time.Time) ([]chat.Status, error)
	DeleteExpired(now time.Time) (int, error)
}

// StatusRepository persists status posts under "status:{id}".
// Entries carry a Badger TTL matching the 24h lifetime, so the store
// self-cleans even if the reaper worker never runs; ListActive still
// filters on ExpiresAt because TTL eviction is not instantaneous.
type StatusRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewStatusRepository(db *badger.DB, log *slog.Logger) StatusRepository {
	return StatusRepository{db: db, log: log}
}

func statusKey(id uuid.UUID) []byte {
	return []byte("status:" + id.String())
}

func (s StatusRepository) Store(status chat.Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	ttl := time.Until(status.ExpiresAt)
	if ttl <= 0 {
		return errors.ErrValidation
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(statusKey(status.ID), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

func (s StatusRepository) Get(id uuid.UUID) (chat.Status, error) {
	var status chat.Status
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(statusKey(id))
		if err != nil {
			return notFound(err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &status)
		})
	})
	if err != nil {
		return chat.Status{}, err
	}
	return status, nil
}

// Save rewrites the document, keeping the TTL aligned with the original
// expiry (viewer updates must not extend a status's life).
func (s StatusRepository) Save(status chat.Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	ttl := time.Until(status.ExpiresAt)
	if ttl <= 0 {
		return errors.ErrNotFound
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(statusKey(status.ID), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// Delete is idempotent: removing an unknown or already expired status is
// not an error, deletion may race with TTL eviction.
func (s StatusRepository) Delete(id uuid.UUID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(statusKey(id))
	})
}

// ListActive returns unexpired statuses, newest first.
func (s StatusRepository) ListActive(now time.Time) ([]chat.Status, error) {
	var statuses []chat.Status
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("status:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var status chat.Status
				if err := json.Unmarshal(val, &status); err != nil {
					return err
				}
				if !status.Expired(now) {
					statuses = append(statuses, status)
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

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].CreatedAt.After(statuses[j].CreatedAt)
	})
	return statuses, nil
}

// DeleteExpired removes statuses whose logical expiry has passed but whose
// TTL eviction hasn't happened yet. Returns how many were swept.
func (s StatusRepository) DeleteExpired(now time.Time) (int, error) {
	var expired [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("status:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var status chat.Status
				if err := json.Unmarshal(val, &status); err != nil {
					return err
				}
				if status.Expired(now) {
					expired = append(expired, item.KeyCopy(nil))
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
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}
