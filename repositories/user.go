//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"pingme/domain/chat"
	"pingme/errors"
)

type IUserRepository interface {
	CreateUser(email, username, hashedPassword string) (string, error)
	GetByID(id string) (chat.User, error)
	GetByEmail(email string) (chat.User, error)
	SetPresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error
	GetLastSeen(ctx context.Context, userID string) (time.Time, error)
}

// UserRepository persists profiles under "user:{id}" with an email index
// "userml:{email}" for login. It doubles as the runtime.PresenceStore:
// SetPresence/GetLastSeen write and read the best-effort presence snapshot.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

func userKey(id string) []byte {
	return []byte("user:" + id)
}

func emailKey(email string) []byte {
	return []byte("userml:" + email)
}

func (u UserRepository) CreateUser(email, username, hashedPassword string) (string, error) {
	user := chat.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := marshalUser(user)
	if err != nil {
		return "", err
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey(email), []byte(user.ID))
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (u UserRepository) GetByID(id string) (chat.User, error) {
	var user chat.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return notFound(err)
		}
		return item.Value(func(val []byte) error {
			return unmarshalUser(val, &user)
		})
	})
	if err != nil {
		return chat.User{}, err
	}
	return user, nil
}

func (u UserRepository) GetByEmail(email string) (chat.User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return notFound(err)
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id = string(raw)
		return nil
	})
	if err != nil {
		return chat.User{}, err
	}
	return u.GetByID(id)
}

// SetPresence rewrites the user's presence snapshot. Unknown users are
// tolerated: a bare snapshot record is created so last-seen survives even
// when the profile was registered elsewhere.
func (u UserRepository) SetPresence(_ context.Context, userID string, online bool, lastSeen time.Time) error {
	return u.db.Update(func(txn *badger.Txn) error {
		var user chat.User
		item, err := txn.Get(userKey(userID))
		switch err {
		case nil:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := unmarshalUser(raw, &user); err != nil {
				return err
			}
		case badger.ErrKeyNotFound:
			user = chat.User{ID: userID}
		default:
			return err
		}

		user.IsOnline = online
		user.LastSeen = lastSeen
		data, err := marshalUser(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(userID), data)
	})
}

func (u UserRepository) GetLastSeen(_ context.Context, userID string) (time.Time, error) {
	user, err := u.GetByID(userID)
	if err != nil {
		return time.Time{}, err
	}
	return user.LastSeen, nil
}

// storedUser keeps the password hash on disk while chat.User hides it from
// JSON responses.
type storedUser struct {
	chat.User
	PasswordHash string `json:"passwordHash,omitempty"`
}

func marshalUser(user chat.User) ([]byte, error) {
	data, err := json.Marshal(storedUser{User: user, PasswordHash: user.PasswordHash})
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}
	return data, nil
}

func unmarshalUser(data []byte, user *chat.User) error {
	var stored storedUser
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	*user = stored.User
	user.PasswordHash = stored.PasswordHash
	return nil
}
