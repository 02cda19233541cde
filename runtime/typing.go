package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pingme/contract"
	"pingme/domain/event"
)

// DefaultTypingTimeout is how long a typing indicator survives without a
// refreshing typing_start signal.
const DefaultTypingTimeout = 3 * time.Second

type typingKey struct {
	userID         string
	conversationID uuid.UUID
}

type typingEntry struct {
	timer      *time.Timer
	receiverID string
	generation uint64
}

// TypingCoordinator is the per-(user, conversation) typing state machine.
// A typing_start flips the pair to typing and arms a cancellable expiry
// timer; a repeat start resets the timer; an explicit stop or the timer
// firing flips back to idle and notifies the receiver.
type TypingCoordinator struct {
	mu      sync.Mutex
	entries map[typingKey]*typingEntry
	router  contract.IRouter
	timeout time.Duration
}

func NewTypingCoordinator(router contract.IRouter, timeout time.Duration) *TypingCoordinator {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingCoordinator{
		entries: make(map[typingKey]*typingEntry),
		router:  router,
		timeout: timeout,
	}
}

// Start transitions (userID, conversationID) to typing and notifies the
// receiver immediately. Signals missing any identity are dropped silently.
func (t *TypingCoordinator) Start(userID string, conversationID uuid.UUID, receiverID string) {
	if userID == "" || conversationID == uuid.Nil || receiverID == "" {
		return
	}

	key := typingKey{userID: userID, conversationID: conversationID}

	t.mu.Lock()
	if entry, ok := t.entries[key]; ok {
		entry.timer.Stop()
		entry.generation++
		entry.timer = t.newExpiryTimer(key, receiverID, entry.generation)
		entry.receiverID = receiverID
	} else {
		entry := &typingEntry{receiverID: receiverID}
		entry.timer = t.newExpiryTimer(key, receiverID, 0)
		t.entries[key] = entry
	}
	t.mu.Unlock()

	t.emit(userID, conversationID, receiverID, true)
}

// Stop cancels the pending timer and notifies the receiver that typing
// ended. Stopping an already idle pair still emits, matching what clients
// expect after their own input field clears.
func (t *TypingCoordinator) Stop(userID string, conversationID uuid.UUID, receiverID string) {
	if userID == "" || conversationID == uuid.Nil || receiverID == "" {
		return
	}

	key := typingKey{userID: userID, conversationID: conversationID}

	t.mu.Lock()
	if entry, ok := t.entries[key]; ok {
		entry.timer.Stop()
		delete(t.entries, key)
	}
	t.mu.Unlock()

	t.emit(userID, conversationID, receiverID, false)
}

// CancelAll discards every typing state owned by a user without emitting
// stop events: receivers infer staleness from the user going offline.
func (t *TypingCoordinator) CancelAll(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, entry := range t.entries {
		if key.userID != userID {
			continue
		}
		entry.timer.Stop()
		delete(t.entries, key)
	}
}

// IsTyping reports the current state of a pair. Mostly useful in tests.
func (t *TypingCoordinator) IsTyping(userID string, conversationID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[typingKey{userID: userID, conversationID: conversationID}]
	return ok
}

func (t *TypingCoordinator) newExpiryTimer(key typingKey, receiverID string, generation uint64) *time.Timer {
	return time.AfterFunc(t.timeout, func() {
		t.mu.Lock()
		entry, ok := t.entries[key]
		// A Stop or a refreshing Start may race a timer that already fired.
		// The generation check makes sure a superseded timer never tears
		// down the state its replacement now owns.
		expired := ok && entry.generation == generation
		if expired {
			delete(t.entries, key)
		}
		t.mu.Unlock()

		if expired {
			t.emit(key.userID, key.conversationID, receiverID, false)
		}
	})
}

func (t *TypingCoordinator) emit(userID string, conversationID uuid.UUID, receiverID string, isTyping bool) {
	t.router.SendTo(context.Background(), receiverID, event.Event{
		Name: event.UserTyping,
		Payload: event.TypingPayload{
			UserID:         userID,
			ConversationID: conversationID,
			IsTyping:       isTyping,
		},
	})
}
