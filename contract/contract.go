//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"

	"pingme/domain/event"
)

// EventSink is one client's live delivery channel.
// Consume must never block the caller for unbounded time.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// IPresence is the process-wide online-user registry.
// Absence of an entry means offline; the last announce wins.
type IPresence interface {
	Announce(ctx context.Context, userID string, sink EventSink)
	Lookup(userID string) (EventSink, bool)
	Remove(ctx context.Context, userID string)
	LastSeen(ctx context.Context, userID string) (time.Time, bool)
}

// IRouter pushes events to live connections. Delivery is fire-and-forget:
// an offline target or a full session buffer drops the event silently.
type IRouter interface {
	SendTo(ctx context.Context, userID string, e event.Event)
	BroadcastExcept(ctx context.Context, userID string, e event.Event)
}

// ITyping tracks transient per-conversation typing state with auto-expiry.
type ITyping interface {
	Start(userID string, conversationID uuid.UUID, receiverID string)
	Stop(userID string, conversationID uuid.UUID, receiverID string)
	CancelAll(userID string)
}
