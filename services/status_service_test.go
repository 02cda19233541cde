package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"pingme/domain/chat"
	"pingme/domain/event"
	"pingme/errors"
	"pingme/moderation"
	"pingme/repositories"
)

type statusFixture struct {
	service    *StatusService
	statuses   repositories.StatusRepository
	router     *stubRouter
	mediaStore *stubMediaStore
}

func newStatusFixture(t *testing.T) *statusFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelError)
	moderator, err := moderation.NewModerator([]string{"flop"}, '*')
	require.NoError(t, err)

	f := &statusFixture{
		statuses:   repositories.NewStatusRepository(db, log),
		router:     &stubRouter{},
		mediaStore: &stubMediaStore{},
	}
	f.service = NewStatusService(f.statuses, f.router, &moderator, f.mediaStore, log)
	return f
}

func TestStatusService_CreateStatus_CensorsContent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newStatusFixture(t)

	// When alice posts a status containing a blacklisted word
	status, err := f.service.CreateStatus(ctx, chat.CreateStatusCommand{OwnerID: "alice", Content: "what a flop"})
	req.NoError(err)

	// Then the persisted and broadcast copies are both masked
	req.Equal("what a ****", status.Content)
	stored, err := f.statuses.Get(status.ID)
	req.NoError(err)
	req.Equal("what a ****", stored.Content)
}

func TestStatusService_CreateStatus_BroadcastsToEveryoneElse(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newStatusFixture(t)

	// When alice posts a status
	status, err := f.service.CreateStatus(ctx, chat.CreateStatusCommand{OwnerID: "alice", Content: "at the beach"})
	req.NoError(err)
	req.Equal(chat.ContentTypeText, status.ContentType)

	// Then it is persisted and announced to everyone but alice
	stored, err := f.statuses.Get(status.ID)
	req.NoError(err)
	req.Equal("alice", stored.OwnerID)

	req.Len(f.router.broadcasts, 1)
	req.Equal("alice", f.router.broadcasts[0].Target)
	req.Equal(event.NewStatus, f.router.broadcasts[0].Event.Name)
}

func TestStatusService_CreateStatus_Validation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newStatusFixture(t)

	_, err := f.service.CreateStatus(ctx, chat.CreateStatusCommand{OwnerID: "alice"})
	req.ErrorIs(err, errors.ErrValidation)

	_, err = f.service.CreateStatus(ctx, chat.CreateStatusCommand{Content: "orphan"})
	req.ErrorIs(err, errors.ErrValidation)
}

func TestStatusService_ViewStatus_FirstViewNotifiesOwner(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newStatusFixture(t)
	status, err := f.service.CreateStatus(ctx, chat.CreateStatusCommand{OwnerID: "alice", Content: "hello"})
	req.NoError(err)

	// When bob views it for the first time
	viewed, err := f.service.ViewStatus(ctx, "bob", status.ID)
	req.NoError(err)
	req.Equal([]string{"bob"}, viewed.Viewers)

	// Then alice is notified once
	notifications := f.router.sentTo("alice", event.StatusViewed)
	req.Len(notifications, 1)
	payload := notifications[0].Payload.(event.StatusViewedPayload)
	req.Equal(status.ID, payload.StatusID)
	req.Equal("bob", payload.ViewerID)
	req.Equal(1, payload.TotalViewers)
}

func TestStatusService_ViewStatus_ReplayIsSilent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newStatusFixture(t)
	status, err := f.service.CreateStatus(ctx, chat.CreateStatusCommand{OwnerID: "alice", Content: "hello"})
	req.NoError(err)
	_, err = f.service.ViewStatus(ctx, "bob", status.ID)
	req.NoError(err)

	// When bob replays the view
	viewed, err := f.service.ViewStatus(ctx, "bob", status.ID)
	req.NoError(err)

	// Then the viewer list is unchanged and no second notification fires
	req.Equal([]string{"bob"}, viewed.Viewers)
	req.Len(f.router.sentTo("alice", event.StatusViewed), 1)
}

func TestStatusService_ViewStatus_OwnerViewDoesNotCount(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newStatusFixture(t)
	status, err := f.service.CreateStatus(ctx, chat.CreateStatusCommand{OwnerID: "alice", Content: "hello"})
	req.NoError(err)

	viewed, err := f.service.ViewStatus(ctx, "alice", status.ID)

	req.NoError(err)
	req.Empty(viewed.Viewers)
	req.Empty(f.router.sentTo("alice", event.StatusViewed))
}

func TestStatusService_ViewStatus_Unknown(t *testing.T) {
	req := require.New(t)
	f := newStatusFixture(t)

	_, err := f.service.ViewStatus(context.Background(), "bob", uuid.New())

	req.ErrorIs(err, errors.ErrNotFound)
}

func TestStatusService_GetStatuses_ListsActive(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newStatusFixture(t)
	_, err := f.service.CreateStatus(ctx, chat.CreateStatusCommand{OwnerID: "alice", Content: "one"})
	req.NoError(err)
	_, err = f.service.CreateStatus(ctx, chat.CreateStatusCommand{OwnerID: "bob", Content: "two"})
	req.NoError(err)

	statuses, err := f.service.GetStatuses(ctx)

	req.NoError(err)
	req.Len(statuses, 2)
}

func TestStatusService_DeleteStatus_OwnerOnly(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newStatusFixture(t)
	status, err := f.service.CreateStatus(ctx, chat.CreateStatusCommand{OwnerID: "alice", Content: "bye"})
	req.NoError(err)

	// A non-owner is rejected
	err = f.service.DeleteStatus(ctx, "bob", status.ID)
	req.ErrorIs(err, errors.ErrNotAuthorized)

	// The owner succeeds and everyone else is told
	req.NoError(f.service.DeleteStatus(ctx, "alice", status.ID))
	_, err = f.statuses.Get(status.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	var deletions []routedEvent
	for _, b := range f.router.broadcasts {
		if b.Event.Name == event.StatusDeleted {
			deletions = append(deletions, b)
		}
	}
	req.Len(deletions, 1)
	req.Equal("alice", deletions[0].Target)
	req.Equal(status.ID, deletions[0].Event.Payload.(event.StatusDeletedPayload).StatusID)
}
