package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pingme/contract"
	"pingme/domain/chat"
	"pingme/domain/event"
	"pingme/domain/media"
	"pingme/errors"
	"pingme/moderation"
	"pingme/repositories"
)

type IStatusService interface {
	CreateStatus(ctx context.Context, cmd chat.CreateStatusCommand) (chat.Status, error)
	ViewStatus(ctx context.Context, viewerID string, statusID uuid.UUID) (chat.Status, error)
	GetStatuses(ctx context.Context) ([]chat.Status, error)
	DeleteStatus(ctx context.Context, callerID string, statusID uuid.UUID) error
}

type StatusService struct {
	statuses   repositories.IStatusRepository
	router     contract.IRouter
	moderator  *moderation.Moderator
	mediaStore MediaStore
	log        *slog.Logger
	now        func() time.Time
}

func NewStatusService(
	statuses repositories.IStatusRepository,
	router contract.IRouter,
	moderator *moderation.Moderator,
	mediaStore MediaStore,
	log *slog.Logger,
) *StatusService {
	return &StatusService{
		statuses:   statuses,
		router:     router,
		moderator:  moderator,
		mediaStore: mediaStore,
		log:        log,
		now:        time.Now,
	}
}

// CreateStatus publishes an ephemeral post and announces it to every other
// connected user. The post disappears on its own after its lifetime.
func (s *StatusService) CreateStatus(ctx context.Context, cmd chat.CreateStatusCommand) (chat.Status, error) {
	if cmd.OwnerID == "" {
		return chat.Status{}, fmt.Errorf("%w: missing owner", errors.ErrValidation)
	}
	if cmd.Content == "" && len(cmd.Media) == 0 {
		return chat.Status{}, fmt.Errorf("%w: empty status", errors.ErrValidation)
	}

	at := cmd.At
	if at.IsZero() {
		at = s.now()
	}

	contentType := chat.ContentTypeText
	content := cmd.Content
	if content != "" {
		sanitized, found := s.moderator.Censor(content)
		if len(found) > 0 {
			s.log.Warn("Censored outgoing status", "owner", cmd.OwnerID, "words", len(found))
		}
		content = sanitized
	}
	if len(cmd.Media) > 0 {
		ct, mime, err := media.Sniff(cmd.Media)
		if err != nil {
			return chat.Status{}, err
		}
		url, err := s.mediaStore.Save(cmd.Media, mime)
		if err != nil {
			return chat.Status{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		contentType = ct
		content = url
	}

	status := chat.NewStatus(cmd.OwnerID, content, contentType, at)
	if err := s.statuses.Store(status); err != nil {
		return chat.Status{}, err
	}

	s.router.BroadcastExcept(ctx, status.OwnerID, event.Event{
		Name:    event.NewStatus,
		Payload: status,
	})
	return status, nil
}

// ViewStatus records that viewerID saw the status. The first view from each
// user notifies the owner; repeat views are accepted silently so clients can
// replay without spamming.
func (s *StatusService) ViewStatus(ctx context.Context, viewerID string, statusID uuid.UUID) (chat.Status, error) {
	status, err := s.statuses.Get(statusID)
	if err != nil {
		return chat.Status{}, err
	}
	if status.Expired(s.now()) {
		return chat.Status{}, errors.ErrNotFound
	}

	// The owner opening their own status is not a view.
	if viewerID == status.OwnerID {
		return status, nil
	}

	if !status.AddViewer(viewerID) {
		return status, nil
	}
	if err := s.statuses.Save(status); err != nil {
		return chat.Status{}, err
	}

	s.router.SendTo(ctx, status.OwnerID, event.Event{
		Name: event.StatusViewed,
		Payload: event.StatusViewedPayload{
			StatusID:     status.ID,
			ViewerID:     viewerID,
			TotalViewers: len(status.Viewers),
			Viewers:      status.Viewers,
		},
	})
	return status, nil
}

// GetStatuses lists every status still inside its lifetime, newest first.
func (s *StatusService) GetStatuses(ctx context.Context) ([]chat.Status, error) {
	return s.statuses.ListActive(s.now())
}

// DeleteStatus removes a status early, owner-only, and tells everyone else.
func (s *StatusService) DeleteStatus(ctx context.Context, callerID string, statusID uuid.UUID) error {
	status, err := s.statuses.Get(statusID)
	if err != nil {
		return err
	}
	if status.OwnerID != callerID {
		return fmt.Errorf("%w: only the owner can delete a status", errors.ErrNotAuthorized)
	}

	if err := s.statuses.Delete(statusID); err != nil {
		return err
	}
	if status.ContentType != chat.ContentTypeText {
		if err := s.mediaStore.Remove(status.Content); err != nil {
			s.log.Warn("Unable to remove status media", "status", statusID, "error", err)
		}
	}

	s.router.BroadcastExcept(ctx, status.OwnerID, event.Event{
		Name:    event.StatusDeleted,
		Payload: event.StatusDeletedPayload{StatusID: status.ID},
	})
	return nil
}
