package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/karyalaya/patra-service/internal/domain"
	"github.com/karyalaya/patra-service/internal/observability"
	"github.com/karyalaya/patra-service/internal/repository"
	apperrors "github.com/karyalaya/patra-service/pkg/util"
)

// NotificationService tracks per-recipient read/starred state for routing
// events and exposes unread counts. Rows are mutated only by their recipient.
type NotificationService struct {
	notifications repository.NotificationRepository
	cache         Cache
	logger        *zap.Logger
	metrics       *observability.Metrics
	countTTL      time.Duration
}

// NewNotificationService constructs the service.
func NewNotificationService(notifications repository.NotificationRepository, cache Cache, logger *zap.Logger, metrics *observability.Metrics, countTTL time.Duration) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		cache:         cache,
		logger:        logger,
		metrics:       metrics,
		countTTL:      countTTL,
	}
}

// NotificationListInput narrows and pages a recipient's notifications.
type NotificationListInput struct {
	OnlyUnread  bool
	OnlyStarred bool
	Page        int
	PageSize    int
}

// List returns the recipient's notifications newest first (created_at DESC,
// id DESC tie-break) with pagination over the filtered set.
func (s *NotificationService) List(ctx context.Context, recipientID string, input NotificationListInput) ([]domain.Notification, Pagination, error) {
	page := input.Page
	if page <= 0 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := repository.NotificationFilter{
		OnlyUnread:  input.OnlyUnread,
		OnlyStarred: input.OnlyStarred,
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	}

	items, err := s.notifications.ListByRecipient(ctx, recipientID, filter)
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.notifications.CountByRecipient(ctx, recipientID, filter)
	if err != nil {
		return nil, Pagination{}, err
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return items, paginate(page, pageSize, total), nil
}

// MarkRead sets is_read=true for the recipient's own notification. The call
// is idempotent and is_read never reverts to false.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) (*domain.Notification, error) {
	notification, err := s.getOwned(ctx, recipientID, notificationID)
	if err != nil {
		return nil, err
	}
	if notification.IsRead {
		return notification, nil
	}
	if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
		return nil, err
	}
	notification.IsRead = true
	s.invalidateCount(ctx, recipientID)
	return notification, nil
}

// ToggleStarred flips is_starred; applying it twice restores the original
// value.
func (s *NotificationService) ToggleStarred(ctx context.Context, recipientID, notificationID string) (*domain.Notification, error) {
	notification, err := s.getOwned(ctx, recipientID, notificationID)
	if err != nil {
		return nil, err
	}
	starred, err := s.notifications.ToggleStarred(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	notification.IsStarred = starred
	return notification, nil
}

// ApplyPatch applies a wire-level read/starred update in terms of the two
// primitives: is_read=true maps to MarkRead, a differing is_starred maps to
// ToggleStarred. Re-sending the current starred value changes nothing.
func (s *NotificationService) ApplyPatch(ctx context.Context, recipientID, notificationID string, isRead, isStarred *bool) (*domain.Notification, error) {
	notification, err := s.getOwned(ctx, recipientID, notificationID)
	if err != nil {
		return nil, err
	}
	if isRead != nil && *isRead && !notification.IsRead {
		if notification, err = s.MarkRead(ctx, recipientID, notificationID); err != nil {
			return nil, err
		}
	}
	if isStarred != nil && *isStarred != notification.IsStarred {
		if notification, err = s.ToggleStarred(ctx, recipientID, notificationID); err != nil {
			return nil, err
		}
	}
	return notification, nil
}

// UnreadCount returns the recipient's live unread total through a short-TTL
// cache that every read-state mutation invalidates.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	key := unreadCountKey(recipientID)
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		if err == nil && ok {
			if count, parseErr := strconv.Atoi(raw); parseErr == nil {
				return count, nil
			}
		}
	}

	count, err := s.notifications.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, strconv.Itoa(count), s.countTTL); err != nil {
			s.logger.Warn("unread count cache set failed", zap.Error(err))
		}
	}
	return count, nil
}

// MarkReadByRef marks the recipient's notifications for one correspondence
// read; used by the read-receipt side effect of fetching a detail.
func (s *NotificationService) MarkReadByRef(ctx context.Context, recipientID, correspondenceID string) {
	if err := s.notifications.MarkReadByRef(ctx, recipientID, domain.RefTypeCorrespondence, correspondenceID); err != nil {
		s.logger.Warn("mark read by ref failed",
			zap.String("recipient", recipientID),
			zap.String("correspondence_id", correspondenceID),
			zap.Error(err))
		return
	}
	s.invalidateCount(ctx, recipientID)
}

// FanOut creates one notification per recipient for a routing event and
// invalidates each recipient's unread count.
func (s *NotificationService) FanOut(ctx context.Context, recipients []domain.User, refID, title string) {
	for i := range recipients {
		notification := &domain.Notification{
			RecipientUserID: recipients[i].ID,
			RefType:         domain.RefTypeCorrespondence,
			RefID:           refID,
			Title:           title,
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			s.logger.Error("notification fan-out failed",
				zap.String("recipient", recipients[i].ID),
				zap.String("ref_id", refID),
				zap.Error(err))
			continue
		}
		if s.metrics != nil {
			s.metrics.NotificationsCreated.Inc()
		}
		s.invalidateCount(ctx, recipients[i].ID)
	}
}

func (s *NotificationService) getOwned(ctx context.Context, recipientID, notificationID string) (*domain.Notification, error) {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("notification", map[string]any{"id": notificationID})
		}
		return nil, err
	}
	if notification.RecipientUserID != recipientID {
		return nil, apperrors.NewForbidden("notification belongs to another recipient")
	}
	return notification, nil
}

func (s *NotificationService) invalidateCount(ctx context.Context, recipientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadCountKey(recipientID)); err != nil {
		s.logger.Warn("unread count cache invalidation failed", zap.Error(err))
	}
}

func unreadCountKey(recipientID string) string {
	return fmt.Sprintf("notifications:unread:%s", recipientID)
}
