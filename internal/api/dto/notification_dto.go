package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/karyalaya/patra-service/internal/domain"
)

// NotificationResponse mirrors one per-recipient notification row.
type NotificationResponse struct {
	ID        string                     `json:"id"`
	RefType   domain.NotificationRefType `json:"ref_type"`
	RefID     string                     `json:"ref_id"`
	Title     string                     `json:"title"`
	IsRead    bool                       `json:"is_read"`
	IsStarred bool                       `json:"is_starred"`
	CreatedAt time.Time                  `json:"created_at"`
}

// PatchNotificationRequest updates read/starred state. is_read is monotonic:
// only true is accepted, unreading is rejected locally.
type PatchNotificationRequest struct {
	IsRead    *bool `json:"is_read"`
	IsStarred *bool `json:"is_starred"`
}

// Validate rejects empty patches and attempts to unset is_read.
func (r PatchNotificationRequest) Validate() error {
	if r.IsRead == nil && r.IsStarred == nil {
		return validation.Errors{
			"is_read": validation.NewError("validation_required", "at least one of is_read, is_starred must be provided"),
		}
	}
	if r.IsRead != nil && !*r.IsRead {
		return validation.Errors{
			"is_read": validation.NewError("validation_monotonic", "is_read cannot be reverted to false"),
		}
	}
	return nil
}

// NotificationResponseFrom converts a domain notification.
func NotificationResponseFrom(notification domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID,
		RefType:   notification.RefType,
		RefID:     notification.RefID,
		Title:     notification.Title,
		IsRead:    notification.IsRead,
		IsStarred: notification.IsStarred,
		CreatedAt: notification.CreatedAt,
	}
}
