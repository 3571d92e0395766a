package domain

import "time"

// NotificationRefType names the kind of record a notification points at.
type NotificationRefType string

const (
	RefTypeCorrespondence NotificationRefType = "CORRESPONDENCE"
	RefTypeFile           NotificationRefType = "FILE"
)

// Notification is a per-recipient marker for a routing or filing event.
// IsRead only ever moves false to true; IsStarred toggles freely. Rows are
// mutated only by their recipient.
type Notification struct {
	ID              string
	RecipientUserID string
	RefType         NotificationRefType
	RefID           string
	Title           string
	IsRead          bool
	IsStarred       bool
	CreatedAt       time.Time
}
