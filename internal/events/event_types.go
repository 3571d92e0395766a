package events

import (
	"time"

	"github.com/karyalaya/patra-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCorrespondenceCreated     EventType = "correspondence_created"
	EventCorrespondenceTransferred EventType = "correspondence_transferred"
	EventCorrespondenceCompleted   EventType = "correspondence_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID               string      `json:"id"`
	Type             EventType   `json:"type"`
	CorrespondenceID string      `json:"correspondence_id"`
	ActorUserID      string      `json:"actor_user_id"`
	Timestamp        time.Time   `json:"timestamp"`
	Payload          interface{} `json:"payload"`
}

// CorrespondenceCreatedPayload carries routing data for delivery and fan-out.
type CorrespondenceCreatedPayload struct {
	Subject              string                        `json:"subject"`
	Priority             domain.CorrespondencePriority `json:"priority"`
	ReceiverOfficeID     string                        `json:"receiver_office_id"`
	ReceiverDepartmentID string                        `json:"receiver_department_id"`
}

// CorrespondenceTransferredPayload describes one routing change.
type CorrespondenceTransferredPayload struct {
	Subject              string  `json:"subject"`
	FromOfficeID         string  `json:"from_office_id"`
	FromDepartmentID     string  `json:"from_department_id"`
	ReceiverOfficeID     string  `json:"receiver_office_id"`
	ReceiverDepartmentID string  `json:"receiver_department_id"`
	Remarks              *string `json:"remarks,omitempty"`
}

// CorrespondenceCompletedPayload marks the terminal transition.
type CorrespondenceCompletedPayload struct {
	Subject string `json:"subject"`
}
