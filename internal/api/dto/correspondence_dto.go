package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/karyalaya/patra-service/internal/domain"
)

// CreateCorrespondenceRequest payload. For multipart requests the same
// fields arrive as form values with the file under "attachment".
type CreateCorrespondenceRequest struct {
	Subject            string                        `json:"subject" form:"subject"`
	Body               string                        `json:"body" form:"body"`
	Priority           domain.CorrespondencePriority `json:"priority" form:"priority"`
	ReceiverOffice     string                        `json:"receiver_office" form:"receiver_office"`
	ReceiverDepartment string                        `json:"receiver_department" form:"receiver_department"`
}

// Validate enforces local preconditions before anything reaches the store.
func (r CreateCorrespondenceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Subject, validation.Required, validation.RuneLength(1, 255)),
		validation.Field(&r.Priority, validation.In(
			domain.PriorityLow, domain.PriorityNormal, domain.PriorityMedium,
			domain.PriorityHigh, domain.PriorityUrgent,
		)),
		validation.Field(&r.ReceiverOffice, validation.Required),
		validation.Field(&r.ReceiverDepartment, validation.Required),
	)
}

// TransferRequest payload for routing a correspondence onward.
type TransferRequest struct {
	ReceiverOffice     string  `json:"receiver_office"`
	ReceiverDepartment string  `json:"receiver_department"`
	Remarks            *string `json:"remarks"`
}

// Validate enforces the routing-target and remarks preconditions.
func (r TransferRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ReceiverOffice, validation.Required),
		validation.Field(&r.ReceiverDepartment, validation.Required),
		validation.Field(&r.Remarks, validation.RuneLength(0, domain.MaxTransferRemarksLen)),
	)
}

// CorrespondenceSummary is the listing row.
type CorrespondenceSummary struct {
	ID                   string                        `json:"id"`
	Subject              string                        `json:"subject"`
	Priority             domain.CorrespondencePriority `json:"priority"`
	Status               domain.CorrespondenceStatus   `json:"status"`
	SenderOfficeID       string                        `json:"sender_office"`
	SenderDepartmentID   string                        `json:"sender_department"`
	ReceiverOfficeID     string                        `json:"receiver_office"`
	ReceiverDepartmentID string                        `json:"receiver_department"`
	HasAttachment        bool                          `json:"has_attachment"`
	CreatedAt            time.Time                     `json:"created_at"`
	UpdatedAt            time.Time                     `json:"updated_at"`
}

// TransferRecordResponse is one audit entry.
type TransferRecordResponse struct {
	ID               string    `json:"id"`
	FromOfficeID     string    `json:"from_office"`
	FromDepartmentID string    `json:"from_department"`
	ToOfficeID       string    `json:"to_office"`
	ToDepartmentID   string    `json:"to_department"`
	Remarks          *string   `json:"remarks,omitempty"`
	ActorUserID      string    `json:"actor"`
	CreatedAt        time.Time `json:"created_at"`
}

// CorrespondenceDetail is the full record including history.
type CorrespondenceDetail struct {
	CorrespondenceSummary
	Body            string                   `json:"body"`
	AttachmentName  *string                  `json:"attachment_name,omitempty"`
	AttachmentURL   string                   `json:"attachment_url,omitempty"`
	TransferHistory []TransferRecordResponse `json:"transfer_history"`
}

// ListEnvelope is the paginated response shape shared by all listings.
type ListEnvelope struct {
	Data        any `json:"data"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
}
