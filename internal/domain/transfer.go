package domain

import "time"

// MaxTransferRemarksLen caps the free-text remarks on a transfer.
const MaxTransferRemarksLen = 500

// TransferRecord is an immutable audit entry describing one routing change.
// Records are append-only: once written they are never mutated or removed.
type TransferRecord struct {
	ID               string
	CorrespondenceID string
	FromOfficeID     string
	FromDepartmentID string
	ToOfficeID       string
	ToDepartmentID   string
	Remarks          *string
	ActorUserID      string
	CreatedAt        time.Time
}
