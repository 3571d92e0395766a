package domain

import "time"

// CorrespondenceStatus enumerates lifecycle states for routed letters.
type CorrespondenceStatus string

const (
	StatusPending   CorrespondenceStatus = "PENDING"
	StatusReceived  CorrespondenceStatus = "RECEIVED"
	StatusRead      CorrespondenceStatus = "READ"
	StatusForwarded CorrespondenceStatus = "FORWARDED"
	StatusCompleted CorrespondenceStatus = "COMPLETED"
)

// CorrespondencePriority enumerates urgency levels.
type CorrespondencePriority string

const (
	PriorityLow    CorrespondencePriority = "LOW"
	PriorityNormal CorrespondencePriority = "NORMAL"
	PriorityMedium CorrespondencePriority = "MEDIUM"
	PriorityHigh   CorrespondencePriority = "HIGH"
	PriorityUrgent CorrespondencePriority = "URGENT"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p CorrespondencePriority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Correspondence (patra) is the aggregate for a routed inter-office letter.
// Receiver fields are mutable only through a transfer.
type Correspondence struct {
	ID                   string
	Subject              string
	Body                 string
	Priority             CorrespondencePriority
	AttachmentKey        *string
	AttachmentName       *string
	AttachmentMime       *string
	SenderOfficeID       string
	SenderDepartmentID   string
	ReceiverOfficeID     string
	ReceiverDepartmentID string
	Status               CorrespondenceStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Receiver returns the current receiving unit.
func (c *Correspondence) Receiver() UnitRef {
	return UnitRef{OfficeID: c.ReceiverOfficeID, DepartmentID: c.ReceiverDepartmentID}
}

// statusRank orders lifecycle states; status never moves to a lower rank.
var statusRank = map[CorrespondenceStatus]int{
	StatusPending:   0,
	StatusReceived:  1,
	StatusRead:      2,
	StatusForwarded: 3,
	StatusCompleted: 4,
}

// StatusRank returns the monotonic ordering of a status, -1 when unknown.
func StatusRank(s CorrespondenceStatus) int {
	rank, ok := statusRank[s]
	if !ok {
		return -1
	}
	return rank
}

// CanTransfer reports whether a correspondence in status s may be routed
// onward. Re-routing an already forwarded item is permitted.
func CanTransfer(s CorrespondenceStatus) bool {
	switch s {
	case StatusReceived, StatusRead, StatusForwarded:
		return true
	}
	return false
}

// CanComplete reports whether a correspondence in status s may be closed out.
func CanComplete(s CorrespondenceStatus) bool {
	return CanTransfer(s)
}

// MarkReadOutcome describes the effect of a mark-read request.
type MarkReadOutcome int

const (
	// MarkReadApply transitions RECEIVED to READ.
	MarkReadApply MarkReadOutcome = iota
	// MarkReadNoop means the item is already at or past READ; the call
	// succeeds without changing anything.
	MarkReadNoop
	// MarkReadInvalid means the item has not been delivered yet.
	MarkReadInvalid
)

// MarkReadEffect classifies a mark-read request against the current status.
// Marking an already-read item is a no-op, never a regression.
func MarkReadEffect(s CorrespondenceStatus) MarkReadOutcome {
	switch s {
	case StatusReceived:
		return MarkReadApply
	case StatusRead, StatusForwarded, StatusCompleted:
		return MarkReadNoop
	}
	return MarkReadInvalid
}
