package dto

import "github.com/karyalaya/patra-service/internal/domain"

// OfficeResponse mirrors one office node.
type OfficeResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsHeadOffice bool   `json:"is_head_office"`
}

// DepartmentResponse mirrors one department node.
type DepartmentResponse struct {
	ID       string `json:"id"`
	OfficeID string `json:"office_id"`
	Name     string `json:"name"`
}

// SubUnitResponse mirrors one sub-unit (faat) node.
type SubUnitResponse struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

// OfficeListEnvelope wraps the office listing. Degraded is set when the data
// comes from the last-good snapshot instead of the live store; consumers must
// not render it as fresh.
type OfficeListEnvelope struct {
	Data           []OfficeResponse `json:"data"`
	Degraded       bool             `json:"degraded"`
	DegradedReason string           `json:"degraded_reason,omitempty"`
}

// OfficeResponseFrom converts a domain office.
func OfficeResponseFrom(office domain.Office) OfficeResponse {
	return OfficeResponse{
		ID:           office.ID,
		Name:         office.Name,
		IsHeadOffice: office.IsHeadOffice,
	}
}
