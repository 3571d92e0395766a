package domain

import "time"

// Office is the top level of the organizational hierarchy. Head offices may
// carry sub-units (faat) beneath their departments; branch offices may not.
type Office struct {
	ID           string
	Name         string
	IsHeadOffice bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Department belongs to exactly one office.
type Department struct {
	ID        string
	OfficeID  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubUnit (faat) is an optional third level under a department. Only valid
// when the owning office is a head office.
type SubUnit struct {
	ID           string
	DepartmentID string
	Name         string
	CreatedAt    time.Time
}

// UnitRef addresses an office/department pair for routing.
type UnitRef struct {
	OfficeID     string
	DepartmentID string
}
