package domain

import "time"

// UserRole distinguishes ordinary clerks from administrative actors who may
// manage organizational units.
type UserRole string

const (
	RoleClerk UserRole = "CLERK"
	RoleAdmin UserRole = "ADMIN"
)

// User is an employee belonging to one office/department. Account management
// lives outside this service; users are only authenticated and resolved here.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	OfficeID     string
	DepartmentID string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Unit returns the user's own office/department.
func (u *User) Unit() UnitRef {
	return UnitRef{OfficeID: u.OfficeID, DepartmentID: u.DepartmentID}
}
