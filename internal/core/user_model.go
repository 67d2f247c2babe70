package core

import (
	"context"
	"time"
)

// Role tags what an actor may do. The core never authenticates; it only
// authorizes actions against the role supplied per request.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleFactory  Role = "factory"
	RoleDelivery Role = "delivery"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleFactory || r == RoleDelivery
}

// User is a worker or administrator. EmployeeCode (e.g. "EMP-101") is the code
// snapshotted onto work orders for history.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	EmployeeCode string    `json:"employee_code"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserService manages user records and credential checks for the thin auth
// adapter. Everything beyond the {id, role} pair is outside the core's concern.
type UserService interface {
	Create(ctx context.Context, name, email, employeeCode, password string, role Role) (*User, error)
	// Authenticate verifies the email/password pair and returns the user.
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	// ListWorkers returns all active non-admin users, for assignee pick lists.
	ListWorkers(ctx context.Context) ([]User, error)
	// Delete deactivates a user. A user cannot delete themselves.
	Delete(ctx context.Context, userID, actingUserID int) error
}
