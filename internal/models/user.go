package models

import (
	"time"
)

// Account roles and statuses
const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusDisabled  = "disabled"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string // "user" or "admin"
	Status       string // "active", "suspended", "disabled"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user may open the catalog dashboard
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
