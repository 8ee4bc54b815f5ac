package model

import (
	"errors"
	"time"
)

// Role controls access to the moderation entry points. Regular resolution
// never consults it.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// CanModerate reports whether the role may use the moderation view.
func (r Role) CanModerate() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Account is an opaque reference to an identity owned by the account system.
// The engine only reads it for existence and role checks.
type Account struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var (
	// ErrAccountNotFound is returned when a referenced account does not exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrNotModerator is returned when a non-moderator calls a moderation entry point
	ErrNotModerator = errors.New("account is not a moderator")
)
