package model

import (
	"errors"
	"time"
)

// User represents an authentication user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin       = "admin"
	RoleStorekeeper = "storekeeper"
	RoleUser        = "user"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:       3,
		RoleStorekeeper: 2,
		RoleUser:        1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStorekeeper || role == RoleUser
}

// SeesAllMarathons reports whether the role may operate on every marathon
// without an explicit assignment.
func SeesAllMarathons(role string) bool {
	return role == RoleAdmin || role == RoleStorekeeper
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// Actor is the authenticated identity a request acts as.
type Actor struct {
	UserID   int64
	Username string
	Role     string
}

// SeesAllMarathons reports whether the actor bypasses marathon assignments.
func (a Actor) SeesAllMarathons() bool {
	return SeesAllMarathons(a.Role)
}
