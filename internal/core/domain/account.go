package domain

import (
	"errors"
	"time"
)

// Role is the access level assigned to an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrAccountExists = errors.New("account already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidToken = errors.New("invalid or expired token")
var ErrInvalidEmail = errors.New("invalid email address")
var ErrWeakPassword = errors.New("password must be at least 8 characters")
var ErrForbidden = errors.New("access forbidden")
var ErrStoreUnavailable = errors.New("store unavailable")

// Account is a registered identity with credentials and profile data.
// Emails are stored lowercased; comparison is always case-insensitive.
// PasswordHash and the one-time tokens never leave the server.
type Account struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	PasswordHash      string     `json:"-"`
	Active            bool       `json:"active"`
	Role              Role       `json:"role"`
	Image             string     `json:"image,omitempty"`
	VerificationToken string     `json:"-"`
	ResetToken        string     `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
}

// PasswordChangeRecord is an append-only audit entry written on every
// successful secret mutation. It only ever answers "when did this account
// last change its password"; no reuse policy hangs off it.
type PasswordChangeRecord struct {
	AccountID string    `json:"account_id"`
	ChangedAt time.Time `json:"changed_at"`
}
