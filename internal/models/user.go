package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User roles. Kept as a fixed set; anything else is rejected at signup.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// NormalizeEmail canonicalizes an address for storage and lookup. Every write
// and every lookup must go through this, or a mixed-case address can make an
// account unreachable at login.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type User struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	Email                string     `json:"email" db:"email"`
	Photo                string     `json:"photo" db:"photo"`
	Role                 string     `json:"role" db:"role"`
	PasswordHash         string     `json:"-" db:"password_hash"` // Never serialize in JSON
	PasswordChangedAt    *time.Time `json:"-" db:"password_changed_at"`
	PasswordResetToken   *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpires *time.Time `json:"-" db:"password_reset_expires"`
	Active               bool       `json:"-" db:"active"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// ChangedPasswordAfter reports whether the password was rotated after the
// given token-issuance time. Tokens minted before a rotation are stale.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Before(*u.PasswordChangedAt)
}
