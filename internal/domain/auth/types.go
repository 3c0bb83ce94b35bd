// Package auth holds the admin identity, role and session types.
package auth

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned by session stores for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Role is what an admin session may do.
type Role string

const (
	// RoleAdmin may publish issues.
	RoleAdmin Role = "admin"
	// RoleViewer may read issues and queue state.
	RoleViewer Role = "viewer"
	// RoleGuest is authenticated but has no admin access.
	RoleGuest Role = "guest"
)

func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// Allows reports whether r grants at least the access of required.
func (r Role) Allows(required Role) bool { return r.rank() >= required.rank() }

// Identity is the principal returned by an identity provider.
type Identity struct {
	// Subject is the stable provider identifier. It becomes the session UserID.
	Subject     string
	DisplayName string
	Email       string
	Groups      []string
	ExpiresAt   time.Time
}

// Session is the server-side record of a logged in admin. UserID scopes idempotency keys.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }
