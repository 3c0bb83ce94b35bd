// Package ports defines the admin authentication ports.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/target/newsletter-api/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes a login against an identity provider.
type AuthProvider interface {
	// Begin returns the provider auth URL together with an opaque state and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)
	// Exchange verifies state and nonce and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// SessionStore persists admin sessions. Get returns domainauth.ErrSessionNotFound for
// unknown or expired ids.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps provider groups to a role.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}
