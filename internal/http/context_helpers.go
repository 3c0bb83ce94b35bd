package httpx

import (
	"context"

	domainauth "github.com/target/newsletter-api/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the session placed by RequireRole and a boolean indicating presence.
func GetSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// UserIDFromContext returns the authenticated admin's user id, or "" when there is none.
func UserIDFromContext(ctx context.Context) string {
	if s, ok := GetSessionFromContext(ctx); ok {
		return s.UserID
	}
	return ""
}
