package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/newsletter-api/internal/domain/auth"
	"github.com/target/newsletter-api/internal/ports"
)

// ErrNotAuthenticated is returned for a missing, unknown or expired admin session.
var ErrNotAuthenticated = errors.New("not authenticated")

const defaultSessionMaxAge = 12 * time.Hour

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider // Required
	Sessions ports.SessionStore // Required
	Roles    ports.RoleMapper   // Required
	// SessionMaxAge caps a session's lifetime below the provider token expiry. Defaults to 12h.
	SessionMaxAge time.Duration
	Logger        *slog.Logger // Optional
}

// AuthService runs the admin login flow and resolves sessions to the user id that scopes
// idempotency keys.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
	roles    ports.RoleMapper
	maxAge   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	switch {
	case opts.Provider == nil:
		return nil, errors.New("AuthProvider is required")
	case opts.Sessions == nil:
		return nil, errors.New("SessionStore is required")
	case opts.Roles == nil:
		return nil, errors.New("RoleMapper is required")
	}
	maxAge := opts.SessionMaxAge
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		roles:    opts.Roles,
		maxAge:   maxAge,
		logger:   logger.With("component", "auth_service"),
		now:      time.Now,
	}, nil
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin starts a login flow. The caller keeps State and Nonce until the callback.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code, maps groups to a role and persists a new session.
func (s *AuthService) CompleteLogin(ctx context.Context, in CompleteLoginInput) (*domainauth.Session, error) {
	switch {
	case in.Code == "":
		return nil, errors.New("authorization code is required")
	case in.State == "":
		return nil, errors.New("state parameter is required")
	case in.Nonce == "":
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput(in))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	now := s.now()
	expires := now.Add(s.maxAge)
	if !identity.ExpiresAt.IsZero() && identity.ExpiresAt.Before(expires) {
		expires = identity.ExpiresAt
	}
	sess := domainauth.Session{
		ID:          uuid.NewString(),
		UserID:      identity.Subject,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		Role:        s.roles.Map(identity.Groups),
		CreatedAt:   now.UTC(),
		ExpiresAt:   expires.UTC(),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "admin logged in", "user_id", sess.UserID, "role", sess.Role)
	return &sess, nil
}

// GetSession resolves a session id. Unknown and expired sessions return ErrNotAuthenticated.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ErrNotAuthenticated
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domainauth.ErrSessionNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			return nil, errors.Join(ErrNotAuthenticated, fmt.Errorf("delete session: %w", err))
		}
		return nil, ErrNotAuthenticated
	}
	return &sess, nil
}

// Logout removes a session. An empty id is a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
