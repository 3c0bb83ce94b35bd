// Package devauth provides a config-driven AuthProvider for local development.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	domainauth "github.com/target/newsletter-api/internal/domain/auth"
	"github.com/target/newsletter-api/internal/ports"
)

// Config is the identity every dev login resolves to. Groups may be empty.
type Config struct {
	UserID          string
	Email           string
	Groups          []string
	SessionDuration time.Duration // 8h when zero
}

// Provider skips the IdP round trip: Begin points straight back at the callback and
// Exchange returns the configured identity.
type Provider struct {
	identity        domainauth.Identity
	sessionDuration time.Duration
	callbackPath    string

	mu      sync.Mutex
	pending map[string]string // state -> nonce
}

// NewProvider constructs a dev auth provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur <= 0 {
		dur = 8 * time.Hour
	}
	return &Provider{
		identity: domainauth.Identity{
			Subject:     cfg.UserID,
			DisplayName: cfg.UserID,
			Email:       cfg.Email,
			Groups:      append([]string(nil), cfg.Groups...),
		},
		sessionDuration: dur,
		callbackPath:    "/auth/callback",
		pending:         make(map[string]string),
	}, nil
}

// Begin returns a local callback URL carrying a fresh state.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	p.mu.Lock()
	p.pending[state] = nonce
	p.mu.Unlock()

	q := url.Values{"code": {"dev"}, "state": {state}}
	return p.callbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange checks that state and nonce came from Begin and returns the dev identity.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	p.mu.Lock()
	nonce, ok := p.pending[in.State]
	delete(p.pending, in.State)
	p.mu.Unlock()
	if !ok || nonce != in.Nonce {
		return domainauth.Identity{}, errors.New("dev auth: unknown state or nonce")
	}

	id := p.identity
	id.Groups = append([]string(nil), id.Groups...)
	id.ExpiresAt = time.Now().Add(p.sessionDuration)
	return id, nil
}

func randomString(n int) (string, error) {
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
