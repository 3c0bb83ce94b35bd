package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/newsletter-api/internal/domain/auth"
	"github.com/target/newsletter-api/internal/ports"
	"golang.org/x/oauth2"
)

// newDiscoveryServer serves a discovery document whose token endpoint always fails.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/userinfo",
			"jwks_uri":               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})
	return srv
}

func createTestProvider(t *testing.T) (*Provider, *httptest.Server) {
	t.Helper()
	srv := newDiscoveryServer(t)
	p, err := NewProvider(ProviderConfig{
		ClientID:     "newsletter",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scope:        "openid profile email groups",
		DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	return p, srv
}

func TestNewProvider_UsesDiscoveredEndpoints(t *testing.T) {
	p, srv := createTestProvider(t)
	assert.Equal(t, srv.URL+"/authorize", p.config.Endpoint.AuthURL)
	assert.Equal(t, srv.URL+"/token", p.config.Endpoint.TokenURL)
	assert.Equal(t, defaultGroupsClaim, p.groupsClaim)
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{"missing client ID", ProviderConfig{ClientSecret: "s", RedirectURL: "r", DiscoveryURL: "d"}, "client ID is required"},
		{"missing client secret", ProviderConfig{ClientID: "c", RedirectURL: "r", DiscoveryURL: "d"}, "client secret is required"},
		{"missing redirect URL", ProviderConfig{ClientID: "c", ClientSecret: "s", DiscoveryURL: "d"}, "redirect URL is required"},
		{"missing discovery URL", ProviderConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "r"}, "discovery URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Begin(t *testing.T) {
	p, srv := createTestProvider(t)

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{RedirectURL: "/admin/newsletters"})

	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)
	assert.Contains(t, authURL, srv.URL+"/authorize")
	assert.Contains(t, authURL, "client_id=newsletter")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "nonce="+nonce)

	_, _, _, err = p.Begin(context.Background(), ports.BeginInput{})
	require.Error(t, err)
}

func TestProvider_Exchange(t *testing.T) {
	p, _ := createTestProvider(t)
	ctx := context.Background()

	for name, in := range map[string]ports.ExchangeInput{
		"authorization code is required": {State: "s", Nonce: "n"},
		"state is required":              {Code: "c", Nonce: "n"},
		"nonce is required":              {Code: "c", State: "s"},
	} {
		_, err := p.Exchange(ctx, in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), name)
	}

	_, err := p.Exchange(ctx, ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code for token")
}

func TestIdentityFromClaims(t *testing.T) {
	claims := map[string]any{
		"sub":                "00u1",
		"preferred_username": "editor",
		"name":               "Ed Itor",
		"email":              "editor@example.com",
		"roles":              []any{"newsletter-admins", "staff", "staff", 7},
	}

	id := identityFromClaims(claims, "roles")

	assert.Equal(t, domainauth.Identity{
		Subject:     "editor",
		DisplayName: "Ed Itor",
		Email:       "editor@example.com",
		Groups:      []string{"newsletter-admins", "staff"},
	}, id)

	assert.Equal(t, "00u1", identityFromClaims(map[string]any{"sub": "00u1"}, "groups").Subject)
	assert.Equal(t, []string{"solo"}, identityFromClaims(map[string]any{"groups": "solo"}, "groups").Groups)
}

func TestFillIdentity_KeepsExistingFields(t *testing.T) {
	dst := domainauth.Identity{Subject: "keep", Groups: []string{"x"}}
	fillIdentity(&dst, domainauth.Identity{Subject: "other", Email: "e@example.com", Groups: []string{"y"}})

	assert.Equal(t, "keep", dst.Subject)
	assert.Equal(t, "e@example.com", dst.Email)
	assert.Equal(t, []string{"x"}, dst.Groups)
}

func TestIDTokenFrom(t *testing.T) {
	raw, err := idTokenFrom((&oauth2.Token{}).WithExtra(map[string]any{"id_token": "a.b.c"}))
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", raw)

	_, err = idTokenFrom((&oauth2.Token{}).WithExtra(map[string]any{"other": "x"}))
	require.Error(t, err)

	_, err = idTokenFrom(nil)
	require.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	a, err := generateRandomString(16)
	require.NoError(t, err)
	b, err := generateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
