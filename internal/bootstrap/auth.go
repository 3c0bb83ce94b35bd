package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/newsletter-api/config"
	"github.com/target/newsletter-api/internal/adapters/authroles"
	"github.com/target/newsletter-api/internal/adapters/devauth"
	"github.com/target/newsletter-api/internal/adapters/oidc"
	redisadapter "github.com/target/newsletter-api/internal/adapters/redis"
	"github.com/target/newsletter-api/internal/ports"
	"github.com/target/newsletter-api/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service for the configured auth mode.
// The admin surface cannot run without it, so misconfiguration is an error.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth service requires a redis client")
	}

	provider, err := buildAuthProvider(cfg.Auth)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("admin auth configured",
		"mode", cfg.Auth.Mode,
		"admin_group", cfg.Auth.AdminGroup,
		"viewer_group", cfg.Auth.ViewerGroup,
	)

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Sessions: redisadapter.NewSessionStore(cfg.RedisClient),
		Roles: authroles.StaticRoleMapper{
			AdminGroup:  cfg.Auth.AdminGroup,
			ViewerGroup: cfg.Auth.ViewerGroup,
		},
		SessionMaxAge: cfg.Auth.SessionMaxAge,
		Logger:        logger,
	})
}

//nolint:ireturn // the provider is chosen at runtime.
func buildAuthProvider(auth config.AuthConfig) (ports.AuthProvider, error) {
	switch auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:          auth.DevAuth.UserID,
			Email:           auth.DevAuth.Email,
			Groups:          auth.DevAuth.Groups,
			SessionDuration: auth.SessionMaxAge,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOAuth:
		oauth := auth.OAuth
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			return nil, errors.New("oauth auth mode requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET")
		}
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			GroupsClaim:  oauth.GroupsClaim,
		})
		if err != nil {
			return nil, fmt.Errorf("create oidc provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", auth.Mode)
	}
}
