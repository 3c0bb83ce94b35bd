package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/target/newsletter-api/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth          AuthServiceInterface
	Subscriptions SubscriptionServiceInterface
	Publish       PublishServiceInterface
	// DB backs the readiness check. Optional.
	DB           Pinger
	CookieDomain string
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	health := healthHandler(services.DB)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	if services.Subscriptions != nil {
		registerSubscriptionRoutes(mux, &SubscriptionHandlers{Svc: services.Subscriptions, Logger: logger})
	}
	if services.Auth != nil {
		registerAuthRoutes(mux, &AuthHandlers{
			Svc:          services.Auth,
			CookieDomain: services.CookieDomain,
			Logger:       logger,
		})
		if services.Publish != nil {
			registerNewsletterRoutes(mux, &NewsletterHandlers{Svc: services.Publish, Logger: logger}, services.Auth)
		}
	}

	return Logging(logger)(Recover(logger)(mux))
}

func registerSubscriptionRoutes(mux *http.ServeMux, h *SubscriptionHandlers) {
	mux.HandleFunc("POST /subscriptions", h.Subscribe)
	mux.HandleFunc("GET /subscriptions/confirm", h.Confirm)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/me", h.Me)
}

func registerNewsletterRoutes(mux *http.ServeMux, h *NewsletterHandlers, sessions SessionResolver) {
	admin := RequireRole(sessions, domainauth.RoleAdmin)
	viewer := RequireRole(sessions, domainauth.RoleViewer)

	mux.Handle("GET "+newslettersPath, admin(http.HandlerFunc(h.Form)))
	mux.Handle("POST "+newslettersPath, admin(http.HandlerFunc(h.Publish)))
	mux.Handle("GET /api/admin/issues", viewer(http.HandlerFunc(h.Issues)))
	mux.Handle("GET /api/admin/queue", viewer(http.HandlerFunc(h.QueueStats)))
}
