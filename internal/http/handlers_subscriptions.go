package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/newsletter-api/internal/domain/model"
	apperrors "github.com/target/newsletter-api/internal/errors"
)

// SubscriptionServiceInterface is the subscription surface used by the public endpoints.
type SubscriptionServiceInterface interface {
	Subscribe(ctx context.Context, name, email string) (*model.Subscription, error)
	Confirm(ctx context.Context, rawToken string) (*model.Subscription, error)
}

// SubscriptionHandlers serves the public subscribe and confirm endpoints.
type SubscriptionHandlers struct {
	Svc    SubscriptionServiceInterface
	Logger *slog.Logger
}

func (h *SubscriptionHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Subscribe registers a pending subscriber and sends the confirmation email.
// POST /subscriptions (form or JSON: name, email).
func (h *SubscriptionHandlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r, "name", "email")
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_body", Err: err})
		return
	}

	sub, err := h.Svc.Subscribe(r.Context(), fields["name"], fields["email"])
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, sub)
	case apperrors.IsValidation(err):
		writeAppError(w, http.StatusUnprocessableEntity, err)
	case apperrors.IsConflict(err):
		writeAppError(w, http.StatusConflict, err)
	default:
		writeInternalError(w, r, h.logger(), err)
	}
}

// Confirm marks the subscription owning the token as confirmed.
// GET /subscriptions/confirm?subscription_token=<token>.
func (h *SubscriptionHandlers) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")
	if token == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_token",
			Err:     errors.New("subscription_token is required"),
		})
		return
	}

	sub, err := h.Svc.Confirm(r.Context(), token)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, sub)
	case apperrors.IsValidation(err):
		writeAppError(w, http.StatusBadRequest, err)
	case apperrors.IsUnauthorized(err):
		writeAppError(w, http.StatusUnauthorized, err)
	default:
		writeInternalError(w, r, h.logger(), err)
	}
}
