package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/target/newsletter-api/internal/domain/idempotency"
	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/service"
)

const (
	newslettersPath = "/admin/newsletters"
	publishedFlash  = "Successfully published a newsletter."
)

// PublishServiceInterface is the publish surface used by the admin endpoints.
type PublishServiceInterface interface {
	Publish(ctx context.Context, in service.PublishInput) (*service.PublishResult, error)
	ListIssues(ctx context.Context, opts model.IssueListOptions) ([]*model.NewsletterIssue, error)
	QueueStats(ctx context.Context) ([]model.QueueStats, error)
}

// NewsletterHandlers serves the admin publish form and endpoint.
type NewsletterHandlers struct {
	Svc    PublishServiceInterface
	Logger *slog.Logger
}

func (h *NewsletterHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Form returns the data behind the publish form: a fresh idempotency key and any
// pending flash messages.
// GET /admin/newsletters.
func (h *NewsletterHandlers) Form(w http.ResponseWriter, r *http.Request) {
	messages := popFlash(w, r)
	WriteJSON(w, http.StatusOK, map[string]any{
		"idempotency_key": uuid.NewString(),
		"messages":        messages,
	})
}

// Publish publishes an issue once per (user, idempotency key). Retries with the same key
// receive the stored response byte for byte.
// POST /admin/newsletters (form or JSON: title, text_content, html_content, idempotency_key).
func (h *NewsletterHandlers) Publish(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	fields, err := readFields(w, r, "title", "text_content", "html_content", "idempotency_key")
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_body", Err: err})
		return
	}
	key, err := idempotency.ParseKey(fields["idempotency_key"])
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_idempotency_key", Err: err})
		return
	}

	result, err := h.Svc.Publish(r.Context(), service.PublishInput{
		Scope: idempotency.Scope{UserID: userID, Key: key},
		Request: model.PublishIssueRequest{
			Title:       fields["title"],
			TextContent: fields["text_content"],
			HTMLContent: fields["html_content"],
		},
		Render: renderPublished,
	})
	if errors.Is(err, model.ErrIssueContentRequired) {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_issue", Err: err})
		return
	}
	if err != nil {
		writeInternalError(w, r, h.logger(), err)
		return
	}

	if err := result.Response.WriteTo(w); err != nil {
		h.logger().WarnContext(r.Context(), "write publish response", "error", err)
	}
}

// renderPublished builds the post-publish redirect. It is the response stored for replay.
func renderPublished(*model.NewsletterIssue) (*idempotency.Response, error) {
	cw := newCaptureWriter()
	setFlash(cw, publishedFlash)
	cw.Header().Set("Location", newslettersPath)
	cw.WriteHeader(http.StatusSeeOther)
	return cw.response(), nil
}

// Issues lists published issues, newest first.
// GET /api/admin/issues?limit=&offset=.
func (h *NewsletterHandlers) Issues(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, 500)
	issues, err := h.Svc.ListIssues(r.Context(), model.IssueListOptions{Limit: limit, Offset: offset})
	if err != nil {
		writeInternalError(w, r, h.logger(), err)
		return
	}
	if issues == nil {
		issues = []*model.NewsletterIssue{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"issues": issues, "limit": limit, "offset": offset})
}

// QueueStats reports pending delivery tasks per issue.
// GET /api/admin/queue.
func (h *NewsletterHandlers) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.QueueStats(r.Context())
	if err != nil {
		writeInternalError(w, r, h.logger(), err)
		return
	}
	var pending int64
	for _, s := range stats {
		pending += s.Pending
	}
	if stats == nil {
		stats = []model.QueueStats{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"issues": stats, "pending": pending})
}
