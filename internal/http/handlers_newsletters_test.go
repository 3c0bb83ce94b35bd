package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/service"
)

func newTestRouter(auth *fakeAuthService, pub *memoryPublishService) http.Handler {
	return NewRouter(RouterServices{
		Auth:          auth,
		Subscriptions: &fakeSubscriptionService{},
		Publish:       pub,
		Logger:        discardLogger(),
	})
}

func publishForm(key string) url.Values {
	return url.Values{
		"title":           {"Issue #1"},
		"text_content":    {"hello"},
		"html_content":    {"<p>hello</p>"},
		"idempotency_key": {key},
	}
}

func postForm(t *testing.T, h http.Handler, sessionID string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/newsletters", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublish_RedirectsWithFlash(t *testing.T) {
	pub := newMemoryPublishService()
	h := newTestRouter(newFakeAuthService(adminSession()), pub)

	rec := postForm(t, h, "admin-session", publishForm("key-1"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/newsletters", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "flash", cookies[0].Name)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "Issue #1", pub.published[0].Title)
}

func TestPublish_ReplayIsByteIdentical(t *testing.T) {
	pub := newMemoryPublishService()
	h := newTestRouter(newFakeAuthService(adminSession()), pub)

	first := postForm(t, h, "admin-session", publishForm("key-1"))
	second := postForm(t, h, "admin-session", publishForm("key-1"))

	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Header(), second.Header())
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Len(t, pub.published, 1)
}

func TestPublish_JSONBody(t *testing.T) {
	pub := newMemoryPublishService()
	h := newTestRouter(newFakeAuthService(adminSession()), pub)

	body := `{"title":"T","text_content":"x","html_content":"","idempotency_key":"k"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/newsletters", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "admin-session"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestPublish_ClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(url.Values)
	}{
		{name: "empty key", mutate: func(v url.Values) { v.Set("idempotency_key", "") }},
		{name: "key too long", mutate: func(v url.Values) { v.Set("idempotency_key", strings.Repeat("k", 51)) }},
		{name: "key with control byte", mutate: func(v url.Values) { v.Set("idempotency_key", "a\x01b") }},
		{name: "missing title", mutate: func(v url.Values) { v.Set("title", " ") }},
		{name: "no content", mutate: func(v url.Values) { v.Set("text_content", ""); v.Set("html_content", "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := newMemoryPublishService()
			h := newTestRouter(newFakeAuthService(adminSession()), pub)
			form := publishForm("key-1")
			tt.mutate(form)

			rec := postForm(t, h, "admin-session", form)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, pub.published)
		})
	}
}

func TestPublish_AccessControl(t *testing.T) {
	pub := newMemoryPublishService()
	h := newTestRouter(newFakeAuthService(adminSession(), viewerSession()), pub)

	assert.Equal(t, http.StatusUnauthorized, postForm(t, h, "", publishForm("k")).Code)
	assert.Equal(t, http.StatusUnauthorized, postForm(t, h, "unknown", publishForm("k")).Code)
	assert.Equal(t, http.StatusForbidden, postForm(t, h, "viewer-session", publishForm("k")).Code)
	assert.Empty(t, pub.published)
}

func TestPublish_ServiceErrorIs500(t *testing.T) {
	pub := newMemoryPublishService()
	pub.publishErr = service.ErrSavedResponseMissing
	h := newTestRouter(newFakeAuthService(adminSession()), pub)

	rec := postForm(t, h, "admin-session", publishForm("k"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "idempotency record")
}

func TestForm_ReturnsKeyAndPopsFlash(t *testing.T) {
	h := newTestRouter(newFakeAuthService(adminSession()), newMemoryPublishService())

	published := postForm(t, h, "admin-session", publishForm("k"))
	flash := published.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/admin/newsletters", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "admin-session"})
	req.AddCookie(&http.Cookie{Name: flash.Name, Value: flash.Value})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		IdempotencyKey string   `json:"idempotency_key"`
		Messages       []string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.IdempotencyKey)
	assert.Equal(t, []string{"Successfully published a newsletter."}, body.Messages)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "flash", cleared[0].Name)
	assert.Negative(t, cleared[0].MaxAge)
}

func TestForm_BrowserWithoutSessionRedirectsToLogin(t *testing.T) {
	h := newTestRouter(newFakeAuthService(), newMemoryPublishService())

	req := httptest.NewRequest(http.MethodGet, "/admin/newsletters", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?redirect_uri=%2Fadmin%2Fnewsletters", rec.Header().Get("Location"))
}

func TestIssuesAndQueueStats(t *testing.T) {
	pub := newMemoryPublishService()
	pub.issues = []*model.NewsletterIssue{{ID: "i1", Title: "One"}}
	pub.stats = []model.QueueStats{{IssueID: "i1", Title: "One", Pending: 3}, {IssueID: "i2", Pending: 2}}
	h := newTestRouter(newFakeAuthService(viewerSession()), pub)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "viewer-session"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/api/admin/issues?limit=1000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"limit":500`)
	assert.Contains(t, rec.Body.String(), `"title":"One"`)

	rec = get("/api/admin/queue")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending":5`)

	pub.listErr = errBoom
	assert.Equal(t, http.StatusInternalServerError, get("/api/admin/queue").Code)
}
