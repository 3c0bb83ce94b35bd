package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/newsletter-api/internal/domain/auth"
	"github.com/target/newsletter-api/internal/domain/idempotency"
	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/service"
)

// fakeAuthService is a test double for AuthServiceInterface. Sessions are looked up by id.
type fakeAuthService struct {
	sessions          map[string]*domainauth.Session
	beginLoginFunc    func(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	completeLoginFunc func(ctx context.Context, in service.CompleteLoginInput) (*domainauth.Session, error)
	loggedOut         []string
}

func newFakeAuthService(sessions ...*domainauth.Session) *fakeAuthService {
	f := &fakeAuthService{sessions: map[string]*domainauth.Session{}}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeAuthService) BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	if f.beginLoginFunc != nil {
		return f.beginLoginFunc(ctx, redirectURL)
	}
	return &service.BeginLoginResult{
		AuthURL: "https://idp.example.com/auth?state=test-state",
		State:   "test-state",
		Nonce:   "test-nonce",
	}, nil
}

func (f *fakeAuthService) CompleteLogin(ctx context.Context, in service.CompleteLoginInput) (*domainauth.Session, error) {
	if f.completeLoginFunc != nil {
		return f.completeLoginFunc(ctx, in)
	}
	return &domainauth.Session{
		ID:        "new-session",
		UserID:    "editor",
		Role:      domainauth.RoleAdmin,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthService) GetSession(_ context.Context, id string) (*domainauth.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, service.ErrNotAuthenticated
}

func (f *fakeAuthService) Logout(_ context.Context, id string) error {
	f.loggedOut = append(f.loggedOut, id)
	delete(f.sessions, id)
	return nil
}

func adminSession() *domainauth.Session {
	return &domainauth.Session{ID: "admin-session", UserID: "editor", Role: domainauth.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}
}

func viewerSession() *domainauth.Session {
	return &domainauth.Session{ID: "viewer-session", UserID: "reader", Role: domainauth.RoleViewer, ExpiresAt: time.Now().Add(time.Hour)}
}

// fakeSubscriptionService returns canned results.
type fakeSubscriptionService struct {
	subscribeErr error
	confirmErr   error
	gotName      string
	gotEmail     string
	gotToken     string
}

func (f *fakeSubscriptionService) Subscribe(_ context.Context, name, email string) (*model.Subscription, error) {
	f.gotName, f.gotEmail = name, email
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	return &model.Subscription{ID: "sub-1", Name: name, Email: email, Status: model.SubscriptionStatusPending}, nil
}

func (f *fakeSubscriptionService) Confirm(_ context.Context, token string) (*model.Subscription, error) {
	f.gotToken = token
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &model.Subscription{ID: "sub-1", Status: model.SubscriptionStatusConfirmed}, nil
}

// memoryPublishService keeps one saved response per scope, the way the real service
// does inside its transaction.
type memoryPublishService struct {
	mu         sync.Mutex
	saved      map[idempotency.Scope]*idempotency.Response
	published  []model.PublishIssueRequest
	publishErr error
	issues     []*model.NewsletterIssue
	stats      []model.QueueStats
	listErr    error
}

func newMemoryPublishService() *memoryPublishService {
	return &memoryPublishService{saved: map[idempotency.Scope]*idempotency.Response{}}
}

func (m *memoryPublishService) Publish(_ context.Context, in service.PublishInput) (*service.PublishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return nil, m.publishErr
	}
	if err := in.Request.Validate(); err != nil {
		return nil, err
	}
	if resp, ok := m.saved[in.Scope]; ok {
		return &service.PublishResult{Response: resp, Replayed: true}, nil
	}
	issue := &model.NewsletterIssue{ID: "issue-1", Title: in.Request.Title}
	resp, err := in.Render(issue)
	if err != nil {
		return nil, err
	}
	m.saved[in.Scope] = resp
	m.published = append(m.published, in.Request)
	return &service.PublishResult{Response: resp, Issue: issue}, nil
}

func (m *memoryPublishService) ListIssues(context.Context, model.IssueListOptions) ([]*model.NewsletterIssue, error) {
	return m.issues, m.listErr
}

func (m *memoryPublishService) QueueStats(context.Context) ([]model.QueueStats, error) {
	return m.stats, m.listErr
}

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
