package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/newsletter-api/internal/domain/auth"
	"github.com/target/newsletter-api/internal/testutil"
)

func testSession(id string, ttl time.Duration) domainauth.Session {
	now := time.Now()
	return domainauth.Session{
		ID:          id,
		UserID:      "editor-1",
		DisplayName: "Editor",
		Email:       "editor@example.com",
		Role:        domainauth.RoleAdmin,
		CreatedAt:   now.UTC().Truncate(time.Second),
		ExpiresAt:   now.Add(ttl).UTC().Truncate(time.Millisecond),
	}
}

func TestSessionStore_SaveGetDelete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	sess := testSession("session-1", 30*time.Minute)
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.Role, got.Role)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Millisecond)

	ttl := client.TTL(ctx, DefaultKeyPrefix+"session-1").Val()
	assert.Greater(t, ttl, 29*time.Minute)

	require.NoError(t, store.Delete(ctx, "session-1"))
	_, err = store.Get(ctx, "session-1")
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_UnknownAndEmptyIDs(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	_, err = store.Get(ctx, "")
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	require.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_RejectsInvalidSessions(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	err := store.Save(ctx, testSession("", time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")

	err = store.Save(ctx, testSession("old", -time.Hour))
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionStore_ExpiredPayloadIsRemoved(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	now := time.Now()
	store := NewSessionStore(client)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("short", time.Hour)))
	store.now = func() time.Time { return now.Add(2 * time.Hour) }

	_, err := store.Get(ctx, "short")
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Equal(t, int64(0), client.Exists(ctx, DefaultKeyPrefix+"short").Val())
}

func TestSessionStore_CustomPrefix(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewSessionStore(client, WithKeyPrefix("test-prefix:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("prefixed", time.Hour)))
	assert.Equal(t, int64(1), client.Exists(ctx, "test-prefix:prefixed").Val())

	_, err := store.Get(ctx, "prefixed")
	require.NoError(t, err)
}
