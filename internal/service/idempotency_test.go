package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/domain/idempotency"
	"github.com/target/newsletter-api/internal/mocks"
	"go.uber.org/mock/gomock"
)

func TestNewIdempotencyService_RequiresRepo(t *testing.T) {
	_, err := NewIdempotencyService(IdempotencyServiceOptions{})
	require.Error(t, err)
}

func TestIdempotencyService_TryProcessing(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh claim starts processing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIdempotencyRepository(ctrl)
		scope := testScope(t, "user-1")
		repo.EXPECT().ClaimTx(ctx, gomock.Nil(), scope).Return(true, nil)

		svc, err := NewIdempotencyService(IdempotencyServiceOptions{Repo: repo, Logger: discardLogger()})
		require.NoError(t, err)

		action, saved, err := svc.TryProcessing(ctx, nil, scope)
		require.NoError(t, err)
		assert.Equal(t, idempotency.StartProcessing, action)
		assert.Nil(t, saved)
	})

	t.Run("existing claim returns the saved response", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIdempotencyRepository(ctrl)
		scope := testScope(t, "user-1")
		resp := &idempotency.Response{
			StatusCode: http.StatusSeeOther,
			Headers:    []idempotency.HeaderPair{{Name: "Location", Value: []byte("/admin/newsletters")}},
			Body:       []byte{},
		}
		gomock.InOrder(
			repo.EXPECT().ClaimTx(ctx, gomock.Nil(), scope).Return(false, nil),
			repo.EXPECT().GetSavedTx(ctx, gomock.Nil(), scope).Return(resp, nil),
		)

		svc, err := NewIdempotencyService(IdempotencyServiceOptions{Repo: repo, Logger: discardLogger()})
		require.NoError(t, err)

		action, saved, err := svc.TryProcessing(ctx, nil, scope)
		require.NoError(t, err)
		assert.Equal(t, idempotency.ReturnSavedResponse, action)
		assert.Same(t, resp, saved)
	})

	t.Run("existing claim without response is an error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIdempotencyRepository(ctrl)
		scope := testScope(t, "user-1")
		repo.EXPECT().ClaimTx(ctx, gomock.Nil(), scope).Return(false, nil)
		repo.EXPECT().GetSavedTx(ctx, gomock.Nil(), scope).Return(nil, nil)

		svc, err := NewIdempotencyService(IdempotencyServiceOptions{Repo: repo, Logger: discardLogger()})
		require.NoError(t, err)

		_, _, err = svc.TryProcessing(ctx, nil, scope)
		require.ErrorIs(t, err, ErrSavedResponseMissing)
	})

	t.Run("claim failure is wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIdempotencyRepository(ctrl)
		boom := errors.New("boom")
		repo.EXPECT().ClaimTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, boom)

		svc, err := NewIdempotencyService(IdempotencyServiceOptions{Repo: repo, Logger: discardLogger()})
		require.NoError(t, err)

		_, _, err = svc.TryProcessing(ctx, nil, testScope(t, "user-1"))
		require.ErrorIs(t, err, boom)
	})
}

func TestIdempotencyService_SaveResponse_DropsUnreplayableHeaders(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIdempotencyRepository(ctrl)
	scope := testScope(t, "user-1")

	resp := &idempotency.Response{
		StatusCode: http.StatusSeeOther,
		Headers: []idempotency.HeaderPair{
			{Name: "Location", Value: []byte("/admin/newsletters")},
			{Name: "Bad Header", Value: []byte("x")},
			{Name: "Set-Cookie", Value: []byte("flash=ok")},
		},
		Body: []byte("done"),
	}
	repo.EXPECT().SaveTx(ctx, gomock.Nil(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *sql.Tx, params core.SaveResponseParams) error {
			assert.Equal(t, scope, params.Scope)
			assert.Equal(t, http.StatusSeeOther, params.Response.StatusCode)
			assert.Equal(t, []idempotency.HeaderPair{
				{Name: "Location", Value: []byte("/admin/newsletters")},
				{Name: "Set-Cookie", Value: []byte("flash=ok")},
			}, params.Response.Headers)
			assert.Equal(t, []byte("done"), params.Response.Body)
			return nil
		})

	svc, err := NewIdempotencyService(IdempotencyServiceOptions{Repo: repo, Logger: discardLogger()})
	require.NoError(t, err)

	got, err := svc.SaveResponse(ctx, nil, core.SaveResponseParams{Scope: scope, Response: resp})
	require.NoError(t, err)
	assert.Same(t, resp, got)
	assert.Len(t, got.Headers, 3)
}
