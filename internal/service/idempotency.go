package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/domain/idempotency"
)

// ErrSavedResponseMissing means a duplicate claim found a record without a response. Claim and
// save share one transaction, so a committed record always carries its response.
var ErrSavedResponseMissing = errors.New("idempotency record exists but holds no saved response")

// IdempotencyServiceOptions groups dependencies for IdempotencyService.
type IdempotencyServiceOptions struct {
	Repo   core.IdempotencyRepository // Required
	Logger *slog.Logger               // Optional
}

// IdempotencyService claims (user, key) scopes and stores the responses they resolve to.
// Every method runs inside a transaction owned by the caller.
type IdempotencyService struct {
	repo   core.IdempotencyRepository
	logger *slog.Logger
}

// NewIdempotencyService constructs a new IdempotencyService.
func NewIdempotencyService(opts IdempotencyServiceOptions) (*IdempotencyService, error) {
	if opts.Repo == nil {
		return nil, errors.New("IdempotencyRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyService{
		repo:   opts.Repo,
		logger: logger.With("component", "idempotency_service"),
	}, nil
}

// TryProcessing claims scope. A fresh claim returns StartProcessing; an existing one returns
// ReturnSavedResponse with the stored response. A concurrent claim for the same scope blocks
// until the first transaction ends.
func (s *IdempotencyService) TryProcessing(
	ctx context.Context,
	tx *sql.Tx,
	scope idempotency.Scope,
) (idempotency.NextAction, *idempotency.Response, error) {
	claimed, err := s.repo.ClaimTx(ctx, tx, scope)
	if err != nil {
		return 0, nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if claimed {
		return idempotency.StartProcessing, nil, nil
	}

	saved, err := s.repo.GetSavedTx(ctx, tx, scope)
	if err != nil {
		return 0, nil, fmt.Errorf("load saved response: %w", err)
	}
	if saved == nil {
		s.logger.ErrorContext(ctx, "idempotency record without saved response",
			"user_id", scope.UserID,
			"idempotency_key", scope.Key.String(),
		)
		return 0, nil, ErrSavedResponseMissing
	}
	return idempotency.ReturnSavedResponse, saved, nil
}

// SaveResponse stores params.Response on the claimed record and returns it unchanged.
// Headers whose name or value would not survive a replay are left out of the stored copy.
func (s *IdempotencyService) SaveResponse(
	ctx context.Context,
	tx *sql.Tx,
	params core.SaveResponseParams,
) (*idempotency.Response, error) {
	resp := params.Response
	if resp == nil {
		return nil, errors.New("response is required")
	}

	valid, dropped := idempotency.SplitHeaderPairs(resp.Headers)
	for _, h := range dropped {
		s.logger.WarnContext(ctx, "dropping header that cannot be replayed",
			"user_id", params.Scope.UserID,
			"idempotency_key", params.Scope.Key.String(),
			"header", h.Name,
		)
	}

	stored := &idempotency.Response{
		StatusCode: resp.StatusCode,
		Headers:    valid,
		Body:       resp.Body,
	}
	if err := s.repo.SaveTx(ctx, tx, core.SaveResponseParams{Scope: params.Scope, Response: stored}); err != nil {
		return nil, fmt.Errorf("save idempotency response: %w", err)
	}
	return resp, nil
}
