package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/domain/model"
	apperrors "github.com/target/newsletter-api/internal/errors"
)

// SubscriptionServiceOptions groups dependencies for SubscriptionService.
type SubscriptionServiceOptions struct {
	Tx    core.TxRunner               // Required
	Repo  core.SubscriptionRepository // Required
	Email core.EmailSender            // Required for Subscribe
	// BaseURL is the public root used in confirmation links.
	BaseURL string
	Logger  *slog.Logger // Optional
}

// SubscriptionService handles subscriber sign-up, confirmation and bulk maintenance.
type SubscriptionService struct {
	tx      core.TxRunner
	repo    core.SubscriptionRepository
	email   core.EmailSender
	baseURL string
	logger  *slog.Logger
}

// NewSubscriptionService constructs a new SubscriptionService.
func NewSubscriptionService(opts SubscriptionServiceOptions) (*SubscriptionService, error) {
	if opts.Tx == nil {
		return nil, errors.New("TxRunner is required")
	}
	if opts.Repo == nil {
		return nil, errors.New("SubscriptionRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionService{
		tx:      opts.Tx,
		repo:    opts.Repo,
		email:   opts.Email,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  logger.With("component", "subscription_service"),
	}, nil
}

// Subscribe stores a pending subscription with a fresh confirmation token and emails the
// confirmation link. The email is sent after commit; a failed send is returned to the caller
// but the pending row stays so the reaper eventually removes it.
func (s *SubscriptionService) Subscribe(ctx context.Context, name, email string) (*model.Subscription, error) {
	if s.email == nil {
		return nil, errors.New("email sender is not configured")
	}
	sub, err := model.ParseNewSubscriber(name, email)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid subscriber details.")
	}
	token, err := model.NewSubscriptionToken()
	if err != nil {
		return nil, err
	}

	var created *model.Subscription
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		created, err = s.repo.CreateTx(ctx, tx, core.CreateSubscriptionParams{
			Subscriber: sub,
			Status:     model.SubscriptionStatusPending,
			Token:      token,
		})
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	if err := s.sendConfirmation(ctx, sub, token); err != nil {
		return nil, fmt.Errorf("send confirmation email: %w", err)
	}
	s.logger.InfoContext(ctx, "new subscriber saved", "subscription_id", created.ID)
	return created, nil
}

// ConfirmationLink returns the link a subscriber follows to confirm.
func (s *SubscriptionService) ConfirmationLink(token model.SubscriptionToken) string {
	return s.baseURL + "/subscriptions/confirm?subscription_token=" + url.QueryEscape(string(token))
}

func (s *SubscriptionService) sendConfirmation(
	ctx context.Context,
	sub model.NewSubscriber,
	token model.SubscriptionToken,
) error {
	link := s.ConfirmationLink(token)
	return s.email.SendEmail(ctx, core.SendEmailRequest{
		Recipient: sub.Email,
		Subject:   "Welcome!",
		HTMLBody: fmt.Sprintf(
			"Welcome to our newsletter!<br />Click <a href=\"%s\">here</a> to confirm your subscription.", link),
		TextBody: fmt.Sprintf(
			"Welcome to our newsletter!\nVisit %s to confirm your subscription.", link),
	})
}

// Confirm confirms the subscription owning rawToken. A malformed token is a validation error
// and a well-formed one matching nothing is unauthorized.
func (s *SubscriptionService) Confirm(ctx context.Context, rawToken string) (*model.Subscription, error) {
	token, err := model.ParseSubscriptionToken(rawToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid subscription token.")
	}
	sub, err := s.repo.ConfirmByToken(ctx, token)
	if errors.Is(err, model.ErrSubscriptionTokenNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "Unknown subscription token.")
	}
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "subscription confirmed", "subscription_id", sub.ID)
	return sub, nil
}

// AddSubscriberParams groups parameters for AddSubscriber.
type AddSubscriberParams struct {
	Name   string
	Email  string
	Status model.SubscriptionStatus
}

// AddSubscriber stores a subscription directly, without a confirmation email. Pending
// subscriptions get a token, which is returned so an operator can confirm them later.
func (s *SubscriptionService) AddSubscriber(
	ctx context.Context,
	params AddSubscriberParams,
) (*model.Subscription, model.SubscriptionToken, error) {
	if !params.Status.Valid() {
		return nil, "", apperrors.Validationf("unsupported subscription status %q", params.Status)
	}
	sub, err := model.ParseNewSubscriber(params.Name, params.Email)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid subscriber details.")
	}

	var token model.SubscriptionToken
	if params.Status == model.SubscriptionStatusPending {
		if token, err = model.NewSubscriptionToken(); err != nil {
			return nil, "", err
		}
	}

	var created *model.Subscription
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		created, err = s.repo.CreateTx(ctx, tx, core.CreateSubscriptionParams{
			Subscriber: sub,
			Status:     params.Status,
			Token:      token,
		})
		return err
	})
	if err != nil {
		return nil, "", apperrors.MapDBError(err)
	}
	return created, token, nil
}

// List returns stored subscriptions.
func (s *SubscriptionService) List(
	ctx context.Context,
	opts model.SubscriptionListOptions,
) ([]*model.Subscription, error) {
	return s.repo.List(ctx, opts)
}

// ImportResult summarizes an ImportCSV call.
type ImportResult struct {
	// Rows is the number of data rows read.
	Rows int
	// Inserted is the number of new subscriptions.
	Inserted int64
	// Rejected lists rows that failed validation, by 1-based line number.
	Rejected []ImportRejection
}

// ImportRejection is one invalid CSV row.
type ImportRejection struct {
	Line   int
	Reason string
}

// ImportCSV bulk loads "name,email" rows as confirmed subscriptions. A first row of exactly
// "name,email" is treated as a header. Invalid rows are reported and skipped; emails already
// subscribed are left untouched.
func (s *SubscriptionService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	res := &ImportResult{}
	var subs []model.NewSubscriber
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "read csv line %d", line)
		}
		if line == 1 && isImportHeader(rec) {
			continue
		}
		res.Rows++
		sub, err := model.ParseNewSubscriber(rec[0], rec[1])
		if err != nil {
			res.Rejected = append(res.Rejected, ImportRejection{Line: line, Reason: err.Error()})
			continue
		}
		subs = append(subs, sub)
	}

	n, err := s.repo.Import(ctx, subs)
	if err != nil {
		return nil, fmt.Errorf("import subscriptions: %w", err)
	}
	res.Inserted = n
	s.logger.InfoContext(ctx, "imported subscriptions",
		"rows", res.Rows,
		"inserted", n,
		"rejected", len(res.Rejected),
	)
	return res, nil
}

func isImportHeader(rec []string) bool {
	return strings.EqualFold(strings.TrimSpace(rec[0]), "name") &&
		strings.EqualFold(strings.TrimSpace(rec[1]), "email")
}
