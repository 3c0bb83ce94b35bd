package data

import (
	"errors"

	"github.com/target/newsletter-api/internal/domain/model"
)

// Shared sentinel errors for data-layer repositories.
var (
	// ErrIssueNotFound is returned when a newsletter issue does not exist.
	ErrIssueNotFound = model.ErrIssueNotFound
	// ErrSubscriptionTokenNotFound is returned when a confirmation token matches no subscription.
	ErrSubscriptionTokenNotFound = model.ErrSubscriptionTokenNotFound
	// ErrInvalidStatusCode is returned when a stored response status is outside the HTTP range.
	ErrInvalidStatusCode = errors.New("stored response has an invalid status code")
)
