//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

const (
	maxSubscriberNameLen    = 256
	subscriptionTokenLength = 25
	subscriptionTokenAlpha  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	// ErrInvalidSubscriberEmail is returned when an address fails SubscriberEmail parsing.
	ErrInvalidSubscriberEmail = errors.New("invalid subscriber email")
	// ErrInvalidSubscriberName is returned when a name fails SubscriberName parsing.
	ErrInvalidSubscriberName = errors.New("invalid subscriber name")
	// ErrInvalidSubscriptionToken is returned for tokens that cannot have been issued by NewSubscriptionToken.
	ErrInvalidSubscriptionToken = errors.New("invalid subscription token")
	// ErrSubscriptionTokenNotFound is returned when a well-formed token matches no subscription.
	ErrSubscriptionTokenNotFound = errors.New("subscription token not found")
)

// forbiddenNameChars are rejected in subscriber names.
const forbiddenNameChars = `/()"<>\{}`

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending_confirmation"
	SubscriptionStatusConfirmed SubscriptionStatus = "confirmed"
)

// Valid reports whether the status is supported.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusPending, SubscriptionStatusConfirmed:
		return true
	default:
		return false
	}
}

// ParseSubscriptionStatus normalizes a status string and reports whether it is supported.
// "pending" is accepted as shorthand for pending_confirmation.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "pending" {
		return SubscriptionStatusPending, true
	}
	s := SubscriptionStatus(v)
	if s.Valid() {
		return s, true
	}
	return "", false
}

// SubscriberEmail is a validated recipient address.
type SubscriberEmail string

// ParseSubscriberEmail validates a bare address (no display name) whose domain
// sits under a public suffix.
func ParseSubscriberEmail(s string) (SubscriberEmail, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty address", ErrInvalidSubscriberEmail)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSubscriberEmail, s)
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidSubscriberEmail, s)
	}
	domain := strings.ToLower(s[at+1:])
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return "", fmt.Errorf("%w: %q has no registrable domain", ErrInvalidSubscriberEmail, s)
	}
	return SubscriberEmail(s), nil
}

func (e SubscriberEmail) String() string { return string(e) }

// SubscriberName is a validated display name.
type SubscriberName string

// ParseSubscriberName rejects blank names, names over 256 characters and names
// containing any of / ( ) " < > \ { }.
func ParseSubscriberName(s string) (SubscriberName, error) {
	switch {
	case strings.TrimSpace(s) == "":
		return "", fmt.Errorf("%w: empty name", ErrInvalidSubscriberName)
	case utf8.RuneCountInString(s) > maxSubscriberNameLen:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidSubscriberName, maxSubscriberNameLen)
	case strings.ContainsAny(s, forbiddenNameChars):
		return "", fmt.Errorf("%w: contains a forbidden character", ErrInvalidSubscriberName)
	}
	return SubscriberName(s), nil
}

func (n SubscriberName) String() string { return string(n) }

// NewSubscriber is a validated subscription request.
type NewSubscriber struct {
	Email SubscriberEmail
	Name  SubscriberName
}

// ParseNewSubscriber validates raw form input.
func ParseNewSubscriber(name, email string) (NewSubscriber, error) {
	parsedEmail, err := ParseSubscriberEmail(email)
	if err != nil {
		return NewSubscriber{}, err
	}
	parsedName, err := ParseSubscriberName(name)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Email: parsedEmail, Name: parsedName}, nil
}

// Subscription is a stored subscriber.
type Subscription struct {
	ID           string             `json:"id"            db:"id"`
	Email        string             `json:"email"         db:"email"`
	Name         string             `json:"name"          db:"name"`
	Status       SubscriptionStatus `json:"status"        db:"status"`
	SubscribedAt time.Time          `json:"subscribed_at" db:"subscribed_at"`
}

// SubscriptionToken links a pending subscription to its confirmation link.
type SubscriptionToken string

// NewSubscriptionToken returns a random 25 character alphanumeric token.
func NewSubscriptionToken() (SubscriptionToken, error) {
	var b strings.Builder
	b.Grow(subscriptionTokenLength)
	upper := big.NewInt(int64(len(subscriptionTokenAlpha)))
	for range subscriptionTokenLength {
		n, err := rand.Int(rand.Reader, upper)
		if err != nil {
			return "", fmt.Errorf("generate subscription token: %w", err)
		}
		b.WriteByte(subscriptionTokenAlpha[n.Int64()])
	}
	return SubscriptionToken(b.String()), nil
}

// ParseSubscriptionToken checks the token shape before any lookup.
func ParseSubscriptionToken(s string) (SubscriptionToken, error) {
	if len(s) != subscriptionTokenLength {
		return "", ErrInvalidSubscriptionToken
	}
	for i := range len(s) {
		if !strings.ContainsRune(subscriptionTokenAlpha, rune(s[i])) {
			return "", ErrInvalidSubscriptionToken
		}
	}
	return SubscriptionToken(s), nil
}

// SubscriptionListOptions controls filtering for listing subscriptions.
type SubscriptionListOptions struct {
	Status *SubscriptionStatus
	Limit  int
	Offset int
}
