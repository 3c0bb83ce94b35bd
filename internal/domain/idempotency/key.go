// Package idempotency holds the pure types behind request deduplication:
// validated keys and the replayable response record.
package idempotency

import (
	"errors"
	"fmt"
)

// MaxKeyLength is the longest accepted idempotency key.
const MaxKeyLength = 50

var (
	// ErrEmptyKey is returned for an empty idempotency key.
	ErrEmptyKey = errors.New("idempotency key cannot be empty")
	// ErrKeyTooLong is returned for keys longer than MaxKeyLength.
	ErrKeyTooLong = fmt.Errorf("idempotency key must be at most %d characters", MaxKeyLength)
	// ErrKeyCharacters is returned for keys with bytes outside printable ASCII.
	ErrKeyCharacters = errors.New("idempotency key must contain only printable ASCII characters")
)

// Key is a client supplied idempotency key, scoped per user.
type Key string

// ParseKey accepts non-empty printable ASCII keys of at most MaxKeyLength characters.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return "", ErrEmptyKey
	}
	if len(s) > MaxKeyLength {
		return "", ErrKeyTooLong
	}
	for i := range len(s) {
		if c := s[i]; c < 0x20 || c > 0x7e {
			return "", ErrKeyCharacters
		}
	}
	return Key(s), nil
}

func (k Key) String() string { return string(k) }

// Scope is the (user, key) pair an idempotency record is stored under.
type Scope struct {
	UserID string
	Key    Key
}
