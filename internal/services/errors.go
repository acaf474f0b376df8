package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/campusnav/apiserver/internal/store"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAuthenticationFailed covers both unknown accounts and wrong
	// passwords so callers cannot probe for registered emails.
	ErrAuthenticationFailed = errors.New("invalid email or password")
	ErrAccountLocked        = errors.New("account is temporarily locked")
	ErrAccountUnverified    = errors.New("account is not verified")
	ErrDuplicateEmail       = errors.New("email is already registered")
	ErrDuplicateIdentifier  = errors.New("student number is already registered")
	ErrNotFound             = errors.New("not found")
	ErrInvalidUpdate        = errors.New("invalid update")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrStorageUnavailable   = errors.New("object storage is not configured")
)

// LockedError reports an account lockout and when it ends. It matches
// ErrAccountLocked with errors.Is.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s until %s", ErrAccountLocked, e.Until.UTC().Format(time.RFC3339))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

func invalidRequest(message string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, message)
}

// storeError translates store errors into the service taxonomy. Anything
// unrecognised is an infrastructure failure.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrInvalidUpdate):
		return ErrInvalidUpdate
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
