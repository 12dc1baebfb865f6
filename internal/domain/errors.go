package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Operations wrap one of these so callers can use errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrAuthorization       = errors.New("not permitted")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrState               = errors.New("invalid state")
	ErrNotFound            = errors.New("not found")
	ErrStorage             = errors.New("storage failure")
	ErrAdvisoryUnavailable = errors.New("advisory unavailable")
)

// Validation returns an ErrValidation with a user-visible message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Authorization(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

func State(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Storage wraps a driver or transaction error. The cause stays reachable
// through errors.Is/As.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// AdvisoryUnavailable wraps a failed advisory call.
func AdvisoryUnavailable(err error) error {
	if err == nil {
		return ErrAdvisoryUnavailable
	}
	return fmt.Errorf("%w: %w", ErrAdvisoryUnavailable, err)
}

// IsUserFacing reports whether the message of err may be shown as is.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAuthorization) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrState) ||
		errors.Is(err, ErrNotFound)
}
