package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no credential or a garbled one.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSessionInvalidated means the credential belongs to a session that was
	// replaced by a newer login.
	ErrSessionInvalidated = errors.New("session invalidated: signed in elsewhere")
	// ErrSessionInvalid means the credential carries no session fingerprint.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrQuotaExceeded is returned when the daily game quota is used up.
	ErrQuotaExceeded = errors.New("daily play quota exceeded")
	// ErrInvalidLink is matched by every *InvalidLinkError.
	ErrInvalidLink = errors.New("invalid link")
	// ErrNotFound is returned when an account or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by a commit whose version check failed.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrNoActiveGame is returned when finishing without an open game session.
	ErrNoActiveGame   = errors.New("no active game session")
	ErrInvalidInput   = errors.New("invalid input")
	ErrCouponInvalid  = errors.New("coupon invalid or already used")
	ErrDuplicate      = errors.New("already exists")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrAlreadyClaimed = errors.New("reward already claimed")
	ErrReadTooShort   = errors.New("article not read long enough")
)

// InvalidLinkError reports a failed reachability probe. StatusCode is 0 when
// the probe never got a response.
type InvalidLinkError struct {
	Platform   string
	URL        string
	StatusCode int
	Err        error
}

func (e *InvalidLinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s link %s: %v", e.Platform, e.URL, e.Err)
	}
	return fmt.Sprintf("invalid %s link %s: status %d", e.Platform, e.URL, e.StatusCode)
}

func (e *InvalidLinkError) Is(target error) bool { return target == ErrInvalidLink }

func (e *InvalidLinkError) Unwrap() error { return e.Err }
