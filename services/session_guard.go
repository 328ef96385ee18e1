package services

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/cppla/cashx/models"
)

// Identity is what the identity provider vouches for after verifying a credential.
type Identity struct {
	SubjectID          uint
	Username           string
	Role               string
	SessionFingerprint string
}

// SessionGuard enforces a single live session per account by comparing the
// fingerprint in the credential with the one stored on the account. It never
// issues or rotates fingerprints.
type SessionGuard struct {
	store  AccountStore
	admins []string
}

// NewSessionGuard builds a guard; admins are the out-of-band administrator
// usernames allowed to present credentials without a fingerprint.
func NewSessionGuard(store AccountStore, admins []string) *SessionGuard {
	return &SessionGuard{store: store, admins: admins}
}

// IsOutOfBandAdmin reports whether id is the configured administrator identity.
func (g *SessionGuard) IsOutOfBandAdmin(id Identity) bool {
	if id.Role != models.RoleAdmin {
		return false
	}
	for _, u := range g.admins {
		if strings.EqualFold(strings.TrimSpace(u), strings.TrimSpace(id.Username)) {
			return true
		}
	}
	return false
}

// Authorize returns the account behind id. The out-of-band administrator has
// no account and gets (nil, nil).
func (g *SessionGuard) Authorize(ctx context.Context, id Identity) (*models.Account, error) {
	if id.SessionFingerprint == "" {
		if g.IsOutOfBandAdmin(id) {
			return nil, nil
		}
		return nil, ErrSessionInvalid
	}
	acc, err := g.store.FindByID(ctx, id.SubjectID)
	if err != nil {
		return nil, err
	}
	// an account without a stored fingerprint is not enforced
	if acc.SessionFingerprint == "" {
		return acc, nil
	}
	if subtle.ConstantTimeCompare([]byte(acc.SessionFingerprint), []byte(id.SessionFingerprint)) != 1 {
		return nil, ErrSessionInvalidated
	}
	return acc, nil
}
