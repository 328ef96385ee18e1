package utils

import (
	"context"
	"sync"
	"time"
)

const revokedKeyPrefix = "jwt:revoked:"

// revocationList is the in-process fallback used when Redis is absent or failing.
type revocationList struct {
	mu    sync.Mutex
	until map[string]time.Time
}

var localRevocations = &revocationList{until: map[string]time.Time{}}

func (l *revocationList) add(token string, until time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for t, exp := range l.until {
		if now.After(exp) {
			delete(l.until, t)
		}
	}
	l.until[token] = until
}

func (l *revocationList) has(token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.until[token]
	if ok && time.Now().After(exp) {
		delete(l.until, token)
		return false
	}
	return ok
}

// RevokeToken marks a token unusable until its natural expiry. Logout uses it.
func RevokeToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := rc.Set(ctx, revokedKeyPrefix+token, "1", ttl).Err()
		if err == nil {
			return
		}
		Sugar.Warnw("token revocation fell back to memory", "err", err)
	}
	localRevocations.add(token, expiresAt)
}

// IsTokenRevoked reports whether a token was revoked before it expired.
func IsTokenRevoked(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, revokedKeyPrefix+token).Result(); err == nil && n > 0 {
			return true
		}
	}
	return localRevocations.has(token)
}
