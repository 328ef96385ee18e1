package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReadTimer remembers when an account opened an article.
type ReadTimer interface {
	Start(ctx context.Context, accountID, articleID uint) error
	// Since reports how long ago the article was opened; ok is false when it never was.
	Since(ctx context.Context, accountID, articleID uint) (elapsed time.Duration, ok bool, err error)
}

const readTimerTTL = 24 * time.Hour

func readTimerKey(accountID, articleID uint) string {
	return fmt.Sprintf("article:open:%d:%d", accountID, articleID)
}

// NewReadTimer prefers Redis and falls back to process memory (single instance only).
func NewReadTimer(rc *redis.Client) ReadTimer {
	if rc != nil {
		return &RedisReadTimer{rc: rc, now: time.Now}
	}
	return NewMemoryReadTimer()
}

// RedisReadTimer keeps the first open time under a TTL key.
type RedisReadTimer struct {
	rc  *redis.Client
	now func() time.Time
}

func (t *RedisReadTimer) Start(ctx context.Context, accountID, articleID uint) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	// SETNX so reopening does not restart the countdown
	return t.rc.SetNX(ctx, readTimerKey(accountID, articleID), t.now().Unix(), readTimerTTL).Err()
}

func (t *RedisReadTimer) Since(ctx context.Context, accountID, articleID uint) (time.Duration, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	v, err := t.rc.Get(ctx, readTimerKey(accountID, articleID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return t.now().Sub(time.Unix(sec, 0)), true, nil
}

type memoryReadEntry struct {
	openedAt time.Time
}

// MemoryReadTimer is the in-process fallback.
type MemoryReadTimer struct {
	mu      sync.Mutex
	entries map[string]memoryReadEntry
	now     func() time.Time
}

func NewMemoryReadTimer() *MemoryReadTimer {
	return &MemoryReadTimer{entries: map[string]memoryReadEntry{}, now: time.Now}
}

func (t *MemoryReadTimer) Start(_ context.Context, accountID, articleID uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := readTimerKey(accountID, articleID)
	if e, ok := t.entries[key]; ok && t.now().Sub(e.openedAt) < readTimerTTL {
		return nil
	}
	t.entries[key] = memoryReadEntry{openedAt: t.now()}
	return nil
}

func (t *MemoryReadTimer) Since(_ context.Context, accountID, articleID uint) (time.Duration, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := readTimerKey(accountID, articleID)
	e, ok := t.entries[key]
	if !ok {
		return 0, false, nil
	}
	elapsed := t.now().Sub(e.openedAt)
	if elapsed >= readTimerTTL {
		delete(t.entries, key)
		return 0, false, nil
	}
	return elapsed, true, nil
}
