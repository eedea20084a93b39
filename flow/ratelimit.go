package flow

import (
	"context"
	"sync"
	"time"
)

// RateLimiter bounds how often tokens may be requested for a given
// key (normally the contact address), to keep the module from being
// used for email or SMS bombing.
type RateLimiter interface {
	// Allow reports whether the request should proceed and how many
	// requests remain in the current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, remaining int, err error)

	// Reset clears the counter for the given key.
	Reset(ctx context.Context, key string) error
}

// MemoryRateLimiter is a fixed-window limiter for single-process
// deployments. Use RedisRateLimiter when running more than one
// instance.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{windows: make(map[string]*window)}
}

func (l *MemoryRateLimiter) Allow(ctx context.Context, key string, limit int, d time.Duration) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		l.windows[key] = w
	}

	if w.count >= limit {
		return false, 0, nil
	}
	w.count++
	return true, limit - w.count, nil
}

func (l *MemoryRateLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}
