package auth

import (
	"sync"
	"time"
)

// Limiter is a per-client sliding-window counter for login attempts. State
// lives for the process lifetime only and is pruned lazily on each check.
// The map is the one piece of cross-request mutable state in the system, so
// it is mutex-guarded; better to undercount briefly than to lock out a
// legitimate client.
type Limiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
}

// NewLimiter allows at most max attempts per client within the trailing
// window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

// Allow records one attempt for the client and reports whether it may
// proceed. Expired timestamps are purged first; an attempt rejected at the
// limit is not itself recorded.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.attempts[client][:0]
	for _, t := range l.attempts[client] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.attempts[client] = kept
		return false
	}
	l.attempts[client] = append(kept, now)
	return true
}

// Clear forgets every recorded attempt for the client. Called on successful
// login: failures accumulate, one success forgives them all.
func (l *Limiter) Clear(client string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, client)
}
