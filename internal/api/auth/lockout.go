package auth

import (
	"sync"
	"time"
)

type lockoutEntry struct {
	failures    int
	lockedUntil time.Time
}

func (e *lockoutEntry) locked(now time.Time) bool {
	return !e.lockedUntil.IsZero() && now.Before(e.lockedUntil)
}

// LockoutTracker counts failed logins per key (the normalized email) and
// locks the key for a fixed duration once the threshold is reached.
//
// State is in memory only; a restart clears every lockout.
type LockoutTracker struct {
	mu        sync.Mutex
	entries   map[string]*lockoutEntry
	threshold int
	duration  time.Duration
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLockoutTracker creates a tracker and starts its cleanup loop. Call
// Close to stop it.
func NewLockoutTracker(threshold int, duration time.Duration) *LockoutTracker {
	t := &LockoutTracker{
		entries:   make(map[string]*lockoutEntry),
		threshold: threshold,
		duration:  duration,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	go t.cleanupLoop(5 * time.Minute)
	return t
}

// RecordFailure records a failed attempt and reports whether key is now
// locked. Failures while locked do not extend the lockout.
func (t *LockoutTracker) RecordFailure(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entry, ok := t.entries[key]
	if !ok {
		entry = &lockoutEntry{}
		t.entries[key] = entry
	}
	if entry.locked(now) {
		return true
	}
	if !entry.lockedUntil.IsZero() {
		*entry = lockoutEntry{}
	}

	entry.failures++
	if entry.failures >= t.threshold {
		entry.lockedUntil = now.Add(t.duration)
		return true
	}
	return false
}

// IsLocked reports whether key is currently locked.
func (t *LockoutTracker) IsLocked(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	return ok && entry.locked(t.now())
}

// RemainingLockoutTime returns how long until key's lockout expires.
func (t *LockoutTracker) RemainingLockoutTime(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		return 0
	}
	now := t.now()
	if !entry.locked(now) {
		return 0
	}
	return entry.lockedUntil.Sub(now)
}

// ClearFailures forgets key after a successful login.
func (t *LockoutTracker) ClearFailures(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Close stops the cleanup loop.
func (t *LockoutTracker) Close() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *LockoutTracker) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.cleanup()
		}
	}
}

// cleanup drops entries whose lockout has expired.
func (t *LockoutTracker) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, entry := range t.entries {
		if !entry.lockedUntil.IsZero() && !entry.locked(now) {
			delete(t.entries, key)
		}
	}
}
