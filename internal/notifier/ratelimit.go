package notifier

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles notifications per recipient with a token bucket.
type RateLimiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	maxPerWindow int
	window       time.Duration
	dropped      int64
	enabled      bool
}

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	MaxPerWindow int           `yaml:"max_per_window"` // burst per recipient (default: 30)
	Window       time.Duration `yaml:"window"`         // refill window (default: 1 minute)
	Enabled      bool          `yaml:"enabled"`
}

// DefaultRateLimitConfig returns default rate limit settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxPerWindow: 30,
		Window:       time.Minute,
		Enabled:      true,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.MaxPerWindow <= 0 {
		config.MaxPerWindow = 30
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return &RateLimiter{
		limiters:     make(map[string]*rate.Limiter),
		maxPerWindow: config.MaxPerWindow,
		window:       config.Window,
		enabled:      config.Enabled,
	}
}

// Allow reports whether one more notification to key fits the budget.
func (r *RateLimiter) Allow(key string) bool {
	if !r.enabled {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[key]
	if !ok {
		every := rate.Every(r.window / time.Duration(r.maxPerWindow))
		l = rate.NewLimiter(every, r.maxPerWindow)
		r.limiters[key] = l
	}

	if !l.Allow() {
		r.dropped++
		return false
	}
	return true
}

// Stats returns rate limiter statistics.
func (r *RateLimiter) Stats() RateLimitStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RateLimitStats{
		Dropped:      r.dropped,
		Recipients:   len(r.limiters),
		MaxPerWindow: r.maxPerWindow,
		Window:       r.window,
		Enabled:      r.enabled,
	}
}

// RateLimitStats contains rate limiter statistics.
type RateLimitStats struct {
	Dropped      int64         // Total notifications dropped
	Recipients   int           // Recipients with a live bucket
	MaxPerWindow int           // Burst per recipient
	Window       time.Duration // Window duration
	Enabled      bool          // Whether rate limiting is enabled
}

// Reset clears the rate limiter state.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.limiters = make(map[string]*rate.Limiter)
	r.dropped = 0
}
