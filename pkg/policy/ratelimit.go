// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"sync"
	"time"
)

// RateLimitResult reports the outcome of a rate-limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimitConfig bounds request counts per fixed window. The guest
// ceiling is strictly lower than the authenticated one.
type RateLimitConfig struct {
	Window           time.Duration
	AuthenticatedMax int
	GuestMax         int
}

// DefaultRateLimitConfig returns the default windows.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:           time.Minute,
		AuthenticatedMax: 30,
		GuestMax:         10,
	}
}

type window struct {
	start time.Time
	count int
	max   int
}

// RateLimiter enforces fixed-window counters per (identifier, action).
// Windows are created lazily on first use and garbage-collected once
// expired. All updates are atomic under one lock so two concurrent
// requests never both read a stale remaining count.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	windows map[string]*window
	lastGC  time.Time

	now func() time.Time
}

// NewRateLimiter creates a limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Check records one attempt for (identifier, action) and reports whether
// it is allowed. Exceeding the ceiling returns allowed=false without
// consuming further budget; remaining is monotonically non-increasing
// within a window.
func (rl *RateLimiter) Check(identifier, action string, authenticated bool) RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.maybeGC(now)

	max := rl.cfg.GuestMax
	if authenticated {
		max = rl.cfg.AuthenticatedMax
	}

	key := identifier + "|" + action
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.cfg.Window {
		w = &window{start: now, max: max}
		rl.windows[key] = w
	}

	resetAt := w.start.Add(rl.cfg.Window)
	if w.count >= w.max {
		return RateLimitResult{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}
	w.count++
	return RateLimitResult{
		Allowed:   true,
		Remaining: w.max - w.count,
		ResetAt:   resetAt,
	}
}

// maybeGC drops expired windows. Called with rl.mu held; throttled to one
// pass per window duration so hot paths stay cheap.
func (rl *RateLimiter) maybeGC(now time.Time) {
	if now.Sub(rl.lastGC) < rl.cfg.Window {
		return
	}
	rl.lastGC = now
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.cfg.Window {
			delete(rl.windows, key)
		}
	}
}
