package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultLimit is the number of chat requests a caller may make per window
	DefaultLimit = 20
	// DefaultWindow is the fixed window length
	DefaultWindow = 20 * time.Minute
)

// RateLimitWindow is the in-memory counter for one caller
type RateLimitWindow struct {
	Count   int
	ResetAt time.Time
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// Limiter is a fixed-window request counter keyed by caller identity.
// State lives in process memory and is lost on restart.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*RateLimitWindow
	limit   int
	window  time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewLimiter creates a limiter allowing limit requests per window
func NewLimiter(limit int, window time.Duration, logger *zap.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]*RateLimitWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewChatLimiter creates the limiter used by the chat endpoint
func NewChatLimiter(logger *zap.Logger, opts ...Option) *Limiter {
	return NewLimiter(DefaultLimit, DefaultWindow, logger, opts...)
}

// Allow records a request for callerID and reports whether it is within the limit.
// A missing or expired window starts fresh with count 1.
func (l *Limiter) Allow(callerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[callerID]
	if !ok || now.After(w.ResetAt) {
		l.windows[callerID] = &RateLimitWindow{Count: 1, ResetAt: now.Add(l.window)}
		return true
	}

	if w.Count >= l.limit {
		return false
	}

	w.Count++
	return true
}

// Remaining returns how many requests callerID has left in its current window
func (l *Limiter) Remaining(callerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[callerID]
	if !ok || l.now().After(w.ResetAt) {
		return l.limit
	}
	if w.Count >= l.limit {
		return 0
	}
	return l.limit - w.Count
}

// RetryAfter returns the time left until callerID's window resets
func (l *Limiter) RetryAfter(callerID string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[callerID]
	if !ok {
		return 0
	}
	if d := w.ResetAt.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}

// Len returns the number of tracked callers
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Sweep removes windows that have already reset and returns how many were dropped.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, w := range l.windows {
		if now.After(w.ResetAt) {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}

// StartCleanupWorker sweeps expired windows every interval until ctx is done
func (l *Limiter) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("started rate limit cleanup worker", zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			if removed := l.Sweep(); removed > 0 {
				l.logger.Debug("swept expired rate limit windows",
					zap.Int("removed", removed),
					zap.Int("remaining", l.Len()))
			}
		case <-ctx.Done():
			l.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}
