package transport

import (
	"sync"
	"time"
)

// Limiter enforces a minimum spacing between requests to one provider.
// The lock is held across the wait so concurrent callers queue up and each
// observes the spacing relative to its predecessor.
type Limiter struct {
	interval time.Duration
	now      func() time.Time
	sleep    func(time.Duration)

	mu   sync.Mutex
	last time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock replaces the time source and sleep function, for tests.
func WithLimiterClock(now func() time.Time, sleep func(time.Duration)) LimiterOption {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// NewLimiter returns a limiter spacing requests at least interval apart.
// A non-positive interval disables spacing.
func NewLimiter(interval time.Duration, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until the interval has elapsed since the previous request,
// then records the new request time. It returns how long it waited.
func (l *Limiter) Acquire() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	var waited time.Duration
	if l.interval > 0 && !l.last.IsZero() {
		if wait := l.last.Add(l.interval).Sub(l.now()); wait > 0 {
			l.sleep(wait)
			waited = wait
		}
	}
	l.last = l.now()
	return waited
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration { return l.interval }
