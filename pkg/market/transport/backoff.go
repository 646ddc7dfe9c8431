package transport

import "time"

const (
	defaultBackoffBase   = time.Second
	defaultBackoffJitter = 3 * time.Second
	maxBackoffShift      = 16
)

// Backoff computes the wait after a failed attempt: Base doubled per attempt
// plus a linear Jitter step per attempt.
type Backoff struct {
	Base   time.Duration
	Jitter time.Duration
}

// DefaultBackoff waits 1s, 5s, 10s, ... after attempts 0, 1, 2, ...
func DefaultBackoff() Backoff {
	return Backoff{Base: defaultBackoffBase, Jitter: defaultBackoffJitter}
}

// Delay returns the wait after the zero-based attempt index.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	shift := attempt
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return b.Base*time.Duration(1<<shift) + time.Duration(attempt)*b.Jitter
}
