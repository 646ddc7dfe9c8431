package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

func TestLimiterFirstAcquireDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(time.Second, WithLimiterClock(clock.Now, clock.Sleep))

	require.Zero(t, l.Acquire())
	require.Empty(t, clock.Slept())
}

func TestLimiterSpacesConsecutiveRequests(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(time.Second, WithLimiterClock(clock.Now, clock.Sleep))

	l.Acquire()
	require.Equal(t, time.Second, l.Acquire())

	clock.Advance(400 * time.Millisecond)
	require.Equal(t, 600*time.Millisecond, l.Acquire())

	clock.Advance(2 * time.Second)
	require.Zero(t, l.Acquire())

	require.Equal(t, []time.Duration{time.Second, 600 * time.Millisecond}, clock.Slept())
}

func TestLimiterDisabled(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(0, WithLimiterClock(clock.Now, clock.Sleep))
	for i := 0; i < 5; i++ {
		require.Zero(t, l.Acquire())
	}
	require.Empty(t, clock.Slept())
}

func TestLimiterSerialisesConcurrentCallers(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(250*time.Millisecond, WithLimiterClock(clock.Now, clock.Sleep))

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Acquire()
		}()
	}
	wg.Wait()

	slept := clock.Slept()
	require.Len(t, slept, callers-1)
	for _, d := range slept {
		require.Equal(t, 250*time.Millisecond, d)
	}
}
