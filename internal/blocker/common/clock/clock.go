package clock

import (
	"context"
	"sync"
	"time"
)

// Clock supplies the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// Sleeper is a Clock that can also suspend the caller. Sleep returns early
// with the context error when ctx is cancelled.
type Sleeper interface {
	Clock
	Sleep(ctx context.Context, d time.Duration) error
}

type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

func (c RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MockClock is a manually driven clock. Sleep does not block: it advances
// CurrentTime by d and records the requested duration.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	slept       []time.Duration
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
}

func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = t
}

func (c *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.CurrentTime = c.CurrentTime.Add(d)
	return nil
}

// Slept returns a copy of every duration passed to Sleep, in call order.
func (c *MockClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.slept))
	copy(out, c.slept)
	return out
}

var (
	_ Sleeper = RealClock{}
	_ Sleeper = (*MockClock)(nil)
)
