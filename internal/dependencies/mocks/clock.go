package mocks

import (
	"sync"
	"time"

	"github.com/outplayedgg/garrison-server/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing. It is safe to
// advance from the test goroutine while code under test reads it.
type MockClock struct {
	mu      sync.Mutex
	current time.Time

	// Tickers created through this clock, in creation order. Tests fire
	// ticks by hand with MockTicker.Tick.
	Tickers []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// NewTicker returns a manually driven ticker and records it on the clock
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	t := &MockTicker{
		clock:    c,
		Interval: d,
		ch:       make(chan time.Time),
	}
	c.mu.Lock()
	c.Tickers = append(c.Tickers, t)
	c.mu.Unlock()
	return t
}

// Ticker returns the i-th ticker created through this clock, or nil
func (c *MockClock) Ticker(i int) *MockTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.Tickers) {
		return nil
	}
	return c.Tickers[i]
}

// MockTicker is a Ticker that only fires when the test calls Tick
type MockTicker struct {
	clock    *MockClock
	Interval time.Duration
	ch       chan time.Time

	mu      sync.Mutex
	stopped bool
}

var _ clock.Ticker = (*MockTicker)(nil)

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time {
	return t.ch
}

// Stop marks the ticker stopped; subsequent Tick calls are ignored
func (t *MockTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// IsStopped reports whether Stop has been called
func (t *MockTicker) IsStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Tick advances the clock by the ticker interval and fires one tick,
// blocking until the consumer receives it
func (t *MockTicker) Tick() {
	if t.IsStopped() {
		return
	}
	t.clock.Advance(t.Interval)
	t.ch <- t.clock.Now()
}
