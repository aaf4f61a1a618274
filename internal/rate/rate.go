// Package rate provides the 1-second sliding sample both pipeline loops use
// to report frames per second.
package rate

import "time"

// Counter accumulates ticks and publishes the count each time the reporting
// window elapses. A Counter is owned and mutated by a single goroutine; the
// published value is handed to the caller rather than stored, so no locking
// is needed here.
type Counter struct {
	window time.Duration
	count  int
	last   time.Time
	now    func() time.Time
}

// NewCounter creates a counter with the given reporting window. A window
// of 0 or less defaults to one second.
func NewCounter(window time.Duration) *Counter {
	if window <= 0 {
		window = time.Second
	}
	return &Counter{
		window: window,
		last:   time.Now(),
		now:    time.Now,
	}
}

// Tick records one frame. When the window has elapsed it returns the number
// of ticks accumulated in it and true, then starts a new window.
func (c *Counter) Tick() (int, bool) {
	c.count++
	now := c.now()
	if now.Sub(c.last) < c.window {
		return 0, false
	}
	rate := c.count
	c.count = 0
	c.last = now
	return rate, true
}
