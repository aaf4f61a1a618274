package rate

import (
	"testing"
	"time"
)

func TestTickDoesNotPublishWithinWindow(t *testing.T) {
	c := NewCounter(time.Second)
	for i := 0; i < 10; i++ {
		if rate, ok := c.Tick(); ok {
			t.Fatalf("published rate %d before window elapsed", rate)
		}
	}
}

func TestTickPublishesAfterWindow(t *testing.T) {
	c := NewCounter(time.Second)
	base := time.Now()
	c.now = func() time.Time { return base }
	c.last = base

	for i := 0; i < 29; i++ {
		if _, ok := c.Tick(); ok {
			t.Fatal("published before window elapsed")
		}
	}

	c.now = func() time.Time { return base.Add(time.Second) }
	rate, ok := c.Tick()
	if !ok {
		t.Fatal("expected publication once window elapsed")
	}
	if rate != 30 {
		t.Fatalf("rate = %d, want 30", rate)
	}

	// A fresh window starts counting from zero.
	c.now = func() time.Time { return base.Add(time.Second + time.Millisecond) }
	if _, ok := c.Tick(); ok {
		t.Fatal("published again immediately after reset")
	}
}

func TestShortWindowWallClock(t *testing.T) {
	c := NewCounter(20 * time.Millisecond)
	c.Tick()
	time.Sleep(30 * time.Millisecond)
	rate, ok := c.Tick()
	if !ok {
		t.Fatal("expected publication after window elapsed")
	}
	if rate != 2 {
		t.Fatalf("rate = %d, want 2", rate)
	}
}
