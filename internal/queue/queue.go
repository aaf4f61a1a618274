// Package queue implements the bounded frame queue between the capture and
// display sides of the pipeline. The producer is a live camera that cannot
// be throttled, so the queue never blocks on push: when full it evicts the
// oldest frame to admit the new one. A slow consumer only ever sees older
// frames replaced by newer ones.
package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/hamlinzheng/rockchip-example/internal/frame"
)

var (
	// ErrTimeout is returned by Pop when no frame arrived within the
	// requested window. It is a normal scheduling event, not a failure.
	ErrTimeout = errors.New("queue: pop timed out")

	// ErrStopped is returned by Pop once the queue has been stopped and
	// every buffered frame has been drained.
	ErrStopped = errors.New("queue: stopped")
)

// FrameQueue is a fixed-capacity FIFO of frames shared between one producer
// and any number of consumers. Go's buffered channels block the sender on
// overflow, so the drop-oldest policy is implemented explicitly over a
// mutex-guarded slice; a 1-buffered notify channel plays the role of the
// condition variable and a closed done channel wakes every waiter on Stop.
type FrameQueue struct {
	mu      sync.Mutex
	frames  []*frame.Frame
	max     int
	running bool
	dropped uint64

	notify chan struct{}
	done   chan struct{}
}

// New creates a queue holding at most max frames. A max below 1 is clamped
// to 1.
func New(max int) *FrameQueue {
	if max < 1 {
		max = 1
	}
	return &FrameQueue{
		frames:  make([]*frame.Frame, 0, max),
		max:     max,
		running: true,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Push clones f into the queue, evicting from the front if at capacity.
// It never blocks beyond the lock and has no error return: losing frames
// under overflow is the intended policy. After Stop, Push is a no-op.
func (q *FrameQueue) Push(f *frame.Frame) {
	if f == nil {
		return
	}

	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	for len(q.frames) >= q.max {
		q.frames[0] = nil
		q.frames = q.frames[1:]
		q.dropped++
	}
	q.frames = append(q.frames, f.Clone())
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest frame, blocking up to timeout.
// It returns ErrTimeout if the queue stayed empty for the whole window and
// ErrStopped once the queue is stopped and drained. A stopped queue still
// yields its buffered frames before reporting ErrStopped, and a Stop call
// wakes blocked callers immediately rather than letting them wait out the
// timeout.
func (q *FrameQueue) Pop(timeout time.Duration) (*frame.Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if f, err, ok := q.tryPop(); ok {
			return f, err
		}

		select {
		case <-q.notify:
		case <-q.done:
		case <-timer.C:
			// Final check: a frame that raced the timer must not be missed.
			if f, err, ok := q.tryPop(); ok {
				return f, err
			}
			return nil, ErrTimeout
		}
	}
}

// tryPop reports (frame, nil, true) when a frame is available and
// (nil, ErrStopped, true) when the queue is stopped and empty.
func (q *FrameQueue) tryPop() (*frame.Frame, error, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) > 0 {
		f := q.frames[0]
		q.frames[0] = nil
		q.frames = q.frames[1:]
		return f, nil, true
	}
	if !q.running {
		return nil, ErrStopped, true
	}
	return nil, nil, false
}

// Stop marks the queue as stopped and wakes every blocked Pop caller.
// It is idempotent and safe to call from either side of the pipeline.
func (q *FrameQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	close(q.done)
}

// Running reports whether the queue still accepts frames.
func (q *FrameQueue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Len is a point-in-time snapshot of the queue depth, for diagnostics only.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Cap returns the configured capacity.
func (q *FrameQueue) Cap() int {
	return q.max
}

// Dropped returns how many frames were evicted by the overflow policy.
func (q *FrameQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
