package pipeline

import (
	"time"

	"github.com/hamlinzheng/rockchip-example/internal/capture"
	"github.com/hamlinzheng/rockchip-example/internal/logger"
	"github.com/hamlinzheng/rockchip-example/internal/queue"
	"github.com/hamlinzheng/rockchip-example/internal/rate"
)

// readRetryDelay is the fixed backoff after a transient read failure. The
// source is expected to recover within milliseconds, so there is no
// escalation and no retry ceiling.
const readRetryDelay = 10 * time.Millisecond

// CaptureLoop drives the frame source on its own goroutine and feeds the
// queue. Opening the source happens inside Run so an open failure is
// observed on the capture side: it flips the shared flag, stops the queue
// and returns the error without retrying.
type CaptureLoop struct {
	cfg   capture.Config
	open  capture.Opener
	queue *queue.FrameQueue
	state *RunState
}

// NewCaptureLoop wires a capture loop to the shared queue and run state.
func NewCaptureLoop(cfg capture.Config, open capture.Opener, q *queue.FrameQueue, state *RunState) *CaptureLoop {
	return &CaptureLoop{cfg: cfg, open: open, queue: q, state: state}
}

// Run opens the source and captures until the running flag clears or the
// source cannot be opened. The returned error is non-nil only for the
// fatal-open case. The source is released on every exit path.
func (l *CaptureLoop) Run() error {
	log := logger.WithComponent("capture-loop")
	log.Info().Str("device", l.cfg.Device).Msg("Capture loop starting")

	src, err := l.open(l.cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open frame source")
		l.state.Stop()
		l.queue.Stop()
		return err
	}
	defer src.Close()

	counter := rate.NewCounter(time.Second)

	for l.state.Running() {
		f, err := src.Read()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read frame")
			time.Sleep(readRetryDelay)
			continue
		}
		if f.Empty() {
			continue
		}

		l.queue.Push(f)
		if fps, ok := counter.Tick(); ok {
			l.state.SetCaptureFPS(fps)
		}
	}

	log.Info().Msg("Capture loop exiting")
	return nil
}
