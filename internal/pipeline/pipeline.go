// Package pipeline orchestrates the two-goroutine producer/consumer pair:
// a capture loop pushing into the bounded frame queue and a consume loop
// draining it. The loops share nothing but the queue and the RunState flag;
// cancellation is cooperative on both sides.
package pipeline

import (
	"github.com/hamlinzheng/rockchip-example/internal/capture"
	"github.com/hamlinzheng/rockchip-example/internal/logger"
	"github.com/hamlinzheng/rockchip-example/internal/queue"
	"github.com/hamlinzheng/rockchip-example/internal/sink"
)

// Pipeline owns the queue, the run state and both loops.
type Pipeline struct {
	State *RunState
	Queue *queue.FrameQueue

	capture *CaptureLoop
	consume *ConsumeLoop
}

// New assembles a pipeline with a queue of the given capacity.
func New(cfg capture.Config, open capture.Opener, out sink.Sink, queueSize int) *Pipeline {
	state := NewRunState()
	q := queue.New(queueSize)
	return &Pipeline{
		State:   state,
		Queue:   q,
		capture: NewCaptureLoop(cfg, open, q, state),
		consume: NewConsumeLoop(q, state, out),
	}
}

// Run starts the capture loop on its own goroutine, runs the consume loop
// on the calling goroutine, then joins the capture goroutine. It returns
// the capture loop's fatal-open error, or nil on a clean user-requested
// exit.
func (p *Pipeline) Run() error {
	captureErr := make(chan error, 1)
	go func() {
		captureErr <- p.capture.Run()
	}()

	p.consume.Run()

	// Whichever side exited first, make sure the other one wakes up.
	p.Shutdown()
	err := <-captureErr

	logger.WithComponent("pipeline").Info().Msg("Pipeline stopped")
	return err
}

// Shutdown flips the running flag and stops the queue, waking both loops.
// Idempotent; safe to call from a signal handler goroutine.
func (p *Pipeline) Shutdown() {
	p.State.Stop()
	p.Queue.Stop()
}
