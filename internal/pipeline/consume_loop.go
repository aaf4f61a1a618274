package pipeline

import (
	"errors"
	"time"

	"github.com/hamlinzheng/rockchip-example/internal/logger"
	"github.com/hamlinzheng/rockchip-example/internal/queue"
	"github.com/hamlinzheng/rockchip-example/internal/rate"
	"github.com/hamlinzheng/rockchip-example/internal/sink"
)

// popTimeout bounds each blocking pop. The timeout is how the consumer
// observes a producer-initiated shutdown without a dedicated signal
// channel: on expiry it re-checks the running flag and loops.
const popTimeout = time.Second

// ConsumeLoop drains the queue on the caller's goroutine and renders each
// frame. It is the only component that initiates a user-requested shutdown,
// via the sink's exit poll.
type ConsumeLoop struct {
	queue *queue.FrameQueue
	state *RunState
	out   sink.Sink
}

// NewConsumeLoop wires a consume loop to the shared queue and run state.
func NewConsumeLoop(q *queue.FrameQueue, state *RunState, out sink.Sink) *ConsumeLoop {
	return &ConsumeLoop{queue: q, state: state, out: out}
}

// Run consumes frames until the queue stops or the user asks to quit.
func (l *ConsumeLoop) Run() {
	log := logger.WithComponent("consume-loop")
	log.Info().Msg("Consume loop starting")

	counter := rate.NewCounter(time.Second)

	for l.state.Running() {
		f, err := l.queue.Pop(popTimeout)
		if errors.Is(err, queue.ErrStopped) {
			break
		}
		if errors.Is(err, queue.ErrTimeout) {
			continue
		}

		if err := l.out.Render(f); err != nil {
			log.Warn().Err(err).Uint64("seq", f.Seq).Msg("Failed to render frame")
		}

		if fps, ok := counter.Tick(); ok {
			l.state.SetDisplayFPS(fps)
			log.Info().
				Int("capture_fps", l.state.CaptureFPS()).
				Int("display_fps", fps).
				Int("queue", l.queue.Len()).
				Uint64("dropped", l.queue.Dropped()).
				Msg("Pipeline stats")
		}

		if l.out.PollExit() {
			log.Info().Msg("User requested exit")
			l.state.Stop()
			break
		}
	}

	log.Info().Msg("Consume loop exiting")
}
