// Package sink renders frames popped from the queue. Implementations are
// swappable behind one interface: an X11 preview window for local viewing
// and an MJPEG broadcaster for streaming over HTTP.
package sink

import "github.com/hamlinzheng/rockchip-example/internal/frame"

// Sink consumes frames and reports whether the user asked to quit.
type Sink interface {
	// Render displays or forwards one frame.
	Render(f *frame.Frame) error

	// PollExit reports whether the user requested to quit since the last
	// call (a keypress on the preview window; always false for outputs
	// without local input).
	PollExit() bool

	// Close releases the sink's resources.
	Close() error
}
