// Package capture acquires decoded frames from a V4L2 camera through a
// GStreamer pipeline run as a subprocess.
package capture

import (
	"fmt"

	"github.com/hamlinzheng/rockchip-example/internal/frame"
)

// Config identifies the camera and the capture format. Only positivity is
// validated here; whether the device actually supports the mode is the
// pipeline's problem and surfaces as an open failure.
type Config struct {
	Device string
	Width  int
	Height int
	FPS    int
}

// Validate checks the config for obviously unusable values.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("capture: device must not be empty")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("capture: invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("capture: invalid frame rate %d", c.FPS)
	}
	return nil
}

// Source yields decoded frames on demand. Read blocks until the next frame
// is available or the source fails; Close releases the underlying device
// and unblocks a pending Read.
type Source interface {
	// Read returns the next decoded frame. A transient failure returns an
	// error the caller may retry; an empty frame marks a successful read
	// cycle that produced no data and is skipped without backoff.
	Read() (*frame.Frame, error)

	// Close releases the capture device. Safe to call more than once.
	Close() error
}

// Opener acquires a source from a config. The pipeline takes an Opener
// rather than a Source so that open failures happen inside the capture
// loop, on the capture goroutine, as the fatal-open path.
type Opener func(cfg Config) (Source, error)
