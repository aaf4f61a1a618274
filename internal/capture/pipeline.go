package capture

import "fmt"

// BuildPipeline constructs the gst-launch pipeline string for a V4L2
// device. The v4l2src element maps buffers with io-mode=mmap and keeps the
// kernel queue shallow (min-buffers=2) so stale frames never pile up inside
// the driver. The tail converts to RGBA and writes raw frames to stdout,
// where GstSource reads them.
func BuildPipeline(cfg Config) string {
	return fmt.Sprintf(
		"v4l2src device=%s min-buffers=2 io-mode=mmap ! "+
			"video/x-raw, width=(int)%d, height=(int)%d, framerate=(fraction)%d/1 ! "+
			"videoconvert ! video/x-raw,format=RGBA ! "+
			"fdsink fd=1 sync=false",
		cfg.Device, cfg.Width, cfg.Height, cfg.FPS,
	)
}
