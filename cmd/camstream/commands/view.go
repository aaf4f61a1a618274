package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hamlinzheng/rockchip-example/internal/capture"
	"github.com/hamlinzheng/rockchip-example/internal/pipeline"
	"github.com/hamlinzheng/rockchip-example/internal/sink"
)

var viewCmd = &cobra.Command{
	Use:   "view [device] [width] [height] [fps] [queue-size]",
	Short: "Display the camera stream in an X11 window",
	Long: `Capture frames from a V4L2 camera and display them in an X11 window.

The capture thread never blocks on a slow display: when the frame queue is
full the oldest frame is dropped. Press 'q' or Escape in the window to quit.`,
	Example: `  # Default device, resolution and queue size
  camstream view

  # Explicit device and mode
  camstream view /dev/video1 1280 720 60

  # Smaller queue for lower latency
  camstream view /dev/video0 1920 1080 30 2`,
	Args: cobra.MaximumNArgs(5),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	window, err := sink.OpenX11Window("camstream - "+cfg.Device, cfg.Width, cfg.Height)
	if err != nil {
		return fmt.Errorf("open preview window: %w", err)
	}
	defer window.Close()

	srcCfg := capture.Config{
		Device: cfg.Device,
		Width:  cfg.Width,
		Height: cfg.Height,
		FPS:    cfg.FPS,
	}

	p := pipeline.New(srcCfg, capture.OpenGst, window, cfg.QueueSize)
	if err := p.Run(); err != nil {
		return fmt.Errorf("capture pipeline: %w", err)
	}
	return nil
}
