package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hamlinzheng/rockchip-example/internal/api"
	"github.com/hamlinzheng/rockchip-example/internal/capture"
	"github.com/hamlinzheng/rockchip-example/internal/logger"
	"github.com/hamlinzheng/rockchip-example/internal/pipeline"
	"github.com/hamlinzheng/rockchip-example/internal/sink"
)

var publishCmd = &cobra.Command{
	Use:   "publish [device] [width] [height] [fps] [queue-size]",
	Short: "Serve the camera as an MJPEG HTTP stream",
	Long: `Capture frames from a V4L2 camera and publish them as a Motion JPEG
stream over HTTP. Open the server root in a browser to watch; /api/stats
reports capture and display rates, queue depth and drop counts.`,
	Example: `  # Publish the default device on port 8080
  camstream publish

  # Explicit device and port
  camstream publish /dev/video1 1280 720 30 --port 9090`,
	Args: cobra.MaximumNArgs(5),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	stream := sink.NewMJPEG(90)
	defer stream.Close()

	srcCfg := capture.Config{
		Device: cfg.Device,
		Width:  cfg.Width,
		Height: cfg.Height,
		FPS:    cfg.FPS,
	}
	p := pipeline.New(srcCfg, capture.OpenGst, stream, cfg.QueueSize)

	server := api.NewServer(p.State, p.Queue, stream)
	go func() {
		if err := server.Start(cfg.ServerPort); err != nil {
			logger.WithComponent("api").Error().Err(err).Msg("HTTP server failed")
			p.Shutdown()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Get().Info().Str("signal", sig.String()).Msg("Shutting down")
		p.Shutdown()
	}()

	logger.Get().Info().
		Int("port", cfg.ServerPort).
		Str("device", cfg.Device).
		Msgf("Publishing on http://localhost:%d", cfg.ServerPort)

	if err := p.Run(); err != nil {
		return fmt.Errorf("capture pipeline: %w", err)
	}
	return nil
}
