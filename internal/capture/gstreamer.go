package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hamlinzheng/rockchip-example/internal/frame"
	"github.com/hamlinzheng/rockchip-example/internal/logger"
)

const rgbaChannels = 4

// GstSource reads raw RGBA frames from a gst-launch-1.0 subprocess.
// Running the pipeline out of process avoids CGO bindings entirely: the
// pipeline's fdsink writes packed frames to stdout and Read slices them
// back into Frames. Killing the process on Close unblocks a pending Read
// with EOF, which keeps shutdown cooperative.
type GstSource struct {
	cfg    Config
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader

	mu     sync.Mutex
	closed bool
	seq    uint64
}

// OpenGst starts the GStreamer pipeline for cfg. Failure to spawn the
// subprocess is the fatal-open case: the caller must not retry.
func OpenGst(cfg Config) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.WithComponent("gst-source")
	pipeline := BuildPipeline(cfg)
	log.Info().Str("pipeline", pipeline).Msg("Opening capture pipeline")

	// sh -c handles the ! separators in the pipeline string.
	cmd := exec.Command("sh", "-c", "gst-launch-1.0 -q "+pipeline)

	// Rockchip boards route videoconvert/videoflip through the RGA blitter
	// when these are set; harmless elsewhere.
	cmd.Env = append(os.Environ(),
		"GST_VIDEO_CONVERT_USE_RGA=1",
		"GST_VIDEO_FLIP_USE_RGA=1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("capture: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture: start gst-launch: %w", err)
	}

	s := &GstSource{
		cfg:    cfg,
		cmd:    cmd,
		stdout: stdout,
		reader: bufio.NewReaderSize(stdout, cfg.Width*cfg.Height*rgbaChannels*2),
	}
	go s.logStderr(stderr)

	log.Info().
		Str("device", cfg.Device).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Int("fps", cfg.FPS).
		Int("pid", cmd.Process.Pid).
		Msg("Capture pipeline started")

	return s, nil
}

// Read blocks until a full frame has been read from the pipeline.
func (s *GstSource) Read() (*frame.Frame, error) {
	f := frame.New(s.cfg.Width, s.cfg.Height, rgbaChannels)

	n, err := io.ReadFull(s.reader, f.Pix)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("capture: pipeline ended: %w", err)
		}
		return nil, fmt.Errorf("capture: short read (%d bytes): %w", n, err)
	}

	s.mu.Lock()
	s.seq++
	f.Seq = s.seq
	s.mu.Unlock()
	f.CapturedAt = time.Now()

	return f, nil
}

// Close kills the pipeline subprocess and reaps it. Idempotent; a Read
// blocked on the pipe returns with EOF once the process dies.
func (s *GstSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	log := logger.WithComponent("gst-source")
	if s.cmd != nil && s.cmd.Process != nil {
		log.Debug().Int("pid", s.cmd.Process.Pid).Msg("Killing capture pipeline")
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	log.Info().Str("device", s.cfg.Device).Msg("Capture pipeline closed")
	return nil
}

// logStderr forwards pipeline diagnostics to the component logger.
func (s *GstSource) logStderr(r io.Reader) {
	log := logger.WithComponent("gst-source")
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "ERROR") || strings.Contains(line, "WARN") {
			log.Warn().Str("gst", line).Msg("GStreamer message")
		} else {
			log.Debug().Str("gst", line).Msg("GStreamer output")
		}
	}
}
