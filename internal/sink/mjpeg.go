package sink

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"net/http"
	"sync"
	"time"

	"github.com/hamlinzheng/rockchip-example/internal/frame"
	"github.com/hamlinzheng/rockchip-example/internal/logger"
)

// MJPEG broadcasts frames as Motion JPEG over HTTP so the stream can be
// watched in any browser. Slow clients skip frames instead of applying
// backpressure, mirroring the queue's drop policy end to end.
type MJPEG struct {
	quality int

	mu         sync.RWMutex
	running    bool
	frameCount uint64
	lastUpdate time.Time

	clientsMu sync.RWMutex
	clients   map[chan []byte]struct{}
}

// NewMJPEG creates an MJPEG broadcaster with the given JPEG quality
// (1-100; values out of range default to 90).
func NewMJPEG(quality int) *MJPEG {
	if quality < 1 || quality > 100 {
		quality = 90
	}
	return &MJPEG{
		quality: quality,
		running: true,
		clients: make(map[chan []byte]struct{}),
	}
}

// Render encodes the frame and fans it out to every connected client.
func (m *MJPEG) Render(f *frame.Frame) error {
	m.mu.RLock()
	running := m.running
	m.mu.RUnlock()
	if !running {
		return fmt.Errorf("sink: mjpeg output closed")
	}

	img := f.RGBA()
	if img == nil {
		return fmt.Errorf("sink: frame is not RGBA (%d channels)", f.Channels)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: m.quality}); err != nil {
		return fmt.Errorf("sink: encode jpeg: %w", err)
	}
	jpegData := buf.Bytes()

	m.mu.Lock()
	m.frameCount++
	m.lastUpdate = time.Now()
	m.mu.Unlock()

	m.clientsMu.RLock()
	for ch := range m.clients {
		select {
		case ch <- jpegData:
		default:
			// Client is slow, skip this frame.
		}
	}
	m.clientsMu.RUnlock()

	return nil
}

// PollExit always reports false; a streaming output has no local quit key.
// Shutdown comes from the process signal handler instead.
func (m *MJPEG) PollExit() bool {
	return false
}

// Close disconnects every client.
func (m *MJPEG) Close() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	frameCount := m.frameCount
	m.mu.Unlock()

	m.clientsMu.Lock()
	for ch := range m.clients {
		close(ch)
	}
	m.clients = make(map[chan []byte]struct{})
	m.clientsMu.Unlock()

	logger.WithComponent("mjpeg-sink").Info().
		Uint64("frames", frameCount).
		Msg("MJPEG output closed")
	return nil
}

// Clients returns the number of connected stream clients.
func (m *MJPEG) Clients() int {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	return len(m.clients)
}

// FrameCount returns the number of frames broadcast so far.
func (m *MJPEG) FrameCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frameCount
}

// StreamHandler returns the multipart/x-mixed-replace HTTP handler.
// Mount it at /stream.
func (m *MJPEG) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Connection", "close")

		frameChan := make(chan []byte, 2)

		m.clientsMu.Lock()
		m.clients[frameChan] = struct{}{}
		count := len(m.clients)
		m.clientsMu.Unlock()
		logger.WithComponent("mjpeg-sink").Info().
			Str("remote", r.RemoteAddr).
			Int("clients", count).
			Msg("Stream client connected")

		defer func() {
			m.clientsMu.Lock()
			delete(m.clients, frameChan)
			count := len(m.clients)
			m.clientsMu.Unlock()
			logger.WithComponent("mjpeg-sink").Info().
				Str("remote", r.RemoteAddr).
				Int("clients", count).
				Msg("Stream client disconnected")
		}()

		for jpegData := range frameChan {
			if _, err := fmt.Fprintf(w,
				"--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
				len(jpegData)); err != nil {
				return
			}
			if _, err := w.Write(jpegData); err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
