// Package api exposes the publish mode's HTTP surface: the MJPEG stream,
// a minimal viewer page, and pipeline statistics over REST and websocket.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hamlinzheng/rockchip-example/internal/logger"
	"github.com/hamlinzheng/rockchip-example/internal/pipeline"
	"github.com/hamlinzheng/rockchip-example/internal/queue"
	"github.com/hamlinzheng/rockchip-example/internal/sink"
)

// Server serves the stream and stats endpoints for a running pipeline.
type Server struct {
	router   *mux.Router
	state    *pipeline.RunState
	queue    *queue.FrameQueue
	stream   *sink.MJPEG
	upgrader websocket.Upgrader
}

// Stats is the JSON shape served by /api/stats and pushed on the websocket.
type Stats struct {
	Running    bool   `json:"running"`
	CaptureFPS int    `json:"capture_fps"`
	DisplayFPS int    `json:"display_fps"`
	QueueLen   int    `json:"queue_len"`
	QueueCap   int    `json:"queue_cap"`
	Dropped    uint64 `json:"dropped"`
	Frames     uint64 `json:"frames"`
	Clients    int    `json:"clients"`
}

// NewServer creates a server bound to the pipeline's shared state.
func NewServer(state *pipeline.RunState, q *queue.FrameQueue, stream *sink.MJPEG) *Server {
	s := &Server{
		router: mux.NewRouter(),
		state:  state,
		queue:  q,
		stream: stream,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/stats/stream", s.handleStatsStream)

	s.router.HandleFunc("/stream", s.stream.StreamHandler()).Methods("GET")
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

// Handler returns the root handler, for mounting in tests or elsewhere.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().Str("addr", addr).Msg("HTTP server starting")
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) snapshot() Stats {
	return Stats{
		Running:    s.state.Running(),
		CaptureFPS: s.state.CaptureFPS(),
		DisplayFPS: s.state.DisplayFPS(),
		QueueLen:   s.queue.Len(),
		QueueCap:   s.queue.Cap(),
		Dropped:    s.queue.Dropped(),
		Frames:     s.stream.FrameCount(),
		Clients:    s.stream.Clients(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.snapshot())
}

// handleStatsStream pushes a stats snapshot once per second over a
// websocket until the client goes away or the pipeline stops.
func (s *Server) handleStatsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteJSON(s.snapshot()); err != nil {
			return
		}
		if !s.state.Running() {
			return
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>camstream</title>
    <style>
        body { margin: 0; background: #000; display: flex; justify-content: center; align-items: center; min-height: 100vh; }
        img { max-width: 100vw; max-height: 100vh; }
    </style>
</head>
<body>
    <img src="/stream" alt="camstream live">
</body>
</html>`)
}
