package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hamlinzheng/rockchip-example/internal/frame"
	"github.com/hamlinzheng/rockchip-example/internal/pipeline"
	"github.com/hamlinzheng/rockchip-example/internal/queue"
	"github.com/hamlinzheng/rockchip-example/internal/sink"
)

func newTestServer() (*Server, *pipeline.RunState, *queue.FrameQueue) {
	state := pipeline.NewRunState()
	q := queue.New(5)
	return NewServer(state, q, sink.NewMJPEG(90)), state, q
}

func TestHealthEndpoint(t *testing.T) {
	s, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %q, want ok", body["status"])
	}
}

func TestStatsEndpointReflectsPipeline(t *testing.T) {
	s, state, q := newTestServer()

	state.SetCaptureFPS(30)
	state.SetDisplayFPS(28)
	f := frame.New(2, 2, 4)
	f.CapturedAt = time.Now()
	q.Push(f)
	q.Push(f)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !stats.Running {
		t.Fatal("stats report pipeline not running")
	}
	if stats.CaptureFPS != 30 || stats.DisplayFPS != 28 {
		t.Fatalf("fps = %d/%d, want 30/28", stats.CaptureFPS, stats.DisplayFPS)
	}
	if stats.QueueLen != 2 || stats.QueueCap != 5 {
		t.Fatalf("queue = %d/%d, want 2/5", stats.QueueLen, stats.QueueCap)
	}
}

func TestIndexServesViewer(t *testing.T) {
	s, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "/stream") {
		t.Fatal("viewer page does not reference the stream endpoint")
	}
}
