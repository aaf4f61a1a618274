package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamlinzheng/rockchip-example/internal/capture"
	"github.com/hamlinzheng/rockchip-example/internal/frame"
)

// fakeSource yields scripted read results and records lifecycle calls.
type fakeSource struct {
	mu     sync.Mutex
	reads  []readResult
	next   int
	closed int32
	seq    uint64
}

type readResult struct {
	empty bool
	err   error
}

func (s *fakeSource) Read() (*frame.Frame, error) {
	s.mu.Lock()
	var r readResult
	if s.next < len(s.reads) {
		r = s.reads[s.next]
		s.next++
	}
	s.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	if r.empty {
		return &frame.Frame{}, nil
	}
	f := frame.New(2, 2, 4)
	f.Seq = atomic.AddUint64(&s.seq, 1)
	// Pace reads so the test does not spin through millions of frames.
	time.Sleep(time.Millisecond)
	return f, nil
}

func (s *fakeSource) Close() error {
	atomic.AddInt32(&s.closed, 1)
	return nil
}

func (s *fakeSource) Closed() bool { return atomic.LoadInt32(&s.closed) > 0 }

// fakeSink counts rendered frames and can request exit after n frames.
type fakeSink struct {
	mu        sync.Mutex
	seqs      []uint64
	exitAfter int
}

func (s *fakeSink) Render(f *frame.Frame) error {
	s.mu.Lock()
	s.seqs = append(s.seqs, f.Seq)
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) PollExit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitAfter > 0 && len(s.seqs) >= s.exitAfter
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) rendered() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.seqs...)
}

func openerFor(src capture.Source, err error) capture.Opener {
	return func(capture.Config) (capture.Source, error) {
		return src, err
	}
}

func testConfig() capture.Config {
	return capture.Config{Device: "/dev/video0", Width: 2, Height: 2, FPS: 30}
}

func TestFatalOpenStopsEverything(t *testing.T) {
	openErr := errors.New("no such device")
	p := New(testConfig(), openerFor(nil, openErr), &fakeSink{}, 5)

	done := make(chan error, 1)
	go func() { done <- p.Run() }()

	select {
	case err := <-done:
		if !errors.Is(err, openErr) {
			t.Fatalf("Run returned %v, want the open error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline hung after fatal open")
	}

	if p.State.Running() {
		t.Fatal("running flag still set after fatal open")
	}
	if p.Queue.Running() {
		t.Fatal("queue still running after fatal open")
	}
}

func TestUserExitStopsPipeline(t *testing.T) {
	src := &fakeSource{reads: endlessFrames(1000)}
	out := &fakeSink{exitAfter: 3}
	p := New(testConfig(), openerFor(src, nil), out, 5)

	done := make(chan error, 1)
	go func() { done <- p.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v on user exit, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop on user exit")
	}

	if p.State.Running() {
		t.Fatal("running flag still set after user exit")
	}
	if !src.Closed() {
		t.Fatal("source not released after user exit")
	}
	if got := len(out.rendered()); got < 3 {
		t.Fatalf("rendered %d frames before exit, want at least 3", got)
	}
}

func TestTransientReadFailuresAreRetried(t *testing.T) {
	reads := []readResult{
		{err: errors.New("timeout")},
		{empty: true},
		{err: errors.New("timeout")},
	}
	reads = append(reads, endlessFrames(100)...)
	src := &fakeSource{reads: reads}
	out := &fakeSink{exitAfter: 2}
	p := New(testConfig(), openerFor(src, nil), out, 5)

	done := make(chan error, 1)
	go func() { done <- p.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline hung; transient failures should be retried")
	}

	if got := len(out.rendered()); got < 2 {
		t.Fatalf("rendered %d frames, want at least 2 despite transient failures", got)
	}
}

func TestFramesArriveInCaptureOrder(t *testing.T) {
	src := &fakeSource{reads: endlessFrames(1000)}
	out := &fakeSink{exitAfter: 10}
	p := New(testConfig(), openerFor(src, nil), out, 5)

	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	seqs := out.rendered()
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("out-of-order delivery: %d after %d", seqs[i], seqs[i-1])
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	src := &fakeSource{reads: endlessFrames(1000)}
	p := New(testConfig(), openerFor(src, nil), &fakeSink{}, 5)

	done := make(chan error, 1)
	go func() { done <- p.Run() }()

	time.Sleep(50 * time.Millisecond)
	p.Shutdown()
	p.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after shutdown, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop after shutdown")
	}

	if !src.Closed() {
		t.Fatal("source not released after shutdown")
	}
}

func endlessFrames(n int) []readResult {
	return make([]readResult, n)
}
