package pipeline

import "sync/atomic"

// RunState is the state shared between the capture and consume loops: the
// cooperative keep-running flag plus the last published rates. It is
// constructed and passed explicitly so a pipeline can be assembled in a
// test without any process-level globals. Each field is independently
// atomic; there is no cross-field consistency requirement since staleness
// is bounded by the 1-second reporting cadence.
type RunState struct {
	running    atomic.Bool
	captureFPS atomic.Int64
	displayFPS atomic.Int64
}

// NewRunState returns a state with the running flag set.
func NewRunState() *RunState {
	s := &RunState{}
	s.running.Store(true)
	return s
}

// Running reports whether both loops should keep going.
func (s *RunState) Running() bool { return s.running.Load() }

// Stop clears the running flag. Idempotent and safe from either loop.
func (s *RunState) Stop() { s.running.Store(false) }

// SetCaptureFPS publishes the capture loop's last measured rate.
func (s *RunState) SetCaptureFPS(fps int) { s.captureFPS.Store(int64(fps)) }

// CaptureFPS returns the last published capture rate.
func (s *RunState) CaptureFPS() int { return int(s.captureFPS.Load()) }

// SetDisplayFPS publishes the consume loop's last measured rate.
func (s *RunState) SetDisplayFPS(fps int) { s.displayFPS.Store(int64(fps)) }

// DisplayFPS returns the last published display rate.
func (s *RunState) DisplayFPS() int { return int(s.displayFPS.Load()) }
