package simulate

import (
	"time"

	"github.com/teslashibe/go-playspace/pkg/tracking"
)

// SteppedSource advances a session by a fixed step before every sample, so
// one tracker tick sees exactly one simulated frame.
type SteppedSource struct {
	session *Session
	step    time.Duration
	live    *tracking.LiveTrackedSource
}

var (
	_ tracking.TrackingSource = (*SteppedSource)(nil)
	_ tracking.Peeker         = (*SteppedSource)(nil)
)

// NewSteppedSource wraps session, stepping it by step per Observe.
func NewSteppedSource(session *Session, step time.Duration) *SteppedSource {
	return &SteppedSource{
		session: session,
		step:    step,
		live:    tracking.NewLiveTrackedSource(session),
	}
}

// Name identifies the source in logs.
func (s *SteppedSource) Name() string {
	return "simulated"
}

// Observe steps the session, then samples it like a live headset.
func (s *SteppedSource) Observe() (tracking.Observation, error) {
	s.session.Step(s.step)
	return s.live.Observe()
}

// Peek samples the session without stepping it.
func (s *SteppedSource) Peek() (tracking.Observation, error) {
	return s.live.Observe()
}
