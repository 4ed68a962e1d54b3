package web

import (
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-playspace/pkg/tracking"
)

// Event kinds shown on the dashboard.
const (
	EventScale         = "scale"
	EventDiscontinuity = "discontinuity"
	EventRejected      = "rejected"
	EventRefresh       = "refresh"
	EventTuning        = "tuning"
)

// scaleEventStep is the relative scale change worth an event.
const scaleEventStep = 0.01

// Event is a notable tracker occurrence.
type Event struct {
	Time      time.Time `json:"time"`
	Tick      uint64    `json:"tick"`
	Kind      string    `json:"kind"`
	Scale     float64   `json:"scale"`
	HeadDelta float64   `json:"head_delta,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// eventLog keeps the most recent events.
type eventLog struct {
	mu        sync.RWMutex
	events    []Event
	size      int
	lastScale float64
}

func newEventLog(size int) *eventLog {
	if size <= 0 {
		size = 256
	}
	return &eventLog{
		events:    make([]Event, 0, size),
		size:      size,
		lastScale: 1,
	}
}

func (l *eventLog) add(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	if len(l.events) > l.size {
		l.events = l.events[1:]
	}
}

// observe turns a snapshot into events. Dead-band ticks and small scale
// adjustments are not recorded.
func (l *eventLog) observe(s tracking.Snapshot) (Event, bool) {
	e := Event{
		Time:      s.Time,
		Tick:      s.Tick,
		Scale:     s.Scale,
		HeadDelta: s.Estimate.HeadDelta,
	}

	switch s.Estimate.Verdict {
	case tracking.VerdictDiscontinuity:
		e.Kind = EventDiscontinuity
	case tracking.VerdictRejected:
		e.Kind = EventRejected
	case tracking.VerdictAccepted:
		l.mu.RLock()
		last := l.lastScale
		l.mu.RUnlock()
		if math.Abs(s.Scale-last) <= scaleEventStep*last {
			return Event{}, false
		}
		e.Kind = EventScale
	default:
		return Event{}, false
	}

	l.add(e)
	if e.Kind == EventScale {
		l.mu.Lock()
		l.lastScale = s.Scale
		l.mu.Unlock()
	}
	return e, true
}

// recent returns up to limit events, newest last. limit <= 0 returns all.
func (l *eventLog) recent(limit int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := 0
	if limit > 0 && len(l.events) > limit {
		start = len(l.events) - limit
	}
	return append([]Event(nil), l.events[start:]...)
}
