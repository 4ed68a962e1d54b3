package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-playspace/pkg/debug"
	"github.com/teslashibe/go-playspace/pkg/scene"
)

// Tracker keeps the camera, head, player and playspace roots in sync with
// the tracked head and the inferred world scale.
//
// Everything except Snapshot, GetTuningParams and Submit must be called from
// one goroutine: the host's frame loop, or Run.
type Tracker struct {
	config  Config
	rig     Rig
	source  TrackingSource
	logger  *slog.Logger
	session string

	// Core components
	estimator *ScaleEstimator

	// Tick state
	started       bool
	active        bool
	transferring  bool
	rigEnabled    bool
	rigStateKnown bool
	tick          uint64
	stats         Stats

	commands chan func()

	// Published state
	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []func(Snapshot)
}

// New creates a tracker for rig, reading poses from source.
// A nil logger falls back to slog.Default().
func New(config Config, rig Rig, source TrackingSource, logger *slog.Logger) (*Tracker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("tracking: source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	session := uuid.New().String()
	return &Tracker{
		config:    config,
		rig:       rig,
		source:    source,
		logger:    logger.With("component", "tracking", "session", session[:8]),
		session:   session,
		estimator: NewScaleEstimator(config, ScaleState{}),
		commands:  make(chan func(), config.QueueSize),
	}, nil
}

// Start runs the one-off bootstrap: the tracker's parent anchor is detached
// and reset to an unscaled world-origin frame, and the estimator reference
// is seeded. An incomplete rig is reported once and leaves the tracker
// inactive instead of failing.
func (t *Tracker) Start() {
	if t.started {
		return
	}
	t.started = true

	if err := t.rig.Validate(); err != nil {
		t.logger.Warn("playspace rig incomplete, tracking disabled", "error", err)
		return
	}

	if anchor := t.rig.Tracker.Parent(); anchor != nil {
		anchor.SetParent(nil)
		scene.ResetLocal(anchor)
	} else {
		t.logger.Warn("tracker has no parent anchor, scale math assumes world space")
	}

	state := ScaleState{LastMeasuredRigHeight: t.rig.Measurement.LocalPosition().Y()}
	obs, err := t.seedObservation()
	switch {
	case err != nil:
		t.logger.Warn("no initial head pose", "source", t.source.Name(), "error", err)
	case obs.Immersive && obs.FixedScale <= 0:
		state.LastHeadPosition = obs.Head.Position
	}
	t.estimator.Reset(state)
	t.active = true

	t.logger.Info("playspace tracker started",
		"source", t.source.Name(),
		"rig_height", state.LastMeasuredRigHeight)
}

func (t *Tracker) seedObservation() (Observation, error) {
	if p, ok := t.source.(Peeker); ok {
		return p.Peek()
	}
	return t.source.Observe()
}

// Update runs one tick: sample, estimate, propagate.
func (t *Tracker) Update() {
	if !t.active {
		return
	}

	obs, err := t.source.Observe()
	if err != nil {
		// Last known pose persists until the source recovers.
		t.stats.Skipped++
		debug.TrackLog(t.logger, "tracking sample skipped", "error", err)
		return
	}

	t.tick++
	t.stats.Ticks++

	t.rig.Tracker.SetPositionAndRotation(obs.Head.Position, obs.Head.Rotation)
	est := t.updateScale(obs)
	Propagate(t.rig.Frames(), t.rig.Tracker, t.rig.Measurement, obs)

	t.publish(obs, est)
}

// ForceUpdateTracking re-runs the tick immediately, e.g. right after a
// teleport, so the roots are current before the next frame.
func (t *Tracker) ForceUpdateTracking() {
	t.Update()
}

// updateScale runs the estimator when the source allows it.
func (t *Tracker) updateScale(obs Observation) Estimate {
	if obs.FixedScale > 0 {
		t.rig.Tracker.SetLocalScale(scene.Uniform(obs.FixedScale))
		return Estimate{Verdict: VerdictIdle, Scale: obs.FixedScale}
	}

	if !obs.Immersive {
		// Flat users keep whatever scale they had; no measurement needed.
		t.setRigEnabled(false)
		return Estimate{Verdict: VerdictIdle}
	}
	t.setRigEnabled(true)

	est := t.estimator.Estimate(Measurement{
		Player:    obs.Player,
		Head:      obs.Head.Position,
		RigHeight: t.rig.Measurement.LocalPosition().Y(),
	})
	t.stats.record(est.Verdict)

	switch est.Verdict {
	case VerdictAccepted:
		t.rig.Tracker.SetLocalScale(scene.Uniform(est.Scale))
		debug.TrackLog(t.logger, "scale accepted",
			"scale", est.Scale, "head_delta", est.HeadDelta,
			"rig_delta", est.RigDelta, "upright", est.Upright)
	case VerdictDiscontinuity:
		t.logger.Debug("head discontinuity, re-anchoring", "head_delta", est.HeadDelta)
	case VerdictRejected:
		t.logger.Warn("non-finite tracking input ignored")
	}
	return est
}

func (t *Tracker) setRigEnabled(on bool) {
	sw, ok := t.rig.Measurement.(rigSwitch)
	if !ok || (t.rigStateKnown && t.rigEnabled == on) {
		return
	}
	sw.SetEnabled(on)
	t.rigEnabled = on
	t.rigStateKnown = true
}

func (t *Tracker) publish(obs Observation, est Estimate) {
	snap := Snapshot{
		Session:       t.session,
		Source:        t.source.Name(),
		Tick:          t.tick,
		Time:          time.Now(),
		Active:        t.active,
		Immersive:     obs.Immersive,
		Scale:         t.Scale(),
		Estimate:      est,
		State:         t.estimator.State(),
		Stats:         t.stats,
		CameraRoot:    frameState(t.rig.CameraRoot),
		HeadRoot:      frameState(t.rig.HeadRoot),
		PlayerRoot:    frameState(t.rig.PlayerRoot),
		PlayspaceRoot: frameState(t.rig.PlayspaceRoot),
	}

	t.mu.Lock()
	t.snapshot = snap
	listeners := t.listeners
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// OnUpdate registers fn to receive a snapshot after every tick. Listeners
// run on the tick goroutine and must not block.
func (t *Tracker) OnUpdate(fn func(Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Snapshot returns the rig state as of the most recent tick. Safe from any goroutine.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}

// Submit queues fn to run on the tick goroutine between frames.
func (t *Tracker) Submit(fn func(*Tracker)) error {
	select {
	case t.commands <- func() { fn(t) }:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run bootstraps the tracker and ticks it every FrameInterval until ctx is
// done. Submitted commands run on the same goroutine, between ticks.
func (t *Tracker) Run(ctx context.Context) error {
	t.Start()

	ticker := time.NewTicker(t.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("playspace tracker stopped", "ticks", t.stats.Ticks)
			return ctx.Err()

		case fn := <-t.commands:
			fn()

		case <-ticker.C:
			t.Update()
		}
	}
}

// CameraRoot is offset to cancel the measurement rig's local tracking offset.
func (t *Tracker) CameraRoot() scene.Transform { return t.rig.CameraRoot }

// HeadRoot follows the head position, rotation and scale.
func (t *Tracker) HeadRoot() scene.Transform { return t.rig.HeadRoot }

// PlayerRoot is always at the base of the player capsule.
func (t *Tracker) PlayerRoot() scene.Transform { return t.rig.PlayerRoot }

// PlayspaceRoot equals CameraRoot in VR and the capsule pose on desktop.
func (t *Tracker) PlayspaceRoot() scene.Transform { return t.rig.PlayspaceRoot }

// Scale returns the current inferred uniform scale.
func (t *Tracker) Scale() float64 {
	if t.rig.Tracker == nil {
		return 1
	}
	return uniformScale(t.rig.Tracker.LocalScale())
}

// State returns the estimator's carried state.
func (t *Tracker) State() ScaleState {
	return t.estimator.State()
}

// Stats returns tick counters.
func (t *Tracker) Stats() Stats {
	return t.stats
}

// Session returns the tracker's session ID.
func (t *Tracker) Session() string {
	return t.session
}

// Active reports whether bootstrap succeeded.
func (t *Tracker) Active() bool {
	return t.active
}
