package tracking

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-playspace/pkg/scene"
)

// ScaleState is the only state carried between ticks.
type ScaleState struct {
	LastHeadPosition      mgl64.Vec3 `json:"last_head_position"`
	LastMeasuredRigHeight float64    `json:"last_measured_rig_height"`
}

// Verdict is the estimator's decision for one sample.
type Verdict int

const (
	// VerdictIdle means estimation did not run this tick (flat or pinned scale).
	VerdictIdle Verdict = iota
	// VerdictDeadBand means the head moved less than the check delta.
	VerdictDeadBand
	// VerdictAccepted means a new scale was computed.
	VerdictAccepted
	// VerdictDiscontinuity means the head jumped; the reference was re-anchored.
	VerdictDiscontinuity
	// VerdictRejected means an input was NaN or infinite.
	VerdictRejected
)

func (v Verdict) String() string {
	switch v {
	case VerdictIdle:
		return "idle"
	case VerdictDeadBand:
		return "dead-band"
	case VerdictAccepted:
		return "accepted"
	case VerdictDiscontinuity:
		return "discontinuity"
	case VerdictRejected:
		return "rejected"
	}
	return "unknown"
}

// MarshalText renders the verdict name in JSON snapshots.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a verdict name.
func (v *Verdict) UnmarshalText(text []byte) error {
	for c := VerdictIdle; c <= VerdictRejected; c++ {
		if c.String() == string(text) {
			*v = c
			return nil
		}
	}
	return fmt.Errorf("tracking: unknown verdict %q", text)
}

// Measurement is one estimator input.
type Measurement struct {
	Player    scene.Pose // capsule base, world space
	Head      mgl64.Vec3 // tracked head position, world space
	RigHeight float64    // measurement rig local Y, tracking space
}

// Estimate is the estimator's output for one measurement.
type Estimate struct {
	Verdict    Verdict `json:"verdict"`
	Upright    bool    `json:"upright"`
	HeadDelta  float64 `json:"head_delta"`
	CheckDelta float64 `json:"check_delta"`
	RigDelta   float64 `json:"rig_delta"`
	Scale      float64 `json:"scale"` // only meaningful when Verdict == VerdictAccepted
}

// ScaleEstimator infers a uniform world scale by comparing head movement in
// world space against the same movement seen by the measurement rig in
// tracking space. Comparing deltas instead of absolute heights cancels the
// headset's fixed tracking-origin offset.
type ScaleEstimator struct {
	config Config
	state  ScaleState
}

// NewScaleEstimator creates an estimator with the given thresholds and initial state.
func NewScaleEstimator(config Config, state ScaleState) *ScaleEstimator {
	return &ScaleEstimator{config: config, state: state}
}

// State returns the carried state.
func (e *ScaleEstimator) State() ScaleState {
	return e.state
}

// Reset replaces the carried state.
func (e *ScaleEstimator) Reset(state ScaleState) {
	e.state = state
}

// CheckDelta returns the dead-band width at the given player height.
// Far from the origin float precision degrades, so the band widens with
// |playerY|. The interpolation is deliberately left unclamped.
func (e *ScaleEstimator) CheckDelta(playerY float64) float64 {
	t := math.Abs(playerY / e.config.CheckDeltaSpan)
	return lerpUnclamped(e.config.CheckDeltaNear, e.config.CheckDeltaFar, t)
}

// IsUpright reports whether the player capsule is standing up.
func (e *ScaleEstimator) IsUpright(playerRotation mgl64.Quat) bool {
	return scene.Up.Dot(playerRotation.Rotate(scene.Up)) > e.config.UprightThreshold
}

// Estimate consumes one measurement. State changes at most once per call:
// both fields on acceptance, only the head reference on a discontinuity.
func (e *ScaleEstimator) Estimate(m Measurement) Estimate {
	if !finite(m.Head[0], m.Head[1], m.Head[2], m.RigHeight, m.Player.Position[1]) {
		return Estimate{Verdict: VerdictRejected}
	}

	out := Estimate{
		Upright:    e.IsUpright(m.Player.Rotation),
		CheckDelta: e.CheckDelta(m.Player.Position.Y()),
	}

	offset := m.Head.Sub(m.Player.Position)
	var current mgl64.Vec3
	if out.Upright {
		current = offset
		out.HeadDelta = current.Y() - e.state.LastHeadPosition.Y()
	} else {
		// Seated in a station: measure in the capsule's own frame.
		current = m.Player.Rotation.Inverse().Rotate(offset)
		out.HeadDelta = current.Sub(e.state.LastHeadPosition).Len()
	}

	absDelta := math.Abs(out.HeadDelta)
	switch {
	case absDelta > e.config.SnapThreshold:
		out.Verdict = VerdictDiscontinuity
		e.state.LastHeadPosition = current

	case absDelta > out.CheckDelta:
		out.RigDelta = m.RigHeight - e.state.LastMeasuredRigHeight
		out.Scale = clamp(out.HeadDelta/out.RigDelta, e.config.MinScale, e.config.MaxScale)
		out.Verdict = VerdictAccepted
		e.state.LastHeadPosition = current
		e.state.LastMeasuredRigHeight = m.RigHeight

	default:
		out.Verdict = VerdictDeadBand
	}

	return out
}

// setConfig swaps thresholds without touching the carried state.
func (e *ScaleEstimator) setConfig(config Config) {
	e.config = config
}
