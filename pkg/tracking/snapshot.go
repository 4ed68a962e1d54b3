package tracking

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-playspace/pkg/scene"
)

// FrameState is a frame's world pose and local scale at the end of a tick.
type FrameState struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Quat `json:"rotation"`
	Scale    float64    `json:"scale"`
}

func frameState(t scene.Transform) FrameState {
	return FrameState{
		Position: t.Position(),
		Rotation: t.Rotation(),
		Scale:    uniformScale(t.LocalScale()),
	}
}

// Stats counts tick outcomes since Start.
type Stats struct {
	Ticks           uint64 `json:"ticks"`
	Skipped         uint64 `json:"skipped"`
	Accepted        uint64 `json:"accepted"`
	DeadBand        uint64 `json:"dead_band"`
	Discontinuities uint64 `json:"discontinuities"`
	Rejected        uint64 `json:"rejected"`
}

func (s *Stats) record(v Verdict) {
	switch v {
	case VerdictAccepted:
		s.Accepted++
	case VerdictDeadBand:
		s.DeadBand++
	case VerdictDiscontinuity:
		s.Discontinuities++
	case VerdictRejected:
		s.Rejected++
	}
}

// Snapshot is a read-only copy of the rig after a tick.
type Snapshot struct {
	Session   string     `json:"session"`
	Source    string     `json:"source"`
	Tick      uint64     `json:"tick"`
	Time      time.Time  `json:"time"`
	Active    bool       `json:"active"`
	Immersive bool       `json:"immersive"`
	Scale     float64    `json:"scale"`
	Estimate  Estimate   `json:"estimate"`
	State     ScaleState `json:"state"`
	Stats     Stats      `json:"stats"`

	CameraRoot    FrameState `json:"camera_root"`
	HeadRoot      FrameState `json:"head_root"`
	PlayerRoot    FrameState `json:"player_root"`
	PlayspaceRoot FrameState `json:"playspace_root"`
}
