package tracking

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-playspace/pkg/scene"
)

// Rig is the set of transforms the tracker drives. Tracker's parent is the
// anchor reset at bootstrap; Measurement is the reference camera whose local
// pose is the raw tracking-space head pose.
type Rig struct {
	Tracker     scene.Transform
	Measurement scene.Transform

	CameraRoot    scene.Transform
	HeadRoot      scene.Transform
	PlayerRoot    scene.Transform
	PlayspaceRoot scene.Transform

	// SpaceTransfer is the scratch anchor owned by TransferTransform.
	SpaceTransfer scene.Transform
}

// Validate reports every unassigned transform the tick path needs.
// SpaceTransfer is checked lazily by TransferTransform.
func (r Rig) Validate() error {
	var errs []error
	for _, f := range []struct {
		name string
		t    scene.Transform
	}{
		{"Tracker", r.Tracker},
		{"Measurement", r.Measurement},
		{"CameraRoot", r.CameraRoot},
		{"HeadRoot", r.HeadRoot},
		{"PlayerRoot", r.PlayerRoot},
		{"PlayspaceRoot", r.PlayspaceRoot},
	} {
		if f.t == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingTransform, f.name))
		}
	}
	return errors.Join(errs...)
}

// Frames returns the four derived frames.
func (r Rig) Frames() Frames {
	return Frames{
		CameraRoot:    r.CameraRoot,
		HeadRoot:      r.HeadRoot,
		PlayerRoot:    r.PlayerRoot,
		PlayspaceRoot: r.PlayspaceRoot,
	}
}

// rigSwitch is implemented by measurement rigs that can be turned off.
type rigSwitch interface {
	SetEnabled(enabled bool)
}

// NewRig builds a complete rig out of scene nodes: an anchor holding the
// tracker and the measurement camera, the four roots at world level, and
// a scratch anchor.
func NewRig() (rig Rig, anchor *scene.Node) {
	anchor = scene.NewNode("tracker-anchor")
	return Rig{
		Tracker:       scene.NewChild("tracker", anchor),
		Measurement:   scene.NewChild("measurement-rig", anchor),
		CameraRoot:    scene.NewNode("camera-root"),
		HeadRoot:      scene.NewNode("head-root"),
		PlayerRoot:    scene.NewNode("player-root"),
		PlayspaceRoot: scene.NewNode("playspace-root"),
		SpaceTransfer: scene.NewNode("space-transfer"),
	}, anchor
}
