package tracking

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-playspace/pkg/scene"
)

// Frames are the transforms derived from the tracker every tick.
type Frames struct {
	CameraRoot    scene.Transform
	HeadRoot      scene.Transform
	PlayerRoot    scene.Transform
	PlayspaceRoot scene.Transform
}

// Propagate recomputes all four frames from the tracker pose, the
// measurement rig's local offset and the observation. Every frame receives
// the tracker's scale.
func Propagate(f Frames, tracker, measurement scene.Transform, obs Observation) {
	scale := tracker.LocalScale()

	// Cancel the rig's local offset so the camera root sits at the
	// tracking-space origin, scaled into the world.
	cameraRotation := tracker.Rotation().Mul(measurement.LocalRotation().Inverse()).Normalize()
	offset := cameraRotation.Rotate(scene.MulElem(measurement.LocalPosition(), scale))
	f.CameraRoot.SetLocalScale(scale)
	f.CameraRoot.SetPositionAndRotation(tracker.Position().Sub(offset), cameraRotation)

	f.HeadRoot.SetPositionAndRotation(obs.Head.Position, obs.Head.Rotation)
	f.HeadRoot.SetLocalScale(scale)

	if obs.Immersive {
		playspace := f.CameraRoot.Rotation()
		f.PlayspaceRoot.SetPositionAndRotation(f.CameraRoot.Position(), playspace)
		f.PlayerRoot.SetPositionAndRotation(obs.Player.Position, playspace)
	} else {
		f.PlayspaceRoot.SetPositionAndRotation(obs.Player.Position, obs.Player.Rotation)
		f.PlayerRoot.SetPositionAndRotation(obs.Player.Position, obs.Player.Rotation)
	}

	f.PlayspaceRoot.SetLocalScale(scale)
	f.PlayerRoot.SetLocalScale(scale)
}

// uniformScale reads the x component of a uniform scale vector.
func uniformScale(v mgl64.Vec3) float64 {
	return v.X()
}
