package tracking

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-playspace/pkg/scene"
)

// Platform is the host's player tracking API.
// HeadPose returns ErrTrackingUnavailable (or any error) when no pose can be read.
type Platform interface {
	HeadPose() (scene.Pose, error)
	IsInVR() bool
	PlayerPosition() mgl64.Vec3
	PlayerRotation() mgl64.Quat
}

// Observation is everything the tracker reads from the outside world in one tick.
type Observation struct {
	Head   scene.Pose // tracked head, world space
	Player scene.Pose // capsule base, world space

	// Immersive selects the room-scale layout where the playspace follows the
	// camera root, and enables scale estimation.
	Immersive bool

	// FixedScale, when positive, pins the tracker scale and skips estimation.
	FixedScale float64
}

// TrackingSource produces observations. The variant is picked once at
// startup so the tracker never branches on the environment itself.
type TrackingSource interface {
	Name() string
	Observe() (Observation, error)
}

// Peeker is implemented by sources whose Observe has side effects, such as
// advancing a simulation. Start seeds the estimator through Peek so the
// bootstrap sample does not consume a frame.
type Peeker interface {
	Peek() (Observation, error)
}

// LiveTrackedSource reads a headset through the platform API.
type LiveTrackedSource struct {
	platform Platform
}

// Ensure both variants implement TrackingSource
var (
	_ TrackingSource = (*LiveTrackedSource)(nil)
	_ TrackingSource = (*StaticReferenceSource)(nil)
)

// NewLiveTrackedSource wraps a platform tracking API.
func NewLiveTrackedSource(platform Platform) *LiveTrackedSource {
	return &LiveTrackedSource{platform: platform}
}

// Name identifies the source in logs.
func (s *LiveTrackedSource) Name() string {
	return "live"
}

// Observe samples head and capsule poses.
func (s *LiveTrackedSource) Observe() (Observation, error) {
	if s.platform == nil {
		return Observation{}, ErrTrackingUnavailable
	}
	head, err := s.platform.HeadPose()
	if err != nil {
		return Observation{}, fmt.Errorf("read head pose: %w", err)
	}
	return Observation{
		Head: head,
		Player: scene.Pose{
			Position: s.platform.PlayerPosition(),
			Rotation: s.platform.PlayerRotation(),
		},
		Immersive: s.platform.IsInVR(),
	}, nil
}

// StaticReferenceSource stands in for a headset in editor preview. The
// reference camera's world pose drives the head and the capsule, its lossy
// scale pins the tracker scale, and the playspace follows the camera root.
type StaticReferenceSource struct {
	reference scene.Transform
}

// NewStaticReferenceSource uses ref as the preview camera.
func NewStaticReferenceSource(ref scene.Transform) *StaticReferenceSource {
	return &StaticReferenceSource{reference: ref}
}

// Name identifies the source in logs.
func (s *StaticReferenceSource) Name() string {
	return "preview"
}

// Observe copies the reference camera pose.
func (s *StaticReferenceSource) Observe() (Observation, error) {
	if s.reference == nil {
		return Observation{}, ErrNoReference
	}
	pose := scene.WorldPose(s.reference)
	scale := s.reference.LossyScale().X()
	if scale <= 0 {
		scale = 1
	}
	return Observation{
		Head:       pose,
		Player:     pose,
		Immersive:  true,
		FixedScale: scale,
	}, nil
}
