// Package simulate models a headset user so the playspace tracker can be
// exercised without a VR runtime.
package simulate

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-playspace/pkg/debug"
	"github.com/teslashibe/go-playspace/pkg/scene"
	"github.com/teslashibe/go-playspace/pkg/tracking"
)

const (
	lookPeriod   = 7 * time.Second
	glitchHeight = 0.8 // meters, above the default snap threshold
)

// Session is a simulated player. It implements tracking.Platform and, when
// attached, moves the measurement rig the way a headset runtime would.
type Session struct {
	profile Profile
	logger  *slog.Logger
	rng     *rand.Rand

	mu          sync.Mutex
	measurement scene.Transform
	elapsed     time.Duration
	player      scene.Pose
	height      float64 // physical head height above the player's floor
	look        mgl64.Quat
	glitched    bool
	dropped     bool
	nextJump    time.Duration

	teleports int
	glitches  int
	dropouts  int
}

// Option configures a Session.
type Option func(*Session)

// WithMeasurement attaches the measurement rig transform the session drives.
func WithMeasurement(t scene.Transform) Option {
	return func(s *Session) {
		s.measurement = t
	}
}

// WithStartPose places the player capsule.
func WithStartPose(p scene.Pose) Option {
	return func(s *Session) {
		s.player = p
	}
}

// NewSession creates a session at t=0.
func NewSession(profile Profile, logger *slog.Logger, opts ...Option) (*Session, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		profile:  profile,
		logger:   logger,
		rng:      rand.New(rand.NewPCG(profile.Seed, profile.Seed^0x9e3779b97f4a7c15)),
		player:   scene.IdentityPose(),
		look:     mgl64.QuatIdent(),
		nextJump: profile.TeleportEvery,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.height = profile.StandingHeight
	s.applyRig()
	return s, nil
}

// Step advances simulated time by dt.
func (s *Session) Step(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.elapsed += dt
	t := s.elapsed.Seconds()
	p := s.profile

	h := p.StandingHeight
	if p.BobPeriod > 0 {
		h += p.BobAmplitude * math.Sin(2*math.Pi*t/p.BobPeriod.Seconds())
	}
	if p.CrouchPeriod > 0 {
		phase := 2 * math.Pi * t / p.CrouchPeriod.Seconds()
		h -= p.CrouchDepth * (0.5 - 0.5*math.Cos(phase))
	}
	if p.Noise > 0 {
		h += s.rng.NormFloat64() * p.Noise
	}
	s.height = h

	yawDeg := p.LookAmplitude * math.Sin(2*math.Pi*t/lookPeriod.Seconds())
	s.look = mgl64.QuatRotate(mgl64.DegToRad(yawDeg), scene.Up)

	if p.TeleportEvery > 0 && s.elapsed >= s.nextJump {
		s.teleport()
		s.nextJump += p.TeleportEvery
	}

	s.glitched = p.GlitchRate > 0 && s.rng.Float64() < p.GlitchRate
	if s.glitched {
		s.glitches++
	}
	s.dropped = p.DropoutRate > 0 && s.rng.Float64() < p.DropoutRate
	if s.dropped {
		s.dropouts++
	}

	s.applyRig()
}

// teleport moves the capsule forward and turns it, alternating between
// two floor heights.
func (s *Session) teleport() {
	forward := s.player.Rotation.Rotate(mgl64.Vec3{0, 0, -s.profile.TeleportDistance})
	lift := 0.25
	if s.teleports%2 == 1 {
		lift = -0.25
	}
	s.player.Position = s.player.Position.Add(forward).Add(mgl64.Vec3{0, lift, 0})
	s.player.Rotation = s.player.Rotation.Mul(mgl64.QuatRotate(mgl64.DegToRad(45), scene.Up)).Normalize()
	s.teleports++

	debug.Log(s.logger, "simulated teleport",
		"position", s.player.Position,
		"count", s.teleports)
}

// applyRig writes the tracking-space head pose into the measurement rig.
func (s *Session) applyRig() {
	if s.measurement == nil {
		return
	}
	s.measurement.SetLocalPosition(mgl64.Vec3{0, s.height + s.profile.OriginOffset, 0})
	s.measurement.SetLocalRotation(s.look)
}

// HeadPose returns the avatar head in world space.
func (s *Session) HeadPose() (scene.Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped {
		return scene.Pose{}, tracking.ErrTrackingUnavailable
	}

	offset := mgl64.Vec3{0, s.profile.AvatarScale * s.height, 0}
	if s.glitched {
		offset = offset.Add(mgl64.Vec3{0, glitchHeight, 0})
	}
	return scene.Pose{
		Position: s.player.Position.Add(s.player.Rotation.Rotate(offset)),
		Rotation: s.player.Rotation.Mul(s.look).Normalize(),
	}, nil
}

// IsInVR reports the profile's immersive flag.
func (s *Session) IsInVR() bool {
	return s.profile.Immersive
}

// PlayerPosition returns the capsule base.
func (s *Session) PlayerPosition() mgl64.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Position
}

// PlayerRotation returns the capsule rotation.
func (s *Session) PlayerRotation() mgl64.Quat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Rotation
}

// Player returns the capsule pose.
func (s *Session) Player() scene.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// Elapsed returns simulated time.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Profile returns the session's profile.
func (s *Session) Profile() Profile {
	return s.profile
}

// Events counts the simulated disturbances so far.
func (s *Session) Events() (teleports, glitches, dropouts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teleports, s.glitches, s.dropouts
}

// Ensure Session implements tracking.Platform
var _ tracking.Platform = (*Session)(nil)
