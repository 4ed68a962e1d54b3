package simulate

import (
	"fmt"
	"time"
)

// Profile describes the simulated player and headset.
// Heights are physical meters; AvatarScale converts them to world units.
type Profile struct {
	Immersive      bool    `yaml:"immersive"`
	AvatarScale    float64 `yaml:"avatar_scale"`
	StandingHeight float64 `yaml:"standing_height"`

	// OriginOffset is added to the head height the headset reports, like a
	// tracking origin that sits below (or above) the real floor.
	OriginOffset float64 `yaml:"origin_offset"`

	BobAmplitude  float64       `yaml:"bob_amplitude"`
	BobPeriod     time.Duration `yaml:"bob_period"`
	CrouchDepth   float64       `yaml:"crouch_depth"`
	CrouchPeriod  time.Duration `yaml:"crouch_period"`
	LookAmplitude float64       `yaml:"look_amplitude"` // degrees of head yaw

	TeleportEvery    time.Duration `yaml:"teleport_every"`
	TeleportDistance float64       `yaml:"teleport_distance"`

	// Per-step probabilities.
	GlitchRate  float64 `yaml:"glitch_rate"`
	DropoutRate float64 `yaml:"dropout_rate"`

	Noise float64 `yaml:"noise"` // head height jitter, stddev in meters
	Seed  uint64  `yaml:"seed"`
}

// DefaultProfile is a standing room-scale user on a 1.5x avatar.
func DefaultProfile() Profile {
	return Profile{
		Immersive:        true,
		AvatarScale:      1.5,
		StandingHeight:   1.65,
		OriginOffset:     0.1,
		BobAmplitude:     0.03,
		BobPeriod:        2 * time.Second,
		CrouchDepth:      0.5,
		CrouchPeriod:     12 * time.Second,
		LookAmplitude:    40,
		TeleportEvery:    0,
		TeleportDistance: 3,
		Seed:             1,
	}
}

// Validate checks the profile can drive a session.
func (p Profile) Validate() error {
	switch {
	case p.AvatarScale <= 0:
		return fmt.Errorf("simulate: avatar_scale must be positive")
	case p.StandingHeight <= 0:
		return fmt.Errorf("simulate: standing_height must be positive")
	case p.CrouchDepth < 0 || p.CrouchDepth >= p.StandingHeight:
		return fmt.Errorf("simulate: crouch_depth must be in [0, standing_height)")
	case p.BobAmplitude < 0 || p.Noise < 0 || p.LookAmplitude < 0:
		return fmt.Errorf("simulate: amplitudes must not be negative")
	case p.GlitchRate < 0 || p.GlitchRate > 1:
		return fmt.Errorf("simulate: glitch_rate must be in [0, 1]")
	case p.DropoutRate < 0 || p.DropoutRate > 1:
		return fmt.Errorf("simulate: dropout_rate must be in [0, 1]")
	case p.BobPeriod < 0 || p.CrouchPeriod < 0 || p.TeleportEvery < 0:
		return fmt.Errorf("simulate: periods must not be negative")
	}
	return nil
}
