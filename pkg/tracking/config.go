package tracking

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all tunable parameters for scale inference and the tick loop
type Config struct {
	// Timing
	FrameInterval time.Duration // Tick period used by Run
	QueueSize     int           // Commands accepted between ticks

	// Posture
	UprightThreshold float64 // dot(worldUp, playerUp) above this counts as upright

	// Dead-band (metres). Interpolated by |playerY| / CheckDeltaSpan, unclamped.
	CheckDeltaNear float64 // Threshold at the world origin
	CheckDeltaFar  float64 // Threshold at CheckDeltaSpan metres
	CheckDeltaSpan float64 // Height over which the threshold widens

	// Discontinuity
	SnapThreshold float64 // Head jumps larger than this re-anchor instead of rescaling

	// Scale bounds
	MinScale float64
	MaxScale float64
}

// DefaultConfig returns the tuning the rig ships with
func DefaultConfig() Config {
	return Config{
		FrameInterval: time.Second / 90, // headset refresh
		QueueSize:     64,

		UprightThreshold: 0.98,

		CheckDeltaNear: 0.002,  // 2mm
		CheckDeltaFar:  0.02,   // 2cm
		CheckDeltaSpan: 2000.0, // float precision falls off far from origin

		SnapThreshold: 0.5,

		MinScale: DefaultMinScale,
		MaxScale: DefaultMaxScale,
	}
}

// DesktopConfig returns a configuration for flat-screen sessions. Scale is
// never estimated there, so only the tick rate differs.
func DesktopConfig() Config {
	cfg := DefaultConfig()
	cfg.FrameInterval = time.Second / 60
	return cfg
}

// Validate checks that the thresholds describe a usable dead-band.
func (c Config) Validate() error {
	var errs []error
	if c.FrameInterval <= 0 {
		errs = append(errs, &ConfigError{Field: "FrameInterval", Message: "must be positive"})
	}
	if c.QueueSize < 0 {
		errs = append(errs, &ConfigError{Field: "QueueSize", Message: "must not be negative"})
	}
	if c.UprightThreshold <= -1 || c.UprightThreshold >= 1 {
		errs = append(errs, &ConfigError{Field: "UprightThreshold", Message: "must be inside (-1, 1)"})
	}
	if c.CheckDeltaNear <= 0 {
		errs = append(errs, &ConfigError{Field: "CheckDeltaNear", Message: "must be positive"})
	}
	if c.CheckDeltaFar < c.CheckDeltaNear {
		errs = append(errs, &ConfigError{Field: "CheckDeltaFar", Message: "must be >= CheckDeltaNear"})
	}
	if c.CheckDeltaSpan <= 0 {
		errs = append(errs, &ConfigError{Field: "CheckDeltaSpan", Message: "must be positive"})
	}
	if c.SnapThreshold <= c.CheckDeltaNear {
		errs = append(errs, &ConfigError{Field: "SnapThreshold", Message: "must exceed CheckDeltaNear"})
	}
	if c.MinScale < DefaultMinScale {
		errs = append(errs, &ConfigError{Field: "MinScale", Message: fmt.Sprintf("must be >= %g", DefaultMinScale)})
	}
	switch {
	case c.MaxScale < c.MinScale:
		errs = append(errs, &ConfigError{Field: "MaxScale", Message: "must be >= MinScale"})
	case c.MaxScale > DefaultMaxScale:
		errs = append(errs, &ConfigError{Field: "MaxScale", Message: fmt.Sprintf("must be <= %g", DefaultMaxScale)})
	}
	return errors.Join(errs...)
}
