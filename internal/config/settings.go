package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-playspace/pkg/simulate"
	"github.com/teslashibe/go-playspace/pkg/tracking"
)

// Settings is the playspace-sim settings file.
type Settings struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Tracking   TrackingConfig   `yaml:"tracking"`
	Simulation SimulationConfig `yaml:"simulation"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format,omitempty"` // text or json
}

// TrackingConfig overrides tracking.DefaultConfig. Zero values keep the default.
type TrackingConfig struct {
	FrameRate        int     `yaml:"frame_rate"`
	QueueSize        int     `yaml:"queue_size"`
	UprightThreshold float64 `yaml:"upright_threshold"`
	CheckDeltaNear   float64 `yaml:"check_delta_near"`
	CheckDeltaFar    float64 `yaml:"check_delta_far"`
	CheckDeltaSpan   float64 `yaml:"check_delta_span"`
	SnapThreshold    float64 `yaml:"snap_threshold"`
	MinScale         float64 `yaml:"min_scale"`
	MaxScale         float64 `yaml:"max_scale"`
}

// SimulationConfig is a simulated headset plus the run length.
type SimulationConfig struct {
	Duration         time.Duration `yaml:"duration"` // zero runs until interrupted
	simulate.Profile `yaml:",inline"`
}

// DashboardConfig holds the web dashboard settings.
type DashboardConfig struct {
	Enabled   bool `yaml:"enabled"`
	Port      int  `yaml:"port"`
	EventSize int  `yaml:"event_size"` // events kept for /api/events
}

// Defaults returns the settings used when no file is given.
func Defaults() *Settings {
	return &Settings{
		Logging: LoggingConfig{Level: DefaultLogLevel},
		Simulation: SimulationConfig{
			Duration: 30 * time.Second,
			Profile:  simulate.DefaultProfile(),
		},
		Dashboard: DashboardConfig{
			Port:      DefaultPort,
			EventSize: 256,
		},
	}
}

// Load reads a YAML settings file over Defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading settings file '%s': %w", path, err)
	}

	settings := Defaults()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("error parsing settings file '%s': %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings file '%s': %w", path, err)
	}
	return settings, nil
}

// Validate checks required fields and the derived tracking config.
func (s *Settings) Validate() error {
	var errs []error
	if s.Logging.Level == "" {
		errs = append(errs, fmt.Errorf("missing required field: logging.level"))
	}
	if f := s.Logging.Format; f != "" && f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", f))
	}
	if s.Tracking.FrameRate < 0 {
		errs = append(errs, fmt.Errorf("tracking.frame_rate must not be negative"))
	}
	if s.Simulation.Duration < 0 {
		errs = append(errs, fmt.Errorf("simulation.duration must not be negative"))
	}
	if s.Dashboard.Enabled && (s.Dashboard.Port <= 0 || s.Dashboard.Port > 65535) {
		errs = append(errs, fmt.Errorf("missing required field: dashboard.port"))
	}
	if err := s.Simulation.Profile.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := s.TrackingConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TrackingConfig applies the overrides to the tracker defaults. Non-immersive
// simulations use the desktop frame rate.
func (s *Settings) TrackingConfig() tracking.Config {
	cfg := tracking.DefaultConfig()
	if !s.Simulation.Immersive {
		cfg = tracking.DesktopConfig()
	}

	o := s.Tracking
	if o.FrameRate > 0 {
		cfg.FrameInterval = time.Second / time.Duration(o.FrameRate)
	}
	if o.QueueSize > 0 {
		cfg.QueueSize = o.QueueSize
	}
	setIf(&cfg.UprightThreshold, o.UprightThreshold)
	setIf(&cfg.CheckDeltaNear, o.CheckDeltaNear)
	setIf(&cfg.CheckDeltaFar, o.CheckDeltaFar)
	setIf(&cfg.CheckDeltaSpan, o.CheckDeltaSpan)
	setIf(&cfg.SnapThreshold, o.SnapThreshold)
	setIf(&cfg.MinScale, o.MinScale)
	setIf(&cfg.MaxScale, o.MaxScale)
	return cfg
}

func setIf(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
