// playspace-sim drives the playspace tracker with a simulated headset.
//
// Headless mode ticks as fast as possible and prints a report. Otherwise the
// tracker runs in real time, optionally behind the web dashboard.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-playspace/internal/config"
	"github.com/teslashibe/go-playspace/internal/log"
	"github.com/teslashibe/go-playspace/pkg/debug"
	"github.com/teslashibe/go-playspace/pkg/simulate"
	"github.com/teslashibe/go-playspace/pkg/tracking"
	"github.com/teslashibe/go-playspace/pkg/web"
)

type options struct {
	settings   *config.Settings
	headless   bool
	jsonReport bool
}

func parseFlags() (options, error) {
	configPath := flag.String("config", "", "YAML settings file")
	debugFlag := flag.Bool("debug", false, "Log every estimator verdict")
	headless := flag.Bool("headless", false, "Tick as fast as possible and exit with a report")
	duration := flag.Duration("duration", 0, "Simulated run length (overrides settings)")
	scale := flag.Float64("scale", 0, "Avatar scale (overrides settings)")
	dashboard := flag.Bool("dashboard", false, "Serve the web dashboard")
	port := flag.Int("port", 0, "Dashboard port (overrides PLAYSPACE_PORT)")
	logFormat := flag.String("log-format", "", "Log format: text or json")
	jsonReport := flag.Bool("json", false, "Print the report as JSON")
	flag.Parse()

	settings := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return options{}, err
		}
		settings = loaded
	}

	settings.Logging.Level = config.LogLevel(settings.Logging.Level)
	if *debugFlag {
		settings.Logging.Level = "debug"
		debug.Enabled = true
		debug.Tracking = true
	}
	if *logFormat != "" {
		settings.Logging.Format = *logFormat
	}
	if *duration > 0 {
		settings.Simulation.Duration = *duration
	}
	if *scale > 0 {
		settings.Simulation.AvatarScale = *scale
	}
	if *dashboard {
		settings.Dashboard.Enabled = true
	}
	settings.Dashboard.Port = config.Port(settings.Dashboard.Port)
	if *port > 0 {
		settings.Dashboard.Port = *port
	}

	if err := settings.Validate(); err != nil {
		return options{}, err
	}
	return options{settings: settings, headless: *headless, jsonReport: *jsonReport}, nil
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}
	s := opts.settings
	log.Init(s.Logging.Level, s.Logging.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := run(ctx, opts)
	if err != nil {
		log.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	if opts.jsonReport {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Error("encode report", "error", err)
		}
		return
	}
	log.Info("simulation report",
		"ticks", report.Ticks,
		"target_scale", report.TargetScale,
		"final_scale", report.FinalScale,
		"mean_scale", report.MeanScale,
		"stddev_scale", report.StdDevScale,
		"median_scale", report.MedianScale,
		"converged", report.Converged,
		"converged_at", report.ConvergedAt,
		"accepted", report.Stats.Accepted,
		"discontinuities", report.Stats.Discontinuities,
		"skipped", report.Stats.Skipped)
}

func run(ctx context.Context, opts options) (simulate.Report, error) {
	s := opts.settings

	rig, _ := tracking.NewRig()
	session, err := simulate.NewSession(s.Simulation.Profile, log.Component("simulate"),
		simulate.WithMeasurement(rig.Measurement))
	if err != nil {
		return simulate.Report{}, err
	}

	cfg := s.TrackingConfig()
	tracker, err := tracking.New(cfg, rig, simulate.NewSteppedSource(session, cfg.FrameInterval), log.L())
	if err != nil {
		return simulate.Report{}, err
	}

	recorder := simulate.NewRecorder(s.Simulation.AvatarScale, simulate.DefaultTolerance)
	tracker.OnUpdate(recorder.Observe)

	log.Info("simulation starting",
		"session", tracker.Session(),
		"immersive", s.Simulation.Immersive,
		"avatar_scale", s.Simulation.AvatarScale,
		"frame_interval", cfg.FrameInterval,
		"duration", s.Simulation.Duration,
		"headless", opts.headless)

	if opts.headless {
		runHeadless(ctx, tracker, cfg, s.Simulation.Duration)
	} else if err := runRealtime(ctx, tracker, s); err != nil {
		return simulate.Report{}, err
	}

	teleports, glitches, dropouts := session.Events()
	log.Info("simulated disturbances",
		"elapsed", session.Elapsed(),
		"teleports", teleports,
		"glitches", glitches,
		"dropouts", dropouts)
	return recorder.Report(), nil
}

func runHeadless(ctx context.Context, tracker *tracking.Tracker, cfg tracking.Config, d time.Duration) {
	if d <= 0 {
		d = config.Defaults().Simulation.Duration
	}
	tracker.Start()
	for i := 0; i < int(d/cfg.FrameInterval); i++ {
		if ctx.Err() != nil {
			return
		}
		tracker.Update()
	}
}

func runRealtime(ctx context.Context, tracker *tracking.Tracker, s *config.Settings) error {
	if s.Simulation.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Simulation.Duration)
		defer cancel()
	}

	if s.Dashboard.Enabled {
		wcfg := web.DefaultConfig()
		wcfg.Port = s.Dashboard.Port
		wcfg.EventSize = s.Dashboard.EventSize
		server := web.NewServer(wcfg, tracker, log.L())
		tracker.OnUpdate(server.Observe)

		go func() {
			if err := server.Start(ctx); err != nil {
				log.Error("dashboard stopped", "error", err)
			}
		}()
	}

	err := tracker.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
