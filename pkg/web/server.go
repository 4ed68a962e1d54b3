// Package web provides a real-time dashboard for the playspace tracker
package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/teslashibe/go-playspace/pkg/debug"
	"github.com/teslashibe/go-playspace/pkg/hub"
	"github.com/teslashibe/go-playspace/pkg/tracking"
)

// TopicFrames tags snapshot broadcasts.
const TopicFrames = "frames"

var errCommandTimeout = errors.New("web: tracker did not run the command in time")

// Controller is the tracker surface the dashboard drives.
// *tracking.Tracker implements it.
type Controller interface {
	Snapshot() tracking.Snapshot
	GetTuningParams() tracking.TuningParams
	Submit(fn func(*tracking.Tracker)) error
}

var _ Controller = (*tracking.Tracker)(nil)

// Config configures the dashboard.
type Config struct {
	Port           int
	EventSize      int           // events kept for /api/events
	BroadcastEvery int           // send every Nth snapshot on /ws/frames
	CommandTimeout time.Duration // wait for the tick goroutine
}

// DefaultConfig streams every third tick (30 Hz at 90 Hz tracking).
func DefaultConfig() Config {
	return Config{
		Port:           8090,
		EventSize:      256,
		BroadcastEvery: 3,
		CommandTimeout: 2 * time.Second,
	}
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	config Config
	ctrl   Controller
	logger *slog.Logger

	frames *hub.Hub
	events *eventLog
}

// NewServer creates a dashboard for ctrl. Register Observe with
// Tracker.OnUpdate to feed it.
func NewServer(config Config, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BroadcastEvery <= 0 {
		config.BroadcastEvery = 1
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = DefaultConfig().CommandTimeout
	}

	s := &Server{
		config: config,
		ctrl:   ctrl,
		logger: logger.With("component", "web"),
		frames: hub.New(TopicFrames, logger),
		events: newEventLog(config.EventSize),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Playspace Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/frames", s.handleFrames)
	api.Get("/events", s.handleEvents)
	api.Get("/tuning", s.handleGetTuning)
	api.Put("/tuning", s.handleSetTuning)
	api.Post("/tracking/refresh", s.handleRefresh)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	go s.frames.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "url", "http://localhost"+listenAddr(s.config.Port))
		errCh <- s.app.Listen(listenAddr(s.config.Port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			s.logger.Warn("dashboard shutdown", "error", err)
		}
		return nil
	}
}

// Observe records events and streams the snapshot. It runs on the tick
// goroutine and never blocks.
func (s *Server) Observe(snap tracking.Snapshot) {
	if e, ok := s.events.observe(snap); ok && e.Kind != EventScale {
		debug.Log(s.logger, "tracker event", "kind", e.Kind, "tick", e.Tick, "head_delta", e.HeadDelta)
	}
	if snap.Tick%uint64(s.config.BroadcastEvery) != 0 {
		return
	}
	if err := s.frames.BroadcastJSON(TopicFrames, snap); err != nil {
		s.logger.Warn("encode snapshot", "error", err)
	}
}

// Clients returns the number of websocket viewers.
func (s *Server) Clients() int {
	return s.frames.ClientCount()
}

// exec runs fn on the tick goroutine and waits for its result.
func (s *Server) exec(fn func(*tracking.Tracker) error) error {
	done := make(chan error, 1)
	if err := s.ctrl.Submit(func(t *tracking.Tracker) { done <- fn(t) }); err != nil {
		return err
	}

	timer := time.NewTimer(s.config.CommandTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return errCommandTimeout
	}
}
