package web

import (
	"errors"
	"fmt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-playspace/pkg/hub"
	"github.com/teslashibe/go-playspace/pkg/tracking"
)

// StatusResponse summarises the tracker.
type StatusResponse struct {
	Session   string           `json:"session"`
	Source    string           `json:"source"`
	Active    bool             `json:"active"`
	Immersive bool             `json:"immersive"`
	Tick      uint64           `json:"tick"`
	Scale     float64          `json:"scale"`
	Verdict   tracking.Verdict `json:"verdict"`
	Upright   bool             `json:"upright"`
	Stats     tracking.Stats   `json:"stats"`
	Clients   int              `json:"clients"`
}

// FramesResponse is the world pose of each root.
type FramesResponse struct {
	Tick          uint64              `json:"tick"`
	Scale         float64             `json:"scale"`
	CameraRoot    tracking.FrameState `json:"camera_root"`
	HeadRoot      tracking.FrameState `json:"head_root"`
	PlayerRoot    tracking.FrameState `json:"player_root"`
	PlayspaceRoot tracking.FrameState `json:"playspace_root"`
}

func listenAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

// handleStatus returns the tracker's current state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	snap := s.ctrl.Snapshot()
	return c.JSON(StatusResponse{
		Session:   snap.Session,
		Source:    snap.Source,
		Active:    snap.Active,
		Immersive: snap.Immersive,
		Tick:      snap.Tick,
		Scale:     snap.Scale,
		Verdict:   snap.Estimate.Verdict,
		Upright:   snap.Estimate.Upright,
		Stats:     snap.Stats,
		Clients:   s.Clients(),
	})
}

func (s *Server) handleFrames(c *fiber.Ctx) error {
	snap := s.ctrl.Snapshot()
	return c.JSON(FramesResponse{
		Tick:          snap.Tick,
		Scale:         snap.Scale,
		CameraRoot:    snap.CameraRoot,
		HeadRoot:      snap.HeadRoot,
		PlayerRoot:    snap.PlayerRoot,
		PlayspaceRoot: snap.PlayspaceRoot,
	})
}

// handleEvents returns recent events; ?limit=N keeps the newest N
func (s *Server) handleEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must not be negative",
		})
	}
	return c.JSON(s.events.recent(limit))
}

func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.GetTuningParams())
}

// handleSetTuning applies the non-zero fields of the body
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var params tracking.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid tuning body: " + err.Error(),
		})
	}

	err := s.exec(func(t *tracking.Tracker) error {
		return t.SetTuningParams(params)
	})
	if err != nil {
		return s.commandError(c, err)
	}

	s.events.add(Event{Kind: EventTuning, Scale: s.ctrl.Snapshot().Scale})
	return c.JSON(s.ctrl.GetTuningParams())
}

// handleRefresh forces an immediate tick, e.g. after a teleport
func (s *Server) handleRefresh(c *fiber.Ctx) error {
	var snap tracking.Snapshot
	err := s.exec(func(t *tracking.Tracker) error {
		t.ForceUpdateTracking()
		snap = t.Snapshot()
		return nil
	})
	if err != nil {
		return s.commandError(c, err)
	}

	s.events.add(Event{Kind: EventRefresh, Tick: snap.Tick, Scale: snap.Scale})
	return c.JSON(fiber.Map{
		"tick":  snap.Tick,
		"scale": snap.Scale,
	})
}

func (s *Server) commandError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, tracking.ErrInvalidConfig):
		status = fiber.StatusBadRequest
	case errors.Is(err, tracking.ErrQueueFull), errors.Is(err, errCommandTimeout):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// handleFramesWS streams snapshots. The current one is sent before the
// client joins the hub so only the write pump writes afterwards.
func (s *Server) handleFramesWS(c *websocket.Conn) {
	if err := c.WriteJSON(s.ctrl.Snapshot()); err != nil {
		return
	}

	client := hub.NewClient(s.frames, c)
	if client == nil {
		return
	}
	client.Run()
}
