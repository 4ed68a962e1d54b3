// playspace-watch connects to a playspace dashboard and logs the live
// snapshot stream.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-playspace/internal/config"
	"github.com/teslashibe/go-playspace/internal/httpc"
	"github.com/teslashibe/go-playspace/internal/log"
	"github.com/teslashibe/go-playspace/pkg/tracking"
	"github.com/teslashibe/go-playspace/pkg/web"
)

func main() {
	host := flag.String("host", "localhost", "Dashboard host")
	port := flag.Int("port", 0, "Dashboard port (overrides PLAYSPACE_PORT)")
	every := flag.Int("every", 10, "Log every Nth snapshot")
	refresh := flag.Bool("refresh", false, "Force a tracking update before watching")
	logFormat := flag.String("log-format", "", "Log format: text or json")
	flag.Parse()

	log.Init(config.LogLevel(config.DefaultLogLevel), *logFormat)

	p := config.Port(config.DefaultPort)
	if *port > 0 {
		p = *port
	}
	if *every <= 0 {
		*every = 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := describe(ctx, config.DashboardAPI(*host, p), *refresh); err != nil {
		log.Error("dashboard unavailable", "error", err)
		os.Exit(1)
	}
	if err := watch(ctx, config.DashboardURL(*host, p), *every); err != nil {
		log.Error("watch failed", "error", err)
		os.Exit(1)
	}
}

// describe logs the tracker status and tuning, optionally forcing a tick.
func describe(ctx context.Context, api string, refresh bool) error {
	var status web.StatusResponse
	if err := httpc.GetJSON(ctx, api+"/status", &status); err != nil {
		return err
	}
	var tuning tracking.TuningParams
	if err := httpc.GetJSON(ctx, api+"/tuning", &tuning); err != nil {
		return err
	}
	log.Info("tracker",
		"session", status.Session,
		"source", status.Source,
		"active", status.Active,
		"scale", status.Scale,
		"ticks", status.Stats.Ticks,
		"viewers", status.Clients,
		"snap_threshold", tuning.SnapThreshold,
		"check_delta_near", tuning.CheckDeltaNear)

	if !refresh {
		return nil
	}
	var out struct {
		Tick  uint64  `json:"tick"`
		Scale float64 `json:"scale"`
	}
	if err := httpc.PostJSON(ctx, api+"/tracking/refresh", nil, &out); err != nil {
		return err
	}
	log.Info("forced tracking update", "tick", out.Tick, "scale", out.Scale)
	return nil
}

func watch(ctx context.Context, url string, every int) error {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("connected", "url", url)

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	var received int
	var last tracking.Snapshot
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("disconnected", "snapshots", received, "last_tick", last.Tick)
				return nil
			}
			return err
		}

		var snap tracking.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Warn("bad snapshot", "error", err)
			continue
		}
		received++

		// Always report verdicts that changed the rig state.
		notable := snap.Estimate.Verdict == tracking.VerdictDiscontinuity ||
			snap.Estimate.Verdict == tracking.VerdictRejected
		if received%every != 0 && !notable {
			last = snap
			continue
		}

		log.Info("snapshot",
			"tick", snap.Tick,
			"source", snap.Source,
			"immersive", snap.Immersive,
			"scale", snap.Scale,
			"verdict", snap.Estimate.Verdict,
			"camera_root", snap.CameraRoot.Position,
			"head_root", snap.HeadRoot.Position,
			"ticks_behind", snap.Tick-last.Tick)
		last = snap
	}
}
