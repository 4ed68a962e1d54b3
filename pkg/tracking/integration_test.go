package tracking_test

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-playspace/pkg/scene"
	"github.com/teslashibe/go-playspace/pkg/simulate"
	"github.com/teslashibe/go-playspace/pkg/tracking"
)

// runSimulation ticks a tracker driven by a simulated headset for d.
func runSimulation(t *testing.T, profile simulate.Profile, d time.Duration) (*tracking.Tracker, *simulate.Session) {
	t.Helper()

	rig, _ := tracking.NewRig()
	session, err := simulate.NewSession(profile, nil, simulate.WithMeasurement(rig.Measurement))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	cfg := tracking.DefaultConfig()
	tr, err := tracking.New(cfg, rig, simulate.NewSteppedSource(session, cfg.FrameInterval), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tr.Start()
	for i := 0; i < int(d/cfg.FrameInterval); i++ {
		tr.Update()
	}
	return tr, session
}

func TestIntegration_ConvergesThroughTeleports(t *testing.T) {
	profile := simulate.DefaultProfile()
	profile.AvatarScale = 2.5
	profile.TeleportEvery = 2 * time.Second

	tr, session := runSimulation(t, profile, 10*time.Second)

	if got := tr.Scale(); got < 2.5-1e-6 || got > 2.5+1e-6 {
		t.Fatalf("Expected scale 2.5, got %v", got)
	}
	teleports, _, _ := session.Events()
	if teleports == 0 {
		t.Fatal("Expected the run to include teleports")
	}
	if d := tr.Stats().Discontinuities; d != 0 {
		t.Errorf("Expected teleports to move head and capsule together, got %d discontinuities", d)
	}

	// With the scale inferred, the camera root cancels the headset's origin
	// offset and sits under the capsule.
	player := session.Player()
	want := player.Position.Sub(player.Rotation.Rotate(mgl64.Vec3{0, 2.5 * profile.OriginOffset, 0}))
	camera := scene.WorldPose(tr.CameraRoot())
	if !scene.ApproxVec(camera.Position, want, 1e-6) {
		t.Errorf("Expected camera root at %v, got %v", want, camera.Position)
	}
	if !camera.Rotation.OrientationEqualThreshold(player.Rotation, 1e-6) {
		t.Errorf("Expected camera root rotation %v, got %v", player.Rotation, camera.Rotation)
	}

	playspace := scene.WorldPose(tr.PlayspaceRoot())
	if !playspace.ApproxEqual(camera, 1e-9) {
		t.Error("Expected playspace to follow the camera root")
	}
	playerRoot := scene.WorldPose(tr.PlayerRoot())
	if !scene.ApproxVec(playerRoot.Position, player.Position, 1e-9) {
		t.Errorf("Expected player root at %v, got %v", player.Position, playerRoot.Position)
	}
	if !playerRoot.Rotation.OrientationEqualThreshold(playspace.Rotation, 1e-9) {
		t.Error("Expected player root to take the playspace rotation")
	}
}

func TestIntegration_GlitchesAndDropouts(t *testing.T) {
	profile := simulate.DefaultProfile()
	profile.GlitchRate = 0.05
	profile.DropoutRate = 0.05
	profile.Seed = 7

	tr, session := runSimulation(t, profile, 10*time.Second)

	_, glitches, dropouts := session.Events()
	stats := tr.Stats()
	if glitches == 0 || stats.Discontinuities == 0 {
		t.Fatalf("Expected glitches to be rejected as discontinuities, got %d glitches / %+v", glitches, stats)
	}
	// Start samples once, so one dropout may land outside Update.
	if stats.Skipped > uint64(dropouts) || stats.Skipped+1 < uint64(dropouts) {
		t.Errorf("Expected %d skipped ticks, got %d", dropouts, stats.Skipped)
	}
	if s := tr.Scale(); s < tracking.DefaultMinScale || s > tracking.DefaultMaxScale {
		t.Errorf("Expected scale inside clamp range, got %v", s)
	}
}

func TestIntegration_FlatUser(t *testing.T) {
	profile := simulate.DefaultProfile()
	profile.Immersive = false
	profile.TeleportEvery = time.Second

	tr, session := runSimulation(t, profile, 3*time.Second)

	if tr.Scale() != 1 {
		t.Errorf("Expected flat user to keep unit scale, got %v", tr.Scale())
	}
	player := session.Player()
	for name, frame := range map[string]scene.Transform{
		"player":    tr.PlayerRoot(),
		"playspace": tr.PlayspaceRoot(),
	} {
		if !scene.WorldPose(frame).ApproxEqual(player, 1e-9) {
			t.Errorf("Expected %s root at capsule pose %+v, got %+v", name, player, scene.WorldPose(frame))
		}
	}
	if tr.Stats().Accepted != 0 {
		t.Errorf("Expected no estimation for flat users, got %+v", tr.Stats())
	}
}
