package tracking

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-playspace/pkg/scene"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func uprightAt(y float64) scene.Pose {
	return scene.Pose{Position: mgl64.Vec3{0, y, 0}, Rotation: mgl64.QuatIdent()}
}

func newTestEstimator(head, rig float64) *ScaleEstimator {
	return NewScaleEstimator(DefaultConfig(), ScaleState{
		LastHeadPosition:      mgl64.Vec3{0, head, 0},
		LastMeasuredRigHeight: rig,
	})
}

func TestEstimate_UprightAccept(t *testing.T) {
	e := newTestEstimator(1.60, 1.00)

	est := e.Estimate(Measurement{
		Player:    uprightAt(0),
		Head:      mgl64.Vec3{0, 1.68, 0},
		RigHeight: 1.05,
	})

	if est.Verdict != VerdictAccepted {
		t.Fatalf("Expected accepted, got %v", est.Verdict)
	}
	if !est.Upright {
		t.Error("Expected upright measurement")
	}
	if !floatEquals(est.CheckDelta, 0.002) {
		t.Errorf("Expected checkDelta 0.002, got %v", est.CheckDelta)
	}
	if math.Abs(est.Scale-1.6) > 1e-6 {
		t.Errorf("Expected scale 1.6, got %v", est.Scale)
	}

	state := e.State()
	if !floatEquals(state.LastHeadPosition.Y(), 1.68) {
		t.Errorf("Expected last head Y 1.68, got %v", state.LastHeadPosition.Y())
	}
	if !floatEquals(state.LastMeasuredRigHeight, 1.05) {
		t.Errorf("Expected last rig height 1.05, got %v", state.LastMeasuredRigHeight)
	}
}

func TestEstimate_DeadBand(t *testing.T) {
	e := newTestEstimator(1.60, 1.00)
	before := e.State()

	est := e.Estimate(Measurement{
		Player:    uprightAt(0),
		Head:      mgl64.Vec3{0, 1.601, 0},
		RigHeight: 1.05,
	})

	if est.Verdict != VerdictDeadBand {
		t.Fatalf("Expected dead-band, got %v", est.Verdict)
	}
	if e.State() != before {
		t.Errorf("Expected state unchanged, got %+v", e.State())
	}
}

func TestEstimate_DeadBandIdempotent(t *testing.T) {
	e := newTestEstimator(1.60, 1.00)
	before := e.State()

	// Jitter of ±1.5mm around the reference never clears a 2mm band.
	for i := 0; i < 500; i++ {
		jitter := 0.0015 * math.Sin(float64(i))
		est := e.Estimate(Measurement{
			Player:    uprightAt(0),
			Head:      mgl64.Vec3{0.3 * jitter, 1.60 + jitter, 0},
			RigHeight: 1.00 + jitter,
		})
		if est.Verdict != VerdictDeadBand {
			t.Fatalf("tick %d: Expected dead-band, got %v (delta %v)", i, est.Verdict, est.HeadDelta)
		}
	}

	if e.State() != before {
		t.Errorf("Expected state unchanged after 500 ticks, got %+v", e.State())
	}
}

func TestEstimate_Discontinuity(t *testing.T) {
	e := newTestEstimator(1.60, 1.00)

	est := e.Estimate(Measurement{
		Player:    uprightAt(0),
		Head:      mgl64.Vec3{0, 2.50, 0},
		RigHeight: 1.30,
	})

	if est.Verdict != VerdictDiscontinuity {
		t.Fatalf("Expected discontinuity, got %v", est.Verdict)
	}
	if est.Scale != 0 {
		t.Errorf("Expected no scale on discontinuity, got %v", est.Scale)
	}
	state := e.State()
	if !floatEquals(state.LastHeadPosition.Y(), 2.50) {
		t.Errorf("Expected last head re-anchored to 2.50, got %v", state.LastHeadPosition.Y())
	}
	if !floatEquals(state.LastMeasuredRigHeight, 1.00) {
		t.Errorf("Expected rig height untouched, got %v", state.LastMeasuredRigHeight)
	}
}

func TestEstimate_ClampInvariant(t *testing.T) {
	tests := []struct {
		name string
		head float64
		rig  float64
		want float64
	}{
		{"tiny rig delta", 1.70, 1.0 + 1e-9, DefaultMaxScale},
		{"zero rig delta", 1.70, 1.0, DefaultMaxScale},
		{"opposite direction", 1.70, 0.9, DefaultMinScale},
		{"huge rig delta", 1.61, 1000, DefaultMinScale},
		{"in range", 1.70, 1.2, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEstimator(1.60, 1.00)
			est := e.Estimate(Measurement{
				Player:    uprightAt(0),
				Head:      mgl64.Vec3{0, tt.head, 0},
				RigHeight: tt.rig,
			})
			if est.Verdict != VerdictAccepted {
				t.Fatalf("Expected accepted, got %v", est.Verdict)
			}
			if est.Scale < DefaultMinScale || est.Scale > DefaultMaxScale {
				t.Errorf("Scale %v outside [%v, %v]", est.Scale, DefaultMinScale, DefaultMaxScale)
			}
			if math.Abs(est.Scale-tt.want) > 1e-6 {
				t.Errorf("Expected scale %v, got %v", tt.want, est.Scale)
			}
		})
	}
}

func TestEstimate_NonUprightUsesCapsuleFrame(t *testing.T) {
	e := newTestEstimator(1.40, 1.00)

	// Capsule lying along +Z: its local up is world +Z.
	lying := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0})
	est := e.Estimate(Measurement{
		Player:    scene.Pose{Rotation: lying},
		Head:      mgl64.Vec3{0, 0, 1.50},
		RigHeight: 1.10,
	})

	if est.Upright {
		t.Fatal("Expected non-upright measurement")
	}
	if est.Verdict != VerdictAccepted {
		t.Fatalf("Expected accepted, got %v", est.Verdict)
	}
	if math.Abs(est.HeadDelta-0.1) > 1e-9 {
		t.Errorf("Expected head delta 0.1, got %v", est.HeadDelta)
	}
	if math.Abs(est.Scale-1.0) > 1e-6 {
		t.Errorf("Expected scale 1.0, got %v", est.Scale)
	}
	got := e.State().LastHeadPosition
	if !scene.ApproxVec(got, mgl64.Vec3{0, 1.5, 0}, 1e-9) {
		t.Errorf("Expected capsule-local head (0, 1.5, 0), got %v", got)
	}
}

func TestEstimate_NonUprightDeltaIsMagnitude(t *testing.T) {
	e := newTestEstimator(1.40, 1.00)
	lying := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0})

	// Moving down in the capsule frame still yields a positive delta.
	est := e.Estimate(Measurement{
		Player:    scene.Pose{Rotation: lying},
		Head:      mgl64.Vec3{0, 0, 1.30},
		RigHeight: 1.10,
	})
	if est.HeadDelta <= 0 {
		t.Errorf("Expected positive magnitude, got %v", est.HeadDelta)
	}
}

func TestCheckDelta_Unclamped(t *testing.T) {
	e := NewScaleEstimator(DefaultConfig(), ScaleState{})

	tests := []struct {
		playerY float64
		want    float64
	}{
		{0, 0.002},
		{2000, 0.02},
		{-1000, 0.011},
		{4000, 0.038},
	}
	for _, tt := range tests {
		if got := e.CheckDelta(tt.playerY); !floatEquals(got, tt.want) {
			t.Errorf("CheckDelta(%v) = %v, want %v", tt.playerY, got, tt.want)
		}
	}
}

func TestEstimate_FarFromOriginWidensBand(t *testing.T) {
	e := NewScaleEstimator(DefaultConfig(), ScaleState{
		LastHeadPosition:      mgl64.Vec3{0, 1.60, 0},
		LastMeasuredRigHeight: 1.0,
	})

	// 5mm clears the band at the origin but not at y=1000 (band 11mm).
	est := e.Estimate(Measurement{
		Player:    uprightAt(1000),
		Head:      mgl64.Vec3{0, 1000 + 1.605, 0},
		RigHeight: 1.005,
	})
	if est.Verdict != VerdictDeadBand {
		t.Errorf("Expected dead-band far from origin, got %v", est.Verdict)
	}
}

func TestEstimate_RejectsNonFinite(t *testing.T) {
	e := newTestEstimator(1.60, 1.00)
	before := e.State()

	est := e.Estimate(Measurement{
		Player:    uprightAt(0),
		Head:      mgl64.Vec3{0, math.NaN(), 0},
		RigHeight: 1.05,
	})
	if est.Verdict != VerdictRejected {
		t.Errorf("Expected rejected, got %v", est.Verdict)
	}
	if e.State() != before {
		t.Errorf("Expected state unchanged, got %+v", e.State())
	}

	est = e.Estimate(Measurement{Player: uprightAt(0), Head: mgl64.Vec3{0, 1.7, 0}, RigHeight: math.Inf(1)})
	if est.Verdict != VerdictRejected {
		t.Errorf("Expected rejected for infinite rig height, got %v", est.Verdict)
	}
}

func TestVerdict_String(t *testing.T) {
	if VerdictAccepted.String() != "accepted" {
		t.Errorf("Expected 'accepted', got %q", VerdictAccepted.String())
	}
	text, err := VerdictDiscontinuity.MarshalText()
	if err != nil || string(text) != "discontinuity" {
		t.Errorf("Expected 'discontinuity', got %q (%v)", text, err)
	}
}

func TestVerdict_UnmarshalText(t *testing.T) {
	var v Verdict
	if err := v.UnmarshalText([]byte("dead-band")); err != nil || v != VerdictDeadBand {
		t.Errorf("Expected dead-band, got %v (%v)", v, err)
	}
	if err := v.UnmarshalText([]byte("sideways")); err == nil {
		t.Error("Expected error for unknown verdict")
	}
}
