package tracking

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-playspace/pkg/scene"
)

func newTransferTracker(t *testing.T) *Tracker {
	t.Helper()
	rig, _ := NewRig()
	tr, err := New(DefaultConfig(), rig, NewLiveTrackedSource(&fakePlatform{vr: true}), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return tr
}

func frame(name string, pos mgl64.Vec3, rot mgl64.Quat, scale float64) *scene.Node {
	n := scene.NewNode(name)
	n.SetPositionAndRotation(pos, rot)
	n.SetLocalScale(scene.Uniform(scale))
	return n
}

func TestTransferTransform_MovesPoseBetweenSpaces(t *testing.T) {
	tr := newTransferTracker(t)

	source := frame("source", mgl64.Vec3{2, 0, 1}, yaw(30), 1)
	target := frame("target", mgl64.Vec3{-4, 3, 0}, yaw(-110), 2)

	// Subject sits at a known pose relative to the source, parented to world.
	local := scene.Pose{Position: mgl64.Vec3{0.5, 1, -0.25}, Rotation: yaw(15)}
	placed := scene.NewChild("placed", source)
	placed.SetLocalPosition(local.Position)
	placed.SetLocalRotation(local.Rotation)
	subject := scene.NewNode("subject")
	subject.SetPositionAndRotation(placed.Position(), placed.Rotation())

	if err := tr.TransferTransform(subject, source, target); err != nil {
		t.Fatalf("TransferTransform failed: %v", err)
	}

	expected := scene.NewChild("expected", target)
	expected.SetLocalPosition(local.Position)
	expected.SetLocalRotation(local.Rotation)

	if subject.Parent() != nil {
		t.Errorf("Expected original (world) parent restored, got %v", subject.Parent())
	}
	if !scene.WorldPose(subject).ApproxEqual(scene.WorldPose(expected), 1e-9) {
		t.Errorf("Expected %+v, got %+v", scene.WorldPose(expected), scene.WorldPose(subject))
	}
}

func TestTransferTransform_RoundTrip(t *testing.T) {
	tr := newTransferTracker(t)

	parent := frame("parent", mgl64.Vec3{1, 1, 1}, yaw(70), 1.5)
	a := frame("a", mgl64.Vec3{10, 0, -3}, yaw(12), 1)
	b := frame("b", mgl64.Vec3{-7, 2, 5}, yaw(200), 0.5)

	subject := scene.NewChild("subject", parent)
	subject.SetLocalPosition(mgl64.Vec3{0.3, -0.2, 0.9})
	subject.SetLocalRotation(yaw(-33))
	before := scene.LocalPose(subject)

	if err := tr.TransferTransform(subject, a, b); err != nil {
		t.Fatalf("A->B failed: %v", err)
	}
	if err := tr.TransferTransform(subject, b, a); err != nil {
		t.Fatalf("B->A failed: %v", err)
	}

	if subject.Parent() != scene.Transform(parent) {
		t.Error("Expected original parent restored")
	}
	if !scene.LocalPose(subject).ApproxEqual(before, 1e-9) {
		t.Errorf("Expected local pose %+v, got %+v", before, scene.LocalPose(subject))
	}
}

func TestTransferTransform_WorldTarget(t *testing.T) {
	tr := newTransferTracker(t)

	playspace := frame("playspace", mgl64.Vec3{3, 0, 3}, yaw(90), 1)
	subject := scene.NewChild("subject", playspace)
	subject.SetLocalPosition(mgl64.Vec3{0, 1, 2})

	// Playspace-relative pose becomes a world pose.
	if err := tr.TransferTransform(subject, playspace, nil); err != nil {
		t.Fatalf("TransferTransform failed: %v", err)
	}

	if subject.Parent() != scene.Transform(playspace) {
		t.Error("Expected subject to stay parented to the playspace")
	}
	if got := subject.Position(); !scene.ApproxVec(got, mgl64.Vec3{0, 1, 2}, 1e-9) {
		t.Errorf("Expected world position (0, 1, 2), got %v", got)
	}
}

func TestTransferTransform_Errors(t *testing.T) {
	tr := newTransferTracker(t)
	if err := tr.TransferTransform(nil, nil, nil); !errors.Is(err, ErrMissingTransform) {
		t.Errorf("Expected ErrMissingTransform, got %v", err)
	}

	tr.rig.SpaceTransfer = nil
	if err := tr.TransferTransform(scene.NewNode("s"), nil, nil); !errors.Is(err, ErrNoScratchAnchor) {
		t.Errorf("Expected ErrNoScratchAnchor, got %v", err)
	}
}

func TestTransferTransform_RejectsSpaceInsideSubject(t *testing.T) {
	tr := newTransferTracker(t)
	world := frame("world", mgl64.Vec3{1, 0, 0}, yaw(0), 1)
	subject := scene.NewChild("subject", world)
	subject.SetLocalPosition(mgl64.Vec3{0, 2, 0})
	child := scene.NewChild("child", subject)
	before := scene.WorldPose(subject)

	tests := []struct {
		name           string
		source, target scene.Transform
	}{
		{"target is subject", nil, subject},
		{"target below subject", nil, child},
		{"source below subject", child, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tr.TransferTransform(subject, tt.source, tt.target); !errors.Is(err, ErrTransferCycle) {
				t.Errorf("Expected ErrTransferCycle, got %v", err)
			}
			if subject.Parent() != scene.Transform(world) {
				t.Error("Expected subject parent untouched")
			}
			if !scene.WorldPose(subject).ApproxEqual(before, 1e-9) {
				t.Errorf("Expected pose unchanged, got %+v", scene.WorldPose(subject))
			}
		})
	}

	// The reentrancy guard is still free.
	if err := tr.TransferTransform(subject, nil, world); err != nil {
		t.Errorf("Expected transfer into an outside space to succeed, got %v", err)
	}
}

// reentrantNode calls back into the tracker the first time it is re-parented.
type reentrantNode struct {
	*scene.Node
	tracker *Tracker
	nested  error
	called  bool
}

func (n *reentrantNode) SetParent(parent scene.Transform) {
	if !n.called {
		n.called = true
		n.nested = n.tracker.TransferTransform(scene.NewNode("other"), nil, nil)
	}
	n.Node.SetParent(parent)
}

func TestTransferTransform_RejectsReentry(t *testing.T) {
	tr := newTransferTracker(t)
	subject := &reentrantNode{Node: scene.NewNode("subject"), tracker: tr}

	if err := tr.TransferTransform(subject, nil, nil); err != nil {
		t.Fatalf("outer transfer failed: %v", err)
	}
	if !errors.Is(subject.nested, ErrTransferInProgress) {
		t.Errorf("Expected ErrTransferInProgress from nested call, got %v", subject.nested)
	}

	// The guard is released once the outer call returns.
	if err := tr.TransferTransform(scene.NewNode("later"), nil, nil); err != nil {
		t.Errorf("Expected transfer to work again, got %v", err)
	}
}
