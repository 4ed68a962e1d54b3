package tracking

import (
	"fmt"

	"github.com/teslashibe/go-playspace/pkg/scene"
)

// TransferTransform moves subject from one coordinate space to another: its
// pose relative to source becomes the same pose relative to target, and its
// original parent is restored. A nil source or target means world space.
//
// The rig's scratch anchor is borrowed for the duration of the call, so it
// must not be re-entered; a nested call returns ErrTransferInProgress.
// Source and target must lie outside subject's own subtree.
func (t *Tracker) TransferTransform(subject, source, target scene.Transform) error {
	anchor := t.rig.SpaceTransfer
	if anchor == nil {
		return ErrNoScratchAnchor
	}
	if subject == nil {
		return fmt.Errorf("%w: subject", ErrMissingTransform)
	}
	if descends(source, subject) {
		return fmt.Errorf("%w: source", ErrTransferCycle)
	}
	if descends(target, subject) {
		return fmt.Errorf("%w: target", ErrTransferCycle)
	}
	if t.transferring {
		return ErrTransferInProgress
	}
	t.transferring = true
	defer func() { t.transferring = false }()

	originalParent := subject.Parent()

	anchor.SetParent(source)
	scene.ResetLocal(anchor)

	subject.SetParent(anchor)
	anchor.SetParent(target)
	scene.ResetLocal(anchor)

	subject.SetParent(originalParent)
	return nil
}

// descends reports whether node is root or sits below it.
func descends(node, root scene.Transform) bool {
	for n := node; n != nil; n = n.Parent() {
		if n == root {
			return true
		}
	}
	return false
}
