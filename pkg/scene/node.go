package scene

import "github.com/go-gl/mathgl/mgl64"

// Ensure Node implements Transform
var _ Transform = (*Node)(nil)

// Node is an in-memory Transform. Lossy scale ignores the shear a rotated
// child picks up under a non-uniform parent scale, the same approximation
// engines make.
type Node struct {
	name   string
	parent Transform

	localPosition mgl64.Vec3
	localRotation mgl64.Quat
	localScale    mgl64.Vec3
}

// NewNode creates a root node at the origin with unit scale.
func NewNode(name string) *Node {
	return &Node{
		name:          name,
		localRotation: mgl64.QuatIdent(),
		localScale:    One,
	}
}

// NewChild creates a node parented to parent with an identity local pose.
func NewChild(name string, parent Transform) *Node {
	n := NewNode(name)
	n.parent = parent
	return n
}

// Name returns the debug name given at construction.
func (n *Node) Name() string {
	return n.name
}

// Parent returns the current parent, or nil for a root.
func (n *Node) Parent() Transform {
	return n.parent
}

// SetParent re-parents n while keeping its world pose and lossy scale.
// Parenting n under itself or one of its descendants is ignored.
func (n *Node) SetParent(parent Transform) {
	for p := parent; p != nil; p = p.Parent() {
		if p == Transform(n) {
			return
		}
	}

	pos, rot, scale := n.Position(), n.Rotation(), n.LossyScale()
	n.parent = parent
	n.SetPosition(pos)
	n.SetRotation(rot)
	n.localScale = DivElem(scale, n.parentScale())
}

// IsChildOf reports whether ancestor appears anywhere above n.
func (n *Node) IsChildOf(ancestor Transform) bool {
	for p := n.parent; p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

func (n *Node) parentPosition() mgl64.Vec3 {
	if n.parent == nil {
		return mgl64.Vec3{}
	}
	return n.parent.Position()
}

func (n *Node) parentRotation() mgl64.Quat {
	if n.parent == nil {
		return mgl64.QuatIdent()
	}
	return n.parent.Rotation()
}

func (n *Node) parentScale() mgl64.Vec3 {
	if n.parent == nil {
		return One
	}
	return n.parent.LossyScale()
}

// Position returns the world position.
func (n *Node) Position() mgl64.Vec3 {
	if n.parent == nil {
		return n.localPosition
	}
	offset := MulElem(n.parentScale(), n.localPosition)
	return n.parentPosition().Add(n.parentRotation().Rotate(offset))
}

// Rotation returns the world rotation.
func (n *Node) Rotation() mgl64.Quat {
	if n.parent == nil {
		return n.localRotation
	}
	return n.parentRotation().Mul(n.localRotation).Normalize()
}

// LossyScale returns the accumulated world scale.
func (n *Node) LossyScale() mgl64.Vec3 {
	return MulElem(n.parentScale(), n.localScale)
}

// SetPosition moves n to a world position.
func (n *Node) SetPosition(p mgl64.Vec3) {
	if n.parent == nil {
		n.localPosition = p
		return
	}
	local := n.parentRotation().Inverse().Rotate(p.Sub(n.parentPosition()))
	n.localPosition = DivElem(local, n.parentScale())
}

// SetRotation orients n in world space.
func (n *Node) SetRotation(r mgl64.Quat) {
	r = r.Normalize()
	if n.parent == nil {
		n.localRotation = r
		return
	}
	n.localRotation = n.parentRotation().Inverse().Mul(r).Normalize()
}

// SetPositionAndRotation sets both world values.
func (n *Node) SetPositionAndRotation(p mgl64.Vec3, r mgl64.Quat) {
	n.SetPosition(p)
	n.SetRotation(r)
}

func (n *Node) LocalPosition() mgl64.Vec3 { return n.localPosition }
func (n *Node) LocalRotation() mgl64.Quat { return n.localRotation }
func (n *Node) LocalScale() mgl64.Vec3    { return n.localScale }

func (n *Node) SetLocalPosition(p mgl64.Vec3) { n.localPosition = p }
func (n *Node) SetLocalRotation(r mgl64.Quat) { n.localRotation = r.Normalize() }
func (n *Node) SetLocalScale(s mgl64.Vec3)    { n.localScale = s }
