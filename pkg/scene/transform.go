// Package scene models the host engine's transform hierarchy.
//
// Transform is the capability the tracking rig consumes. Engines adapt their
// own scene-graph nodes to it; Node is an in-memory implementation used by
// the simulator and the tests.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a node in an affine transform hierarchy with a uniform-ish
// scale. World setters keep the parent untouched and solve for the local
// values; SetParent keeps the world pose.
type Transform interface {
	Parent() Transform
	SetParent(parent Transform)

	Position() mgl64.Vec3
	Rotation() mgl64.Quat
	LossyScale() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	SetRotation(r mgl64.Quat)
	SetPositionAndRotation(p mgl64.Vec3, r mgl64.Quat)

	LocalPosition() mgl64.Vec3
	LocalRotation() mgl64.Quat
	LocalScale() mgl64.Vec3
	SetLocalPosition(p mgl64.Vec3)
	SetLocalRotation(r mgl64.Quat)
	SetLocalScale(s mgl64.Vec3)
}

// Pose is a position and orientation pair.
type Pose struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Quat `json:"rotation"`
}

// IdentityPose returns the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

// ApproxEqual reports whether two poses match within eps. Positions are
// compared per component in absolute terms; rotations as orientations, so q
// and -q are equal.
func (p Pose) ApproxEqual(o Pose, eps float64) bool {
	return ApproxVec(p.Position, o.Position, eps) &&
		p.Rotation.OrientationEqualThreshold(o.Rotation, eps)
}

// ApproxVec reports whether every component of a and b differs by at most
// eps. mgl64's ApproxEqualThreshold is relative and collapses to eps² when
// one side is exactly zero.
func ApproxVec(a, b mgl64.Vec3, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// WorldPose reads the world position and rotation of t.
func WorldPose(t Transform) Pose {
	return Pose{Position: t.Position(), Rotation: t.Rotation()}
}

// LocalPose reads the parent-relative position and rotation of t.
func LocalPose(t Transform) Pose {
	return Pose{Position: t.LocalPosition(), Rotation: t.LocalRotation()}
}

// ResetLocal puts t at its parent's origin with identity rotation and unit scale.
func ResetLocal(t Transform) {
	t.SetLocalPosition(mgl64.Vec3{})
	t.SetLocalRotation(mgl64.QuatIdent())
	t.SetLocalScale(One)
}

// Uniform returns a vector with s on every axis.
func Uniform(s float64) mgl64.Vec3 {
	return mgl64.Vec3{s, s, s}
}

// One is the unit scale.
var One = mgl64.Vec3{1, 1, 1}

// Up is the world up axis.
var Up = mgl64.Vec3{0, 1, 0}

// MulElem multiplies two vectors component-wise.
func MulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// DivElem divides a by b component-wise. Zero components of b yield zero.
func DivElem(a, b mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := range out {
		if b[i] != 0 {
			out[i] = a[i] / b[i]
		}
	}
	return out
}
