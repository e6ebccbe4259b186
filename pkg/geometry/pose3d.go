package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
	axisZ = r3.Vec{Z: 1}
)

// Rotation3d is a spatial rotation backed by a unit quaternion.
// The zero value is the identity rotation.
type Rotation3d struct {
	q quat.Number
}

// NewRotation3d builds a rotation from extrinsic roll (X), pitch (Y) and
// yaw (Z) angles in radians, applied in that order.
func NewRotation3d(roll, pitch, yaw float64) Rotation3d {
	qx := quat.Number(r3.NewRotation(roll, axisX))
	qy := quat.Number(r3.NewRotation(pitch, axisY))
	qz := quat.Number(r3.NewRotation(yaw, axisZ))
	return Rotation3d{q: quat.Mul(qz, quat.Mul(qy, qx))}
}

// NewRotation3dFromQuaternion builds a rotation from quaternion components.
// The quaternion is normalized; a zero quaternion yields the identity.
func NewRotation3dFromQuaternion(w, x, y, z float64) Rotation3d {
	q := quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
	n := quat.Abs(q)
	if n < 1e-12 {
		return Rotation3d{}
	}
	return Rotation3d{q: quat.Scale(1/n, q)}
}

// Quaternion returns the unit quaternion of the rotation.
func (r Rotation3d) Quaternion() quat.Number {
	if r.q == (quat.Number{}) {
		return quat.Number{Real: 1}
	}
	return r.q
}

// IsFinite reports whether every quaternion component is finite.
func (r Rotation3d) IsFinite() bool {
	return !quat.IsNaN(r.q) && !quat.IsInf(r.q)
}

// Rotate applies the rotation to a vector.
func (r Rotation3d) Rotate(v r3.Vec) r3.Vec {
	return r3.Rotation(r.Quaternion()).Rotate(v)
}

// Then returns the rotation that applies other first and r second.
func (r Rotation3d) Then(other Rotation3d) Rotation3d {
	return Rotation3d{q: quat.Mul(r.Quaternion(), other.Quaternion())}
}

// Inverse returns the opposite rotation.
func (r Rotation3d) Inverse() Rotation3d {
	return Rotation3d{q: quat.Conj(r.Quaternion())}
}

// Roll returns the rotation about X in radians.
func (r Rotation3d) Roll() float64 {
	q := r.Quaternion()
	return math.Atan2(2*(q.Real*q.Imag+q.Jmag*q.Kmag), 1-2*(q.Imag*q.Imag+q.Jmag*q.Jmag))
}

// Pitch returns the rotation about Y in radians.
func (r Rotation3d) Pitch() float64 {
	q := r.Quaternion()
	s := 2 * (q.Real*q.Jmag - q.Kmag*q.Imag)
	return math.Asin(math.Max(-1, math.Min(1, s)))
}

// Yaw returns the rotation about Z in radians.
func (r Rotation3d) Yaw() float64 {
	q := r.Quaternion()
	return math.Atan2(2*(q.Real*q.Kmag+q.Imag*q.Jmag), 1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag))
}

// Transform3d is a rigid transform between two frames.
// The zero value is the identity transform.
type Transform3d struct {
	Translation r3.Vec
	Rotation    Rotation3d
}

// NewTransform3d creates a transform from a translation in meters and
// roll/pitch/yaw in radians.
func NewTransform3d(x, y, z, roll, pitch, yaw float64) Transform3d {
	return Transform3d{
		Translation: r3.Vec{X: x, Y: y, Z: z},
		Rotation:    NewRotation3d(roll, pitch, yaw),
	}
}

// IsFinite reports whether the translation and rotation are finite.
func (t Transform3d) IsFinite() bool {
	return finiteVec(t.Translation) && t.Rotation.IsFinite()
}

// Inverse returns the transform that undoes t.
func (t Transform3d) Inverse() Transform3d {
	inv := t.Rotation.Inverse()
	return Transform3d{
		Translation: inv.Rotate(r3.Scale(-1, t.Translation)),
		Rotation:    inv,
	}
}

// Pose3d is a position and orientation in the field frame.
// The zero value is the identity pose at the field origin.
type Pose3d struct {
	Translation r3.Vec
	Rotation    Rotation3d
}

// NewPose3d creates a pose from a position in meters and roll/pitch/yaw in
// radians.
func NewPose3d(x, y, z, roll, pitch, yaw float64) Pose3d {
	return Pose3d{
		Translation: r3.Vec{X: x, Y: y, Z: z},
		Rotation:    NewRotation3d(roll, pitch, yaw),
	}
}

// TransformBy moves the pose by t expressed in the pose's own frame.
func (p Pose3d) TransformBy(t Transform3d) Pose3d {
	return Pose3d{
		Translation: r3.Add(p.Translation, p.Rotation.Rotate(t.Translation)),
		Rotation:    p.Rotation.Then(t.Rotation),
	}
}

// IsFinite reports whether the position and orientation are finite.
func (p Pose3d) IsFinite() bool {
	return finiteVec(p.Translation) && p.Rotation.IsFinite()
}

func finiteVec(v r3.Vec) bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ToPose2d projects the pose onto the field plane.
func (p Pose3d) ToPose2d() Pose2d {
	return NewPose2d(p.Translation.X, p.Translation.Y, FromRadians(p.Rotation.Yaw()))
}
