// Package geometry provides the planar and spatial types shared by the drive
// and vision packages. Angles are continuous: nothing here wraps a heading
// into a fixed range unless asked to.
package geometry

import (
	"encoding/json"
	"math"
)

// Rotation2d is a planar rotation stored in radians.
// The zero value is a rotation of 0.
type Rotation2d struct {
	radians float64
}

// FromDegrees creates a rotation from degrees.
func FromDegrees(deg float64) Rotation2d {
	return Rotation2d{radians: deg * math.Pi / 180.0}
}

// FromRadians creates a rotation from radians.
func FromRadians(rad float64) Rotation2d {
	return Rotation2d{radians: rad}
}

// Radians returns the rotation in radians.
func (r Rotation2d) Radians() float64 { return r.radians }

// Degrees returns the rotation in degrees.
func (r Rotation2d) Degrees() float64 { return r.radians * 180.0 / math.Pi }

// Cos returns the cosine of the rotation.
func (r Rotation2d) Cos() float64 { return math.Cos(r.radians) }

// Sin returns the sine of the rotation.
func (r Rotation2d) Sin() float64 { return math.Sin(r.radians) }

// Plus adds two rotations without wrapping.
func (r Rotation2d) Plus(other Rotation2d) Rotation2d {
	return Rotation2d{radians: r.radians + other.radians}
}

// Minus subtracts other from r without wrapping.
func (r Rotation2d) Minus(other Rotation2d) Rotation2d {
	return Rotation2d{radians: r.radians - other.radians}
}

// Neg returns the inverse rotation.
func (r Rotation2d) Neg() Rotation2d {
	return Rotation2d{radians: -r.radians}
}

// IsFinite reports whether the rotation is neither NaN nor infinite.
func (r Rotation2d) IsFinite() bool {
	return !math.IsNaN(r.radians) && !math.IsInf(r.radians, 0)
}

// MarshalJSON encodes the rotation as degrees.
func (r Rotation2d) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Degrees())
}

// WrapDegrees reduces an angle in degrees to the range (-180, 180].
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg <= -180.0 {
		deg += 360.0
	} else if deg > 180.0 {
		deg -= 360.0
	}
	return deg
}
