package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Translation2d is a planar vector in meters (or meters per second when used
// as a velocity).
type Translation2d struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewTranslation2d creates a translation from its components.
func NewTranslation2d(x, y float64) Translation2d {
	return Translation2d{X: x, Y: y}
}

func (t Translation2d) vec() r2.Vec { return r2.Vec{X: t.X, Y: t.Y} }

func fromVec(v r2.Vec) Translation2d { return Translation2d{X: v.X, Y: v.Y} }

// Norm returns the length of the translation.
func (t Translation2d) Norm() float64 { return r2.Norm(t.vec()) }

// Angle returns the direction of the translation. The zero vector has angle 0.
func (t Translation2d) Angle() Rotation2d {
	return FromRadians(math.Atan2(t.Y, t.X))
}

// Plus adds two translations.
func (t Translation2d) Plus(other Translation2d) Translation2d {
	return fromVec(r2.Add(t.vec(), other.vec()))
}

// Minus subtracts other from t.
func (t Translation2d) Minus(other Translation2d) Translation2d {
	return fromVec(r2.Sub(t.vec(), other.vec()))
}

// Times scales the translation.
func (t Translation2d) Times(s float64) Translation2d {
	return fromVec(r2.Scale(s, t.vec()))
}

// RotateBy rotates the translation about the origin.
func (t Translation2d) RotateBy(r Rotation2d) Translation2d {
	return fromVec(r2.Rotate(t.vec(), r.Radians(), r2.Vec{}))
}

// Pose2d is a planar position and heading.
type Pose2d struct {
	Translation Translation2d `json:"translation"`
	Rotation    Rotation2d    `json:"rotation_degrees"`
}

// NewPose2d creates a pose from x, y in meters and a heading.
func NewPose2d(x, y float64, heading Rotation2d) Pose2d {
	return Pose2d{Translation: Translation2d{X: x, Y: y}, Rotation: heading}
}
