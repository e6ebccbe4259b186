// Package swerve implements the per-module controller and the four-module
// drive aggregate: heading optimization, anti-jitter, feedforward, inverse
// kinematics and desaturation.
//
// Nothing in this package starts goroutines or takes locks. Every method is
// expected to be called from the single control loop.
package swerve

import (
	"math"

	"github.com/open-teleop/swerve/pkg/geometry"
)

// WheelCommand is a desired speed and heading for one module. Headings are
// continuous and never wrapped.
type WheelCommand struct {
	SpeedMetersPerSec float64             `json:"speed_mps"`
	Heading           geometry.Rotation2d `json:"heading_deg"`
}

// WheelState is the measured speed and heading of one module.
type WheelState struct {
	SpeedMetersPerSec float64             `json:"speed_mps"`
	Heading           geometry.Rotation2d `json:"heading_deg"`
}

// WheelPosition is the distance driven since construction and the heading of
// one module.
type WheelPosition struct {
	DistanceMeters float64             `json:"distance_m"`
	Heading        geometry.Rotation2d `json:"heading_deg"`
}

// ChassisMotionRequest is a chassis-level motion command.
type ChassisMotionRequest struct {
	Vx            float64 `json:"vx"`
	Vy            float64 `json:"vy"`
	Omega         float64 `json:"omega"`
	FieldRelative bool    `json:"field_relative"`
	OpenLoop      bool    `json:"open_loop"`
}

// ChassisSpeeds is a robot-relative chassis velocity. Vx points forward, Vy
// left, Omega counter-clockwise in radians per second.
type ChassisSpeeds struct {
	Vx    float64 `json:"vx"`
	Vy    float64 `json:"vy"`
	Omega float64 `json:"omega"`
}

// FromFieldRelative converts field-relative speeds into the robot frame given
// the robot heading.
func FromFieldRelative(vx, vy, omega float64, heading geometry.Rotation2d) ChassisSpeeds {
	t := geometry.NewTranslation2d(vx, vy).RotateBy(heading.Neg())
	return ChassisSpeeds{Vx: t.X, Vy: t.Y, Omega: omega}
}

// IsZero reports whether every component is zero.
func (s ChassisSpeeds) IsZero() bool {
	return s.Vx == 0 && s.Vy == 0 && s.Omega == 0
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
