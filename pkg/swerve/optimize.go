package swerve

import (
	"math"

	"github.com/open-teleop/swerve/pkg/geometry"
)

// Optimize returns the command that produces the same ground velocity as
// desired while turning the wheel at most 90 degrees from current.
//
// The returned heading is current plus the reduced difference, so it stays
// continuous with the relative sensor and may lie outside (-180, 180].
func Optimize(desired WheelCommand, current geometry.Rotation2d) WheelCommand {
	delta := geometry.WrapDegrees(desired.Heading.Degrees() - current.Degrees())
	speed := desired.SpeedMetersPerSec

	if math.Abs(delta) > 90.0 {
		if delta > 0 {
			delta -= 180.0
		} else {
			delta += 180.0
		}
		speed = -speed
	}

	return WheelCommand{
		SpeedMetersPerSec: speed,
		Heading:           geometry.FromDegrees(current.Degrees() + delta),
	}
}

// Feedforward is a static/velocity/acceleration motor model producing volts.
type Feedforward struct {
	KS float64
	KV float64
	KA float64
}

// Calculate returns the feedforward voltage for a velocity and acceleration.
func (f Feedforward) Calculate(velocity, acceleration float64) float64 {
	return f.KS*sign(velocity) + f.KV*velocity + f.KA*acceleration
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
