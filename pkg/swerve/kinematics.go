package swerve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/open-teleop/swerve/pkg/geometry"
)

// ModuleLocations returns the module positions relative to the chassis center
// in module index order: front left, front right, back left, back right.
func ModuleLocations(wheelBase, trackWidth float64) []geometry.Translation2d {
	x, y := wheelBase/2, trackWidth/2
	return []geometry.Translation2d{
		{X: x, Y: y},
		{X: x, Y: -y},
		{X: -x, Y: y},
		{X: -x, Y: -y},
	}
}

// Kinematics maps chassis speeds to wheel commands and back for a fixed set
// of module locations.
type Kinematics struct {
	locations []geometry.Translation2d
	// inverse has two rows per module: [1 0 -y] and [0 1 x].
	inverse *mat.Dense
}

// NewKinematics creates kinematics for modules at the given locations.
func NewKinematics(locations ...geometry.Translation2d) (*Kinematics, error) {
	if len(locations) < 2 {
		return nil, errors.New("kinematics needs at least two modules")
	}

	inverse := mat.NewDense(2*len(locations), 3, nil)
	for i, loc := range locations {
		inverse.SetRow(2*i, []float64{1, 0, -loc.Y})
		inverse.SetRow(2*i+1, []float64{0, 1, loc.X})
	}

	return &Kinematics{
		locations: append([]geometry.Translation2d(nil), locations...),
		inverse:   inverse,
	}, nil
}

// Locations returns a copy of the module locations.
func (k *Kinematics) Locations() []geometry.Translation2d {
	return append([]geometry.Translation2d(nil), k.locations...)
}

// ToWheelCommands computes the velocity each module needs for the chassis to
// move at s. A module with zero speed gets heading zero; callers that want to
// hold the previous heading must handle the all-zero request themselves.
func (k *Kinematics) ToWheelCommands(s ChassisSpeeds) []WheelCommand {
	chassis := mat.NewVecDense(3, []float64{s.Vx, s.Vy, s.Omega})

	var wheels mat.VecDense
	wheels.MulVec(k.inverse, chassis)

	cmds := make([]WheelCommand, len(k.locations))
	for i := range cmds {
		vx, vy := wheels.AtVec(2*i), wheels.AtVec(2*i+1)
		cmds[i] = WheelCommand{
			SpeedMetersPerSec: math.Hypot(vx, vy),
			Heading:           geometry.FromRadians(math.Atan2(vy, vx)),
		}
	}
	return cmds
}

// ToChassisSpeeds computes the least-squares chassis velocity that best
// explains the measured module states.
func (k *Kinematics) ToChassisSpeeds(states []WheelState) (ChassisSpeeds, error) {
	if len(states) != len(k.locations) {
		return ChassisSpeeds{}, fmt.Errorf("expected %d module states, got %d", len(k.locations), len(states))
	}

	measured := mat.NewVecDense(2*len(states), nil)
	for i, s := range states {
		measured.SetVec(2*i, s.SpeedMetersPerSec*s.Heading.Cos())
		measured.SetVec(2*i+1, s.SpeedMetersPerSec*s.Heading.Sin())
	}

	var chassis mat.VecDense
	if err := chassis.SolveVec(k.inverse, measured); err != nil {
		return ChassisSpeeds{}, fmt.Errorf("failed to solve forward kinematics: %w", err)
	}
	return ChassisSpeeds{Vx: chassis.AtVec(0), Vy: chassis.AtVec(1), Omega: chassis.AtVec(2)}, nil
}

// Desaturate scales every command by the same factor so that none exceeds
// maxSpeed. Headings and speed ratios are preserved. Commands already within
// the limit are returned unchanged.
func Desaturate(cmds []WheelCommand, maxSpeed float64) []WheelCommand {
	out := append([]WheelCommand(nil), cmds...)

	maxRequested := 0.0
	for _, c := range out {
		maxRequested = math.Max(maxRequested, math.Abs(c.SpeedMetersPerSec))
	}
	if maxRequested <= maxSpeed {
		return out
	}

	for i := range out {
		out[i].SpeedMetersPerSec = out[i].SpeedMetersPerSec / maxRequested * maxSpeed
	}
	return out
}
