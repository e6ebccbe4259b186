package swerve

import (
	"errors"
	"fmt"
	"math"

	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/geometry"
	"github.com/open-teleop/swerve/pkg/hardware"
	"github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/telemetry"
)

// Module controls one swerve module through its ModuleIO.
type Module struct {
	index      int
	offset     float64
	maxSpeed   float64
	antiJitter float64
	ff         Feedforward
	io         hardware.ModuleIO
	logger     log.Logger

	inputs    hardware.ModuleInputs
	scratch   hardware.ModuleInputs
	connected bool

	lastAngle   geometry.Rotation2d
	lastCommand WheelCommand
	baseline    float64
}

// NewModule creates the controller for one module, reads its sensors and
// reconciles the relative turn sensor with the absolute one.
func NewModule(constants config.ModuleConstants, io hardware.ModuleIO, cfg config.SwerveConfig, logger log.Logger) (*Module, error) {
	if io == nil {
		return nil, errors.New("module IO is nil")
	}
	if constants.Index < 0 || constants.Index >= config.ModuleCount {
		return nil, fmt.Errorf("%w: %d", config.ErrUnknownModule, constants.Index)
	}

	m := &Module{
		index:      constants.Index,
		offset:     constants.AngleOffsetDegrees,
		maxSpeed:   cfg.MaxSpeed,
		antiJitter: cfg.AntiJitterFraction,
		ff:         Feedforward{KS: cfg.DriveKS, KV: cfg.DriveKV, KA: cfg.DriveKA},
		io:         io,
		logger:     logger.WithField("module", constants.Index),
	}

	m.Periodic()
	m.ResetToAbsolute()
	m.baseline = m.inputs.DrivePositionMeters
	if !m.connected {
		m.logger.Warnf("Module sensors unavailable at startup, heading reconciled from zero")
	}
	m.logger.Debugf("Module initialized: absolute=%.2f offset=%.2f connected=%v",
		m.inputs.TurnAbsoluteDegrees, m.offset, m.connected)
	return m, nil
}

// Index returns the module index.
func (m *Module) Index() int { return m.index }

// Periodic refreshes the sensor snapshot. A failed read keeps the previous
// snapshot and marks the module disconnected.
func (m *Module) Periodic() {
	if err := m.io.UpdateInputs(&m.scratch); err != nil {
		if m.connected {
			m.logger.Warnf("Module read failed, holding last inputs: %v", err)
		}
		m.connected = false
		return
	}
	if !m.connected {
		m.logger.Infof("Module connected")
	}
	m.inputs, m.scratch = m.scratch, m.inputs
	m.connected = true
}

// ResetToAbsolute writes absolute minus offset into the relative turn sensor.
// The held heading moves with it so a stationary wheel is not spun back to a
// heading expressed in the old sensor frame.
func (m *Module) ResetToAbsolute() {
	position := m.inputs.TurnAbsoluteDegrees - m.offset
	m.io.SetTurnEncoder(position)
	m.inputs.TurnPositionDegrees = position
	m.lastAngle = geometry.FromDegrees(position)
}

// SetDesiredState optimizes desired against the current heading and sends the
// resulting drive and turn commands.
func (m *Module) SetDesiredState(desired WheelCommand, openLoop bool) {
	if !desired.Heading.IsFinite() {
		desired.Heading = m.lastAngle
	}
	desired.SpeedMetersPerSec = finiteOr(desired.SpeedMetersPerSec, 0)

	state := Optimize(desired, m.Heading())

	if openLoop {
		m.io.SetDrivePercent(state.SpeedMetersPerSec / m.maxSpeed)
	} else {
		m.io.SetDrivePID(state.SpeedMetersPerSec, m.ff.Calculate(state.SpeedMetersPerSec, 0))
	}

	angle := state.Heading
	if math.Abs(state.SpeedMetersPerSec) <= m.maxSpeed*m.antiJitter {
		angle = m.lastAngle
	}
	m.io.SetTurnPID(angle.Degrees())

	m.lastAngle = angle
	m.lastCommand = WheelCommand{SpeedMetersPerSec: state.SpeedMetersPerSec, Heading: angle}
}

// Stop halts the drive motor and keeps the held heading.
func (m *Module) Stop() {
	m.io.Stop()
	m.lastCommand = WheelCommand{Heading: m.lastAngle}
}

// Heading returns the heading from the relative turn sensor.
func (m *Module) Heading() geometry.Rotation2d {
	return geometry.FromDegrees(m.inputs.TurnPositionDegrees)
}

// AbsoluteHeading returns the raw absolute sensor reading.
func (m *Module) AbsoluteHeading() geometry.Rotation2d {
	return geometry.FromDegrees(m.inputs.TurnAbsoluteDegrees)
}

// LastAngle returns the most recently commanded heading.
func (m *Module) LastAngle() geometry.Rotation2d { return m.lastAngle }

// LastCommand returns the most recent command sent to the hardware.
func (m *Module) LastCommand() WheelCommand { return m.lastCommand }

// State returns the measured wheel speed and heading.
func (m *Module) State() WheelState {
	return WheelState{SpeedMetersPerSec: m.inputs.DriveVelocityMetersPerSec, Heading: m.Heading()}
}

// Position returns the distance driven since construction and the heading.
func (m *Module) Position() WheelPosition {
	return WheelPosition{DistanceMeters: m.inputs.DrivePositionMeters - m.baseline, Heading: m.Heading()}
}

// Connected reports whether the last sensor read succeeded.
func (m *Module) Connected() bool { return m.connected }

// Inputs returns the current sensor snapshot.
func (m *Module) Inputs() hardware.ModuleInputs { return m.inputs }

// Publish writes the module's values to the sink under "Mod N".
func (m *Module) Publish(sink telemetry.Sink) {
	t := telemetry.WithPrefix(sink, fmt.Sprintf("Mod %d", m.index))
	t.Put("Absolute", m.inputs.TurnAbsoluteDegrees)
	t.Put("Integrated", m.inputs.TurnPositionDegrees)
	t.Put("Velocity", m.inputs.DriveVelocityMetersPerSec)
	t.Put("Distance", m.inputs.DrivePositionMeters-m.baseline)
	t.Put("Applied Volts", m.inputs.DriveAppliedVolts)
	t.Put("Desired Speed", m.lastCommand.SpeedMetersPerSec)
	t.Put("Desired Heading", m.lastCommand.Heading.Degrees())
	t.Put("Connected", m.connected)
}
