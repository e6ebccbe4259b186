package swerve

import (
	"errors"
	"fmt"

	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/geometry"
	"github.com/open-teleop/swerve/pkg/hardware"
	"github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/telemetry"
)

// Drive owns the four modules and the heading sensor.
type Drive struct {
	modules    []*Module
	kinematics *Kinematics
	gyro       hardware.GyroIO
	gyroInvert bool
	maxSpeed   float64
	logger     log.Logger

	gyroInputs  hardware.GyroInputs
	gyroScratch hardware.GyroInputs
	measured    ChassisSpeeds
}

// NewDrive assembles the drive from the configuration and a hardware set.
// Modules are matched to IO by index.
func NewDrive(cfg config.SwerveConfig, hw *hardware.Set, logger log.Logger) (*Drive, error) {
	if hw == nil || hw.Gyro == nil {
		return nil, errors.New("drive needs a gyro")
	}
	if len(hw.Modules) != config.ModuleCount {
		return nil, fmt.Errorf("drive needs %d module IOs, got %d", config.ModuleCount, len(hw.Modules))
	}

	kinematics, err := NewKinematics(ModuleLocations(cfg.WheelBase, cfg.TrackWidth)...)
	if err != nil {
		return nil, err
	}

	d := &Drive{
		modules:    make([]*Module, config.ModuleCount),
		kinematics: kinematics,
		gyro:       hw.Gyro,
		gyroInvert: cfg.GyroInvert,
		maxSpeed:   cfg.MaxSpeed,
		logger:     logger.WithField("component", "drive"),
	}

	for i := range d.modules {
		constants, err := cfg.Module(i)
		if err != nil {
			return nil, err
		}
		m, err := NewModule(constants, hw.Modules[i], cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create module %d: %w", i, err)
		}
		d.modules[i] = m
	}

	d.readGyro()
	d.logger.Infof("Drive initialized: max_speed=%.2f m/s wheel_base=%.3f track_width=%.3f",
		cfg.MaxSpeed, cfg.WheelBase, cfg.TrackWidth)
	return d, nil
}

// Drive converts a chassis request into module commands and sends them.
func (d *Drive) Drive(req ChassisMotionRequest) {
	vx := finiteOr(req.Vx, 0)
	vy := finiteOr(req.Vy, 0)
	omega := finiteOr(req.Omega, 0)

	speeds := ChassisSpeeds{Vx: vx, Vy: vy, Omega: omega}
	if req.FieldRelative {
		speeds = FromFieldRelative(vx, vy, omega, d.Heading())
	}

	var cmds []WheelCommand
	if speeds.IsZero() {
		cmds = make([]WheelCommand, len(d.modules))
		for i, m := range d.modules {
			cmds[i] = WheelCommand{Heading: m.LastAngle()}
		}
	} else {
		cmds = d.kinematics.ToWheelCommands(speeds)
	}

	d.SetModuleStates(Desaturate(cmds, d.maxSpeed), req.OpenLoop)
}

// SetModuleStates sends one command per module in index order.
func (d *Drive) SetModuleStates(cmds []WheelCommand, openLoop bool) {
	if len(cmds) != len(d.modules) {
		d.logger.Errorf("Expected %d module commands, got %d", len(d.modules), len(cmds))
		return
	}
	for i, m := range d.modules {
		m.SetDesiredState(cmds[i], openLoop)
	}
}

// Periodic refreshes every sensor and the measured chassis speeds.
func (d *Drive) Periodic() {
	d.readGyro()
	for _, m := range d.modules {
		m.Periodic()
	}

	speeds, err := d.kinematics.ToChassisSpeeds(d.States())
	if err != nil {
		d.logger.Warnf("Measured chassis speeds unavailable: %v", err)
		return
	}
	d.measured = speeds

	if obs, ok := d.gyro.(hardware.OmegaObserver); ok {
		omega := speeds.Omega
		if d.gyroInvert {
			omega = -omega
		}
		obs.ObserveOmega(omega)
	}
}

func (d *Drive) readGyro() {
	err := d.gyro.UpdateInputs(&d.gyroScratch)
	if err != nil || !d.gyroScratch.Connected {
		if d.gyroInputs.Connected {
			d.logger.Warnf("Gyro disconnected, holding heading %.2f: %v", d.gyroInputs.PositionDegrees, err)
		}
		d.gyroInputs.Connected = false
		return
	}
	d.gyroInputs = d.gyroScratch
}

// ResetModuleZeros re-runs the absolute sensor reconciliation on every
// connected module. A disconnected module keeps its relative sensor until a
// fresh absolute reading arrives.
func (d *Drive) ResetModuleZeros() {
	for _, m := range d.modules {
		if !m.Connected() {
			continue
		}
		m.ResetToAbsolute()
	}
}

// ZeroHeading makes the current direction the field-relative forward.
func (d *Drive) ZeroHeading() {
	d.gyro.ResetHeading()
	d.gyroInputs.PositionDegrees = 0
	d.logger.Infof("Heading zeroed")
}

// Stop stops every drive motor.
func (d *Drive) Stop() {
	for _, m := range d.modules {
		m.Stop()
	}
}

// Heading returns the chassis heading, honoring gyro inversion.
func (d *Drive) Heading() geometry.Rotation2d {
	if d.gyroInvert {
		return geometry.FromDegrees(360.0 - d.gyroInputs.PositionDegrees)
	}
	return geometry.FromDegrees(d.gyroInputs.PositionDegrees)
}

// GyroConnected reports whether the last heading read succeeded.
func (d *Drive) GyroConnected() bool { return d.gyroInputs.Connected }

// Modules returns the module controllers in index order.
func (d *Drive) Modules() []*Module { return d.modules }

// Kinematics returns the drive kinematics.
func (d *Drive) Kinematics() *Kinematics { return d.kinematics }

// States returns the measured state of every module.
func (d *Drive) States() []WheelState {
	states := make([]WheelState, len(d.modules))
	for i, m := range d.modules {
		states[i] = m.State()
	}
	return states
}

// Positions returns the position of every module.
func (d *Drive) Positions() []WheelPosition {
	positions := make([]WheelPosition, len(d.modules))
	for i, m := range d.modules {
		positions[i] = m.Position()
	}
	return positions
}

// MeasuredChassisSpeeds returns the chassis velocity computed on the last
// Periodic call.
func (d *Drive) MeasuredChassisSpeeds() ChassisSpeeds { return d.measured }

// Publish writes drive and module values to the sink under "Swerve".
func (d *Drive) Publish(sink telemetry.Sink) {
	t := telemetry.WithPrefix(sink, "Swerve")
	t.Put("Heading", d.Heading().Degrees())
	t.Put("Gyro Connected", d.gyroInputs.Connected)
	t.Put("Measured Vx", d.measured.Vx)
	t.Put("Measured Vy", d.measured.Vy)
	t.Put("Measured Omega", d.measured.Omega)
	for _, m := range d.modules {
		m.Publish(t)
	}
}
