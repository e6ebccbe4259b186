// Package hardware abstracts the swerve module motors and the heading sensor.
// Implementations are chosen at assembly time through a Registry keyed by the
// platform variant in the robot configuration.
package hardware

// ModuleInputs is one snapshot of a swerve module's sensors.
type ModuleInputs struct {
	DrivePositionMeters       float64   `json:"drive_position_m"`
	DriveVelocityMetersPerSec float64   `json:"drive_velocity_mps"`
	DriveAppliedVolts         float64   `json:"drive_applied_volts"`
	DriveCurrentAmps          []float64 `json:"drive_current_amps"`
	DriveTempCelsius          []float64 `json:"drive_temp_celsius"`

	TurnAbsoluteDegrees       float64 `json:"turn_absolute_deg"`
	TurnPositionDegrees       float64 `json:"turn_position_deg"`
	TurnVelocityDegreesPerSec float64 `json:"turn_velocity_dps"`
	TurnAppliedVolts          float64 `json:"turn_applied_volts"`
	TurnCurrentAmps           float64 `json:"turn_current_amps"`
	TurnTempCelsius           float64 `json:"turn_temp_celsius"`
}

// ModuleIO drives one physical swerve module.
//
// UpdateInputs fills in the latest readings. An error means the module could
// not be read this period; callers keep their previous snapshot.
type ModuleIO interface {
	UpdateInputs(inputs *ModuleInputs) error
	// SetDrivePID commands a closed-loop wheel velocity with an added
	// feedforward voltage.
	SetDrivePID(velocityMetersPerSec, feedforwardVolts float64)
	// SetDrivePercent commands open-loop output in [-1, 1].
	SetDrivePercent(fraction float64)
	SetTurnPID(positionDegrees float64)
	// SetTurnEncoder overwrites the relative turn sensor.
	SetTurnEncoder(positionDegrees float64)
	Stop()
}

// GyroInputs is one snapshot of the heading sensor.
type GyroInputs struct {
	Connected             bool    `json:"connected"`
	PositionDegrees       float64 `json:"position_deg"`
	VelocityDegreesPerSec float64 `json:"velocity_dps"`
}

// GyroIO reads the chassis heading sensor.
type GyroIO interface {
	UpdateInputs(inputs *GyroInputs) error
	ResetHeading()
}

// OmegaObserver is implemented by heading sensors that have no physical
// source and integrate the chassis rotation rate measured by the drive.
type OmegaObserver interface {
	ObserveOmega(radiansPerSec float64)
}
