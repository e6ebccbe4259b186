package hardware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/swerve/pkg/config"
)

func testRobotConfig(variant string) *config.RobotConfig {
	cfg := &config.RobotConfig{
		Platform: config.PlatformConfig{Variant: variant},
		Swerve: config.SwerveConfig{
			MaxSpeed: 4.0,
			Modules: []config.ModuleConstants{
				{Index: 0, AngleOffsetDegrees: 10},
				{Index: 1, AngleOffsetDegrees: 20},
				{Index: 2, AngleOffsetDegrees: 30},
				{Index: 3, AngleOffsetDegrees: 40},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestRegistryUnknownVariant(t *testing.T) {
	_, err := NewRegistry().New(testRobotConfig("real"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownVariant))
}

func TestRegistryMissingModule(t *testing.T) {
	cfg := testRobotConfig("sim")
	cfg.Swerve.Modules = cfg.Swerve.Modules[:3]

	_, err := NewRegistry().New(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrUnknownModule))
}

func TestRegistryBuildsVariants(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{"noop", "sim"}, reg.Variants())

	set, err := reg.New(testRobotConfig("sim"))
	require.NoError(t, err)
	require.Len(t, set.Modules, config.ModuleCount)

	var in ModuleInputs
	require.NoError(t, set.Modules[2].UpdateInputs(&in))
	assert.InDelta(t, 30.0, in.TurnAbsoluteDegrees, 1e-9)

	set, err = reg.New(testRobotConfig("noop"))
	require.NoError(t, err)
	assert.IsType(t, NoopGyro{}, set.Gyro)
}

func TestSimModuleReconciliation(t *testing.T) {
	m := NewSimModule(100, 4.0, 0.02)
	m.SetPhysicalAngle(35)

	var in ModuleInputs
	require.NoError(t, m.UpdateInputs(&in))
	assert.InDelta(t, 135.0, in.TurnAbsoluteDegrees, 1e-9)
	assert.InDelta(t, 35.0, in.TurnPositionDegrees, 1e-9)

	// Relative sensor is rewritten without moving the wheel.
	m.SetTurnEncoder(in.TurnAbsoluteDegrees - 100)
	require.NoError(t, m.UpdateInputs(&in))
	assert.InDelta(t, 35.0, in.TurnPositionDegrees, 1e-9)

	m.SetTurnPID(-20)
	require.NoError(t, m.UpdateInputs(&in))
	assert.InDelta(t, -20.0, in.TurnPositionDegrees, 1e-9)
	assert.InDelta(t, 80.0, in.TurnAbsoluteDegrees, 1e-9)
}

func TestSimModuleDrive(t *testing.T) {
	m := NewSimModule(0, 4.0, 0.02)

	m.SetDrivePID(2.0, 5.0)
	var in ModuleInputs
	for i := 0; i < 50; i++ {
		require.NoError(t, m.UpdateInputs(&in))
	}
	assert.InDelta(t, 2.0, in.DriveVelocityMetersPerSec, 1e-9)
	assert.InDelta(t, 2.0, in.DrivePositionMeters, 1e-9)

	m.SetDrivePercent(-0.5)
	require.NoError(t, m.UpdateInputs(&in))
	assert.InDelta(t, -2.0, in.DriveVelocityMetersPerSec, 1e-9)
	assert.InDelta(t, -6.0, in.DriveAppliedVolts, 1e-9)

	m.InjectFault(true)
	assert.ErrorIs(t, m.UpdateInputs(&in), ErrSimulatedFault)
}

func TestSimGyroIntegratesOmega(t *testing.T) {
	g := NewSimGyro(0.5)
	g.ObserveOmega(3.141592653589793 / 2)

	var in GyroInputs
	require.NoError(t, g.UpdateInputs(&in))
	require.NoError(t, g.UpdateInputs(&in))
	assert.True(t, in.Connected)
	assert.InDelta(t, 90.0, in.PositionDegrees, 1e-9)

	g.ResetHeading()
	g.ObserveOmega(0)
	require.NoError(t, g.UpdateInputs(&in))
	assert.InDelta(t, 0.0, in.PositionDegrees, 1e-9)

	g.InjectFault(true)
	assert.Error(t, g.UpdateInputs(&in))
	assert.False(t, in.Connected)
}
