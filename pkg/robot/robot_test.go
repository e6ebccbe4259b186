package robot

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/geometry"
	"github.com/open-teleop/swerve/pkg/hardware"
	"github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/telemetry"
	"github.com/open-teleop/swerve/pkg/vision"
)

const robotYAML = `
robot_id: "bench"
platform:
  variant: "sim"
swerve:
  max_speed_mps: 4
  max_angular_velocity_radps: 10
  wheel_base_m: 0.5
  track_width_m: 0.5
  drive_ks: 0.1
  drive_kv: 2
  modules:
    - { index: 0, angle_offset_degrees: 10 }
    - { index: 1, angle_offset_degrees: 20 }
    - { index: 2, angle_offset_degrees: 30 }
    - { index: 3, angle_offset_degrees: 40 }
vision:
  camera_name: "front"
  camera_height_m: 0.6
  target_height_m: 0.45
  camera_pitch_degrees: -15
  camera_to_robot: { x: -0.3, z: -0.452 }
`

type countingGyro struct {
	heading float64
	resets  int
}

func (g *countingGyro) UpdateInputs(in *hardware.GyroInputs) error {
	in.Connected = true
	in.PositionDegrees = g.heading
	return nil
}

func (g *countingGyro) ResetHeading() {
	g.heading = 0
	g.resets++
}

type flushingSink struct {
	*telemetry.Recorder
	flushes int
}

func (s *flushingSink) Flush(time.Time) bool {
	s.flushes++
	return true
}

type testRobot struct {
	*Robot
	gyro   *countingGyro
	camera *vision.LatestFrameCamera
	sink   *flushingSink
}

func newTestRobot(t *testing.T) testRobot {
	t.Helper()
	cfg, err := config.ParseRobotConfig([]byte(robotYAML))
	require.NoError(t, err)

	hw, err := hardware.NewRegistry().New(cfg)
	require.NoError(t, err)
	gyro := &countingGyro{}
	hw.Gyro = gyro

	camera := vision.NewLatestFrameCamera("front")
	sink := &flushingSink{Recorder: telemetry.NewRecorder()}
	r, err := New(cfg, hw, Options{Camera: camera, Sink: sink, RunID: "run-1"}, log.NewNopLogger())
	require.NoError(t, err)
	return testRobot{Robot: r, gyro: gyro, camera: camera, sink: sink}
}

func TestNewRequiresConfigAndHardware(t *testing.T) {
	_, err := New(nil, &hardware.Set{}, Options{}, log.NewNopLogger())
	assert.Error(t, err)

	cfg, err := config.ParseRobotConfig([]byte(robotYAML))
	require.NoError(t, err)
	_, err = New(cfg, &hardware.Set{}, Options{}, log.NewNopLogger())
	assert.Error(t, err)
}

func TestRobotStartsDisabled(t *testing.T) {
	r := newTestRobot(t)
	now := time.Unix(1000, 0)

	r.SetIntent(Intent{Translation: 1})
	r.Tick(now)

	assert.Equal(t, ModeDisabled, r.Mode())
	for _, m := range r.Drive().Modules() {
		assert.Equal(t, 0.0, m.LastCommand().SpeedMetersPerSec)
		assert.InDelta(t, 0.0, m.Heading().Degrees(), 1e-9, "module %d reseeded", m.Index())
	}

	s := r.Status()
	assert.Equal(t, "bench", s.RobotID)
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, ModeDisabled, s.Mode)
	assert.Equal(t, uint64(1), s.Ticks)
	assert.Equal(t, now, s.LastTick)
	require.Len(t, s.Modules, 4)
	assert.InDelta(t, 30.0, s.Modules[2].AbsoluteDegrees, 1e-9)
	assert.False(t, s.Vision.HasMeasurement)
}

func TestTeleopDrivesFromIntent(t *testing.T) {
	r := newTestRobot(t)
	now := time.Unix(1000, 0)
	r.Tick(now)

	require.NoError(t, r.SetMode("teleop"))
	r.Intents().Set(Intent{Translation: 1}, now)
	now = now.Add(20 * time.Millisecond)
	r.Tick(now)

	assert.Equal(t, ModeTeleop, r.Mode())
	for _, m := range r.Drive().Modules() {
		cmd := m.LastCommand()
		assert.InDelta(t, 2.0, cmd.SpeedMetersPerSec, 1e-9, "module %d", m.Index())
		assert.InDelta(t, 0.0, cmd.Heading.Degrees(), 1e-9, "module %d", m.Index())
	}

	// The sim modules report the open-loop speed on the next read.
	r.Intents().Set(Intent{Translation: 1}, now)
	now = now.Add(20 * time.Millisecond)
	r.Tick(now)
	assert.InDelta(t, 2.0, r.Status().Measured.Vx, 1e-9)
}

func TestStaleIntentHoldsStill(t *testing.T) {
	r := newTestRobot(t)
	now := time.Unix(1000, 0)
	require.NoError(t, r.SetMode("teleop"))

	r.Intents().Set(Intent{Translation: 1, Rotation: 1}, now.Add(-time.Second))
	r.Tick(now)

	for _, m := range r.Drive().Modules() {
		assert.Equal(t, 0.0, m.LastCommand().SpeedMetersPerSec)
	}
}

func TestReturningToDisabledStops(t *testing.T) {
	r := newTestRobot(t)
	now := time.Unix(1000, 0)
	require.NoError(t, r.SetMode("teleop"))
	r.Intents().Set(Intent{Strafe: 1}, now)
	r.Tick(now)
	require.InDelta(t, 2.0, r.Drive().Modules()[0].LastCommand().SpeedMetersPerSec, 1e-9)

	require.NoError(t, r.SetMode("disabled"))
	r.Tick(now.Add(20 * time.Millisecond))
	r.Tick(now.Add(40 * time.Millisecond))

	for _, m := range r.Drive().Modules() {
		assert.Equal(t, 0.0, m.State().SpeedMetersPerSec, "module %d", m.Index())
	}
	assert.Equal(t, ModeDisabled, r.Status().Mode)
}

func TestZeroHeadingRunsOnTick(t *testing.T) {
	r := newTestRobot(t)
	r.gyro.heading = 45
	r.Tick(time.Unix(1000, 0))
	assert.InDelta(t, 45.0, r.Status().HeadingDegrees, 1e-9)

	r.ZeroHeading()
	assert.Equal(t, 0, r.gyro.resets, "deferred to the loop")

	r.Tick(time.Unix(1000, 20_000_000))
	assert.Equal(t, 1, r.gyro.resets)
	assert.InDelta(t, 0.0, r.Status().HeadingDegrees, 1e-9)
}

func TestSetModeErrors(t *testing.T) {
	r := newTestRobot(t)

	err := r.SetMode("autonomous")
	assert.True(t, errors.Is(err, ErrUnknownMode))

	for i := 0; i < commandQueueSize; i++ {
		require.NoError(t, r.SetMode("teleop"))
	}
	assert.True(t, errors.Is(r.SetMode("teleop"), ErrCommandQueueFull))

	r.Tick(time.Unix(1000, 0))
	assert.Equal(t, ModeTeleop, r.Mode())
	assert.NoError(t, r.SetMode("disabled"))
}

func TestTickPublishesAndFlushes(t *testing.T) {
	r := newTestRobot(t)
	r.Tick(time.Unix(1000, 0))
	r.Tick(time.Unix(1000, 20_000_000))

	assert.Equal(t, 2, r.sink.flushes)

	v, ok := r.sink.Get("Robot/Mode")
	require.True(t, ok)
	assert.Equal(t, "disabled", v)

	v, ok = r.sink.Get("Robot/Ticks")
	require.True(t, ok)
	assert.Equal(t, uint64(2), v)

	for _, key := range []string{"Swerve/Heading", "Swerve/Mod 0/Absolute", "Vision/Yaw"} {
		_, ok := r.sink.Get(key)
		assert.True(t, ok, "missing %s", key)
	}
}

func TestVisionFramesReachStatus(t *testing.T) {
	r := newTestRobot(t)

	r.camera.Submit(vision.PipelineResult{
		HasTargets:    true,
		LatencyMillis: 20,
		Best: vision.Target{
			Yaw:            -5,
			Pitch:          -5,
			FiducialID:     1,
			PoseAmbiguity:  0.1,
			CameraToTarget: geometry.NewTransform3d(2, 0, 0, 0, 0, math.Pi),
		},
	})
	r.Tick(time.Unix(1000, 0))

	v := r.Status().Vision
	assert.True(t, v.HasMeasurement)
	assert.True(t, v.Accepted)
	assert.Equal(t, 1, v.TargetID)
	assert.Equal(t, 1, v.Measurements)
	assert.InDelta(t, 999.98, v.CaptureTimestamp, 1e-6)
	assert.InDelta(t, 0.7, v.RobotPose.Translation.X, 1e-9)

	// The same frame is not processed twice.
	r.Tick(time.Unix(1000, 20_000_000))
	assert.Equal(t, 1, r.Status().Vision.Measurements)
}
