package vision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/geometry"
	"github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/telemetry"
)

const yawOffset = 2.5

func testVisionConfig() config.VisionConfig {
	cfg := config.RobotConfig{
		Vision: config.VisionConfig{
			CameraName:             "front",
			CameraHeightMeters:     0.6,
			TargetHeightMeters:     0.45,
			CameraPitchDegrees:     -15,
			CameraYawOffsetDegrees: yawOffset,
			HistoryCapacity:        5,
			CameraToRobot:          config.TransformConfig{X: -0.3, Z: -0.452},
		},
	}
	cfg.ApplyDefaults()
	return cfg.Vision
}

func newTestFusion(t *testing.T, cfg config.VisionConfig) (*Fusion, *LatestFrameCamera) {
	t.Helper()
	cam := NewLatestFrameCamera(cfg.CameraName)
	f, err := NewFusion(cfg, cam, nil, log.NewNopLogger())
	require.NoError(t, err)
	return f, cam
}

// frameAt is a detection of a target two meters straight ahead of the camera,
// facing it.
func frameAt(id int, ambiguity float64) PipelineResult {
	return PipelineResult{
		HasTargets:    true,
		LatencyMillis: 30,
		Best: Target{
			Yaw:            -5,
			Pitch:          -5,
			FiducialID:     id,
			PoseAmbiguity:  ambiguity,
			CameraToTarget: geometry.NewTransform3d(2, 0, 0, 0, 0, math.Pi),
		},
	}
}

func TestCorrectYaw(t *testing.T) {
	assert.Equal(t, 0.0, CorrectYaw(0, yawOffset))
	assert.Equal(t, -5.0-yawOffset, CorrectYaw(-5, yawOffset))
	assert.Equal(t, 5.0+yawOffset, CorrectYaw(5, yawOffset))
}

func TestEstimateRange(t *testing.T) {
	want := -0.15 / math.Tan(-20*math.Pi/180)
	assert.InDelta(t, want, EstimateRange(0.6, 0.45, -15, -5), 1e-12)
	assert.InDelta(t, 0.412, EstimateRange(0.6, 0.45, -15, -5), 1e-3)

	// Level camera looking at a target at its own height.
	assert.Equal(t, 0.0, EstimateRange(0.5, 0.5, 0, 0))
}

func TestFusionAcceptsConfidentTarget(t *testing.T) {
	f, _ := newTestFusion(t, testVisionConfig())

	m, ok := f.Process(frameAt(1, 0.19), 10.0)
	require.True(t, ok)
	assert.True(t, m.Accepted)
	assert.InDelta(t, 9.97, m.CaptureTimestamp, 1e-12)
	assert.Equal(t, 1, m.TargetID)

	// Target 1 sits at (3, 0, 0.452) facing back down the field.
	pose := f.RobotPose()
	assert.InDelta(t, 0.7, pose.Translation.X, 1e-9)
	assert.InDelta(t, 0.0, pose.Translation.Y, 1e-9)
	assert.InDelta(t, 0.0, pose.Translation.Z, 1e-9)
	assert.InDelta(t, 0.0, geometry.WrapDegrees(pose.Rotation.Yaw()*180/math.Pi), 1e-9)

	assert.InDelta(t, 0.7, m.RobotPose.Translation.X, 1e-9)
}

func TestFusionRejectsAmbiguousTarget(t *testing.T) {
	f, _ := newTestFusion(t, testVisionConfig())

	m, ok := f.Process(frameAt(1, 0.21), 10.0)
	require.True(t, ok)
	assert.False(t, m.Accepted)
	assert.Equal(t, geometry.Pose3d{}, f.RobotPose())

	// Yaw, pitch and range are still recorded.
	assert.Equal(t, -5.0-yawOffset, f.Yaw())
	assert.Equal(t, -5.0, f.Pitch())
	assert.Greater(t, f.Range(), 0.0)
	assert.Equal(t, 0.21, f.PoseAmbiguity())

	// An accepted pose is held across a later rejection.
	_, _ = f.Process(frameAt(1, 0.19), 11.0)
	accepted := f.RobotPose()
	_, _ = f.Process(frameAt(1, 0.21), 12.0)
	assert.Equal(t, accepted, f.RobotPose())
	assert.InDelta(t, 11.97, f.CaptureTimestamp(), 1e-12)
}

func TestFusionRejectsNonFiniteFrame(t *testing.T) {
	f, _ := newTestFusion(t, testVisionConfig())

	_, ok := f.Process(frameAt(1, 0.1), 10.0)
	require.True(t, ok)
	held := f.RobotPose()
	require.True(t, held.IsFinite())

	nanAmbiguity := frameAt(1, math.NaN())
	m, ok := f.Process(nanAmbiguity, 11.0)
	require.True(t, ok)
	assert.False(t, m.Accepted)
	assert.Equal(t, held, f.RobotPose())

	nanTransform := frameAt(1, 0.1)
	nanTransform.Best.CameraToTarget.Translation.X = math.NaN()
	m, ok = f.Process(nanTransform, 12.0)
	require.True(t, ok)
	assert.False(t, m.Accepted)
	assert.Equal(t, held, f.RobotPose())

	infRotation := frameAt(1, 0.1)
	infRotation.Best.CameraToTarget.Rotation = geometry.NewRotation3dFromQuaternion(math.Inf(1), 0, 0, 0)
	m, ok = f.Process(infRotation, 13.0)
	require.True(t, ok)
	assert.False(t, m.Accepted)
	assert.Equal(t, held, f.RobotPose())

	// Unusable timing or angles drop the frame entirely.
	before := len(f.History())
	for _, mutate := range []func(*PipelineResult){
		func(r *PipelineResult) { r.LatencyMillis = math.NaN() },
		func(r *PipelineResult) { r.Best.Yaw = math.Inf(-1) },
		func(r *PipelineResult) { r.Best.Pitch = math.NaN() },
	} {
		r := frameAt(1, 0.1)
		mutate(&r)
		_, ok := f.Process(r, 14.0)
		assert.False(t, ok)
	}
	assert.Len(t, f.History(), before)
	assert.Equal(t, held, f.RobotPose())
	assert.InDelta(t, 12.97, f.CaptureTimestamp(), 1e-9)
}

func TestFusionRejectsUnknownTarget(t *testing.T) {
	f, _ := newTestFusion(t, testVisionConfig())

	for _, id := range []int{-1, 2, 99} {
		m, ok := f.Process(frameAt(id, 0.01), 1.0)
		require.True(t, ok)
		assert.False(t, m.Accepted, "id %d", id)
		assert.Equal(t, id, f.TargetID())
	}
	assert.Equal(t, geometry.Pose3d{}, f.RobotPose())
}

func TestFusionDefaults(t *testing.T) {
	f, _ := newTestFusion(t, testVisionConfig())

	assert.Equal(t, 0.0, f.Yaw())
	assert.Equal(t, 0.0, f.Pitch())
	assert.Equal(t, 0.0, f.Range())
	assert.Equal(t, 0, f.TargetID())
	assert.Equal(t, 0.0, f.PoseAmbiguity())
	assert.Equal(t, geometry.Pose3d{}, f.RobotPose())
	_, ok := f.Latest()
	assert.False(t, ok)

	// Identity pose: a point maps to itself.
	p := f.RobotPose().Rotation.Rotate(geometry.NewPose3d(1, 2, 3, 0, 0, 0).Translation)
	assert.InDelta(t, 2.0, p.Y, 1e-12)
}

func TestFusionNoTargetAppendsNothing(t *testing.T) {
	f, cam := newTestFusion(t, testVisionConfig())

	cam.Submit(PipelineResult{HasTargets: false, LatencyMillis: 20})
	_, ok := f.Update(1.0)
	assert.False(t, ok)
	assert.Empty(t, f.History())
}

func TestFusionUpdateSkipsStaleFrames(t *testing.T) {
	f, cam := newTestFusion(t, testVisionConfig())

	_, ok := f.Update(0.5)
	assert.False(t, ok, "no frame yet")

	cam.Submit(frameAt(0, 0.1))
	_, ok = f.Update(1.0)
	assert.True(t, ok)

	_, ok = f.Update(1.02)
	assert.False(t, ok, "same frame again")
	assert.Len(t, f.History(), 1)

	cam.Submit(frameAt(0, 0.1))
	m, ok := f.Update(1.04)
	assert.True(t, ok)
	assert.InDelta(t, 1.01, m.CaptureTimestamp, 1e-12)
}

func TestFusionHistoryIsBounded(t *testing.T) {
	f, _ := newTestFusion(t, testVisionConfig())

	for i := 0; i < 12; i++ {
		_, ok := f.Process(frameAt(0, 0.1), float64(i))
		require.True(t, ok)
	}

	h := f.History()
	require.Len(t, h, 5)
	assert.InDelta(t, 7-0.03, h[0].CaptureTimestamp, 1e-12)
	assert.InDelta(t, 11-0.03, h[4].CaptureTimestamp, 1e-12)
}

func TestFusionAprilTagsDisabled(t *testing.T) {
	cfg := testVisionConfig()
	off := false
	cfg.UseAprilTags = &off
	f, _ := newTestFusion(t, cfg)

	m, ok := f.Process(frameAt(1, 0.05), 3.0)
	require.True(t, ok)
	assert.False(t, m.Accepted)
	assert.Equal(t, 0, m.TargetID)
	assert.Equal(t, 0.0, m.PoseAmbiguity)
	assert.Equal(t, geometry.Pose3d{}, f.RobotPose())
	assert.Equal(t, -5.0-yawOffset, m.Yaw)
}

func TestFusionPublish(t *testing.T) {
	f, _ := newTestFusion(t, testVisionConfig())
	_, _ = f.Process(frameAt(1, 0.1), 2.0)

	rec := telemetry.NewRecorder()
	f.Publish(rec)

	v, ok := rec.Get("Vision/Target ID")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = rec.Get("Vision/Robot Pose")
	require.True(t, ok)
	pose := v.(geometry.Pose2d)
	assert.InDelta(t, 0.7, pose.Translation.X, 1e-9)

	for _, key := range []string{"Vision/Yaw", "Vision/Estimated Range", "Vision/Timestamp", "Vision/Pose Ambiguity"} {
		_, ok := rec.Get(key)
		assert.True(t, ok, "missing %s", key)
	}
}

func TestHistoryRing(t *testing.T) {
	h := NewHistory[int](3)
	_, ok := h.Latest()
	assert.False(t, ok)

	for i := 1; i <= 4; i++ {
		h.Append(i)
	}
	latest, ok := h.Latest()
	assert.True(t, ok)
	assert.Equal(t, 4, latest)
	assert.Equal(t, []int{2, 3, 4}, h.All())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 3, h.Cap())

	assert.Equal(t, 1, NewHistory[string](0).Cap())
}

func TestTargetRegistry(t *testing.T) {
	r := RegistryFromConfig(testVisionConfig())
	assert.Equal(t, 2, r.Len())

	_, ok := r.Lookup(2)
	assert.False(t, ok)
	_, ok = r.Lookup(-1)
	assert.False(t, ok)

	pose, ok := r.Lookup(0)
	require.True(t, ok)
	assert.InDelta(t, 1.165, pose.Translation.Y, 1e-12)
}
