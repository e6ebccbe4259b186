// Package vision turns camera target detections into timestamped robot pose
// measurements in the field frame.
package vision

import (
	"errors"
	"math"

	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/geometry"
	"github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/telemetry"
)

// Measurement is the result of processing one frame with a target.
// RobotPose is meaningful only when Accepted is true.
type Measurement struct {
	Yaw              float64         `json:"yaw"`
	Pitch            float64         `json:"pitch"`
	RangeMeters      float64         `json:"range_m"`
	TargetID         int             `json:"target_id"`
	PoseAmbiguity    float64         `json:"pose_ambiguity"`
	CaptureTimestamp float64         `json:"capture_timestamp"`
	Accepted         bool            `json:"accepted"`
	RobotPose        geometry.Pose2d `json:"robot_pose"`

	robotPose3d geometry.Pose3d
}

// RobotPose3d returns the full pose behind RobotPose.
func (m Measurement) RobotPose3d() geometry.Pose3d { return m.robotPose3d }

// Fusion processes one camera frame per control period.
type Fusion struct {
	camera        Camera
	registry      *TargetRegistry
	cameraToRobot geometry.Transform3d
	cameraHeight  float64
	targetHeight  float64
	cameraPitch   float64
	yawOffset     float64
	maxAmbiguity  float64
	useAprilTags  bool
	logger        log.Logger

	history   *History[Measurement]
	robotPose geometry.Pose3d
	lastSeq   uint64
}

// NewFusion creates the fusion stage for one camera.
func NewFusion(cfg config.VisionConfig, camera Camera, registry *TargetRegistry, logger log.Logger) (*Fusion, error) {
	if camera == nil {
		return nil, errors.New("vision fusion needs a camera")
	}
	if registry == nil {
		registry = RegistryFromConfig(cfg)
	}
	return &Fusion{
		camera:        camera,
		registry:      registry,
		cameraToRobot: cfg.CameraToRobot.Transform(),
		cameraHeight:  cfg.CameraHeightMeters,
		targetHeight:  cfg.TargetHeightMeters,
		cameraPitch:   cfg.CameraPitchDegrees,
		yawOffset:     cfg.CameraYawOffsetDegrees,
		maxAmbiguity:  cfg.MaxPoseAmbiguity,
		useAprilTags:  cfg.AprilTagsEnabled(),
		logger:        logger.WithField("camera", cfg.CameraName),
		history:       NewHistory[Measurement](cfg.HistoryCapacity),
	}, nil
}

// Update reads the camera's latest frame and processes it if it is new.
// now is the current time in seconds. It returns the appended measurement,
// or false when nothing was appended.
func (f *Fusion) Update(now float64) (Measurement, bool) {
	result, ok := f.camera.Latest()
	if !ok || result.Sequence == f.lastSeq {
		return Measurement{}, false
	}
	f.lastSeq = result.Sequence
	return f.Process(result, now)
}

// Process turns one frame into a measurement and appends it to the history.
// Frames without targets, or with non-finite angles or latency, append nothing.
func (f *Fusion) Process(result PipelineResult, now float64) (Measurement, bool) {
	if !result.HasTargets {
		return Measurement{}, false
	}
	best := result.Best
	if !finite(best.Yaw, best.Pitch, result.LatencyMillis) {
		f.logger.Warnf("Dropping frame %d with non-finite yaw/pitch/latency", result.Sequence)
		return Measurement{}, false
	}

	m := Measurement{
		Yaw:              CorrectYaw(best.Yaw, f.yawOffset),
		Pitch:            best.Pitch,
		RangeMeters:      EstimateRange(f.cameraHeight, f.targetHeight, f.cameraPitch, best.Pitch),
		CaptureTimestamp: now - result.LatencyMillis/1000.0,
	}

	if f.useAprilTags {
		m.TargetID = best.FiducialID
		m.PoseAmbiguity = best.PoseAmbiguity

		targetPose, known := f.registry.Lookup(best.FiducialID)
		switch {
		case !known:
			f.logger.Debugf("Target %d not in registry of %d", best.FiducialID, f.registry.Len())
		case !(best.PoseAmbiguity <= f.maxAmbiguity):
			f.logger.Debugf("Target %d ambiguity %.3f above %.3f", best.FiducialID, best.PoseAmbiguity, f.maxAmbiguity)
		case !best.CameraToTarget.IsFinite():
			f.logger.Debugf("Target %d camera-to-target transform is not finite", best.FiducialID)
		default:
			pose := targetPose.
				TransformBy(best.CameraToTarget.Inverse()).
				TransformBy(f.cameraToRobot)
			if !pose.IsFinite() {
				f.logger.Debugf("Target %d produced a non-finite robot pose", best.FiducialID)
				break
			}
			f.robotPose = pose
			m.Accepted = true
		}
	} else {
		f.robotPose = geometry.Pose3d{}
	}

	m.robotPose3d = f.robotPose
	m.RobotPose = f.robotPose.ToPose2d()
	f.history.Append(m)
	return m, true
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CorrectYaw applies the mounting offset away from zero: subtracted from
// negative yaw, added to positive yaw. Zero is unchanged.
func CorrectYaw(yaw, offset float64) float64 {
	switch {
	case yaw < 0:
		return yaw - offset
	case yaw > 0:
		return yaw + offset
	}
	return yaw
}

// EstimateRange returns the horizontal distance to a target of known height
// from the camera height, mounting pitch and measured pitch in degrees.
// Geometry with no finite answer yields zero.
func EstimateRange(cameraHeight, targetHeight, cameraPitchDeg, targetPitchDeg float64) float64 {
	angle := (cameraPitchDeg + targetPitchDeg) * math.Pi / 180.0
	r := (targetHeight - cameraHeight) / math.Tan(angle)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func (f *Fusion) latest() Measurement {
	m, _ := f.history.Latest()
	return m
}

// Yaw returns the corrected yaw of the latest measurement.
func (f *Fusion) Yaw() float64 { return f.latest().Yaw }

// Pitch returns the pitch of the latest measurement.
func (f *Fusion) Pitch() float64 { return f.latest().Pitch }

// Range returns the estimated range of the latest measurement.
func (f *Fusion) Range() float64 { return f.latest().RangeMeters }

// TargetID returns the target identity of the latest measurement.
func (f *Fusion) TargetID() int { return f.latest().TargetID }

// PoseAmbiguity returns the ambiguity of the latest measurement.
func (f *Fusion) PoseAmbiguity() float64 { return f.latest().PoseAmbiguity }

// CaptureTimestamp returns the capture time of the latest measurement.
func (f *Fusion) CaptureTimestamp() float64 { return f.latest().CaptureTimestamp }

// RobotPose returns the last accepted robot pose, or the identity pose.
func (f *Fusion) RobotPose() geometry.Pose3d { return f.robotPose }

// Latest returns the most recent measurement.
func (f *Fusion) Latest() (Measurement, bool) { return f.history.Latest() }

// History returns the retained measurements oldest first.
func (f *Fusion) History() []Measurement { return f.history.All() }

// Publish writes the latest values to the sink under "Vision".
func (f *Fusion) Publish(sink telemetry.Sink) {
	t := telemetry.WithPrefix(sink, "Vision")
	m := f.latest()
	t.Put("Yaw", m.Yaw)
	t.Put("Pitch", m.Pitch)
	t.Put("Estimated Range", m.RangeMeters)
	t.Put("Timestamp", m.CaptureTimestamp)
	t.Put("Target ID", m.TargetID)
	t.Put("Pose Ambiguity", m.PoseAmbiguity)
	t.Put("Robot Pose", f.robotPose.ToPose2d())
	t.Put("Measurements", f.history.Len())
}
