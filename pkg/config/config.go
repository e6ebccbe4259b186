package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/open-teleop/swerve/pkg/geometry"
)

// ModuleCount is the number of swerve modules on the chassis.
const ModuleCount = 4

// ErrUnknownModule is returned when a module index has no configuration.
var ErrUnknownModule = errors.New("unknown swerve module index")

// RobotConfig is the immutable robot description loaded once at startup
type RobotConfig struct {
	RobotID  string         `yaml:"robot_id" json:"robot_id"`
	Platform PlatformConfig `yaml:"platform" json:"platform"`
	Swerve   SwerveConfig   `yaml:"swerve" json:"swerve"`
	Teleop   TeleopConfig   `yaml:"teleop" json:"teleop"`
	Vision   VisionConfig   `yaml:"vision" json:"vision"`
}

// PlatformConfig selects the hardware implementation and loop rate
type PlatformConfig struct {
	Variant      string `yaml:"variant" json:"variant"`
	TickPeriodMs int    `yaml:"tick_period_ms" json:"tick_period_ms"`
}

// SwerveConfig holds chassis geometry, limits and drive gains
type SwerveConfig struct {
	MaxSpeed           float64           `yaml:"max_speed_mps" json:"max_speed_mps"`
	MaxAngularVelocity float64           `yaml:"max_angular_velocity_radps" json:"max_angular_velocity_radps"`
	WheelBase          float64           `yaml:"wheel_base_m" json:"wheel_base_m"`
	TrackWidth         float64           `yaml:"track_width_m" json:"track_width_m"`
	DriveKS            float64           `yaml:"drive_ks" json:"drive_ks"`
	DriveKV            float64           `yaml:"drive_kv" json:"drive_kv"`
	DriveKA            float64           `yaml:"drive_ka" json:"drive_ka"`
	AntiJitterFraction float64           `yaml:"anti_jitter_fraction" json:"anti_jitter_fraction"`
	GyroInvert         bool              `yaml:"gyro_invert" json:"gyro_invert"`
	Modules            []ModuleConstants `yaml:"modules" json:"modules"`
}

// ModuleConstants describes one swerve module
type ModuleConstants struct {
	Index              int     `yaml:"index" json:"index"`
	DriveMotorID       int     `yaml:"drive_motor_id" json:"drive_motor_id"`
	AngleMotorID       int     `yaml:"angle_motor_id" json:"angle_motor_id"`
	CANCoderID         int     `yaml:"cancoder_id" json:"cancoder_id"`
	AngleOffsetDegrees float64 `yaml:"angle_offset_degrees" json:"angle_offset_degrees"`
}

// TeleopConfig shapes operator stick input
type TeleopConfig struct {
	Deadband float64 `yaml:"deadband" json:"deadband"`
	Scale    float64 `yaml:"scale" json:"scale"`
}

// VisionConfig holds camera mounting and target layout
type VisionConfig struct {
	CameraName             string          `yaml:"camera_name" json:"camera_name"`
	CameraHeightMeters     float64         `yaml:"camera_height_m" json:"camera_height_m"`
	TargetHeightMeters     float64         `yaml:"target_height_m" json:"target_height_m"`
	CameraPitchDegrees     float64         `yaml:"camera_pitch_degrees" json:"camera_pitch_degrees"`
	CameraYawOffsetDegrees float64         `yaml:"camera_yaw_offset_degrees" json:"camera_yaw_offset_degrees"`
	MaxPoseAmbiguity       float64         `yaml:"max_pose_ambiguity" json:"max_pose_ambiguity"`
	HistoryCapacity        int             `yaml:"history_capacity" json:"history_capacity"`
	UseAprilTags           *bool           `yaml:"use_april_tags,omitempty" json:"use_april_tags,omitempty"`
	CameraToRobot          TransformConfig `yaml:"camera_to_robot" json:"camera_to_robot"`
	TargetPoses            []PoseConfig    `yaml:"target_poses" json:"target_poses"`
}

// TransformConfig is a rigid transform in meters and degrees
type TransformConfig struct {
	X            float64 `yaml:"x" json:"x"`
	Y            float64 `yaml:"y" json:"y"`
	Z            float64 `yaml:"z" json:"z"`
	RollDegrees  float64 `yaml:"roll_degrees" json:"roll_degrees"`
	PitchDegrees float64 `yaml:"pitch_degrees" json:"pitch_degrees"`
	YawDegrees   float64 `yaml:"yaw_degrees" json:"yaw_degrees"`
}

// PoseConfig is a field pose in meters and degrees
type PoseConfig TransformConfig

// Transform converts the config value to a geometry transform.
func (t TransformConfig) Transform() geometry.Transform3d {
	return geometry.NewTransform3d(t.X, t.Y, t.Z,
		deg2rad(t.RollDegrees), deg2rad(t.PitchDegrees), deg2rad(t.YawDegrees))
}

// Pose converts the config value to a geometry pose.
func (p PoseConfig) Pose() geometry.Pose3d {
	return geometry.NewPose3d(p.X, p.Y, p.Z,
		deg2rad(p.RollDegrees), deg2rad(p.PitchDegrees), deg2rad(p.YawDegrees))
}

// AprilTagsEnabled reports whether fiducial correspondence is used. Defaults to true.
func (v VisionConfig) AprilTagsEnabled() bool {
	return v.UseAprilTags == nil || *v.UseAprilTags
}

// TickPeriodSeconds returns the control period in seconds.
func (p PlatformConfig) TickPeriodSeconds() float64 {
	return float64(p.TickPeriodMs) / 1000.0
}

// Module returns the constants for a module index.
func (s SwerveConfig) Module(index int) (ModuleConstants, error) {
	for _, m := range s.Modules {
		if m.Index == index {
			return m, nil
		}
	}
	return ModuleConstants{}, fmt.Errorf("%w: %d", ErrUnknownModule, index)
}

// defaultTargetPoses is the two-target layout used when none is configured.
var defaultTargetPoses = []PoseConfig{
	{X: 3.0, Y: 1.165, Z: 0.287 + 0.165, YawDegrees: 180.0},
	{X: 3.0, Y: 0.0, Z: 0.287 + 0.165, YawDegrees: 180.0},
}

// LoadRobotConfig reads, defaults and validates a robot configuration file
func LoadRobotConfig(path string) (*RobotConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading robot config file '%s': %w", path, err)
	}
	return ParseRobotConfig(data)
}

// ParseRobotConfig parses robot configuration YAML, applies defaults and validates it
func ParseRobotConfig(data []byte) (*RobotConfig, error) {
	var cfg RobotConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing robot config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid robot config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills optional fields left empty in the file
func (c *RobotConfig) ApplyDefaults() {
	if c.Platform.TickPeriodMs == 0 {
		c.Platform.TickPeriodMs = 20
	}
	if c.Swerve.AntiJitterFraction == 0 {
		c.Swerve.AntiJitterFraction = 0.01
	}
	if c.Teleop.Deadband == 0 {
		c.Teleop.Deadband = 0.1
	}
	if c.Teleop.Scale == 0 {
		c.Teleop.Scale = 0.5
	}
	if c.Vision.MaxPoseAmbiguity == 0 {
		c.Vision.MaxPoseAmbiguity = 0.2
	}
	if c.Vision.HistoryCapacity == 0 {
		c.Vision.HistoryCapacity = 50
	}
	if len(c.Vision.TargetPoses) == 0 {
		c.Vision.TargetPoses = append([]PoseConfig(nil), defaultTargetPoses...)
	}
}

// Validate reports every problem in the configuration at once
func (c *RobotConfig) Validate() error {
	var errs error
	add := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if c.Platform.Variant == "" {
		add("platform.variant is required")
	}
	if c.Platform.TickPeriodMs < 0 {
		add("platform.tick_period_ms must be positive, got %d", c.Platform.TickPeriodMs)
	}

	s := c.Swerve
	if !positive(s.MaxSpeed) {
		add("swerve.max_speed_mps must be positive, got %v", s.MaxSpeed)
	}
	if !positive(s.MaxAngularVelocity) {
		add("swerve.max_angular_velocity_radps must be positive, got %v", s.MaxAngularVelocity)
	}
	if !positive(s.WheelBase) {
		add("swerve.wheel_base_m must be positive, got %v", s.WheelBase)
	}
	if !positive(s.TrackWidth) {
		add("swerve.track_width_m must be positive, got %v", s.TrackWidth)
	}
	if s.AntiJitterFraction < 0 || s.AntiJitterFraction >= 1 {
		add("swerve.anti_jitter_fraction must be in [0, 1), got %v", s.AntiJitterFraction)
	}
	if len(s.Modules) != ModuleCount {
		add("swerve.modules must list %d modules, got %d", ModuleCount, len(s.Modules))
	}
	seen := make(map[int]bool, len(s.Modules))
	for _, m := range s.Modules {
		if m.Index < 0 || m.Index >= ModuleCount {
			errs = multierr.Append(errs, fmt.Errorf("%w: %d", ErrUnknownModule, m.Index))
			continue
		}
		if seen[m.Index] {
			add("swerve.modules index %d listed twice", m.Index)
		}
		seen[m.Index] = true
	}

	if c.Teleop.Deadband < 0 || c.Teleop.Deadband >= 1 {
		add("teleop.deadband must be in [0, 1), got %v", c.Teleop.Deadband)
	}

	v := c.Vision
	if v.MaxPoseAmbiguity < 0 {
		add("vision.max_pose_ambiguity must not be negative, got %v", v.MaxPoseAmbiguity)
	}
	if v.HistoryCapacity < 0 {
		add("vision.history_capacity must be positive, got %d", v.HistoryCapacity)
	}

	return errs
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180.0
}
