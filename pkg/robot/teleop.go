package robot

import (
	"math"
	"sync"
	"time"

	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/swerve"
)

// Intent is operator input: stick axes in [-1, 1] and the robot-centric toggle.
// Translation is forward, Strafe is left, Rotation is counter-clockwise.
type Intent struct {
	Translation  float64
	Strafe       float64
	Rotation     float64
	RobotCentric bool
}

// IntentMailbox holds the newest operator intent for the control loop.
type IntentMailbox struct {
	mu       sync.Mutex
	intent   Intent
	received time.Time
}

// NewIntentMailbox creates an empty mailbox.
func NewIntentMailbox() *IntentMailbox {
	return &IntentMailbox{}
}

// Set replaces the stored intent.
func (m *IntentMailbox) Set(intent Intent, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intent = intent
	m.received = at
}

// Latest returns the stored intent and when it arrived. The zero time means
// nothing has arrived.
func (m *IntentMailbox) Latest() (Intent, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intent, m.received
}

// TeleopMapper turns operator intent into a chassis request.
type TeleopMapper struct {
	Deadband           float64
	Scale              float64
	MaxSpeed           float64
	MaxAngularVelocity float64
}

// NewTeleopMapper builds a mapper from the robot configuration.
func NewTeleopMapper(cfg *config.RobotConfig) TeleopMapper {
	return TeleopMapper{
		Deadband:           cfg.Teleop.Deadband,
		Scale:              cfg.Teleop.Scale,
		MaxSpeed:           cfg.Swerve.MaxSpeed,
		MaxAngularVelocity: cfg.Swerve.MaxAngularVelocity,
	}
}

// Map converts an intent. Teleop always drives open loop, field relative
// unless the robot-centric toggle is held.
func (t TeleopMapper) Map(in Intent) swerve.ChassisMotionRequest {
	return swerve.ChassisMotionRequest{
		Vx:            t.axis(in.Translation) * t.MaxSpeed,
		Vy:            t.axis(in.Strafe) * t.MaxSpeed,
		Omega:         t.axis(in.Rotation) * t.MaxAngularVelocity,
		FieldRelative: !in.RobotCentric,
		OpenLoop:      true,
	}
}

func (t TeleopMapper) axis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	return ApplyDeadband(v, t.Deadband) * t.Scale
}

// ApplyDeadband zeroes values within deadband of zero and rescales the rest
// so the output still spans [-1, 1].
func ApplyDeadband(value, deadband float64) float64 {
	if math.Abs(value) <= deadband {
		return 0
	}
	if value > 0 {
		return (value - deadband) / (1 - deadband)
	}
	return (value + deadband) / (1 - deadband)
}
