// Package robot wires the drive and vision fusion into one control tick and
// carries operator commands into it.
package robot

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/geometry"
	"github.com/open-teleop/swerve/pkg/hardware"
	"github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/swerve"
	"github.com/open-teleop/swerve/pkg/telemetry"
	"github.com/open-teleop/swerve/pkg/vision"
)

// ErrCommandQueueFull is returned when commands arrive faster than the loop drains them.
var ErrCommandQueueFull = errors.New("robot command queue is full")

const (
	commandQueueSize = 16
	// DefaultIntentTimeout is how long operator intent stays valid without a refresh.
	DefaultIntentTimeout = 500 * time.Millisecond
)

type commandKind int

const (
	cmdZeroHeading commandKind = iota
	cmdSetMode
)

type command struct {
	kind commandKind
	mode Mode
}

// Flusher is a telemetry sink that ships its values once per tick.
type Flusher interface {
	Flush(now time.Time) bool
}

// Options are the optional collaborators of a Robot.
type Options struct {
	// Camera feeds vision fusion. Nil means no frames ever arrive.
	Camera vision.Camera
	// Sink receives telemetry every tick. If it is a Flusher it is flushed after.
	Sink          telemetry.Sink
	RunID         string
	IntentTimeout time.Duration
}

// ModuleStatus is one module in a Status snapshot.
type ModuleStatus struct {
	Index             int     `json:"index"`
	Connected         bool    `json:"connected"`
	AbsoluteDegrees   float64 `json:"absolute_deg"`
	HeadingDegrees    float64 `json:"heading_deg"`
	SpeedMetersPerSec float64 `json:"speed_mps"`
}

// VisionStatus is the latest vision measurement in a Status snapshot.
type VisionStatus struct {
	HasMeasurement   bool            `json:"has_measurement"`
	TargetID         int             `json:"target_id"`
	Accepted         bool            `json:"accepted"`
	RangeMeters      float64         `json:"range_m"`
	CaptureTimestamp float64         `json:"capture_timestamp"`
	RobotPose        geometry.Pose2d `json:"robot_pose"`
	Measurements     int             `json:"measurements"`
}

// Status is a snapshot of the robot taken at the end of a tick.
type Status struct {
	RobotID        string               `json:"robot_id"`
	RunID          string               `json:"run_id,omitempty"`
	Mode           Mode                 `json:"mode"`
	Ticks          uint64               `json:"ticks"`
	LastTick       time.Time            `json:"last_tick"`
	HeadingDegrees float64              `json:"heading_deg"`
	GyroConnected  bool                 `json:"gyro_connected"`
	Measured       swerve.ChassisSpeeds `json:"measured"`
	Modules        []ModuleStatus       `json:"modules"`
	Vision         VisionStatus         `json:"vision"`
}

// Robot owns the drive and vision fusion. Tick must be called from one
// goroutine; the command and intent methods are safe from any goroutine.
type Robot struct {
	cfg    *config.RobotConfig
	drive  *swerve.Drive
	fusion *vision.Fusion
	teleop TeleopMapper
	sink   telemetry.Sink
	runID  string
	logger log.Logger

	intents       *IntentMailbox
	intentTimeout time.Duration
	intentStale   bool
	commands      chan command

	mode  Mode
	ticks uint64

	statusMu sync.RWMutex
	status   Status
}

// New builds the drive and vision fusion over hw. The robot starts disabled.
func New(cfg *config.RobotConfig, hw *hardware.Set, opts Options, logger log.Logger) (*Robot, error) {
	if cfg == nil {
		return nil, errors.New("robot needs a configuration")
	}

	drive, err := swerve.NewDrive(cfg.Swerve, hw, logger.WithField("component", "drive"))
	if err != nil {
		return nil, fmt.Errorf("failed to build drive: %w", err)
	}

	camera := opts.Camera
	if camera == nil {
		camera = vision.NewLatestFrameCamera(cfg.Vision.CameraName)
	}
	fusion, err := vision.NewFusion(cfg.Vision, camera, nil, logger.WithField("component", "vision"))
	if err != nil {
		return nil, fmt.Errorf("failed to build vision fusion: %w", err)
	}

	sink := opts.Sink
	if sink == nil {
		sink = telemetry.Discard
	}
	timeout := opts.IntentTimeout
	if timeout <= 0 {
		timeout = DefaultIntentTimeout
	}

	r := &Robot{
		cfg:           cfg,
		drive:         drive,
		fusion:        fusion,
		teleop:        NewTeleopMapper(cfg),
		sink:          sink,
		runID:         opts.RunID,
		logger:        logger,
		intents:       NewIntentMailbox(),
		intentTimeout: timeout,
		intentStale:   true,
		commands:      make(chan command, commandQueueSize),
		mode:          ModeDisabled,
	}
	r.status = r.snapshot(time.Time{})
	return r, nil
}

// Drive returns the drive aggregate.
func (r *Robot) Drive() *swerve.Drive { return r.drive }

// Fusion returns the vision fusion stage.
func (r *Robot) Fusion() *vision.Fusion { return r.fusion }

// Mode returns the current mode. Only valid on the loop goroutine; use Status elsewhere.
func (r *Robot) Mode() Mode { return r.mode }

// SetIntent stores operator input for the next tick.
func (r *Robot) SetIntent(in Intent) {
	r.intents.Set(in, time.Now())
}

// Intents returns the operator intent mailbox.
func (r *Robot) Intents() *IntentMailbox { return r.intents }

// ZeroHeading asks the loop to zero the heading sensor on its next tick.
func (r *Robot) ZeroHeading() {
	if err := r.enqueue(command{kind: cmdZeroHeading}); err != nil {
		r.logger.Warnf("Dropping zero heading request: %v", err)
	}
}

// SetMode asks the loop to switch mode on its next tick.
func (r *Robot) SetMode(name string) error {
	mode, err := ParseMode(name)
	if err != nil {
		return err
	}
	return r.enqueue(command{kind: cmdSetMode, mode: mode})
}

func (r *Robot) enqueue(c command) error {
	select {
	case r.commands <- c:
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// Tick runs one control period.
func (r *Robot) Tick(now time.Time) {
	r.drainCommands()

	r.drive.Periodic()
	r.fusion.Update(seconds(now))

	switch r.mode {
	case ModeDisabled:
		r.drive.ResetModuleZeros()
		r.drive.Stop()
	case ModeTeleop:
		r.drive.Drive(r.teleop.Map(r.currentIntent(now)))
	}

	r.ticks++
	r.publish(now)

	status := r.snapshot(now)
	r.statusMu.Lock()
	r.status = status
	r.statusMu.Unlock()
}

func (r *Robot) drainCommands() {
	for {
		select {
		case c := <-r.commands:
			r.apply(c)
		default:
			return
		}
	}
}

func (r *Robot) apply(c command) {
	switch c.kind {
	case cmdZeroHeading:
		r.drive.ZeroHeading()
	case cmdSetMode:
		if c.mode == r.mode {
			return
		}
		r.logger.Infof("Mode %s -> %s", r.mode, c.mode)
		r.mode = c.mode
	}
}

func (r *Robot) currentIntent(now time.Time) Intent {
	in, received := r.intents.Latest()
	stale := received.IsZero() || now.Sub(received) > r.intentTimeout
	if stale != r.intentStale {
		if stale {
			r.logger.Warnf("Operator input older than %v, holding still", r.intentTimeout)
		} else {
			r.logger.Infof("Operator input resumed")
		}
		r.intentStale = stale
	}
	if stale {
		return Intent{RobotCentric: in.RobotCentric}
	}
	return in
}

func (r *Robot) publish(now time.Time) {
	t := telemetry.WithPrefix(r.sink, "Robot")
	t.Put("Mode", r.mode.String())
	t.Put("Ticks", r.ticks)
	r.drive.Publish(r.sink)
	r.fusion.Publish(r.sink)

	if f, ok := r.sink.(Flusher); ok {
		f.Flush(now)
	}
}

func (r *Robot) snapshot(now time.Time) Status {
	s := Status{
		RobotID:        r.cfg.RobotID,
		RunID:          r.runID,
		Mode:           r.mode,
		Ticks:          r.ticks,
		LastTick:       now,
		HeadingDegrees: r.drive.Heading().Degrees(),
		GyroConnected:  r.drive.GyroConnected(),
		Measured:       r.drive.MeasuredChassisSpeeds(),
	}
	for _, m := range r.drive.Modules() {
		state := m.State()
		s.Modules = append(s.Modules, ModuleStatus{
			Index:             m.Index(),
			Connected:         m.Connected(),
			AbsoluteDegrees:   m.AbsoluteHeading().Degrees(),
			HeadingDegrees:    state.Heading.Degrees(),
			SpeedMetersPerSec: state.SpeedMetersPerSec,
		})
	}
	if latest, ok := r.fusion.Latest(); ok {
		s.Vision = VisionStatus{
			HasMeasurement:   true,
			TargetID:         latest.TargetID,
			Accepted:         latest.Accepted,
			RangeMeters:      latest.RangeMeters,
			CaptureTimestamp: latest.CaptureTimestamp,
			RobotPose:        r.fusion.RobotPose().ToPose2d(),
			Measurements:     len(r.fusion.History()),
		}
	}
	return s
}

// Status returns the snapshot taken at the end of the last tick.
func (r *Robot) Status() Status {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

func seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
