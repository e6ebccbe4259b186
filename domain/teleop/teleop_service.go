package teleop

import (
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/robot"
)

// Command represents a teleoperation command. Axes are normalized stick
// values in [-1, 1].
type Command struct {
	LinearX      float64 `json:"linear_x"`
	LinearY      float64 `json:"linear_y"`
	AngularZ     float64 `json:"angular_z"`
	RobotCentric bool    `json:"robot_centric"`
}

// IntentSink accepts operator intent for the control loop
type IntentSink interface {
	SetIntent(in robot.Intent)
}

// TeleopService handles robot teleoperation commands
type TeleopService struct {
	sink   IntentSink
	logger customlog.Logger
}

// NewTeleopService creates a new teleop service instance
func NewTeleopService(sink IntentSink, logger customlog.Logger) *TeleopService {
	return &TeleopService{
		sink:   sink,
		logger: logger,
	}
}

// CommandHandler processes incoming teleop commands
func (s *TeleopService) CommandHandler(c *fiber.Ctx) error {
	var cmd Command
	if err := c.BodyParser(&cmd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := s.SendCommand(cmd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "command received",
		"command": cmd,
	})
}

// ValidateCommand checks that every axis is finite and within [-1, 1]
func (s *TeleopService) ValidateCommand(cmd Command) error {
	for _, axis := range []struct {
		name  string
		value float64
	}{
		{"linear_x", cmd.LinearX},
		{"linear_y", cmd.LinearY},
		{"angular_z", cmd.AngularZ},
	} {
		if math.IsNaN(axis.value) || math.IsInf(axis.value, 0) || math.Abs(axis.value) > 1 {
			return fmt.Errorf("%s must be within [-1, 1], got %v", axis.name, axis.value)
		}
	}
	return nil
}

// SendCommand validates a command and hands it to the control loop
func (s *TeleopService) SendCommand(cmd Command) error {
	if err := s.ValidateCommand(cmd); err != nil {
		s.logger.Warnf("Rejected teleop command: %v", err)
		return err
	}
	s.sink.SetIntent(robot.Intent{
		Translation:  cmd.LinearX,
		Strafe:       cmd.LinearY,
		Rotation:     cmd.AngularZ,
		RobotCentric: cmd.RobotCentric,
	})
	return nil
}
