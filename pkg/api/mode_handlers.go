package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/robot"
)

// ModeController switches the robot mode and reports the current one.
type ModeController interface {
	SetMode(mode string) error
	ZeroHeading()
	Status() robot.Status
}

// RegisterModeRoutes registers the mode and heading endpoints.
func RegisterModeRoutes(app *fiber.App, ctrl ModeController, logger customlog.Logger) {
	apiGroup := app.Group("/api/v1")

	apiGroup.Get("/mode", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"mode": ctrl.Status().Mode})
	})

	apiGroup.Put("/mode", func(c *fiber.Ctx) error {
		var req ModeRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err := ctrl.SetMode(req.Mode); err != nil {
			code := http.StatusServiceUnavailable
			if errors.Is(err, robot.ErrUnknownMode) {
				code = http.StatusBadRequest
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Infof("Mode %q requested over HTTP", req.Mode)
		return c.Status(http.StatusAccepted).JSON(fiber.Map{"requested": req.Mode})
	})

	apiGroup.Post("/heading/zero", func(c *fiber.Ctx) error {
		ctrl.ZeroHeading()
		return c.SendStatus(http.StatusAccepted)
	})

	logger.Infof("Registered mode API endpoints under /api/v1")
}
