package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	configService services.RobotConfigService
	logger        customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(configService services.RobotConfigService, logger customlog.Logger) *ConfigHandler {
	if configService == nil {
		panic("ConfigService cannot be nil in NewConfigHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// RegisterConfigRoutes registers the configuration API endpoints with the Fiber app.
func RegisterConfigRoutes(app *fiber.App, configService services.RobotConfigService, logger customlog.Logger) {
	h := NewConfigHandler(configService, logger)

	apiGroup := app.Group("/api/v1/config")

	// YAML as stored on disk, including a pending update
	apiGroup.Get("/robot", h.handleGetRobotConfig)
	// The configuration the robot is running with
	apiGroup.Get("/robot/active", h.handleGetActiveConfig)
	apiGroup.Put("/robot", h.handleUpdateRobotConfig)

	logger.Infof("Registered robot configuration API endpoints under /api/v1/config")
}

func (h *ConfigHandler) handleGetRobotConfig(c *fiber.Ctx) error {
	yamlData, err := h.configService.GetCurrentConfigYAML()
	if err != nil {
		h.logger.Errorf("Failed to get robot config YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

func (h *ConfigHandler) handleGetActiveConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"active":  h.configService.GetCurrentConfig(),
		"pending": h.configService.PendingConfig() != nil,
	})
}

func (h *ConfigHandler) handleUpdateRobotConfig(c *fiber.Ctx) error {
	switch c.Get(fiber.HeaderContentType) {
	case "application/x-yaml", "application/yaml", "text/yaml":
	default:
		h.logger.Warnf("Received PUT request with Content-Type %q, parsing as YAML", c.Get(fiber.HeaderContentType))
	}

	newConfigYAML := c.Body()
	if len(newConfigYAML) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body cannot be empty.",
		})
	}

	if err := h.configService.UpdateConfig(newConfigYAML); err != nil {
		if errors.Is(err, services.ErrInvalidConfig) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Configuration update failed: %v", err),
			})
		}
		h.logger.Errorf("Failed to update robot configuration: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Internal server error during configuration update: %v", err),
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Robot configuration saved. It takes effect on the next controller start.",
	})
}
