package zeromq

import (
	"github.com/open-teleop/swerve/pkg/config"
	customlog "github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/services"
)

const (
	TopicConfigUpdate       = "configuration.update"
	TopicConfigNotification = "configuration.notification"
	MsgTypeConfigUpdated    = "CONFIG_UPDATED"
)

// JSONPublisher is the publishing side of ZeroMQService
type JSONPublisher interface {
	PublishJSON(topic string, messageType string, data interface{}) error
}

// ConfigPublisher publishes configuration updates to subscribers
type ConfigPublisher struct {
	publisher JSONPublisher
	logger    customlog.Logger
}

// NewConfigPublisher creates a new publisher for configuration updates
func NewConfigPublisher(publisher JSONPublisher, logger customlog.Logger) *ConfigPublisher {
	return &ConfigPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishConfigUpdate publishes a full configuration
func (p *ConfigPublisher) PublishConfigUpdate(cfg *config.RobotConfig) error {
	p.logger.Infof("Publishing configuration for robot %q", cfg.RobotID)
	return p.publisher.PublishJSON(TopicConfigUpdate, MsgTypeConfigResponse, cfg)
}

// PublishConfigUpdatedNotification announces that a new configuration was persisted
func (p *ConfigPublisher) PublishConfigUpdatedNotification(cfg *config.RobotConfig) error {
	p.logger.Infof("Publishing configuration update notification")

	notification := map[string]interface{}{
		"robot_id": cfg.RobotID,
		"variant":  cfg.Platform.Variant,
		"pending":  true,
	}
	return p.publisher.PublishJSON(TopicConfigNotification, MsgTypeConfigUpdated, notification)
}

// RegisterHandlers wires the request handlers into the service and returns the
// config publisher, which is also injected into the config service.
func RegisterHandlers(service *ZeroMQService, configService services.RobotConfigService, commander Commander, logger customlog.Logger) *ConfigPublisher {
	service.RegisterHandler(MsgTypeConfigRequest, NewConfigHandler(configService, logger))

	commands := NewCommandHandler(commander, logger)
	service.RegisterHandler(MsgTypeZeroHeading, commands)
	service.RegisterHandler(MsgTypeSetMode, commands)

	publisher := NewConfigPublisher(service, logger)
	configService.SetPublisher(publisher)

	logger.Infof("Registered configuration and command handlers")
	return publisher
}
