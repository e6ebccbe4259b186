package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// BootstrapConfig holds the initial configuration loaded from controller_config.yaml
type BootstrapConfig struct {
	Logging   LoggingConfig         `yaml:"logging"`
	Server    BootstrapServerConfig `yaml:"server"`
	ZeroMQ    ZeroMQBootstrap       `yaml:"zeromq"`
	Data      DataConfig            `yaml:"data"`
	Telemetry TelemetryConfig       `yaml:"telemetry"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// BootstrapServerConfig holds the HTTP server settings
type BootstrapServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// ZeroMQBootstrap holds ZeroMQ settings from bootstrap
type ZeroMQBootstrap struct {
	RequestBindAddress string `yaml:"request_bind_address"`
	PublishBindAddress string `yaml:"publish_bind_address"`
	// VisionConnectAddress is where the camera coprocessor publishes frames.
	// Empty disables the camera.
	VisionConnectAddress string `yaml:"vision_connect_address,omitempty"`
	VisionTopic          string `yaml:"vision_topic,omitempty"`
	ReconnectIntervalMs  int    `yaml:"reconnect_interval_ms"`
}

// TelemetryConfig sizes the telemetry publishing pool
type TelemetryConfig struct {
	Topic     string `yaml:"topic"`
	Workers   int    `yaml:"workers"`
	QueueSize int    `yaml:"queue_size"`
}

// DataConfig holds data directory settings from bootstrap
type DataConfig struct {
	Directory           string `yaml:"directory"`
	RobotConfigFilename string `yaml:"robot_config_file"`
}

// RobotConfigPath returns the full path of the robot configuration file.
func (c *BootstrapConfig) RobotConfigPath() string {
	return filepath.Join(c.Data.Directory, c.Data.RobotConfigFilename)
}

// LoadBootstrapConfig loads the bootstrap configuration from controller_config.yaml
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, "controller_config.yaml")

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	var errs error
	if bootstrapCfg.ZeroMQ.RequestBindAddress == "" {
		errs = multierr.Append(errs, missing("zeromq.request_bind_address"))
	}
	if bootstrapCfg.ZeroMQ.PublishBindAddress == "" {
		errs = multierr.Append(errs, missing("zeromq.publish_bind_address"))
	}
	if bootstrapCfg.Data.Directory == "" {
		errs = multierr.Append(errs, missing("data.directory"))
	}
	if bootstrapCfg.Data.RobotConfigFilename == "" {
		errs = multierr.Append(errs, missing("data.robot_config_file"))
	}
	if errs != nil {
		return nil, errs
	}

	// Defaults for optional fields
	if bootstrapCfg.Server.HTTPPort == 0 {
		bootstrapCfg.Server.HTTPPort = 8080
	}
	if bootstrapCfg.ZeroMQ.VisionTopic == "" {
		bootstrapCfg.ZeroMQ.VisionTopic = "vision.frame"
	}
	if bootstrapCfg.Telemetry.Topic == "" {
		bootstrapCfg.Telemetry.Topic = "telemetry"
	}
	if bootstrapCfg.Telemetry.Workers <= 0 {
		bootstrapCfg.Telemetry.Workers = 1
	}
	if bootstrapCfg.Telemetry.QueueSize <= 0 {
		bootstrapCfg.Telemetry.QueueSize = 64
	}

	return &bootstrapCfg, nil
}

func missing(field string) error {
	return fmt.Errorf("missing required field in bootstrap config: %s", field)
}
