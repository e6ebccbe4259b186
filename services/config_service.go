package services

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/open-teleop/swerve/pkg/config"
	customlog "github.com/open-teleop/swerve/pkg/log"
)

// ErrInvalidConfig wraps parse and validation failures of a submitted robot configuration.
var ErrInvalidConfig = errors.New("invalid robot configuration")

// ConfigPublisher defines the interface for publishing configuration updates.
// This avoids a direct dependency on the concrete ZeroMQ publisher.
type ConfigPublisher interface {
	PublishConfigUpdatedNotification(cfg *config.RobotConfig) error
}

// RobotConfigService exposes the robot configuration to the API and ZeroMQ handlers.
type RobotConfigService interface {
	// GetCurrentConfig returns the configuration the robot was started with.
	GetCurrentConfig() *config.RobotConfig
	GetCurrentConfigYAML() ([]byte, error)
	// UpdateConfig validates and persists a replacement. It applies on the next start.
	UpdateConfig(newConfigYAML []byte) error
	// PendingConfig returns a persisted replacement that is not yet active, or nil.
	PendingConfig() *config.RobotConfig
	SetPublisher(p ConfigPublisher)
}

type robotConfigService struct {
	path      string
	logger    customlog.Logger
	publisher ConfigPublisher
	active    *config.RobotConfig
	pending   *config.RobotConfig
	mu        sync.RWMutex
}

// NewRobotConfigService wraps the active configuration loaded from path.
func NewRobotConfigService(path string, active *config.RobotConfig, logger customlog.Logger) (RobotConfigService, error) {
	if path == "" {
		return nil, fmt.Errorf("robot configuration path cannot be empty")
	}
	if active == nil {
		return nil, fmt.Errorf("active robot configuration cannot be nil")
	}
	if logger == nil {
		logger = customlog.NewNopLogger()
	}

	logger.Infof("RobotConfigService initialized for path: %s (robot %q, variant %s)",
		path, active.RobotID, active.Platform.Variant)
	return &robotConfigService{
		path:   path,
		logger: logger,
		active: active,
	}, nil
}

func (s *robotConfigService) GetCurrentConfig() *config.RobotConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// GetCurrentConfigYAML reads the file from disk, so it reflects a pending update.
func (s *robotConfigService) GetCurrentConfigYAML() ([]byte, error) {
	s.logger.Debugf("Reading raw robot configuration YAML from: %s", s.path)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("error reading robot config file '%s': %w", s.path, err)
	}
	return data, nil
}

func (s *robotConfigService) UpdateConfig(newConfigYAML []byte) error {
	cfg, err := config.ParseRobotConfig(newConfigYAML)
	if err != nil {
		s.logger.Warnf("Rejected robot configuration update: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s.mu.Lock()
	if err := os.WriteFile(s.path, newConfigYAML, 0644); err != nil {
		s.mu.Unlock()
		s.logger.Errorf("Error writing robot config file '%s': %v", s.path, err)
		return fmt.Errorf("error writing robot config file '%s': %w", s.path, err)
	}
	s.pending = cfg
	publisher := s.publisher
	s.mu.Unlock()

	s.logger.Infof("Persisted robot configuration to %s; it takes effect on restart", s.path)

	if publisher != nil {
		go func() {
			if err := publisher.PublishConfigUpdatedNotification(cfg); err != nil {
				s.logger.Warnf("Failed to publish config update notification: %v", err)
			}
		}()
	}
	return nil
}

func (s *robotConfigService) PendingConfig() *config.RobotConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

func (s *robotConfigService) SetPublisher(p ConfigPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}
