package zeromq

import (
	"encoding/json"
	"fmt"

	customlog "github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/services"
)

// Commander is the part of the robot that the command channel drives
type Commander interface {
	ZeroHeading()
	SetMode(mode string) error
}

// AckData is the payload of an ACK response
type AckData struct {
	Status  string `json:"status"`
	Command string `json:"command"`
	Message string `json:"message,omitempty"`
}

// SetModeData is the payload of a SET_MODE request
type SetModeData struct {
	Mode string `json:"mode"`
}

// ConfigHandler handles CONFIG_REQUEST messages
type ConfigHandler struct {
	configService services.RobotConfigService
	logger        customlog.Logger
}

// NewConfigHandler creates a new handler for configuration requests
func NewConfigHandler(configService services.RobotConfigService, logger customlog.Logger) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// HandleMessage returns the active robot configuration as a CONFIG_RESPONSE
func (h *ConfigHandler) HandleMessage(msg *ZeroMQMessage) ([]byte, error) {
	h.logger.Debugf("Processing configuration request")

	responseData, err := NewMessage(MsgTypeConfigResponse, h.configService.GetCurrentConfig())
	if err != nil {
		h.logger.Errorf("Error serializing response: %v", err)
		return nil, err
	}

	h.logger.Debugf("Sending configuration response (%d bytes)", len(responseData))
	return responseData, nil
}

// CommandHandler handles ZERO_HEADING and SET_MODE messages
type CommandHandler struct {
	commander Commander
	logger    customlog.Logger
}

// NewCommandHandler creates a new handler for robot commands
func NewCommandHandler(commander Commander, logger customlog.Logger) *CommandHandler {
	return &CommandHandler{
		commander: commander,
		logger:    logger,
	}
}

// HandleMessage forwards the command to the robot and acknowledges it
func (h *CommandHandler) HandleMessage(msg *ZeroMQMessage) ([]byte, error) {
	switch msg.Type {
	case MsgTypeZeroHeading:
		h.logger.Infof("Zero heading requested")
		h.commander.ZeroHeading()
		return NewMessage(MsgTypeAck, AckData{Status: "OK", Command: msg.Type})

	case MsgTypeSetMode:
		var data SetModeData
		if len(msg.Data) == 0 {
			return nil, fmt.Errorf("%w: SET_MODE requires data.mode", ErrInvalidMessage)
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		if err := h.commander.SetMode(data.Mode); err != nil {
			h.logger.Warnf("Rejected mode %q: %v", data.Mode, err)
			return NewMessage(MsgTypeAck, AckData{Status: "REJECTED", Command: msg.Type, Message: err.Error()})
		}
		h.logger.Infof("Mode change to %q requested", data.Mode)
		return NewMessage(MsgTypeAck, AckData{Status: "OK", Command: msg.Type})

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}
}
