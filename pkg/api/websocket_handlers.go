package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/swerve/domain/teleop"
	customlog "github.com/open-teleop/swerve/pkg/log"
)

// CommandSender accepts a teleop command for the control loop.
type CommandSender interface {
	SendCommand(cmd teleop.Command) error
}

// TwistToCommand converts a Twist message into a teleop command.
func TwistToCommand(twist TwistMsg) teleop.Command {
	return teleop.Command{
		LinearX:      twist.Linear.X,
		LinearY:      twist.Linear.Y,
		AngularZ:     twist.Angular.Z,
		RobotCentric: twist.RobotCentric,
	}
}

// ControlWebSocketHandler handles incoming WebSocket messages for robot control.
func ControlWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, sender CommandSender) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	var (
		mt  int
		msg []byte
		err error
	)
	for {
		if mt, msg, err = conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("Control WS read error: %v", err)
			} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				logger.Infof("Control WS connection closed: %v", err)
			} else {
				logger.Infof("Control WS connection closed normally.")
			}
			break
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		var twist TwistMsg
		if err := json.Unmarshal(msg, &twist); err != nil {
			logger.Warnf("Failed to unmarshal Twist command from WS: %v. Message: %s", err, string(msg))
			continue
		}

		logger.Debugf("Received Twist command via WS: LinearX=%.2f, LinearY=%.2f, AngularZ=%.2f, RobotCentric=%t",
			twist.Linear.X, twist.Linear.Y, twist.Angular.Z, twist.RobotCentric)

		if err := sender.SendCommand(TwistToCommand(twist)); err != nil {
			logger.Warnf("Dropped Twist command: %v", err)
		}
	}
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}

// RegisterControlRoutes mounts the control WebSocket at /ws/control.
func RegisterControlRoutes(app *fiber.App, logger customlog.Logger, sender CommandSender) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
		ControlWebSocketHandler(conn, logger, sender)
	}))
}
