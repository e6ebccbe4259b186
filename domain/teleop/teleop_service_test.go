package teleop

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/robot"
)

type intentCapture struct {
	intents []robot.Intent
}

func (c *intentCapture) SetIntent(in robot.Intent) {
	c.intents = append(c.intents, in)
}

func TestSendCommand(t *testing.T) {
	sink := &intentCapture{}
	s := NewTeleopService(sink, log.NewNopLogger())

	require.NoError(t, s.SendCommand(Command{LinearX: 0.5, LinearY: -1, AngularZ: 0.25, RobotCentric: true}))
	require.Len(t, sink.intents, 1)
	assert.Equal(t, robot.Intent{Translation: 0.5, Strafe: -1, Rotation: 0.25, RobotCentric: true}, sink.intents[0])
}

func TestValidateCommand(t *testing.T) {
	s := NewTeleopService(&intentCapture{}, log.NewNopLogger())

	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"zero", Command{}, false},
		{"limits", Command{LinearX: 1, LinearY: -1, AngularZ: 1}, false},
		{"too fast", Command{LinearX: 1.01}, true},
		{"nan", Command{AngularZ: math.NaN()}, true},
		{"inf", Command{LinearY: math.Inf(-1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ValidateCommand(tt.cmd)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommandHandler(t *testing.T) {
	sink := &intentCapture{}
	s := NewTeleopService(sink, log.NewNopLogger())
	app := fiber.New()
	app.Post("/api/teleop/command", s.CommandHandler)

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/teleop/command", strings.NewReader(body))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, post(`{"linear_x":0.2,"angular_z":-0.4}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"linear_x":2}`))
	assert.Equal(t, http.StatusBadRequest, post(`{not json`))

	require.Len(t, sink.intents, 1)
	assert.Equal(t, 0.2, sink.intents[0].Translation)
	assert.Equal(t, -0.4, sink.intents[0].Rotation)
}
