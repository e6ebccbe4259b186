package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/swerve/domain/teleop"
	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/robot"
	"github.com/open-teleop/swerve/services"
)

const robotYAML = `
robot_id: "bench"
platform:
  variant: "sim"
swerve:
  max_speed_mps: 4
  max_angular_velocity_radps: 10
  wheel_base_m: 0.5
  track_width_m: 0.5
  modules:
    - { index: 0 }
    - { index: 1 }
    - { index: 2 }
    - { index: 3 }
`

func newConfigApp(t *testing.T) (*fiber.App, services.RobotConfigService) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "robot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(robotYAML), 0644))
	cfg, err := config.LoadRobotConfig(path)
	require.NoError(t, err)
	svc, err := services.NewRobotConfigService(path, cfg, log.NewNopLogger())
	require.NoError(t, err)

	app := fiber.New()
	RegisterConfigRoutes(app, svc, log.NewNopLogger())
	return app, svc
}

func do(t *testing.T, app *fiber.App, method, target, contentType, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestGetRobotConfig(t *testing.T) {
	app, _ := newConfigApp(t)

	code, body := do(t, app, http.MethodGet, "/api/v1/config/robot", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, robotYAML, body)

	code, body = do(t, app, http.MethodGet, "/api/v1/config/robot/active", "", "")
	assert.Equal(t, http.StatusOK, code)
	var out struct {
		Active  config.RobotConfig `json:"active"`
		Pending bool               `json:"pending"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "bench", out.Active.RobotID)
	assert.False(t, out.Pending)
}

func TestPutRobotConfig(t *testing.T) {
	app, svc := newConfigApp(t)

	code, _ := do(t, app, http.MethodPut, "/api/v1/config/robot", "application/x-yaml", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := do(t, app, http.MethodPut, "/api/v1/config/robot", "application/x-yaml", "robot_id: x\n")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "platform.variant is required")

	updated := strings.Replace(robotYAML, `"bench"`, `"field"`, 1)
	code, _ = do(t, app, http.MethodPut, "/api/v1/config/robot", "application/x-yaml", updated)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "bench", svc.GetCurrentConfig().RobotID)
	assert.Equal(t, "field", svc.PendingConfig().RobotID)
}

type fakeController struct {
	mode   robot.Mode
	zeroed int
}

func (f *fakeController) SetMode(name string) error {
	m, err := robot.ParseMode(name)
	if err != nil {
		return err
	}
	f.mode = m
	return nil
}

func (f *fakeController) ZeroHeading() { f.zeroed++ }

func (f *fakeController) Status() robot.Status { return robot.Status{Mode: f.mode} }

func TestModeRoutes(t *testing.T) {
	ctrl := &fakeController{}
	app := fiber.New()
	RegisterModeRoutes(app, ctrl, log.NewNopLogger())

	code, body := do(t, app, http.MethodGet, "/api/v1/mode", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"mode":"disabled"}`, body)

	code, _ = do(t, app, http.MethodPut, "/api/v1/mode", fiber.MIMEApplicationJSON, `{"mode":"teleop"}`)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, robot.ModeTeleop, ctrl.mode)

	code, body = do(t, app, http.MethodPut, "/api/v1/mode", fiber.MIMEApplicationJSON, `{"mode":"auto"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "unknown robot mode")

	code, _ = do(t, app, http.MethodPost, "/api/v1/heading/zero", "", "")
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, 1, ctrl.zeroed)
}

type commandCapture struct {
	cmds []teleop.Command
}

func (c *commandCapture) SendCommand(cmd teleop.Command) error {
	if cmd.LinearX > 1 {
		return fmt.Errorf("out of range")
	}
	c.cmds = append(c.cmds, cmd)
	return nil
}

func TestTwistToCommand(t *testing.T) {
	var twist TwistMsg
	require.NoError(t, json.Unmarshal([]byte(
		`{"linear":{"x":0.5,"y":-0.25,"z":9},"angular":{"x":1,"y":1,"z":0.75},"robot_centric":true}`), &twist))

	assert.Equal(t, teleop.Command{
		LinearX:      0.5,
		LinearY:      -0.25,
		AngularZ:     0.75,
		RobotCentric: true,
	}, TwistToCommand(twist))
}

func TestControlRouteRequiresUpgrade(t *testing.T) {
	app := fiber.New()
	RegisterControlRoutes(app, log.NewNopLogger(), &commandCapture{})

	code, _ := do(t, app, http.MethodGet, "/ws/control", "", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}
