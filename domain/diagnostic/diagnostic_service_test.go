package diagnostic

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/swerve/pkg/robot"
	"github.com/open-teleop/swerve/pkg/telemetry"
)

type staticStatus struct {
	status robot.Status
}

func (s staticStatus) Status() robot.Status { return s.status }

type staticFrames struct{}

func (staticFrames) Stats() (uint64, uint64) { return 12, 3 }

type staticTelemetry struct{}

func (staticTelemetry) Metrics() telemetry.PoolMetrics {
	return telemetry.PoolMetrics{ProcessedCount: 40, ErrorCount: 1, DroppedCount: 2}
}

func TestLinkMetrics(t *testing.T) {
	s := NewDiagnosticService(staticStatus{}, staticFrames{}, staticTelemetry{}, 20*time.Millisecond)
	assert.Equal(t, LinkMetrics{
		FramesReceived:     12,
		FramesDropped:      3,
		TelemetryPublished: 40,
		TelemetryErrors:    1,
		TelemetryDropped:   2,
	}, s.GetLinkMetrics())

	empty := NewDiagnosticService(staticStatus{}, nil, nil, 20*time.Millisecond)
	assert.Equal(t, LinkMetrics{}, empty.GetLinkMetrics())
}

func TestLoopHealthy(t *testing.T) {
	now := time.Unix(1000, 0)

	s := NewDiagnosticService(staticStatus{}, nil, nil, 20*time.Millisecond)
	assert.False(t, s.LoopHealthy(now), "never ticked")

	s = NewDiagnosticService(staticStatus{robot.Status{LastTick: now.Add(-60 * time.Millisecond)}}, nil, nil, 20*time.Millisecond)
	assert.True(t, s.LoopHealthy(now))
	assert.False(t, s.LoopHealthy(now.Add(time.Second)))
}

func TestStatusHandlers(t *testing.T) {
	status := robot.Status{RobotID: "bench", Mode: robot.ModeTeleop, Ticks: 7, LastTick: time.Now()}
	s := NewDiagnosticService(staticStatus{status}, staticFrames{}, nil, time.Second)

	app := fiber.New()
	app.Get("/api/v1/status", s.GetStatusHandler)
	app.Get("/health", s.HealthHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var out struct {
		Status      string      `json:"status"`
		LoopHealthy bool        `json:"loop_healthy"`
		Links       LinkMetrics `json:"links"`
		Robot       struct {
			RobotID string `json:"robot_id"`
			Mode    string `json:"mode"`
			Ticks   uint64 `json:"ticks"`
		} `json:"robot"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "success", out.Status)
	assert.True(t, out.LoopHealthy)
	assert.Equal(t, "teleop", out.Robot.Mode)
	assert.Equal(t, uint64(7), out.Robot.Ticks)
	assert.Equal(t, uint64(12), out.Links.FramesReceived)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stalled := NewDiagnosticService(staticStatus{}, nil, nil, time.Second)
	app = fiber.New()
	app.Get("/health", stalled.HealthHandler)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
