package diagnostic

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/swerve/pkg/robot"
	"github.com/open-teleop/swerve/pkg/telemetry"
)

// StatusProvider returns the robot snapshot from the last control tick
type StatusProvider interface {
	Status() robot.Status
}

// FrameStats reports camera link counters
type FrameStats interface {
	Stats() (received, dropped uint64)
}

// TelemetryStats reports telemetry publishing counters
type TelemetryStats interface {
	Metrics() telemetry.PoolMetrics
}

// LinkMetrics represents the health of the controller's outbound and inbound links
type LinkMetrics struct {
	FramesReceived     uint64 `json:"frames_received"`
	FramesDropped      uint64 `json:"frames_dropped"`
	TelemetryPublished int64  `json:"telemetry_published"`
	TelemetryErrors    int64  `json:"telemetry_errors"`
	TelemetryDropped   int64  `json:"telemetry_dropped"`
}

// DiagnosticService handles robot diagnostics
type DiagnosticService struct {
	robot     StatusProvider
	frames    FrameStats
	telemetry TelemetryStats
	started   time.Time
	// tickPeriod is the expected control period; a status older than a few
	// periods means the loop has stalled.
	tickPeriod time.Duration
}

// NewDiagnosticService creates a new diagnostic service instance. frames and
// telemetryStats may be nil.
func NewDiagnosticService(robot StatusProvider, frames FrameStats, telemetryStats TelemetryStats, tickPeriod time.Duration) *DiagnosticService {
	return &DiagnosticService{
		robot:      robot,
		frames:     frames,
		telemetry:  telemetryStats,
		started:    time.Now(),
		tickPeriod: tickPeriod,
	}
}

// GetLinkMetrics returns the current link counters
func (s *DiagnosticService) GetLinkMetrics() LinkMetrics {
	var m LinkMetrics
	if s.frames != nil {
		m.FramesReceived, m.FramesDropped = s.frames.Stats()
	}
	if s.telemetry != nil {
		pm := s.telemetry.Metrics()
		m.TelemetryPublished = pm.ProcessedCount
		m.TelemetryErrors = pm.ErrorCount
		m.TelemetryDropped = pm.DroppedCount
	}
	return m
}

// LoopHealthy reports whether the control loop has ticked recently
func (s *DiagnosticService) LoopHealthy(now time.Time) bool {
	last := s.robot.Status().LastTick
	if last.IsZero() {
		return false
	}
	return now.Sub(last) <= 5*s.tickPeriod
}

// GetStatusHandler handles API requests for robot status
func (s *DiagnosticService) GetStatusHandler(c *fiber.Ctx) error {
	now := time.Now()
	return c.JSON(fiber.Map{
		"status":       "success",
		"uptime_s":     now.Sub(s.started).Seconds(),
		"loop_healthy": s.LoopHealthy(now),
		"robot":        s.robot.Status(),
		"links":        s.GetLinkMetrics(),
	})
}

// HealthHandler reports 503 when the control loop has stalled
func (s *DiagnosticService) HealthHandler(c *fiber.Ctx) error {
	if !s.LoopHealthy(time.Now()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "stalled"})
	}
	return c.JSON(fiber.Map{"status": "healthy"})
}
