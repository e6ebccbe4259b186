package vision

import (
	"sync"

	"github.com/open-teleop/swerve/pkg/geometry"
)

// Target is the best detection in a frame. Angles are in degrees.
type Target struct {
	Yaw            float64              `json:"yaw"`
	Pitch          float64              `json:"pitch"`
	FiducialID     int                  `json:"fiducial_id"`
	PoseAmbiguity  float64              `json:"pose_ambiguity"`
	CameraToTarget geometry.Transform3d `json:"-"`
}

// PipelineResult is one processed camera frame.
type PipelineResult struct {
	// Sequence increases by one for each frame a camera delivers.
	Sequence      uint64  `json:"sequence"`
	HasTargets    bool    `json:"has_targets"`
	LatencyMillis float64 `json:"latency_ms"`
	Best          Target  `json:"best"`
}

// Camera supplies the most recent pipeline result. ok is false until the
// first frame arrives.
type Camera interface {
	Latest() (result PipelineResult, ok bool)
}

// LatestFrameCamera holds the newest frame delivered by a transport
// goroutine for the control loop to pick up.
type LatestFrameCamera struct {
	name string

	mu     sync.Mutex
	result PipelineResult
	seq    uint64
}

var _ Camera = (*LatestFrameCamera)(nil)

// NewLatestFrameCamera creates an empty camera mailbox.
func NewLatestFrameCamera(name string) *LatestFrameCamera {
	return &LatestFrameCamera{name: name}
}

// Name returns the camera name.
func (c *LatestFrameCamera) Name() string { return c.name }

// Submit stores r as the newest frame, replacing any unread frame, and
// assigns its sequence number.
func (c *LatestFrameCamera) Submit(r PipelineResult) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	r.Sequence = c.seq
	c.result = r
	return c.seq
}

func (c *LatestFrameCamera) Latest() (PipelineResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.seq > 0
}
