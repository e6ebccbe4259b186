package vision

import (
	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/geometry"
)

// TargetRegistry is the immutable, ordered set of known target field poses
// indexed by target identity.
type TargetRegistry struct {
	poses []geometry.Pose3d
}

// NewTargetRegistry creates a registry where poses[i] belongs to target i.
func NewTargetRegistry(poses ...geometry.Pose3d) *TargetRegistry {
	return &TargetRegistry{poses: append([]geometry.Pose3d(nil), poses...)}
}

// RegistryFromConfig builds the registry from the configured target poses.
func RegistryFromConfig(cfg config.VisionConfig) *TargetRegistry {
	poses := make([]geometry.Pose3d, len(cfg.TargetPoses))
	for i, p := range cfg.TargetPoses {
		poses[i] = p.Pose()
	}
	return &TargetRegistry{poses: poses}
}

// Len returns the number of targets.
func (r *TargetRegistry) Len() int { return len(r.poses) }

// Lookup returns the pose of target id. ok is false for ids outside
// [0, Len()).
func (r *TargetRegistry) Lookup(id int) (pose geometry.Pose3d, ok bool) {
	if id < 0 || id >= len(r.poses) {
		return geometry.Pose3d{}, false
	}
	return r.poses[id], true
}
