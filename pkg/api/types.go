package api

// --- Data Structures for WebSocket Messages ---

// Vector3 defines a standard 3D vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TwistMsg is a velocity command in the shape of geometry_msgs/Twist, with
// stick axes normalized to [-1, 1]. Linear.X drives forward, Linear.Y
// strafes left and Angular.Z turns counter-clockwise.
type TwistMsg struct {
	Linear       Vector3 `json:"linear"`
	Angular      Vector3 `json:"angular"`
	RobotCentric bool    `json:"robot_centric,omitempty"`
}

// ModeRequest is the body of PUT /api/v1/mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}
