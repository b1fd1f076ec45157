package landmark

// Body pose landmark indices following MediaPipe convention. Only the
// shoulder/elbow/wrist range (11-16) is consumed by the ROM calculators; the
// remaining indices are carried for completeness.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	LeftShoulder     = 11
	RightShoulder    = 12
	LeftElbow        = 13
	RightElbow       = 14
	LeftPoseWrist    = 15
	RightPoseWrist   = 16
	NumPoseLandmarks = 33
)

// PosePoint is a body pose landmark with a per-point visibility confidence
// in [0,1].
type PosePoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Point returns the positional part of the pose point.
func (p PosePoint) Point() Point3D {
	return Point3D{X: p.X, Y: p.Y, Z: p.Z}
}

// PoseFrame holds up to 33 body pose landmarks for a single frame. Providers
// that track only the upper body may leave trailing points zeroed; consumers
// must check Visible before trusting a point.
type PoseFrame struct {
	Points [NumPoseLandmarks]PosePoint `json:"points"`
}

// Visible reports whether the landmark at index i exists and its visibility
// meets the given threshold.
func (p *PoseFrame) Visible(i int, threshold float64) bool {
	if p == nil || i < 0 || i >= NumPoseLandmarks {
		return false
	}
	return p.Points[i].Visibility >= threshold
}
