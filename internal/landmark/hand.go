// Package landmark provides typed containers for the per-frame hand and body
// landmarks produced by the tracking provider.
package landmark

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist            = 0
	ThumbCMC         = 1
	ThumbMCP         = 2
	ThumbIP          = 3
	ThumbTip         = 4
	IndexMCP         = 5
	IndexPIP         = 6
	IndexDIP         = 7
	IndexTip         = 8
	MiddleMCP        = 9
	MiddlePIP        = 10
	MiddleDIP        = 11
	MiddleTip        = 12
	RingMCP          = 13
	RingPIP          = 14
	RingDIP          = 15
	RingTip          = 16
	PinkyMCP         = 17
	PinkyPIP         = 18
	PinkyDIP         = 19
	PinkyTip         = 20
	NumHandLandmarks = 21
)

// Point3D represents a 3D point with coordinates normalized to the frame
// (x, y in [0,1], z as relative depth).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandFrame holds the 21 hand landmarks detected for a single frame.
// Index 0 is always the wrist anchor.
type HandFrame struct {
	Points     [NumHandLandmarks]Point3D `json:"points"`
	Handedness string                    `json:"handedness"` // raw provider label, "Left" or "Right"
	Score      float64                   `json:"score"`
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point3D) Point3D {
	return Point3D{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}

// Normalize normalizes the hand landmarks relative to wrist position and hand
// size: wrist at origin, scaled so the wrist-to-middle-MCP distance is 1.0.
// Returns a new HandFrame. Rendering consumers use this for size-invariant
// skeleton display.
func (h *HandFrame) Normalize() *HandFrame {
	if h == nil {
		return nil
	}

	normalized := &HandFrame{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	wrist := h.Points[Wrist]
	for i := 0; i < NumHandLandmarks; i++ {
		normalized.Points[i] = Point3D{
			X: h.Points[i].X - wrist.X,
			Y: h.Points[i].Y - wrist.Y,
			Z: h.Points[i].Z - wrist.Z,
		}
	}

	scale := Distance(Point3D{}, normalized.Points[MiddleMCP])
	if scale < 1e-10 {
		return normalized
	}

	for i := 0; i < NumHandLandmarks; i++ {
		normalized.Points[i].X /= scale
		normalized.Points[i].Y /= scale
		normalized.Points[i].Z /= scale
	}

	return normalized
}
