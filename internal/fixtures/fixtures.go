// Package fixtures provides synthetic landmark fixtures for tests: hands with
// known joint geometry and poses with controlled elbow visibility.
package fixtures

import (
	"math"

	"github.com/ayusman/hasta/internal/landmark"
)

// Fan directions for the five digits, wrist-relative, pointing "up" in image
// coordinates (y decreases upward).
var digitDirs = [5][2]float64{
	{0.60, -0.55},  // thumb
	{0.25, -0.93},  // index
	{0.00, -1.00},  // middle
	{-0.25, -0.93}, // ring
	{-0.45, -0.85}, // pinky
}

// digitBases maps digit number (0=thumb..4=pinky) to its four landmark
// indices in chain order (MCP-equivalent to tip).
var digitBases = [5][4]int{
	{landmark.ThumbCMC, landmark.ThumbMCP, landmark.ThumbIP, landmark.ThumbTip},
	{landmark.IndexMCP, landmark.IndexPIP, landmark.IndexDIP, landmark.IndexTip},
	{landmark.MiddleMCP, landmark.MiddlePIP, landmark.MiddleDIP, landmark.MiddleTip},
	{landmark.RingMCP, landmark.RingPIP, landmark.RingDIP, landmark.RingTip},
	{landmark.PinkyMCP, landmark.PinkyPIP, landmark.PinkyDIP, landmark.PinkyTip},
}

// chain distances from the wrist along each digit's ray.
var chainSteps = [4]float64{0.25, 0.40, 0.50, 0.60}

// OpenHand returns a hand with every digit fully extended: the four points of
// each digit lie on a straight ray through the wrist, so every joint flexion
// angle is 0 and TAM is 0.
func OpenHand() *landmark.HandFrame {
	hand := &landmark.HandFrame{Handedness: "Right", Score: 0.95}
	wrist := landmark.Point3D{X: 0.5, Y: 0.9}
	hand.Points[landmark.Wrist] = wrist

	for d := 0; d < 5; d++ {
		dir := digitDirs[d]
		for step, idx := range digitBases[d] {
			hand.Points[idx] = landmark.Point3D{
				X: wrist.X + chainSteps[step]*dir[0],
				Y: wrist.Y + chainSteps[step]*dir[1],
			}
		}
	}
	return hand
}

// FistHand returns a hand with all four fingers curled toward the palm,
// producing large MCP/PIP/DIP flexion angles. The thumb stays extended.
func FistHand() *landmark.HandFrame {
	hand := OpenHand()
	wrist := hand.Points[landmark.Wrist]

	for d := 1; d < 5; d++ {
		dir := digitDirs[d]
		mcp := landmark.Point3D{
			X: wrist.X + chainSteps[0]*dir[0],
			Y: wrist.Y + chainSteps[0]*dir[1],
		}
		// Fold the finger back over the palm: PIP just above the knuckle,
		// DIP and tip descending toward the wrist.
		hand.Points[digitBases[d][0]] = mcp
		hand.Points[digitBases[d][1]] = landmark.Point3D{X: mcp.X, Y: mcp.Y - 0.04, Z: -0.05}
		hand.Points[digitBases[d][2]] = landmark.Point3D{X: mcp.X - 0.03*sign(dir[0]), Y: mcp.Y + 0.02, Z: -0.04}
		hand.Points[digitBases[d][3]] = landmark.Point3D{X: mcp.X - 0.05*sign(dir[0]), Y: mcp.Y + 0.05, Z: -0.02}
	}
	return hand
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// OppositionHand returns an open hand with the thumb tip moved onto the
// Kapandji target for the given 1-based level, leaving all other landmarks in
// the open-hand spread so no higher level passes.
func OppositionHand(level int) *landmark.HandFrame {
	hand := OpenHand()
	p := hand.Points
	var target landmark.Point3D
	switch level {
	case 1:
		target = landmark.Midpoint(p[landmark.IndexMCP], p[landmark.IndexPIP])
	case 2:
		target = landmark.Midpoint(p[landmark.IndexPIP], p[landmark.IndexDIP])
	case 3:
		target = p[landmark.IndexTip]
	case 4:
		target = p[landmark.MiddleTip]
	case 5:
		target = p[landmark.RingTip]
	case 6:
		target = p[landmark.PinkyTip]
	case 7:
		target = p[landmark.PinkyDIP]
	case 8:
		target = p[landmark.PinkyPIP]
	case 9:
		target = p[landmark.PinkyMCP]
	default:
		target = landmark.Midpoint(p[landmark.PinkyMCP], p[landmark.Wrist])
	}
	hand.Points[landmark.ThumbTip] = target
	return hand
}

// ArmFixture builds a matched hand/pose pair for wrist-angle tests: the
// forearm runs along +x and the hand vector is rotated bendDeg degrees in the
// image plane (positive bends toward +y, the palm side of a right hand).
// All pose landmarks on the chosen side carry the given visibility; the
// opposite side is left near-invisible.
func ArmFixture(isLeft bool, bendDeg, visibility float64) (*landmark.HandFrame, *landmark.PoseFrame) {
	elbow := landmark.Point3D{X: 0.3, Y: 0.5}
	wrist := landmark.Point3D{X: 0.6, Y: 0.5}

	rad := bendDeg * math.Pi / 180
	handDir := [2]float64{math.Cos(rad), math.Sin(rad)}
	middleMCP := landmark.Point3D{
		X: wrist.X + 0.15*handDir[0],
		Y: wrist.Y + 0.15*handDir[1],
	}

	hand := &landmark.HandFrame{Handedness: "Right", Score: 0.9}
	hand.Points[landmark.Wrist] = wrist
	hand.Points[landmark.MiddleMCP] = middleMCP
	// Stretch the middle finger along the hand direction so the frame stays
	// geometrically plausible for the finger calculators.
	hand.Points[landmark.MiddlePIP] = landmark.Point3D{X: wrist.X + 0.25*handDir[0], Y: wrist.Y + 0.25*handDir[1]}
	hand.Points[landmark.MiddleDIP] = landmark.Point3D{X: wrist.X + 0.32*handDir[0], Y: wrist.Y + 0.32*handDir[1]}
	hand.Points[landmark.MiddleTip] = landmark.Point3D{X: wrist.X + 0.38*handDir[0], Y: wrist.Y + 0.38*handDir[1]}

	pose := &landmark.PoseFrame{}
	shoulderIdx, elbowIdx, wristIdx := landmark.RightShoulder, landmark.RightElbow, landmark.RightPoseWrist
	if isLeft {
		shoulderIdx, elbowIdx, wristIdx = landmark.LeftShoulder, landmark.LeftElbow, landmark.LeftPoseWrist
	}
	pose.Points[shoulderIdx] = landmark.PosePoint{X: 0.1, Y: 0.4, Visibility: visibility}
	pose.Points[elbowIdx] = landmark.PosePoint{X: elbow.X, Y: elbow.Y, Visibility: visibility}
	pose.Points[wristIdx] = landmark.PosePoint{X: wrist.X, Y: wrist.Y, Visibility: visibility}

	return hand, pose
}

// LowVisibilityPose returns a pose whose elbow landmarks are all below the
// usable visibility threshold.
func LowVisibilityPose() *landmark.PoseFrame {
	pose := &landmark.PoseFrame{}
	pose.Points[landmark.LeftElbow] = landmark.PosePoint{X: 0.3, Y: 0.5, Visibility: 0.1}
	pose.Points[landmark.RightElbow] = landmark.PosePoint{X: 0.7, Y: 0.5, Visibility: 0.1}
	return pose
}
