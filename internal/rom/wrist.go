package rom

import "github.com/ayusman/hasta/internal/landmark"

// Neutral defaults for frames where the arm is not usably tracked.
const (
	neutralForearmAngle = 90.0
	// UsableConfidence is the cutoff below which a wrist reading should be
	// treated as unusable by consumers.
	UsableConfidence = 0.5
)

// WristAngles is the elbow-referenced wrist flexion/extension result for one
// frame. Exactly one of Flexion and Extension is non-zero. Angles are in
// degrees.
type WristAngles struct {
	ForearmToHandAngle float64 `json:"forearmToHandAngle"`
	Flexion            float64 `json:"flexion"`
	Extension          float64 `json:"extension"`
	HandType           Hand    `json:"handType"`
	Confidence         float64 `json:"confidence"`
	ElbowDetected      bool    `json:"elbowDetected"`
}

// WristDeviation is the radial/ulnar deviation result for one frame.
// DeviationAngle is signed: negative maps to radial, positive to ulnar, with
// the convention mirrored for the left hand. Radial and Ulnar carry the
// unsigned split for display.
type WristDeviation struct {
	DeviationAngle float64 `json:"deviationAngle"`
	Radial         float64 `json:"radial"`
	Ulnar          float64 `json:"ulnar"`
	HandType       Hand    `json:"handType"`
	Confidence     float64 `json:"confidence"`
}

// armVectors extracts the forearm (elbow->wrist) and hand (wrist->middle-MCP)
// vectors for the session's locked side. ok is false when the elbow or wrist
// pose landmarks are below the visibility threshold.
func armVectors(hand *landmark.HandFrame, pose *landmark.PoseFrame, ctx SessionContext) (elbow, wrist, handRef landmark.Point3D, confidence float64, ok bool) {
	if hand == nil || pose == nil {
		return elbow, wrist, handRef, 0, false
	}
	// Lock metadata from a foreign source may carry indices the pose frame
	// does not have; treat them like an untracked arm.
	if ctx.ElbowIndex < 0 || ctx.ElbowIndex >= landmark.NumPoseLandmarks ||
		ctx.WristIndex < 0 || ctx.WristIndex >= landmark.NumPoseLandmarks {
		return elbow, wrist, handRef, 0, false
	}

	elbowVis := pose.Points[ctx.ElbowIndex].Visibility
	wristVis := pose.Points[ctx.WristIndex].Visibility
	confidence = (elbowVis + wristVis) / 2

	if elbowVis < ElbowVisibilityThreshold || wristVis < ElbowVisibilityThreshold {
		return elbow, wrist, handRef, confidence, false
	}

	elbow = pose.Points[ctx.ElbowIndex].Point()
	wrist = pose.Points[ctx.WristIndex].Point()
	handRef = hand.Points[landmark.MiddleMCP]
	return elbow, wrist, handRef, confidence, true
}

// bendDirection returns the sign of the wrist bend in the image plane:
// positive toward the palm side of the given hand, negative toward the back
// of the hand. The left hand mirrors the right.
func bendDirection(elbow, wrist, handRef landmark.Point3D, handType Hand) float64 {
	signed := SignedAngle2D(wrist.X-elbow.X, wrist.Y-elbow.Y, handRef.X-wrist.X, handRef.Y-wrist.Y)
	if handType == HandLeft {
		signed = -signed
	}
	if signed < 0 {
		return -1
	}
	return 1
}

// WristFlexionExtension computes the forearm-to-hand angle and splits it into
// flexion (bend toward the palm) or extension (bend toward the back of the
// hand) for the session's locked side. Frames with an untracked elbow or
// wrist degrade to a neutral 90-degree reading with low confidence instead of
// failing.
func WristFlexionExtension(hand *landmark.HandFrame, pose *landmark.PoseFrame, ctx SessionContext) WristAngles {
	result := WristAngles{
		ForearmToHandAngle: neutralForearmAngle,
		HandType:           ctx.HandType,
	}

	elbow, wrist, handRef, confidence, ok := armVectors(hand, pose, ctx)
	result.Confidence = confidence
	if !ok {
		return result
	}

	result.ElbowDetected = true
	result.ForearmToHandAngle = AngleBetween(elbow, wrist, handRef)

	// Deviation of the hand from the straight forearm line. A straight wrist
	// reads 180 between the two vectors, so the bend is the flexion reading.
	bend := FlexionAngle(elbow, wrist, handRef)
	if bend == 0 {
		return result
	}

	if bendDirection(elbow, wrist, handRef, ctx.HandType) > 0 {
		result.Flexion = bend
	} else {
		result.Extension = bend
	}
	return result
}
