package rom

import "github.com/ayusman/hasta/internal/landmark"

// WristDeviationAngle computes the signed radial/ulnar deviation of the hand
// relative to the forearm line for the session's locked side. Negative values
// map to radial deviation (thumb side), positive to ulnar (little-finger
// side); the left hand mirrors the sign so the anatomical meaning is the same
// for both sides. Live and replay paths both call this function, so the
// convention cannot diverge between them.
//
// Frames with an untracked elbow or wrist degrade to a zero deviation with
// low confidence.
func WristDeviationAngle(hand *landmark.HandFrame, pose *landmark.PoseFrame, ctx SessionContext) WristDeviation {
	result := WristDeviation{HandType: ctx.HandType}

	elbow, wrist, handRef, confidence, ok := armVectors(hand, pose, ctx)
	result.Confidence = confidence
	if !ok {
		return result
	}

	// Signed angle between the extended forearm direction and the hand vector
	// in the image plane.
	signed := SignedAngle2D(wrist.X-elbow.X, wrist.Y-elbow.Y, handRef.X-wrist.X, handRef.Y-wrist.Y)
	if ctx.HandType == HandLeft {
		signed = -signed
	}

	result.DeviationAngle = signed
	if signed < 0 {
		result.Radial = -signed
	} else {
		result.Ulnar = signed
	}
	return result
}
