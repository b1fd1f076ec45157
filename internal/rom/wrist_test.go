package rom

import (
	"math"
	"testing"

	"github.com/ayusman/hasta/internal/landmark"
)

// armFixture builds a hand+pose pair for the given side. The forearm runs
// horizontally across the image and the hand vector leaves the wrist at
// bendDeg below the forearm line (positive bendDeg bends toward the bottom of
// the image). Both arm landmarks carry the given visibility.
func armFixture(side Hand, bendDeg, visibility float64) (*landmark.HandFrame, *landmark.PoseFrame) {
	elbow := landmark.Point3D{X: 0.3, Y: 0.5}
	wrist := landmark.Point3D{X: 0.6, Y: 0.5}

	rad := bendDeg * math.Pi / 180
	mcp := landmark.Point3D{
		X: wrist.X + 0.15*math.Cos(rad),
		Y: wrist.Y + 0.15*math.Sin(rad),
	}

	hand := &landmark.HandFrame{Handedness: string(side), Score: 0.9}
	hand.Points[landmark.MiddleMCP] = mcp

	pose := &landmark.PoseFrame{}
	elbowIdx, wristIdx := landmark.RightElbow, landmark.RightPoseWrist
	if side == HandLeft {
		elbowIdx, wristIdx = landmark.LeftElbow, landmark.LeftPoseWrist
	}
	pose.Points[elbowIdx] = landmark.PosePoint{X: elbow.X, Y: elbow.Y, Visibility: visibility}
	pose.Points[wristIdx] = landmark.PosePoint{X: wrist.X, Y: wrist.Y, Visibility: visibility}

	return hand, pose
}

func TestWristFlexionExtension_StraightWrist(t *testing.T) {
	hand, pose := armFixture(HandRight, 0, 0.9)
	ctx := ContextFor(HandRight, true)

	angles := WristFlexionExtension(hand, pose, ctx)

	if !angles.ElbowDetected {
		t.Fatal("expected elbow to be detected")
	}
	if !almostEqual(angles.ForearmToHandAngle, 180) {
		t.Errorf("expected 180 forearm-to-hand angle for a straight wrist, got %f", angles.ForearmToHandAngle)
	}
	if angles.Flexion != 0 || angles.Extension != 0 {
		t.Errorf("expected no bend, got flexion=%f extension=%f", angles.Flexion, angles.Extension)
	}
	if !almostEqual(angles.Confidence, 0.9) {
		t.Errorf("expected confidence 0.9, got %f", angles.Confidence)
	}
}

func TestWristFlexionExtension_RightHandBends(t *testing.T) {
	ctx := ContextFor(HandRight, true)

	t.Run("palm-side bend reads as flexion", func(t *testing.T) {
		hand, pose := armFixture(HandRight, 30, 0.9)

		angles := WristFlexionExtension(hand, pose, ctx)

		if !almostEqual(angles.Flexion, 30) {
			t.Errorf("expected 30 flexion, got %f", angles.Flexion)
		}
		if angles.Extension != 0 {
			t.Errorf("expected zero extension, got %f", angles.Extension)
		}
	})

	t.Run("opposite bend reads as extension", func(t *testing.T) {
		hand, pose := armFixture(HandRight, -30, 0.9)

		angles := WristFlexionExtension(hand, pose, ctx)

		if !almostEqual(angles.Extension, 30) {
			t.Errorf("expected 30 extension, got %f", angles.Extension)
		}
		if angles.Flexion != 0 {
			t.Errorf("expected zero flexion, got %f", angles.Flexion)
		}
	})
}

func TestWristFlexionExtension_LeftHandMirrors(t *testing.T) {
	// The same image-space bend maps to the opposite clinical direction on
	// the left hand
	ctx := ContextFor(HandLeft, true)
	hand, pose := armFixture(HandLeft, 30, 0.9)

	angles := WristFlexionExtension(hand, pose, ctx)

	if !almostEqual(angles.Extension, 30) {
		t.Errorf("expected 30 extension on the left hand, got %f", angles.Extension)
	}
	if angles.Flexion != 0 {
		t.Errorf("expected zero flexion, got %f", angles.Flexion)
	}
	if angles.HandType != HandLeft {
		t.Errorf("expected LEFT hand type, got %s", angles.HandType)
	}
}

func TestWristFlexionExtension_MutualExclusivity(t *testing.T) {
	// Exactly one of flexion/extension is non-zero on every bent frame
	ctx := ContextFor(HandRight, true)

	for _, bend := range []float64{-60, -15, 15, 45, 80} {
		hand, pose := armFixture(HandRight, bend, 0.9)
		angles := WristFlexionExtension(hand, pose, ctx)

		if angles.Flexion != 0 && angles.Extension != 0 {
			t.Errorf("bend %f: both flexion (%f) and extension (%f) set",
				bend, angles.Flexion, angles.Extension)
		}
		if angles.Flexion == 0 && angles.Extension == 0 {
			t.Errorf("bend %f: neither flexion nor extension set", bend)
		}
	}
}

func TestWristFlexionExtension_LowVisibilityNeutral(t *testing.T) {
	// An untracked arm degrades to the neutral reading instead of failing
	ctx := ContextFor(HandRight, true)
	hand, pose := armFixture(HandRight, 40, 0.3)

	angles := WristFlexionExtension(hand, pose, ctx)

	if angles.ElbowDetected {
		t.Error("expected ElbowDetected false below the visibility threshold")
	}
	if !almostEqual(angles.ForearmToHandAngle, 90) {
		t.Errorf("expected neutral 90 reading, got %f", angles.ForearmToHandAngle)
	}
	if angles.Flexion != 0 || angles.Extension != 0 {
		t.Errorf("expected zero angles, got flexion=%f extension=%f", angles.Flexion, angles.Extension)
	}
	if angles.Confidence >= UsableConfidence {
		t.Errorf("expected confidence below %f, got %f", UsableConfidence, angles.Confidence)
	}
}

func TestWristFlexionExtension_OutOfRangeLockIndices(t *testing.T) {
	// Lock metadata with indices the pose frame does not have degrades to the
	// neutral reading instead of panicking
	hand, pose := armFixture(HandRight, 40, 0.9)

	for _, ctx := range []SessionContext{
		{HandType: HandRight, ElbowIndex: -1, WristIndex: landmark.RightPoseWrist},
		{HandType: HandRight, ElbowIndex: landmark.RightElbow, WristIndex: landmark.NumPoseLandmarks},
	} {
		angles := WristFlexionExtension(hand, pose, ctx)

		if angles.ElbowDetected {
			t.Errorf("ctx %+v: expected ElbowDetected false", ctx)
		}
		if !almostEqual(angles.ForearmToHandAngle, 90) {
			t.Errorf("ctx %+v: expected neutral 90 reading, got %f", ctx, angles.ForearmToHandAngle)
		}
		if angles.Confidence != 0 {
			t.Errorf("ctx %+v: expected zero confidence, got %f", ctx, angles.Confidence)
		}
	}
}

func TestWristFlexionExtension_MissingPose(t *testing.T) {
	ctx := ContextFor(HandRight, false)
	hand, _ := armFixture(HandRight, 20, 0.9)

	angles := WristFlexionExtension(hand, nil, ctx)

	if angles.ElbowDetected {
		t.Error("expected ElbowDetected false without a pose frame")
	}
	if angles.Confidence != 0 {
		t.Errorf("expected zero confidence without a pose frame, got %f", angles.Confidence)
	}
}
