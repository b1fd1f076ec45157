package rom

import "github.com/ayusman/hasta/internal/landmark"

// Hand identifies the side a frame sequence belongs to.
type Hand string

const (
	HandUnknown Hand = ""
	HandLeft    Hand = "LEFT"
	HandRight   Hand = "RIGHT"
)

// ElbowVisibilityThreshold is the minimum pose-landmark visibility for an
// elbow to participate in laterality resolution and wrist angle confidence.
const ElbowVisibilityThreshold = 0.5

// SessionContext is the frozen laterality decision for one recording session:
// the resolved side plus the pose-landmark indices derived from it. It is
// written once when the resolver locks and copied unchanged into every
// recorded frame, so replay reads the decision instead of re-deriving it.
type SessionContext struct {
	HandType      Hand `json:"sessionHandType"`
	ElbowIndex    int  `json:"sessionElbowIndex"`
	WristIndex    int  `json:"sessionWristIndex"`
	ShoulderIndex int  `json:"sessionShoulderIndex"`
	ElbowLocked   bool `json:"sessionElbowLocked"`
}

// ContextFor derives the pose-landmark indices for a resolved side. Unknown
// sides default to RIGHT so downstream calculators always have a concrete
// side to work with.
func ContextFor(hand Hand, elbowLocked bool) SessionContext {
	if hand == HandLeft {
		return SessionContext{
			HandType:      HandLeft,
			ElbowIndex:    landmark.LeftElbow,
			WristIndex:    landmark.LeftPoseWrist,
			ShoulderIndex: landmark.LeftShoulder,
			ElbowLocked:   elbowLocked,
		}
	}
	return SessionContext{
		HandType:      HandRight,
		ElbowIndex:    landmark.RightElbow,
		WristIndex:    landmark.RightPoseWrist,
		ShoulderIndex: landmark.RightShoulder,
		ElbowLocked:   elbowLocked,
	}
}

// Resolver decides which hand a recording session belongs to and freezes the
// decision. Raw per-frame detection flips sides under tracking noise; the
// latch makes the first confident decision authoritative for the whole
// session. A Resolver is scoped to a single session and must be Reset (or
// newly created) when a new recording starts.
type Resolver struct {
	// AssessmentHand is optional assessment-level metadata consulted when
	// per-frame detection is inconclusive.
	AssessmentHand Hand

	locked bool
	ctx    SessionContext
}

// NewResolver creates an unlocked Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Locked reports whether the laterality decision has been made.
func (r *Resolver) Locked() bool {
	return r.locked
}

// Context returns the locked session context. Before the lock fires it
// returns the default RIGHT context with ElbowLocked false.
func (r *Resolver) Context() SessionContext {
	if r.locked {
		return r.ctx
	}
	return ContextFor(HandRight, false)
}

// Reset returns the resolver to UNLOCKED. Called at the start of every new
// recording session.
func (r *Resolver) Reset() {
	r.locked = false
	r.ctx = SessionContext{}
}

// Resolve feeds one frame to the resolver and returns the session context to
// use for it. The first frame on which a side can be determined with
// acceptable confidence locks the resolver; every later call returns the
// locked context regardless of what the frame suggests.
//
// Fallback order:
//  1. both elbows visible above threshold: the side with higher visibility
//  2. per-frame detection: the elbow nearer the hand's wrist landmark
//  3. assessment-level metadata
//  4. default RIGHT
func (r *Resolver) Resolve(hand *landmark.HandFrame, pose *landmark.PoseFrame) SessionContext {
	if r.locked {
		return r.ctx
	}

	if side, elbowSeen, ok := r.detect(hand, pose); ok {
		r.ctx = ContextFor(side, elbowSeen)
		r.locked = true
	}
	return r.Context()
}

// detect runs the fallback chain once. ok is false only when nothing in the
// chain can produce a decision for this frame (no pose, no hand, no
// metadata), in which case the resolver stays unlocked and the caller gets
// the default RIGHT context for the frame.
func (r *Resolver) detect(hand *landmark.HandFrame, pose *landmark.PoseFrame) (side Hand, elbowSeen bool, ok bool) {
	if pose != nil {
		leftVis := pose.Points[landmark.LeftElbow].Visibility
		rightVis := pose.Points[landmark.RightElbow].Visibility

		// Step 1: both elbows confidently visible.
		if leftVis >= ElbowVisibilityThreshold && rightVis >= ElbowVisibilityThreshold {
			if leftVis > rightVis {
				return HandLeft, true, true
			}
			return HandRight, true, true
		}

		// Step 2: hand wrist proximity to whichever elbows are usable.
		if hand != nil {
			if side, ok := nearestElbow(hand, pose); ok {
				return side, true, true
			}
		}
	}

	// Step 3: assessment metadata.
	if r.AssessmentHand == HandLeft || r.AssessmentHand == HandRight {
		return r.AssessmentHand, false, true
	}

	// Step 4: nothing usable this frame; stay unlocked. The frame itself is
	// still processed with the RIGHT default.
	return HandUnknown, false, false
}

// elbowDetectFloor is the minimal visibility for an elbow to participate in
// the step-2 proximity detector. Deliberately lower than
// ElbowVisibilityThreshold: a marginally tracked elbow is still a usable
// proximity hint even when it is not trusted for step 1.
const elbowDetectFloor = 0.2

// nearestElbow picks the side whose elbow is closer to the hand's wrist
// landmark. Elbows below the detection floor are excluded; the result is
// unknown when neither elbow is usable.
func nearestElbow(hand *landmark.HandFrame, pose *landmark.PoseFrame) (Hand, bool) {
	wrist := hand.Points[landmark.Wrist]

	leftOK := pose.Visible(landmark.LeftElbow, elbowDetectFloor)
	rightOK := pose.Visible(landmark.RightElbow, elbowDetectFloor)

	switch {
	case leftOK && rightOK:
		dl := landmark.Distance(wrist, pose.Points[landmark.LeftElbow].Point())
		dr := landmark.Distance(wrist, pose.Points[landmark.RightElbow].Point())
		if dl < dr {
			return HandLeft, true
		}
		return HandRight, true
	case leftOK:
		return HandLeft, true
	case rightOK:
		return HandRight, true
	default:
		return HandUnknown, false
	}
}
