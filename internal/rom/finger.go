package rom

import "github.com/ayusman/hasta/internal/landmark"

// Digit identifies one of the four fingers measured for joint flexion. The
// thumb is assessed separately via the Kapandji opposition score.
type Digit string

const (
	DigitIndex  Digit = "index"
	DigitMiddle Digit = "middle"
	DigitRing   Digit = "ring"
	DigitPinky  Digit = "pinky"
)

// Digits lists the measurable digits in anatomical order.
var Digits = []Digit{DigitIndex, DigitMiddle, DigitRing, DigitPinky}

// JointAngles holds the flexion angles for one digit in degrees. TAM (total
// active motion) is the sum of the three joint angles.
type JointAngles struct {
	MCP            float64 `json:"mcp"`
	PIP            float64 `json:"pip"`
	DIP            float64 `json:"dip"`
	TotalActiveROM float64 `json:"totalActiveRom"`
}

// jointTriple names the three landmark indices whose middle point is the
// joint vertex.
type jointTriple struct {
	a, vertex, b int
}

// digitJoints maps each digit to its MCP/PIP/DIP landmark triples. The MCP
// angle is anchored at the wrist so full finger extension reads as a straight
// 180-degree chain.
var digitJoints = map[Digit][3]jointTriple{
	DigitIndex: {
		{landmark.Wrist, landmark.IndexMCP, landmark.IndexPIP},
		{landmark.IndexMCP, landmark.IndexPIP, landmark.IndexDIP},
		{landmark.IndexPIP, landmark.IndexDIP, landmark.IndexTip},
	},
	DigitMiddle: {
		{landmark.Wrist, landmark.MiddleMCP, landmark.MiddlePIP},
		{landmark.MiddleMCP, landmark.MiddlePIP, landmark.MiddleDIP},
		{landmark.MiddlePIP, landmark.MiddleDIP, landmark.MiddleTip},
	},
	DigitRing: {
		{landmark.Wrist, landmark.RingMCP, landmark.RingPIP},
		{landmark.RingMCP, landmark.RingPIP, landmark.RingDIP},
		{landmark.RingPIP, landmark.RingDIP, landmark.RingTip},
	},
	DigitPinky: {
		{landmark.Wrist, landmark.PinkyMCP, landmark.PinkyPIP},
		{landmark.PinkyMCP, landmark.PinkyPIP, landmark.PinkyDIP},
		{landmark.PinkyPIP, landmark.PinkyDIP, landmark.PinkyTip},
	},
}

// FingerROM computes the MCP/PIP/DIP flexion angles and total active motion
// for the given digit. Unknown digits fall back to the index finger.
func FingerROM(hand *landmark.HandFrame, digit Digit) JointAngles {
	if hand == nil {
		return JointAngles{}
	}

	triples, ok := digitJoints[digit]
	if !ok {
		triples = digitJoints[DigitIndex]
	}

	var angles JointAngles
	angles.MCP = FlexionAngle(hand.Points[triples[0].a], hand.Points[triples[0].vertex], hand.Points[triples[0].b])
	angles.PIP = FlexionAngle(hand.Points[triples[1].a], hand.Points[triples[1].vertex], hand.Points[triples[1].b])
	angles.DIP = FlexionAngle(hand.Points[triples[2].a], hand.Points[triples[2].vertex], hand.Points[triples[2].b])
	angles.TotalActiveROM = angles.MCP + angles.PIP + angles.DIP
	return angles
}
