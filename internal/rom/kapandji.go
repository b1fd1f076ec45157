package rom

import "github.com/ayusman/hasta/internal/landmark"

// KapandjiLevels is the number of anatomical targets in the opposition scale.
const KapandjiLevels = 10

// KapandjiThreshold is the maximum thumb-tip-to-target distance, in
// normalized landmark space, for a level to count as reached.
const KapandjiThreshold = 0.07

// KapandjiScore is the result of one thumb-opposition assessment: the highest
// level reached (1-10, 0 when none) and per-level flags for display.
type KapandjiScore struct {
	MaxScore int                  `json:"maxScore"`
	Levels   [KapandjiLevels]bool `json:"levels"`
}

// kapandjiTarget returns the target point for a 1-based opposition level.
// Levels climb the index finger, cross the fingertips and descend the little
// finger toward the distal palmar crease. Crease targets without a landmark
// of their own are approximated by segment midpoints.
func kapandjiTarget(hand *landmark.HandFrame, level int) landmark.Point3D {
	p := hand.Points
	switch level {
	case 1: // lateral side of the index proximal phalanx
		return landmark.Midpoint(p[landmark.IndexMCP], p[landmark.IndexPIP])
	case 2: // index middle phalanx
		return landmark.Midpoint(p[landmark.IndexPIP], p[landmark.IndexDIP])
	case 3:
		return p[landmark.IndexTip]
	case 4:
		return p[landmark.MiddleTip]
	case 5:
		return p[landmark.RingTip]
	case 6:
		return p[landmark.PinkyTip]
	case 7:
		return p[landmark.PinkyDIP]
	case 8:
		return p[landmark.PinkyPIP]
	case 9:
		return p[landmark.PinkyMCP]
	default: // 10: distal palmar crease, approximated between pinky MCP and wrist
		return landmark.Midpoint(p[landmark.PinkyMCP], p[landmark.Wrist])
	}
}

// Kapandji evaluates the 10 thumb-opposition proximity tests in ascending
// order. MaxScore is the highest level whose test passes on this frame.
func Kapandji(hand *landmark.HandFrame) KapandjiScore {
	var score KapandjiScore
	if hand == nil {
		return score
	}

	thumbTip := hand.Points[landmark.ThumbTip]
	for level := 1; level <= KapandjiLevels; level++ {
		if landmark.Distance(thumbTip, kapandjiTarget(hand, level)) <= KapandjiThreshold {
			score.Levels[level-1] = true
			score.MaxScore = level
		}
	}
	return score
}

// KapandjiMax folds Kapandji over a sequence of hand frames and keeps the
// highest per-frame score seen, independent of which frame produced it. This
// is the session-level source of truth for the opposition score.
func KapandjiMax(hands []*landmark.HandFrame) KapandjiScore {
	var best KapandjiScore
	for _, hand := range hands {
		if s := Kapandji(hand); s.MaxScore > best.MaxScore {
			best = s
		}
	}
	return best
}
