package session

import (
	"github.com/ayusman/hasta/internal/landmark"
	"github.com/ayusman/hasta/internal/rom"
)

// Summary holds per-metric session maxima and the frame indices at which they
// were observed. It is derived wholesale from a full pass over the frames and
// is never patched incrementally, so it cannot drift from what a fresh pass
// would compute. A session with zero frames yields the zero Summary with all
// frame indices 0.
type Summary struct {
	SessionID string    `json:"sessionId"`
	Frames    int       `json:"frames"`
	Digit     rom.Digit `json:"digit"`

	// Finger ROM for the selected digit. MinTAM navigates to the "worst"
	// frame, MaxTAM to the best.
	MaxTAM      float64 `json:"maxTam"`
	MaxTAMFrame int     `json:"maxTamFrame"`
	MinTAM      float64 `json:"minTam"`
	MinTAMFrame int     `json:"minTamFrame"`

	// Thumb opposition: the highest per-frame score seen across the session.
	Kapandji rom.KapandjiScore `json:"kapandji"`

	// Wrist flexion and extension are mutually exclusive within a frame but
	// not across the session, so their maxima are tracked independently.
	MaxFlexion        float64 `json:"maxFlexion"`
	MaxFlexionFrame   int     `json:"maxFlexionFrame"`
	MaxExtension      float64 `json:"maxExtension"`
	MaxExtensionFrame int     `json:"maxExtensionFrame"`

	// Deviation maxima, split into the radial and ulnar components.
	MaxRadial      float64 `json:"maxRadial"`
	MaxRadialFrame int     `json:"maxRadialFrame"`
	MaxUlnar       float64 `json:"maxUlnar"`
	MaxUlnarFrame  int     `json:"maxUlnarFrame"`
}

// Summarize runs the calculators over every frame of the session and reduces
// the results to per-metric maxima. The digit selects which finger the TAM
// figures describe. Each frame is evaluated with its own stored lock
// metadata, exactly as replay would evaluate it.
func Summarize(s *Session, digit rom.Digit) Summary {
	summary := Summary{Digit: digit}
	if s == nil {
		return summary
	}
	summary.SessionID = s.ID
	summary.Frames = len(s.Frames)
	if len(s.Frames) == 0 {
		return summary
	}

	hands := make([]*landmark.HandFrame, len(s.Frames))
	for i := range s.Frames {
		frame := &s.Frames[i]
		hands[i] = frame.Hand

		joints := rom.FingerROM(frame.Hand, digit)
		if i == 0 || joints.TotalActiveROM > summary.MaxTAM {
			summary.MaxTAM = joints.TotalActiveROM
			summary.MaxTAMFrame = i
		}
		if i == 0 || joints.TotalActiveROM < summary.MinTAM {
			summary.MinTAM = joints.TotalActiveROM
			summary.MinTAMFrame = i
		}

		wrist := rom.WristFlexionExtension(frame.Hand, frame.Pose, frame.SessionContext)
		if wrist.Flexion > summary.MaxFlexion {
			summary.MaxFlexion = wrist.Flexion
			summary.MaxFlexionFrame = i
		}
		if wrist.Extension > summary.MaxExtension {
			summary.MaxExtension = wrist.Extension
			summary.MaxExtensionFrame = i
		}

		deviation := rom.WristDeviationAngle(frame.Hand, frame.Pose, frame.SessionContext)
		if deviation.Radial > summary.MaxRadial {
			summary.MaxRadial = deviation.Radial
			summary.MaxRadialFrame = i
		}
		if deviation.Ulnar > summary.MaxUlnar {
			summary.MaxUlnar = deviation.Ulnar
			summary.MaxUlnarFrame = i
		}
	}

	summary.Kapandji = rom.KapandjiMax(hands)
	return summary
}
