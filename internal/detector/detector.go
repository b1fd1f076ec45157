// Package detector provides the boundary to the external hand/pose tracking
// provider. The rest of the system consumes the per-frame observation it
// produces and never touches the underlying inference.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/hasta/internal/landmark"
)

// Observation is one frame's worth of tracking output: zero or more detected
// hands plus the optional body pose with per-point visibility.
type Observation struct {
	Hands []landmark.HandFrame `json:"hands"`
	Pose  *landmark.PoseFrame  `json:"pose,omitempty"`
}

// PrimaryHand returns the highest-scoring detected hand, or nil when no hand
// was detected.
func (o *Observation) PrimaryHand() *landmark.HandFrame {
	if o == nil || len(o.Hands) == 0 {
		return nil
	}
	best := 0
	for i := range o.Hands {
		if o.Hands[i].Score > o.Hands[best].Score {
			best = i
		}
	}
	return &o.Hands[best]
}

// Detector defines the interface for tracking-provider implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the tracking observation.
	// An observation with no hands means nothing was detected.
	Detect(frame *gocv.Mat) (*Observation, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for the tracking provider.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1; ROM
	// assessments record one hand at a time).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// WithPose enables body pose tracking alongside hand tracking. The wrist
	// calculators need the elbow landmarks it provides.
	WithPose bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		WithPose:        true,
	}
}
