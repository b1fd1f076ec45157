package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/hasta/internal/landmark"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the tracking results, optionally playing a
// queued script of observations one frame at a time.
type MockDetector struct {
	observation *Observation
	script      []*Observation
	err         error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetObservation sets the observation returned by every Detect call.
func (m *MockDetector) SetObservation(obs *Observation) {
	m.observation = obs
}

// SetScript queues observations to be returned one per Detect call. When the
// script is exhausted, Detect falls back to the fixed observation.
func (m *MockDetector) SetScript(script []*Observation) {
	m.script = script
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the next scripted observation, the fixed observation, or the
// configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Observation, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}
	if m.observation != nil {
		return m.observation, nil
	}
	return &Observation{}, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ObservationWith is a convenience constructor for a single-hand observation.
func ObservationWith(hand landmark.HandFrame, pose *landmark.PoseFrame) *Observation {
	return &Observation{
		Hands: []landmark.HandFrame{hand},
		Pose:  pose,
	}
}
