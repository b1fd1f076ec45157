// Package session provides the recorded-session model for ROM assessments:
// frame recording with frozen laterality metadata, whole-session maxima,
// deterministic replay and the export/import codec.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/ayusman/hasta/internal/landmark"
	"github.com/ayusman/hasta/internal/rom"
)

// ErrSessionComplete is returned when appending to a finished session.
var ErrSessionComplete = errors.New("session recording is complete")

// RecordedFrame is one timestamped unit of a recording: the hand landmarks,
// the optional body pose, per-frame quality and the session-lock metadata in
// effect when the frame was captured. The lock metadata is embedded so replay
// reads the frozen laterality decision instead of re-deriving it.
type RecordedFrame struct {
	Index              int                 `json:"index"`
	TimestampMs        int64               `json:"timestampMs"`
	Quality            float64             `json:"quality"`
	Hand               *landmark.HandFrame `json:"hand"`
	Pose               *landmark.PoseFrame `json:"pose,omitempty"`
	rom.SessionContext                     // sessionHandType, sessionElbowIndex, ...
}

// Session is an ordered, append-only list of recorded frames sharing a single
// laterality lock. It is created when recording starts and becomes immutable
// once recording stops; replay only reads it.
type Session struct {
	ID         string             `json:"id"`
	CaptureFPS int                `json:"captureFps"`
	CreatedAt  time.Time          `json:"createdAt"`
	Lock       rom.SessionContext `json:"lock"`
	Frames     []RecordedFrame    `json:"frames"`

	complete bool
}

// New creates an empty session recording at the given capture rate.
// Non-positive rates fall back to 15 FPS, the pipeline's active capture rate.
func New(id string, captureFPS int) *Session {
	if captureFPS <= 0 {
		captureFPS = 15
	}
	return &Session{
		ID:         id,
		CaptureFPS: captureFPS,
		CreatedAt:  time.Now(),
	}
}

// Restore rebuilds a completed session from persisted parts. The result is
// read-only, ready for replay and summarization.
func Restore(id string, captureFPS int, createdAt time.Time, lock rom.SessionContext, frames []RecordedFrame) *Session {
	if captureFPS <= 0 {
		captureFPS = 15
	}
	return &Session{
		ID:         id,
		CaptureFPS: captureFPS,
		CreatedAt:  createdAt,
		Lock:       lock,
		Frames:     frames,
		complete:   true,
	}
}

// Len returns the number of recorded frames.
func (s *Session) Len() int {
	return len(s.Frames)
}

// Frame returns the recorded frame at index i.
func (s *Session) Frame(i int) (*RecordedFrame, bool) {
	if i < 0 || i >= len(s.Frames) {
		return nil, false
	}
	return &s.Frames[i], true
}

// Complete reports whether recording has stopped.
func (s *Session) Complete() bool {
	return s.complete
}

// append adds a frame stamped with the given lock metadata. Only the Recorder
// writes frames; the session is read-only for everyone else.
func (s *Session) append(hand *landmark.HandFrame, pose *landmark.PoseFrame, quality float64, timestampMs int64, ctx rom.SessionContext) (*RecordedFrame, error) {
	if s.complete {
		return nil, ErrSessionComplete
	}
	s.Frames = append(s.Frames, RecordedFrame{
		Index:          len(s.Frames),
		TimestampMs:    timestampMs,
		Quality:        quality,
		Hand:           hand,
		Pose:           pose,
		SessionContext: ctx,
	})
	return &s.Frames[len(s.Frames)-1], nil
}

// Recorder drives a single recording session: it threads every incoming frame
// through the laterality resolver, stamps the resulting lock metadata into
// the recorded frame and computes the live per-frame metrics. Creating a
// Recorder resets the resolver, so laterality locking starts fresh for every
// recording. AddFrame and Finish are safe for concurrent use; the capture
// pipeline and the HTTP frame endpoint both feed the same recorder.
type Recorder struct {
	mu       sync.Mutex
	session  *Session
	resolver *rom.Resolver
}

// NewRecorder starts a new recording session. assessmentHand is optional
// assessment-level metadata used by the resolver's fallback chain; pass
// rom.HandUnknown when the assessment does not specify a side.
func NewRecorder(id string, captureFPS int, assessmentHand rom.Hand) *Recorder {
	resolver := rom.NewResolver()
	resolver.AssessmentHand = assessmentHand
	return &Recorder{
		session:  New(id, captureFPS),
		resolver: resolver,
	}
}

// Session returns the session being recorded.
func (r *Recorder) Session() *Session {
	return r.session
}

// AddFrame records one frame and returns the live metrics computed for it.
// The frame carries whatever lock metadata was in effect when it arrived, so
// replaying it reproduces the live values exactly even for frames captured
// before the resolver locked.
func (r *Recorder) AddFrame(hand *landmark.HandFrame, pose *landmark.PoseFrame, quality float64, timestampMs int64) (FrameMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := r.resolver.Resolve(hand, pose)
	frame, err := r.session.append(hand, pose, quality, timestampMs, ctx)
	if err != nil {
		return FrameMetrics{}, err
	}
	return ComputeMetrics(frame), nil
}

// Finish stops the recording, freezes the session and returns it. The
// session-level lock is the resolver's final decision. Frames arriving
// concurrently with Finish either land before the freeze or are refused with
// ErrSessionComplete; the returned session never changes afterwards.
func (r *Recorder) Finish() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session.Lock = r.resolver.Context()
	r.session.complete = true
	return r.session
}

// FrameMetrics bundles every calculator output for one displayed frame. Both
// the live recording path and the replay controller produce frames through
// ComputeMetrics, which is what keeps the two in exact agreement.
type FrameMetrics struct {
	FrameIndex int                           `json:"frameIndex"`
	Joints     map[rom.Digit]rom.JointAngles `json:"joints"`
	Kapandji   rom.KapandjiScore             `json:"kapandji"`
	Wrist      rom.WristAngles               `json:"wrist"`
	Deviation  rom.WristDeviation            `json:"deviation"`
}

// ComputeMetrics runs all calculators over one recorded frame using the
// frame's stored lock metadata. It never re-runs the laterality resolver.
func ComputeMetrics(frame *RecordedFrame) FrameMetrics {
	m := FrameMetrics{
		FrameIndex: frame.Index,
		Joints:     make(map[rom.Digit]rom.JointAngles, len(rom.Digits)),
	}
	for _, digit := range rom.Digits {
		m.Joints[digit] = rom.FingerROM(frame.Hand, digit)
	}
	m.Kapandji = rom.Kapandji(frame.Hand)
	m.Wrist = rom.WristFlexionExtension(frame.Hand, frame.Pose, frame.SessionContext)
	m.Deviation = rom.WristDeviationAngle(frame.Hand, frame.Pose, frame.SessionContext)
	return m
}
