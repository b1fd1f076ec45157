package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/hasta/internal/landmark"
	"github.com/ayusman/hasta/internal/rom"
)

// codecVersion identifies the recorded-session JSON format.
const codecVersion = 1

// envelope is the on-disk/wire form of a recorded session. The frame array,
// with its embedded lock metadata, is sufficient on its own to reproduce
// every computed metric without access to live session state.
type envelope struct {
	Version    int             `json:"version"`
	SessionID  string          `json:"sessionId"`
	CaptureFPS int             `json:"captureFps"`
	CreatedAt  time.Time       `json:"createdAt"`
	Frames     []RecordedFrame `json:"frames"`
}

// Export serializes a recorded session to the portable JSON format.
func Export(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("nil session")
	}
	return json.Marshal(envelope{
		Version:    codecVersion,
		SessionID:  s.ID,
		CaptureFPS: s.CaptureFPS,
		CreatedAt:  s.CreatedAt,
		Frames:     s.Frames,
	})
}

// Import parses a recorded session from the portable JSON format. A
// structurally invalid frame stream is the one condition in the system
// surfaced as a hard error; the imported session is complete (read-only) and
// ready for replay.
func Import(data []byte) (*Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse recorded session: %w", err)
	}
	if env.Version != codecVersion {
		return nil, fmt.Errorf("unsupported recorded session version %d", env.Version)
	}
	if env.CaptureFPS <= 0 {
		return nil, fmt.Errorf("recorded session has invalid capture rate %d", env.CaptureFPS)
	}

	for i := range env.Frames {
		frame := &env.Frames[i]
		if frame.Hand == nil {
			return nil, fmt.Errorf("recorded frame %d has no hand landmarks", i)
		}
		if frame.ElbowIndex < 0 || frame.ElbowIndex >= landmark.NumPoseLandmarks ||
			frame.WristIndex < 0 || frame.WristIndex >= landmark.NumPoseLandmarks {
			return nil, fmt.Errorf("recorded frame %d has out-of-range pose indices", i)
		}
		// Indices are re-derived from position so a reordered export cannot
		// desynchronize seek targets.
		frame.Index = i
	}

	s := &Session{
		ID:         env.SessionID,
		CaptureFPS: env.CaptureFPS,
		CreatedAt:  env.CreatedAt,
		Frames:     env.Frames,
		complete:   true,
	}
	if len(env.Frames) > 0 {
		s.Lock = env.Frames[len(env.Frames)-1].SessionContext
	} else {
		// A frameless document carries no lock metadata to recover; fall back
		// to the resolver's unresolved-laterality default so the session still
		// satisfies the store's hand-type constraint.
		s.Lock = rom.ContextFor(rom.HandRight, false)
	}
	return s, nil
}
