package session

import (
	"errors"
	"time"
)

// Replay playback states.
type PlaybackState string

const (
	StateStopped PlaybackState = "stopped"
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
	StateSeeking PlaybackState = "seeking"
)

// Speed multiplier bounds and the minimum tick interval. The interval floor
// keeps fast playback of high-FPS captures inside one display refresh.
const (
	MinSpeed        = 0.25
	MaxSpeed        = 2.0
	minTickInterval = 16 * time.Millisecond
)

// Replay errors.
var (
	ErrEmptySession = errors.New("session has no frames")
	ErrFrameRange   = errors.New("frame index out of range")
)

// Replay is the frame-indexed playback controller for a recorded session. It
// re-invokes the calculators for every displayed frame using that frame's
// stored lock metadata, which is what guarantees replay reproduces the live
// values exactly, including for seeks to arbitrary frame indices.
//
// Replay is single-writer: only the controller advances or seeks the frame
// index. Consumers read Current(), which is swapped whole on every frame
// change, so a seek either lands with fully recomputed metrics or the
// previous frame's metrics remain visible.
type Replay struct {
	session *Session

	state      PlaybackState
	frameIndex int
	speed      float64
	complete   bool
	current    FrameMetrics

	// OnFrame, when set, is called with the metrics of every newly displayed
	// frame (tick advances and seeks alike).
	OnFrame func(FrameMetrics)
}

// NewReplay creates a stopped replay controller for the given session.
func NewReplay(s *Session) *Replay {
	return &Replay{
		session: s,
		state:   StateStopped,
		speed:   1.0,
	}
}

// State returns the current playback state.
func (r *Replay) State() PlaybackState {
	return r.state
}

// CurrentFrameIndex returns the index of the displayed frame.
func (r *Replay) CurrentFrameIndex() int {
	return r.frameIndex
}

// IsComplete reports whether playback has displayed the last frame.
func (r *Replay) IsComplete() bool {
	return r.complete
}

// Current returns the metrics of the displayed frame.
func (r *Replay) Current() FrameMetrics {
	return r.current
}

// Speed returns the playback speed multiplier.
func (r *Replay) Speed() float64 {
	return r.speed
}

// SetSpeed sets the playback speed multiplier, clamped to [0.25, 2].
func (r *Replay) SetSpeed(multiplier float64) {
	if multiplier < MinSpeed {
		multiplier = MinSpeed
	} else if multiplier > MaxSpeed {
		multiplier = MaxSpeed
	}
	r.speed = multiplier
}

// TickInterval returns the wall-clock interval between ticks: the session's
// capture interval divided by the speed multiplier, floored so playback never
// exceeds the host's redraw budget.
func (r *Replay) TickInterval() time.Duration {
	interval := time.Duration(float64(time.Second) / (float64(r.session.CaptureFPS) * r.speed))
	if interval < minTickInterval {
		return minTickInterval
	}
	return interval
}

// Play starts playback. From STOPPED it begins at frame 0; from PAUSED it
// resumes at the paused frame. It refuses to start on an empty session and is
// a no-op when already playing.
func (r *Replay) Play() error {
	if r.session == nil || r.session.Len() == 0 {
		return ErrEmptySession
	}
	switch r.state {
	case StatePlaying:
		return nil
	case StatePaused:
		r.state = StatePlaying
		return nil
	default:
		r.complete = false
		r.state = StatePlaying
		r.display(0)
		return nil
	}
}

// Pause suspends playback at the current frame.
func (r *Replay) Pause() {
	if r.state == StatePlaying {
		r.state = StatePaused
	}
}

// Resume continues playback from the paused frame.
func (r *Replay) Resume() {
	if r.state == StatePaused {
		r.state = StatePlaying
	}
}

// Reset returns the controller to STOPPED at frame 0 and clears the
// completion flag.
func (r *Replay) Reset() {
	r.state = StateStopped
	r.frameIndex = 0
	r.complete = false
	r.current = FrameMetrics{}
}

// Seek jumps directly to the given frame index (scrubber drag, jump to
// max/min) and immediately pauses playback with the frame's metrics fully
// recomputed. Seeking to the last frame marks playback complete.
func (r *Replay) Seek(frameIndex int) error {
	if r.session == nil || r.session.Len() == 0 {
		return ErrEmptySession
	}
	if frameIndex < 0 || frameIndex >= r.session.Len() {
		return ErrFrameRange
	}
	r.state = StateSeeking
	r.display(frameIndex)
	r.complete = frameIndex == r.session.Len()-1
	r.state = StatePaused
	return nil
}

// Tick advances playback by exactly one frame. It is a no-op unless the
// controller is PLAYING. Advancing past the last frame stops playback and
// sets the completion flag; playback never loops automatically.
func (r *Replay) Tick() {
	if r.state != StatePlaying {
		return
	}
	next := r.frameIndex + 1
	if next >= r.session.Len() {
		r.state = StateStopped
		r.complete = true
		return
	}
	r.display(next)
	if next == r.session.Len()-1 {
		r.state = StateStopped
		r.complete = true
	}
}

// display recomputes the metrics for frame i and swaps them in whole.
func (r *Replay) display(i int) {
	frame, ok := r.session.Frame(i)
	if !ok {
		return
	}
	metrics := ComputeMetrics(frame)
	r.frameIndex = i
	r.current = metrics
	if r.OnFrame != nil {
		r.OnFrame(metrics)
	}
}
