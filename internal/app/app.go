// Package app provides the main application logic for the Hasta range-of-motion
// assessment system: the capture pipeline, recording lifecycle and live
// metric fan-out.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/hasta/internal/capture"
	"github.com/ayusman/hasta/internal/detector"
	"github.com/ayusman/hasta/internal/landmark"
	"github.com/ayusman/hasta/internal/plugin"
	"github.com/ayusman/hasta/internal/rom"
	"github.com/ayusman/hasta/internal/session"
	"github.com/ayusman/hasta/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during motion and recording.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
)

// ErrNotRecording is returned when stopping a recording that was never started.
var ErrNotRecording = errors.New("no recording in progress")

// ErrAlreadyRecording is returned when starting a recording while one is active.
var ErrAlreadyRecording = errors.New("recording already in progress")

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	PluginDir    string
	CameraID     int
	MotionThresh float64
}

// LiveUpdate is one frame's worth of live output: the detected landmarks and,
// while recording, the metrics computed for the recorded frame.
type LiveUpdate struct {
	Hand        *landmark.HandFrame   `json:"hand"`
	Pose        *landmark.PoseFrame   `json:"pose,omitempty"`
	Metrics     *session.FrameMetrics `json:"metrics,omitempty"`
	Recording   bool                  `json:"recording"`
	TimestampMs int64                 `json:"timestampMs"`
}

// App orchestrates the capture pipeline: camera frames flow through the
// motion gate and detector, into the active recorder when one exists, and out
// to live subscribers.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionGate
	detector   detector.Detector
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor

	recorder    *session.Recorder
	patientRef  string
	preview     *rom.Resolver
	lastSummary string
	subscribers map[string]chan LiveUpdate

	mu             sync.RWMutex
	stopCh         chan struct{}
	lastMotionTime time.Time
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	a := &App{
		config:         config,
		camera:         capture.NewCamera(config.CameraID),
		motion:         capture.NewMotionGate(motionThreshold),
		pluginMgr:      plugin.NewManager(config.PluginDir),
		pluginExec:     plugin.NewExecutor(0),
		preview:        rom.NewResolver(),
		subscribers:    make(map[string]chan LiveUpdate),
		lastMotionTime: time.Now(),
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand and pose detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetDetector sets the landmark detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the landmark detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// MotionGate returns the motion gate instance.
func (a *App) MotionGate() *capture.MotionGate {
	return a.motion
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start begins the capture pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	// Open the camera
	if err := a.camera.Open(); err != nil {
		return err
	}

	// Set initial FPS to idle mode
	a.camera.SetFPS(IdleFPS)

	// Create stop channel and start the pipeline
	a.stopCh = make(chan struct{})
	go a.runPipeline()

	log.Println("Capture pipeline started")
	return nil
}

// Stop halts the capture pipeline and releases resources. An in-progress
// recording is finished and saved first.
func (a *App) Stop() {
	if a.Recording() {
		if _, err := a.StopRecording(); err != nil {
			log.Printf("Error finishing recording: %v", err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Signal the pipeline to stop
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	// Close the camera
	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	// Close motion gate
	a.motion.Close()

	// Close the landmark detector if set
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Capture pipeline stopped")
}

// StartRecording opens a new recording session. assessmentHand is the
// clinician-declared hand under assessment; it may be empty, in which case
// laterality is resolved from the landmarks alone.
func (a *App) StartRecording(patientRef string, assessmentHand rom.Hand) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recorder != nil {
		return "", ErrAlreadyRecording
	}

	id := uuid.New().String()
	a.recorder = session.NewRecorder(id, ActiveFPS, assessmentHand)
	a.patientRef = patientRef
	a.preview.Reset()

	log.Printf("Recording started: session %s", id)
	return id, nil
}

// Recording reports whether a recording session is in progress.
func (a *App) Recording() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.recorder != nil
}

// StopRecording finishes the active recording, summarizes it, persists the
// session and summaries, and fires the completion hooks.
func (a *App) StopRecording() (*session.Session, error) {
	a.mu.Lock()
	recorder := a.recorder
	patientRef := a.patientRef
	a.recorder = nil
	a.patientRef = ""
	a.mu.Unlock()

	if recorder == nil {
		return nil, ErrNotRecording
	}

	sess := recorder.Finish()
	summaries := a.summarize(sess)
	a.setLastSummary(sess, summaries)

	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Save(sess, patientRef); err != nil {
			return sess, err
		}
		for _, summary := range summaries {
			if err := a.config.Store.Summaries().Save(summary); err != nil {
				return sess, err
			}
		}
	}

	a.notifyComplete(sess, summaries)

	log.Printf("Recording stopped: session %s, %d frames, hand %s",
		sess.ID, sess.Len(), sess.Lock.HandType)
	return sess, nil
}

// SessionComplete persists summaries and fires completion hooks for a session
// that finished outside the camera pipeline.
func (a *App) SessionComplete(sess *session.Session, summaries []session.Summary) {
	a.setLastSummary(sess, summaries)
	a.notifyComplete(sess, summaries)
}

// summarize computes the per-digit summaries for a finished session.
func (a *App) summarize(sess *session.Session) []session.Summary {
	summaries := make([]session.Summary, 0, len(rom.Digits))
	for _, digit := range rom.Digits {
		summaries = append(summaries, session.Summarize(sess, digit))
	}
	return summaries
}

// notifyComplete fires the session.complete plugins with the session summary.
func (a *App) notifyComplete(sess *session.Session, summaries []session.Summary) {
	payload, err := json.Marshal(summaries)
	if err != nil {
		log.Printf("Error marshaling summaries: %v", err)
		return
	}
	a.pluginExec.NotifySessionComplete(
		context.Background(), a.pluginMgr, sess.ID, string(sess.Lock.HandType), payload)
}

func (a *App) setLastSummary(sess *session.Session, summaries []session.Summary) {
	line := sess.ID
	if len(summaries) > 0 {
		first := summaries[0]
		hand := string(sess.Lock.HandType)
		if hand == "" {
			hand = "UNKNOWN"
		}
		line = fmt.Sprintf("%s: index TAM %.1f°, Kapandji %d",
			hand, first.MaxTAM, first.Kapandji.MaxScore)
	}
	a.mu.Lock()
	a.lastSummary = line
	a.mu.Unlock()
}

// LastSummary returns a one-line description of the most recent recording.
func (a *App) LastSummary() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastSummary
}

// Subscribe registers a live-update subscriber and returns its ID and channel.
// Updates are dropped for subscribers that fall behind.
func (a *App) Subscribe() (string, <-chan LiveUpdate) {
	id := uuid.New().String()
	ch := make(chan LiveUpdate, 8)

	a.mu.Lock()
	a.subscribers[id] = ch
	a.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a live-update subscriber.
func (a *App) Unsubscribe(id string) {
	a.mu.Lock()
	if ch, ok := a.subscribers[id]; ok {
		delete(a.subscribers, id)
		close(ch)
	}
	a.mu.Unlock()
}

// publish fans a live update out to all subscribers without blocking.
func (a *App) publish(update LiveUpdate) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, ch := range a.subscribers {
		select {
		case ch <- update:
		default: // subscriber is behind, drop the update
		}
	}
}
