package app

import (
	"log"
	"time"

	"github.com/ayusman/hasta/internal/session"
)

// runPipeline is the main capture loop that processes frames from the camera.
// It manages the state transitions between idle and active modes based on
// motion detection and the recording state.
//
// Pipeline logic:
// 1. Start in idle mode (idleFPS=5)
// 2. On motion detected or while recording, switch to active mode (activeFPS=15)
// 3. Run hand and pose detection
// 4. Feed the active recorder, if any; its resolver freezes laterality
// 5. Fan live landmarks and metrics out to subscribers
// 6. After 2s without motion (and no recording), switch back to idle mode
func (a *App) runPipeline() {
	// Track whether we're in active mode
	activeMode := false

	// Track the last motion detection time
	lastMotionTime := time.Now()

	// Frame interval based on current FPS
	frameInterval := time.Second / time.Duration(IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			// Read a frame from the camera
			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			recording := a.Recording()

			// Step 1: Motion gate. A recording keeps the pipeline active even
			// when the patient holds a pose.
			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected || recording {
				lastMotionTime = time.Now()

				// Switch to active mode if not already
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				// Check if we should switch back to idle mode
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			// Skip further processing if not in active mode or no detector
			detector := a.Detector()
			if !activeMode || detector == nil {
				frame.Close()
				continue
			}

			// Step 2: Hand and pose detection
			obs, err := detector.Detect(frame)
			frame.Close() // Done with the frame

			if err != nil {
				log.Printf("Error detecting landmarks: %v", err)
				continue
			}

			hand := obs.PrimaryHand()
			if hand == nil {
				continue
			}

			now := time.Now().UnixMilli()
			update := LiveUpdate{
				Hand:        hand,
				Pose:        obs.Pose,
				Recording:   recording,
				TimestampMs: now,
			}

			// Step 3: Record the frame, or compute preview metrics
			a.mu.RLock()
			recorder := a.recorder
			a.mu.RUnlock()

			if recorder != nil {
				ts := time.Since(recorder.Session().CreatedAt).Milliseconds()
				metrics, err := recorder.AddFrame(hand, obs.Pose, hand.Score, ts)
				if err != nil {
					log.Printf("Error recording frame: %v", err)
				} else {
					update.Metrics = &metrics
				}
			} else {
				ctx := a.preview.Resolve(hand, obs.Pose)
				preview := session.RecordedFrame{
					TimestampMs:    now,
					Quality:        hand.Score,
					Hand:           hand,
					Pose:           obs.Pose,
					SessionContext: ctx,
				}
				metrics := session.ComputeMetrics(&preview)
				update.Metrics = &metrics
			}

			// Step 4: Live fan-out
			a.publish(update)
		}
	}
}
