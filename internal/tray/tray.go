// Package tray provides a system tray interface for the Hasta range-of-motion
// assessment system: a recording toggle and a line showing the last session's
// summary.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onRecord   func(recording bool)
	onSettings func()
	onQuit     func()
	recording  bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuRecord      *systray.MenuItem
	menuLastSummary *systray.MenuItem
}

// New creates a new Tray instance. Recording starts off.
func New() *Tray {
	return &Tray{}
}

// OnRecord sets the callback function to be called when recording is toggled.
func (t *Tray) OnRecord(fn func(recording bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRecord = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	// Set the tray title and tooltip
	systray.SetTitle("Hasta")
	systray.SetTooltip("Hasta Range-of-Motion Assessment")

	// Create menu items
	t.menuRecord = systray.AddMenuItem("● Start Recording", "Start or stop a recording session")
	systray.AddSeparator()

	t.menuLastSummary = systray.AddMenuItem("Last: none", "Summary of the last session")
	t.menuLastSummary.Disable()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Hasta")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuRecord.ClickedCh:
				t.handleRecord()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
	// Cleanup resources if needed
}

// handleRecord handles the recording toggle menu item click.
func (t *Tray) handleRecord() {
	t.mu.Lock()
	t.recording = !t.recording
	recording := t.recording

	// Update menu item text based on new state
	if recording {
		t.menuRecord.SetTitle("■ Stop Recording")
	} else {
		t.menuRecord.SetTitle("● Start Recording")
	}

	callback := t.onRecord
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(recording)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastSummary updates the last-session summary line in the menu.
func (t *Tray) SetLastSummary(line string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastSummary != nil {
		if line == "" {
			t.menuLastSummary.SetTitle("Last: none")
		} else {
			t.menuLastSummary.SetTitle("Last: " + line)
		}
	}
}

// Recording returns whether the tray toggle is in the recording state.
func (t *Tray) Recording() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.recording
}
