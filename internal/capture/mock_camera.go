package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera produces synthetic frames for testing the recording pipeline
// without camera hardware. Frames are blank mats; the mock detector supplies
// the landmark content.
type MockCamera struct {
	remaining int
	loop      bool
	mu        sync.Mutex
	running   bool
	fps       int
}

// NewMockCamera creates a mock camera that yields frameCount frames before
// reporting exhaustion, or yields frames forever when loop is true.
func NewMockCamera(frameCount int, loop bool) *MockCamera {
	return &MockCamera{
		remaining: frameCount,
		loop:      loop,
		fps:       DefaultFPS,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if !c.loop {
		if c.remaining <= 0 {
			return nil, fmt.Errorf("no more frames")
		}
		c.remaining--
	}

	mat := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	return &mat, nil
}

func (c *MockCamera) SetFPS(fps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fps > 0 {
		c.fps = fps
	}
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
