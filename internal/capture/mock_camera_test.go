package capture

import (
	"errors"
	"testing"
)

func TestMockCamera_Playback(t *testing.T) {
	cam := NewMockCamera(2, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	// Read both frames
	f1, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f1.Close()

	f2, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f2.Close()

	// Third read should fail (no loop)
	_, err = cam.ReadFrame()
	if err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockCamera_Loop(t *testing.T) {
	cam := NewMockCamera(1, true)
	cam.Open()
	defer cam.Close()

	// Should yield frames indefinitely
	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_ReadClosed(t *testing.T) {
	cam := NewMockCamera(1, false)

	_, err := cam.ReadFrame()

	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen, got %v", err)
	}
}

func TestMockCamera_FPS(t *testing.T) {
	cam := NewMockCamera(1, true)

	if cam.FPS() != DefaultFPS {
		t.Errorf("expected default FPS %d, got %d", DefaultFPS, cam.FPS())
	}

	cam.SetFPS(5)
	if cam.FPS() != 5 {
		t.Errorf("expected FPS 5, got %d", cam.FPS())
	}

	// Non-positive rates are ignored
	cam.SetFPS(0)
	if cam.FPS() != 5 {
		t.Errorf("expected FPS to stay 5, got %d", cam.FPS())
	}
}
