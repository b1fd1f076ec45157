package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ayusman/hasta/internal/app"
	"github.com/ayusman/hasta/internal/rom"
	"github.com/ayusman/hasta/internal/server"
	"github.com/ayusman/hasta/internal/store"
	"github.com/ayusman/hasta/internal/tray"
)

func main() {
	fmt.Println("Hasta - Hand and Wrist Range-of-Motion Assessment")

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".hasta")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "hasta.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Initialize the capture pipeline
	a := app.New(app.Config{
		Store:        st,
		PluginDir:    filepath.Join(dataDir, "plugins"),
		CameraID:     intSetting(st, "cameraId", 0),
		MotionThresh: floatSetting(st, "motionThreshold", 0),
	})
	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	if err := a.Start(); err != nil {
		log.Printf("Capture pipeline unavailable: %v", err)
	}
	defer a.Stop()

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	// Configure and start server
	cfg := server.Config{
		StaticDir: webDir,
		Store:     st,
		Camera:    a.Camera(),
		Notifier:  a,
		Live:      a,
	}

	srv := server.New(cfg)

	addr := ":8080"
	fmt.Printf("Starting server on %s\n", addr)
	go func() {
		if err := srv.ListenAndServe(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// The tray owns the main thread; quitting it ends the process.
	t := tray.New()
	t.OnRecord(func(recording bool) {
		if recording {
			if _, err := a.StartRecording("", rom.HandUnknown); err != nil {
				log.Printf("Failed to start recording: %v", err)
			}
			return
		}
		if _, err := a.StopRecording(); err != nil {
			log.Printf("Failed to stop recording: %v", err)
			return
		}
		t.SetLastSummary(a.LastSummary())
	})
	t.OnSettings(func() {
		fmt.Printf("Dashboard: http://localhost%s\n", addr)
	})
	t.Run()
}

// intSetting reads an integer setting, falling back when unset or invalid.
func intSetting(st *store.Store, key string, fallback int) int {
	value, err := st.Settings().Get(key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Ignoring invalid setting %s=%q", key, value)
		return fallback
	}
	return n
}

// floatSetting reads a float setting, falling back when unset or invalid.
func floatSetting(st *store.Store, key string, fallback float64) float64 {
	value, err := st.Settings().Get(key)
	if err != nil {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Ignoring invalid setting %s=%q", key, value)
		return fallback
	}
	return f
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.hasta/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".hasta", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
