// Package server provides the HTTP server for the Hasta range-of-motion
// assessment system.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/hasta/internal/capture"
	"github.com/ayusman/hasta/internal/server/api"
	"github.com/ayusman/hasta/internal/store"
)

// Config holds the server configuration. Notifier and Live are usually both
// the capture app; they are separate fields so the server depends only on the
// behavior it uses.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Notifier  api.CompletionNotifier
	Live      LiveFeed
}

// Server represents the HTTP server for the Hasta application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register session API handlers if Store is configured
	if s.config.Store != nil {
		sessionHandler := api.NewSessionHandler(s.config.Store, s.config.Notifier)
		framesHandler := api.NewFramesHandler(s.config.Store, sessionHandler)
		summaryHandler := api.NewSummaryHandler(s.config.Store)
		transferHandler := api.NewTransferHandler(s.config.Store)

		// Use a wrapper to route between the session sub-resources
		sessionRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasSuffix(r.URL.Path, "/frames"):
				framesHandler.ServeHTTP(w, r)
			case strings.HasSuffix(r.URL.Path, "/summary"):
				summaryHandler.ServeHTTP(w, r)
			case strings.HasSuffix(r.URL.Path, "/export"),
				strings.HasSuffix(r.URL.Path, "/import"):
				transferHandler.ServeHTTP(w, r)
			default:
				sessionHandler.ServeHTTP(w, r)
			}
		})

		s.mux.Handle("/api/sessions", sessionRouter)
		s.mux.Handle("/api/sessions/", sessionRouter)
	}

	// Register camera stream endpoint if Camera is configured
	if s.config.Camera != nil {
		streamHandler := NewStreamHandler(s.config.Camera)
		s.mux.Handle("/api/stream", streamHandler)
	}

	// Register live WebSocket endpoint if a feed is configured
	if s.config.Live != nil {
		liveHandler := NewLiveHandler(s.config.Live)
		s.mux.Handle("/api/live", liveHandler)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
