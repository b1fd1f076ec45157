package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/hasta/internal/landmark"
	"github.com/ayusman/hasta/internal/session"
	"github.com/ayusman/hasta/internal/store"
)

// FramesHandler handles HTTP requests for the frames of a session: appending
// landmark snapshots to an in-progress recording, and listing the frames of a
// stored session with their computed metrics.
type FramesHandler struct {
	store    *store.Store
	sessions *SessionHandler
}

// NewFramesHandler creates a new FramesHandler backed by the given store and
// session handler. The session handler owns the in-progress recordings.
func NewFramesHandler(s *store.Store, sessions *SessionHandler) *FramesHandler {
	return &FramesHandler{store: s, sessions: sessions}
}

// ServeHTTP implements the http.Handler interface.
// Expected path: /api/sessions/{id}/frames
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id, ok := strings.CutSuffix(path, "/frames")
	if !ok || id == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, id)
	case http.MethodPost:
		h.append(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type appendFrameRequest struct {
	Hand        *landmark.HandFrame `json:"hand"`
	Pose        *landmark.PoseFrame `json:"pose"`
	Quality     float64             `json:"quality"`
	TimestampMs int64               `json:"timestampMs"`
}

type frameWithMetrics struct {
	Frame   session.RecordedFrame `json:"frame"`
	Metrics session.FrameMetrics  `json:"metrics"`
}

type listFramesResponse struct {
	SessionID string             `json:"sessionId"`
	Frames    []frameWithMetrics `json:"frames"`
}

// append handles POST /api/sessions/{id}/frames: it feeds one landmark
// snapshot to the in-progress recording and returns the metrics computed for
// the recorded frame.
func (h *FramesHandler) append(w http.ResponseWriter, r *http.Request, id string) {
	rec := h.sessions.recorder(id)
	if rec == nil {
		writeError(w, http.StatusNotFound, "No recording in progress for session")
		return
	}

	var req appendFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Hand == nil {
		writeError(w, http.StatusBadRequest, "Hand landmarks are required")
		return
	}

	metrics, err := rec.recorder.AddFrame(req.Hand, req.Pose, req.Quality, req.TimestampMs)
	if err != nil {
		writeError(w, http.StatusConflict, "Recording is complete")
		return
	}

	writeJSON(w, http.StatusCreated, metrics)
}

// list handles GET /api/sessions/{id}/frames and returns the frames of a
// stored session, each paired with its computed metrics.
func (h *FramesHandler) list(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().Load(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}

	response := listFramesResponse{
		SessionID: sess.ID,
		Frames:    make([]frameWithMetrics, 0, sess.Len()),
	}

	for i := range sess.Frames {
		frame := &sess.Frames[i]
		response.Frames = append(response.Frames, frameWithMetrics{
			Frame:   *frame,
			Metrics: session.ComputeMetrics(frame),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
