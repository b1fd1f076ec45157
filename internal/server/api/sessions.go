// Package api provides HTTP API handlers for the Hasta range-of-motion
// assessment system.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/hasta/internal/rom"
	"github.com/ayusman/hasta/internal/session"
	"github.com/ayusman/hasta/internal/store"
)

// CompletionNotifier receives finished sessions for completion hooks.
type CompletionNotifier interface {
	SessionComplete(sess *session.Session, summaries []session.Summary)
}

// SessionHandler handles HTTP requests for session resources. Sessions are
// created as in-progress recorders that accept frames until completed, at
// which point they are summarized and persisted.
type SessionHandler struct {
	store    *store.Store
	notifier CompletionNotifier

	active map[string]*activeRecording
	mu     sync.Mutex
}

// activeRecording is an HTTP-driven recording in progress.
type activeRecording struct {
	recorder   *session.Recorder
	patientRef string
}

// NewSessionHandler creates a new SessionHandler with the given store.
// notifier may be nil when no completion hooks are wired.
func NewSessionHandler(s *store.Store, notifier CompletionNotifier) *SessionHandler {
	return &SessionHandler{
		store:    s,
		notifier: notifier,
		active:   make(map[string]*activeRecording),
	}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse the path to determine if this is a collection or item request
	// Expected paths: /api/sessions, /api/sessions/{id}, /api/sessions/{id}/complete
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/sessions
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/complete"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.complete(w, r, id)
		return
	}

	// Item endpoint: /api/sessions/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createSessionRequest struct {
	PatientRef     string `json:"patientRef"`
	AssessmentHand string `json:"assessmentHand"`
	CaptureFPS     int    `json:"captureFps"`
}

type sessionResponse struct {
	ID         string `json:"id"`
	PatientRef string `json:"patientRef"`
	HandType   string `json:"handType"`
	CaptureFPS int    `json:"captureFps"`
	Frames     int    `json:"frames"`
	Recording  bool   `json:"recording"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.SessionMeta to a sessionResponse.
func toResponse(m *store.SessionMeta) sessionResponse {
	return sessionResponse{
		ID:         m.ID,
		PatientRef: m.PatientRef,
		HandType:   string(m.HandType),
		CaptureFPS: m.CaptureFPS,
		Frames:     m.FrameCount,
		CreatedAt:  m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// recorder returns the in-progress recording for id, or nil.
func (h *SessionHandler) recorder(id string) *activeRecording {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active[id]
}

// list handles GET /api/sessions and returns all stored sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	metas, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(metas)),
	}

	for _, m := range metas {
		response.Sessions = append(response.Sessions, toResponse(m))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id}. An in-progress recording reports its
// live frame count; otherwise the stored session row is returned.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if rec := h.recorder(id); rec != nil {
		sess := rec.recorder.Session()
		writeJSON(w, http.StatusOK, sessionResponse{
			ID:         sess.ID,
			PatientRef: rec.patientRef,
			CaptureFPS: sess.CaptureFPS,
			Frames:     sess.Len(),
			Recording:  true,
			CreatedAt:  sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
		return
	}

	meta, err := h.store.Sessions().Meta(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(meta))
}

// create handles POST /api/sessions and opens a new in-progress recording.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	hand := rom.Hand(req.AssessmentHand)
	if hand != "" && hand != rom.HandLeft && hand != rom.HandRight {
		writeError(w, http.StatusBadRequest, "Invalid assessment hand")
		return
	}

	id := uuid.New().String()
	recorder := session.NewRecorder(id, req.CaptureFPS, hand)

	h.mu.Lock()
	h.active[id] = &activeRecording{recorder: recorder, patientRef: req.PatientRef}
	h.mu.Unlock()

	sess := recorder.Session()
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:         id,
		PatientRef: req.PatientRef,
		CaptureFPS: sess.CaptureFPS,
		Recording:  true,
		CreatedAt:  sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// complete handles POST /api/sessions/{id}/complete: it finishes the
// recording, summarizes every digit, persists the session and fires the
// completion hooks.
func (h *SessionHandler) complete(w http.ResponseWriter, r *http.Request, id string) {
	h.mu.Lock()
	rec := h.active[id]
	delete(h.active, id)
	h.mu.Unlock()

	if rec == nil {
		writeError(w, http.StatusNotFound, "No recording in progress for session")
		return
	}

	sess := rec.recorder.Finish()

	summaries := make([]session.Summary, 0, len(rom.Digits))
	for _, digit := range rom.Digits {
		summaries = append(summaries, session.Summarize(sess, digit))
	}

	if err := h.store.Sessions().Save(sess, rec.patientRef); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	for _, summary := range summaries {
		if err := h.store.Summaries().Save(summary); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save summary")
			return
		}
	}

	if h.notifier != nil {
		h.notifier.SessionComplete(sess, summaries)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        sess.ID,
		"frames":    sess.Len(),
		"handType":  string(sess.Lock.HandType),
		"summaries": summaries,
	})
}

// delete handles DELETE /api/sessions/{id} and removes a stored session.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	// Dropping an in-progress recording discards it without saving.
	h.mu.Lock()
	if _, ok := h.active[id]; ok {
		delete(h.active, id)
		h.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.mu.Unlock()

	if err := h.store.Summaries().DeleteBySessionID(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete summaries")
		return
	}

	err := h.store.Sessions().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
