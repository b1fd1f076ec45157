package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/hasta/internal/rom"
	"github.com/ayusman/hasta/internal/session"
	"github.com/ayusman/hasta/internal/store"
)

// SummaryHandler serves per-digit session summaries. Summaries are stored
// when a recording completes; for sessions that arrived by import the summary
// is computed on demand and cached back to the store.
type SummaryHandler struct {
	store *store.Store
}

// NewSummaryHandler creates a new SummaryHandler with the given store.
func NewSummaryHandler(s *store.Store) *SummaryHandler {
	return &SummaryHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected path: /api/sessions/{id}/summary?digit=index
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id, ok := strings.CutSuffix(path, "/summary")
	if !ok || id == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	digits := rom.Digits
	if param := r.URL.Query().Get("digit"); param != "" {
		digit := rom.Digit(param)
		if !validDigit(digit) {
			writeError(w, http.StatusBadRequest, "Invalid digit")
			return
		}
		digits = []rom.Digit{digit}
	}

	summaries := make([]session.Summary, 0, len(digits))
	for _, digit := range digits {
		summary, err := h.summary(id, digit)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to compute summary")
			return
		}
		summaries = append(summaries, summary)
	}

	if len(summaries) == 1 {
		writeJSON(w, http.StatusOK, summaries[0])
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": id,
		"summaries": summaries,
	})
}

// summary fetches a stored summary, or computes and caches it from the
// session's frames when none is stored yet.
func (h *SummaryHandler) summary(id string, digit rom.Digit) (session.Summary, error) {
	stored, err := h.store.Summaries().Get(id, digit)
	if err == nil {
		return *stored, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return session.Summary{}, err
	}

	sess, err := h.store.Sessions().Load(id)
	if err != nil {
		return session.Summary{}, err
	}

	summary := session.Summarize(sess, digit)
	if err := h.store.Summaries().Save(summary); err != nil {
		return session.Summary{}, err
	}
	return summary, nil
}

func validDigit(d rom.Digit) bool {
	for _, digit := range rom.Digits {
		if d == digit {
			return true
		}
	}
	return false
}
