package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ayusman/hasta/internal/session"
	"github.com/ayusman/hasta/internal/store"
)

// maxImportBytes bounds the accepted import payload.
const maxImportBytes = 32 << 20 // 32 MiB

// TransferHandler moves whole sessions in and out of the store as JSON
// documents, using the session codec.
type TransferHandler struct {
	store *store.Store
}

// NewTransferHandler creates a new TransferHandler with the given store.
func NewTransferHandler(s *store.Store) *TransferHandler {
	return &TransferHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/sessions/{id}/export, /api/sessions/import
func (h *TransferHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")

	if path == "import" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.importSession(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/export"); ok && id != "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.export(w, r, id)
		return
	}

	writeError(w, http.StatusNotFound, "Not found")
}

// export handles GET /api/sessions/{id}/export and returns the session as a
// self-contained JSON document.
func (h *TransferHandler) export(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().Load(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}

	data, err := session.Export(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="session-`+id+`.json"`)
	w.Write(data)
}

// importSession handles POST /api/sessions/import: it validates the document,
// stores the session and returns its metadata.
func (h *TransferHandler) importSession(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	sess, err := session.Import(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session document: "+err.Error())
		return
	}

	if err := h.store.Sessions().Save(sess, ""); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:         sess.ID,
		HandType:   string(sess.Lock.HandType),
		CaptureFPS: sess.CaptureFPS,
		Frames:     sess.Len(),
		CreatedAt:  sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
