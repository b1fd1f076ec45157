package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/hasta/internal/rom"
	"github.com/ayusman/hasta/internal/session"
)

// SummaryRepository caches computed session summaries per digit. Rows are
// replaced wholesale on recompute, mirroring how summaries themselves are
// derived.
type SummaryRepository struct {
	db *sql.DB
}

// Summaries returns the summary repository for this store.
func (s *Store) Summaries() *SummaryRepository {
	return &SummaryRepository{db: s.db}
}

// Save stores a summary, replacing any previous one for the same session and
// digit.
func (r *SummaryRepository) Save(summary session.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO summaries (session_id, digit, data, computed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, digit) DO UPDATE SET
			data = excluded.data,
			computed_at = excluded.computed_at`,
		summary.SessionID, string(summary.Digit), string(data), time.Now(),
	)
	return err
}

// Get retrieves the cached summary for a session and digit.
func (r *SummaryRepository) Get(sessionID string, digit rom.Digit) (*session.Summary, error) {
	var data string
	err := r.db.QueryRow(
		`SELECT data FROM summaries WHERE session_id = ? AND digit = ?`,
		sessionID, string(digit),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var summary session.Summary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &summary, nil
}

// DeleteBySessionID removes all cached summaries for a session.
func (r *SummaryRepository) DeleteBySessionID(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM summaries WHERE session_id = ?`, sessionID)
	return err
}
