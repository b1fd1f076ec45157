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

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// SessionMeta is the session row without its frames, for listings.
type SessionMeta struct {
	ID         string
	PatientRef string
	HandType   rom.Hand
	CaptureFPS int
	FrameCount int
	CreatedAt  time.Time
}

// SessionRepository provides persistence for recorded sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Save persists a completed session and all of its frames in a single
// transaction. Saving an ID that already exists replaces the stored frames.
func (r *SessionRepository) Save(sess *session.Session, patientRef string) error {
	if sess == nil {
		return fmt.Errorf("nil session")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lock := sess.Lock
	_, err = tx.Exec(
		`INSERT INTO sessions (id, patient_ref, hand_type, elbow_index, wrist_index, shoulder_index, elbow_locked, capture_fps, frame_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			patient_ref = excluded.patient_ref,
			hand_type = excluded.hand_type,
			elbow_index = excluded.elbow_index,
			wrist_index = excluded.wrist_index,
			shoulder_index = excluded.shoulder_index,
			elbow_locked = excluded.elbow_locked,
			capture_fps = excluded.capture_fps,
			frame_count = excluded.frame_count`,
		sess.ID, patientRef, string(lock.HandType), lock.ElbowIndex, lock.WristIndex,
		lock.ShoulderIndex, lock.ElbowLocked, sess.CaptureFPS, sess.Len(), sess.CreatedAt,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM session_frames WHERE session_id = ?`, sess.ID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO session_frames (session_id, frame_index, timestamp_ms, quality, data)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range sess.Frames {
		frame := &sess.Frames[i]
		data, err := json.Marshal(frame)
		if err != nil {
			return fmt.Errorf("marshal frame %d: %w", frame.Index, err)
		}
		if _, err := stmt.Exec(sess.ID, frame.Index, frame.TimestampMs, frame.Quality, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load retrieves a session with all of its frames, ready for replay.
func (r *SessionRepository) Load(id string) (*session.Session, error) {
	var (
		handType   string
		lock       rom.SessionContext
		captureFPS int
		createdAt  time.Time
	)
	err := r.db.QueryRow(
		`SELECT hand_type, elbow_index, wrist_index, shoulder_index, elbow_locked, capture_fps, created_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&handType, &lock.ElbowIndex, &lock.WristIndex, &lock.ShoulderIndex, &lock.ElbowLocked, &captureFPS, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	lock.HandType = rom.Hand(handType)

	rows, err := r.db.Query(
		`SELECT data FROM session_frames WHERE session_id = ? ORDER BY frame_index`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []session.RecordedFrame
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var frame session.RecordedFrame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			return nil, fmt.Errorf("unmarshal frame: %w", err)
		}
		frames = append(frames, frame)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return session.Restore(id, captureFPS, createdAt, lock, frames), nil
}

// Meta retrieves the session row without frames.
func (r *SessionRepository) Meta(id string) (*SessionMeta, error) {
	m := &SessionMeta{}
	var handType string

	err := r.db.QueryRow(
		`SELECT id, patient_ref, hand_type, capture_fps, frame_count, created_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&m.ID, &m.PatientRef, &handType, &m.CaptureFPS, &m.FrameCount, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	m.HandType = rom.Hand(handType)
	return m, nil
}

// List retrieves all session rows, newest first.
func (r *SessionRepository) List() ([]*SessionMeta, error) {
	rows, err := r.db.Query(
		`SELECT id, patient_ref, hand_type, capture_fps, frame_count, created_at
		 FROM sessions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*SessionMeta
	for rows.Next() {
		m := &SessionMeta{}
		var handType string
		if err := rows.Scan(&m.ID, &m.PatientRef, &handType, &m.CaptureFPS, &m.FrameCount, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.HandType = rom.Hand(handType)
		sessions = append(sessions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and, via cascade, its frames and summaries.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
