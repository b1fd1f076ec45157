package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per completed recording, carrying the
		// frozen laterality lock for the session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			patient_ref TEXT NOT NULL DEFAULT '',
			hand_type TEXT NOT NULL CHECK(hand_type IN ('LEFT', 'RIGHT')),
			elbow_index INTEGER NOT NULL,
			wrist_index INTEGER NOT NULL,
			shoulder_index INTEGER NOT NULL,
			elbow_locked INTEGER NOT NULL DEFAULT 0,
			capture_fps INTEGER NOT NULL DEFAULT 15,
			frame_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Session frames table - the ordered recorded frame stream, one JSON
		// document per frame including its own lock metadata
		`CREATE TABLE IF NOT EXISTS session_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			quality REAL NOT NULL DEFAULT 0,
			data TEXT NOT NULL
		)`,

		// Summaries table - cached per-digit session maxima, replaced
		// wholesale whenever recomputed
		`CREATE TABLE IF NOT EXISTS summaries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			digit TEXT NOT NULL,
			data TEXT NOT NULL,
			computed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(session_id, digit)
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_session_frames_session_id ON session_frames(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_session_id ON summaries(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
