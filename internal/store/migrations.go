package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per practice session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL CHECK(mode IN ('chord', 'song')),
			chord_name TEXT NOT NULL DEFAULT '',
			song_title TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			perfect_frames INTEGER NOT NULL DEFAULT 0,
			avg_accuracy REAL NOT NULL DEFAULT 0,
			max_streak INTEGER NOT NULL DEFAULT 0
		)`,

		// Placements table - fretted positions observed during a session
		`CREATE TABLE IF NOT EXISTS placements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			t_ms INTEGER NOT NULL,
			string_idx INTEGER NOT NULL,
			fret INTEGER NOT NULL,
			note TEXT NOT NULL DEFAULT ''
		)`,

		// Chord stats table - aggregate per-chord progress across sessions
		`CREATE TABLE IF NOT EXISTS chord_stats (
			chord_name TEXT PRIMARY KEY,
			attempts INTEGER NOT NULL DEFAULT 0,
			perfect INTEGER NOT NULL DEFAULT 0,
			avg_accuracy REAL NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_placements_session_id ON placements(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
