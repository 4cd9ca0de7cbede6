package store

import (
	"database/sql"
	"errors"
	"time"
)

// Mode identifies what a practice session was working on.
type Mode string

const (
	// ModeChord is free practice against a single target chord.
	ModeChord Mode = "chord"
	// ModeSong is play-along practice against a song timeline.
	ModeSong Mode = "song"
)

// Session represents one recorded practice session.
type Session struct {
	ID            string
	Mode          Mode
	ChordName     string
	SongTitle     string
	StartedAt     time.Time
	EndedAt       sql.NullTime
	Frames        int
	PerfectFrames int
	AvgAccuracy   float64
	MaxStreak     int
}

// SessionRepository provides CRUD operations for practice sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session into the database.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, mode, chord_name, song_title, started_at, ended_at,
		                       frames, perfect_frames, avg_accuracy, max_streak)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, string(sess.Mode), sess.ChordName, sess.SongTitle, sess.StartedAt,
		sess.EndedAt, sess.Frames, sess.PerfectFrames, sess.AvgAccuracy, sess.MaxStreak,
	)
	return err
}

// Finish records the end of a session and its final stats.
func (r *SessionRepository) Finish(sess *Session) error {
	if !sess.EndedAt.Valid {
		sess.EndedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, perfect_frames = ?,
		                     avg_accuracy = ?, max_streak = ?
		 WHERE id = ?`,
		sess.EndedAt, sess.Frames, sess.PerfectFrames, sess.AvgAccuracy,
		sess.MaxStreak, sess.ID,
	)
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

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	var mode string

	err := r.db.QueryRow(
		`SELECT id, mode, chord_name, song_title, started_at, ended_at,
		        frames, perfect_frames, avg_accuracy, max_streak
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &mode, &sess.ChordName, &sess.SongTitle, &sess.StartedAt,
		&sess.EndedAt, &sess.Frames, &sess.PerfectFrames, &sess.AvgAccuracy,
		&sess.MaxStreak)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sess.Mode = Mode(mode)
	return sess, nil
}

// List retrieves all sessions, most recent first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, mode, chord_name, song_title, started_at, ended_at,
		        frames, perfect_frames, avg_accuracy, max_streak
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		var mode string

		err := rows.Scan(&sess.ID, &mode, &sess.ChordName, &sess.SongTitle,
			&sess.StartedAt, &sess.EndedAt, &sess.Frames, &sess.PerfectFrames,
			&sess.AvgAccuracy, &sess.MaxStreak)
		if err != nil {
			return nil, err
		}

		sess.Mode = Mode(mode)
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and its placements by session ID.
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
