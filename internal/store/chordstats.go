package store

import (
	"database/sql"
	"errors"
	"time"
)

// ChordStats aggregates progress on a single chord across all sessions.
type ChordStats struct {
	ChordName   string
	Attempts    int
	Perfect     int
	AvgAccuracy float64
	UpdatedAt   time.Time
}

// ChordStatsRepository provides operations for per-chord aggregates.
type ChordStatsRepository struct {
	db *sql.DB
}

// ChordStats returns the chord stats repository for this store.
func (s *Store) ChordStats() *ChordStatsRepository {
	return &ChordStatsRepository{db: s.db}
}

// Record folds a finished attempt into the chord's running aggregate. The
// accuracy average is weighted by attempt count.
func (r *ChordStatsRepository) Record(chordName string, accuracy float64, perfect bool) error {
	perfectInc := 0
	if perfect {
		perfectInc = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO chord_stats (chord_name, attempts, perfect, avg_accuracy, updated_at)
		 VALUES (?, 1, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(chord_name) DO UPDATE SET
		   avg_accuracy = (avg_accuracy * attempts + ?) / (attempts + 1),
		   attempts = attempts + 1,
		   perfect = perfect + ?,
		   updated_at = CURRENT_TIMESTAMP`,
		chordName, perfectInc, accuracy, accuracy, perfectInc,
	)
	return err
}

// Get retrieves the aggregate for one chord.
func (r *ChordStatsRepository) Get(chordName string) (*ChordStats, error) {
	cs := &ChordStats{}
	err := r.db.QueryRow(
		`SELECT chord_name, attempts, perfect, avg_accuracy, updated_at
		 FROM chord_stats WHERE chord_name = ?`,
		chordName,
	).Scan(&cs.ChordName, &cs.Attempts, &cs.Perfect, &cs.AvgAccuracy, &cs.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cs, nil
}

// List retrieves all chord aggregates, weakest accuracy first so the UI can
// suggest what to practice.
func (r *ChordStatsRepository) List() ([]*ChordStats, error) {
	rows, err := r.db.Query(
		`SELECT chord_name, attempts, perfect, avg_accuracy, updated_at
		 FROM chord_stats ORDER BY avg_accuracy ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*ChordStats
	for rows.Next() {
		cs := &ChordStats{}
		if err := rows.Scan(&cs.ChordName, &cs.Attempts, &cs.Perfect, &cs.AvgAccuracy, &cs.UpdatedAt); err != nil {
			return nil, err
		}
		stats = append(stats, cs)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
